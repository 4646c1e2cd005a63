package account

import "github.com/MyraLuetke/CISC498-Backend/internal/account/entity"

// ProfilePatch is a partial profile update. Nil fields are left unchanged.
type ProfilePatch interface {
	Role() entity.Role
	apply(p entity.Profile)
}

type CustomerPatch struct {
	FirstName         *string             `json:"first_name"`
	LastName          *string             `json:"last_name"`
	PhoneNum          *entity.PhoneNumber `json:"phone_num"`
	ContactPreference *string             `json:"contact_preference"`
}

func (CustomerPatch) Role() entity.Role { return entity.RoleCustomer }

func (c CustomerPatch) apply(p entity.Profile) {
	cp, ok := p.(*entity.CustomerProfile)
	if !ok {
		return
	}
	if c.FirstName != nil {
		cp.FirstName = *c.FirstName
	}
	if c.LastName != nil {
		cp.LastName = *c.LastName
	}
	if c.PhoneNum != nil {
		cp.PhoneNum = string(*c.PhoneNum)
	}
	if c.ContactPreference != nil {
		cp.ContactPreference = entity.ContactPreference(*c.ContactPreference)
	}
}

type BusinessPatch struct {
	Name       *string             `json:"name"`
	PhoneNum   *entity.PhoneNumber `json:"phone_num"`
	Address    *string             `json:"address"`
	City       *string             `json:"city"`
	PostalCode *string             `json:"postal_code"`
	Province   *string             `json:"province"`
	Capacity   *int                `json:"capacity"`
}

func (BusinessPatch) Role() entity.Role { return entity.RoleBusiness }

func (b BusinessPatch) apply(p entity.Profile) {
	bp, ok := p.(*entity.BusinessProfile)
	if !ok {
		return
	}
	if b.Name != nil {
		bp.Name = *b.Name
	}
	if b.PhoneNum != nil {
		bp.PhoneNum = string(*b.PhoneNum)
	}
	if b.Address != nil {
		bp.Address = *b.Address
	}
	if b.City != nil {
		bp.City = *b.City
	}
	if b.PostalCode != nil {
		bp.PostalCode = *b.PostalCode
	}
	if b.Province != nil {
		bp.Province = *b.Province
	}
	if b.Capacity != nil {
		bp.Capacity = *b.Capacity
	}
}
