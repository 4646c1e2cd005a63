package entity

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Role discriminates which profile an identity owns.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleBusiness Role = "business"
)

// RoleFromFlag maps the persisted is_customer flag onto a Role.
func RoleFromFlag(isCustomer bool) Role {
	if isCustomer {
		return RoleCustomer
	}
	return RoleBusiness
}

// Identity is a login principal in the `identities` table.
type Identity struct {
	ID                int64      `db:"id"`
	Email             string     `db:"email"`
	PasswordHash      string     `db:"password_hash"`
	PasswordAlgo      string     `db:"password_algo"`
	PasswordUpdatedAt *time.Time `db:"password_updated_at"`
	IsStaff           bool       `db:"is_staff"`
	IsSuperuser       bool       `db:"is_superuser"`
	IsCustomer        bool       `db:"is_customer"`
	IsActive          bool       `db:"is_active"`
	CreatedAt         time.Time  `db:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at"`
	DeactivatedAt     *time.Time `db:"deactivated_at"`
}

// Role returns the role encoded by IsCustomer.
func (i *Identity) Role() Role { return RoleFromFlag(i.IsCustomer) }

// ContactPreference is how a customer prefers to be reached.
type ContactPreference string

const (
	ContactEmail ContactPreference = "email"
	ContactPhone ContactPreference = "phone"
)

// Profile is either a *CustomerProfile or a *BusinessProfile.
type Profile interface {
	Role() Role
	OwnerID() int64
	SetOwnerID(id int64)
	profile()
}

// CustomerProfile is a row in `customers`.
type CustomerProfile struct {
	IdentityID        int64             `db:"identity_id" json:"-"`
	FirstName         string            `db:"first_name" json:"first_name"`
	LastName          string            `db:"last_name" json:"last_name"`
	PhoneNum          string            `db:"phone_num" json:"phone_num"`
	ContactPreference ContactPreference `db:"contact_preference" json:"contact_preference"`
	EmailVerification bool              `db:"email_verification" json:"email_verification"`
	CreatedAt         time.Time         `db:"created_at" json:"created_date"`
}

func (*CustomerProfile) Role() Role { return RoleCustomer }
func (p *CustomerProfile) OwnerID() int64 { return p.IdentityID }
func (p *CustomerProfile) SetOwnerID(id int64) { p.IdentityID = id }
func (*CustomerProfile) profile() {}

// BusinessProfile is a row in `businesses`.
type BusinessProfile struct {
	IdentityID int64  `db:"identity_id" json:"-"`
	Name       string `db:"name" json:"name"`
	PhoneNum   string `db:"phone_num" json:"phone_num"`
	Address    string `db:"address" json:"address"`
	City       string `db:"city" json:"city"`
	PostalCode string `db:"postal_code" json:"postal_code"`
	Province   string `db:"province" json:"province"`
	Capacity   int    `db:"capacity" json:"capacity"`
}

func (*BusinessProfile) Role() Role { return RoleBusiness }
func (p *BusinessProfile) OwnerID() int64 { return p.IdentityID }
func (p *BusinessProfile) SetOwnerID(id int64) { p.IdentityID = id }
func (*BusinessProfile) profile() {}

// Account pairs an identity with the profile it owns.
type Account struct {
	Identity Identity
	Profile  Profile
}

// Customer returns the customer profile, or nil for a business account.
func (a *Account) Customer() *CustomerProfile {
	c, _ := a.Profile.(*CustomerProfile)
	return c
}

// Business returns the business profile, or nil for a customer account.
func (a *Account) Business() *BusinessProfile {
	b, _ := a.Profile.(*BusinessProfile)
	return b
}

// PhoneNumber accepts both JSON strings and JSON numbers, since clients send
// phone numbers either way.
type PhoneNumber string

func (p *PhoneNumber) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*p = PhoneNumber(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("phone number must be a string or number")
	}
	if _, err := strconv.ParseUint(n.String(), 10, 64); err != nil {
		return fmt.Errorf("phone number must be a whole number")
	}
	*p = PhoneNumber(n.String())
	return nil
}
