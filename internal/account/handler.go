package account

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/MyraLuetke/CISC498-Backend/internal/account/entity"
	"github.com/MyraLuetke/CISC498-Backend/internal/apperr"
	"github.com/MyraLuetke/CISC498-Backend/internal/request"
	"github.com/MyraLuetke/CISC498-Backend/internal/response"
)

// Handler exposes HTTP endpoints for account registration and management.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Required fields per operation, reported in full on a malformed body.
var (
	customerRegisterFields = []string{"user.email", "user.password", "first_name", "last_name", "phone_num"}
	businessRegisterFields = []string{"user.email", "user.password", "name", "phone_num", "address", "city", "postal_code", "province", "capacity"}
	deactivateFields       = []string{"password"}
	changePasswordFields   = []string{"old_password", "new_password"}
	changeEmailFields      = []string{"email"}
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CustomerRegisterRequest is the body of POST /customer/create_account.
type CustomerRegisterRequest struct {
	User              credentials        `json:"user"`
	FirstName         string             `json:"first_name"`
	LastName          string             `json:"last_name"`
	PhoneNum          entity.PhoneNumber `json:"phone_num"`
	ContactPreference string             `json:"contact_preference"`
}

// BusinessRegisterRequest is the body of POST /business/create_account.
type BusinessRegisterRequest struct {
	User       credentials        `json:"user"`
	Name       string             `json:"name"`
	PhoneNum   entity.PhoneNumber `json:"phone_num"`
	Address    string             `json:"address"`
	City       string             `json:"city"`
	PostalCode string             `json:"postal_code"`
	Province   string             `json:"province"`
	Capacity   int                `json:"capacity"`
}

type identityView struct {
	ID         int64  `json:"id"`
	Email      string `json:"email"`
	IsCustomer bool   `json:"is_customer"`
	IsActive   bool   `json:"is_active"`
}

type customerView struct {
	User identityView `json:"user"`
	*entity.CustomerProfile
}

type businessView struct {
	User identityView `json:"user"`
	*entity.BusinessProfile
}

func viewOfIdentity(i *entity.Identity) identityView {
	return identityView{ID: i.ID, Email: i.Email, IsCustomer: i.IsCustomer, IsActive: i.IsActive}
}

func viewOf(a *entity.Account) any {
	if c := a.Customer(); c != nil {
		return customerView{User: viewOfIdentity(&a.Identity), CustomerProfile: c}
	}
	return businessView{User: viewOfIdentity(&a.Identity), BusinessProfile: a.Business()}
}

func (h *Handler) RegisterCustomer(w http.ResponseWriter, r *http.Request) {
	var req CustomerRegisterRequest
	if err := request.DecodeJSON(w, r, &req, customerRegisterFields...); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	acct, err := h.svc.Register(r.Context(), Registration{
		Email:    req.User.Email,
		Password: req.User.Password,
		Profile: &entity.CustomerProfile{
			FirstName:         req.FirstName,
			LastName:          req.LastName,
			PhoneNum:          string(req.PhoneNum),
			ContactPreference: entity.ContactPreference(req.ContactPreference),
		},
	})
	if err != nil {
		h.logger.Debugw("customer registration failed", "err", err)
		response.Error(w, r, h.logger, err)
		return
	}
	response.JSON(w, http.StatusCreated, viewOf(acct))
}

func (h *Handler) RegisterBusiness(w http.ResponseWriter, r *http.Request) {
	var req BusinessRegisterRequest
	if err := request.DecodeJSON(w, r, &req, businessRegisterFields...); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	acct, err := h.svc.Register(r.Context(), Registration{
		Email:    req.User.Email,
		Password: req.User.Password,
		Profile: &entity.BusinessProfile{
			Name:       req.Name,
			PhoneNum:   string(req.PhoneNum),
			Address:    req.Address,
			City:       req.City,
			PostalCode: req.PostalCode,
			Province:   req.Province,
			Capacity:   req.Capacity,
		},
	})
	if err != nil {
		h.logger.Debugw("business registration failed", "err", err)
		response.Error(w, r, h.logger, err)
		return
	}
	response.JSON(w, http.StatusCreated, viewOf(acct))
}

// Get returns the handler for GET /{role}/{identity_id}.
func (h *Handler) Get(role entity.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := identityParam(r)
		if !ok {
			response.Error(w, r, h.logger, apperr.ErrNotFound)
			return
		}
		acct, err := h.svc.Get(r.Context(), id, role)
		if err != nil {
			response.Error(w, r, h.logger, err)
			return
		}
		response.JSON(w, http.StatusOK, viewOf(acct))
	}
}

// Update returns the handler for PUT /{role}/{identity_id}.
func (h *Handler) Update(role entity.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := identityParam(r)
		if !ok {
			response.Error(w, r, h.logger, apperr.ErrNotFound)
			return
		}
		var (
			patch ProfilePatch
			err   error
		)
		if role == entity.RoleCustomer {
			var p CustomerPatch
			err = request.DecodeJSON(w, r, &p)
			patch = p
		} else {
			var p BusinessPatch
			err = request.DecodeJSON(w, r, &p)
			patch = p
		}
		if err != nil {
			response.Error(w, r, h.logger, err)
			return
		}
		acct, err := h.svc.Update(r.Context(), id, patch)
		if err != nil {
			response.Error(w, r, h.logger, err)
			return
		}
		response.JSON(w, http.StatusOK, viewOf(acct))
	}
}

// Deactivate returns the handler for DELETE /{role}/{identity_id}.
func (h *Handler) Deactivate(role entity.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := identityParam(r)
		if !ok {
			response.Error(w, r, h.logger, apperr.ErrNotFound)
			return
		}
		var req struct {
			Password string `json:"password"`
		}
		if err := request.DecodeJSON(w, r, &req, deactivateFields...); err != nil {
			response.Error(w, r, h.logger, err)
			return
		}
		if err := h.svc.Deactivate(r.Context(), id, role, req.Password); err != nil {
			response.Error(w, r, h.logger, err)
			return
		}
		response.JSON(w, http.StatusOK, map[string]any{"id": id, "is_active": false})
	}
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := identityParam(r)
	if !ok {
		response.Error(w, r, h.logger, apperr.ErrNotFound)
		return
	}
	var req struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := request.DecodeJSON(w, r, &req, changePasswordFields...); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	if err := h.svc.ChangePassword(r.Context(), id, req.OldPassword, req.NewPassword); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"detail": "Password updated."})
}

// ChangeEmail accepts exactly one key, "email". Any other key, a password
// included, is rejected rather than ignored.
func (h *Handler) ChangeEmail(w http.ResponseWriter, r *http.Request) {
	id, ok := identityParam(r)
	if !ok {
		response.Error(w, r, h.logger, apperr.ErrNotFound)
		return
	}
	email, err := decodeEmailChange(w, r)
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	ident, err := h.svc.ChangeEmail(r.Context(), id, email)
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, viewOfIdentity(ident))
}

func decodeEmailChange(w http.ResponseWriter, r *http.Request) (string, error) {
	fields, err := request.DecodeFields(w, r, changeEmailFields...)
	if err != nil {
		return "", err
	}
	v := &apperr.Validator{}
	for key := range fields {
		if key != "email" {
			v.Add(key, apperr.MsgUnknown)
		}
	}
	raw, ok := fields["email"]
	if !ok {
		v.Add("email", apperr.MsgRequired)
	}
	var email string
	if ok && json.Unmarshal(raw, &email) != nil {
		v.Add("email", apperr.MsgEmail)
	}
	if err := v.Err(); err != nil {
		return "", err
	}
	return email, nil
}

func identityParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "identity_id"), 10, 64)
	return id, err == nil && id > 0
}
