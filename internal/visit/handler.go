package visit

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	acctentity "github.com/MyraLuetke/CISC498-Backend/internal/account/entity"
	"github.com/MyraLuetke/CISC498-Backend/internal/apperr"
	"github.com/MyraLuetke/CISC498-Backend/internal/request"
	"github.com/MyraLuetke/CISC498-Backend/internal/response"
	"github.com/MyraLuetke/CISC498-Backend/internal/token"
)

// Handler exposes the visit endpoints. Callers are identified by the access
// token claims; role checks happen in router middleware.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

var (
	customerVisitFields = []string{"business", "num_visitors"}
	businessVisitFields = []string{"customer", "num_visitors"}
	walkInFields        = []string{"first_name", "last_name", "phone_num", "num_visitors"}
)

// CustomerVisitRequest is the body of POST /visit/create_visit.
type CustomerVisitRequest struct {
	Business    int64  `json:"business"`
	DateTime    string `json:"date_time"`
	NumVisitors int    `json:"num_visitors"`
}

// BusinessVisitRequest is the body of POST /visit/business_create_visit.
// The customer is named by id or by email.
type BusinessVisitRequest struct {
	Customer      int64  `json:"customer"`
	CustomerEmail string `json:"customer_email"`
	DateTime      string `json:"date_time"`
	NumVisitors   int    `json:"num_visitors"`
}

// WalkInRequest is the body of POST /visit/business_create_unregistered_visit.
type WalkInRequest struct {
	FirstName   string                 `json:"first_name"`
	LastName    string                 `json:"last_name"`
	PhoneNum    acctentity.PhoneNumber `json:"phone_num"`
	DateTime    string                 `json:"date_time"`
	NumVisitors int                    `json:"num_visitors"`
}

func (h *Handler) CreateVisit(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req CustomerVisitRequest
	if err := request.DecodeJSON(w, r, &req, customerVisitFields...); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	at, err := parseDateTime(req.DateTime)
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	v, err := h.svc.RecordVisit(r.Context(), VisitInput{
		CustomerID:  claims.IdentityID,
		BusinessID:  req.Business,
		DateTime:    at,
		NumVisitors: req.NumVisitors,
	})
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	response.JSON(w, http.StatusCreated, v)
}

func (h *Handler) BusinessCreateVisit(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req BusinessVisitRequest
	if err := request.DecodeJSON(w, r, &req, businessVisitFields...); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	at, err := parseDateTime(req.DateTime)
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	v, err := h.svc.RecordVisit(r.Context(), VisitInput{
		CustomerID:    req.Customer,
		CustomerEmail: req.CustomerEmail,
		BusinessID:    claims.IdentityID,
		DateTime:      at,
		NumVisitors:   req.NumVisitors,
	})
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	response.JSON(w, http.StatusCreated, v)
}

func (h *Handler) BusinessCreateUnregisteredVisit(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req WalkInRequest
	if err := request.DecodeJSON(w, r, &req, walkInFields...); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	at, err := parseDateTime(req.DateTime)
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	v, err := h.svc.RecordUnregisteredVisit(r.Context(), WalkInInput{
		BusinessID:  claims.IdentityID,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNum:    string(req.PhoneNum),
		DateTime:    at,
		NumVisitors: req.NumVisitors,
	})
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	response.JSON(w, http.StatusCreated, v)
}

// List handles GET /visit.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	visits, err := h.svc.ListVisits(r.Context())
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, visits)
}

// ListUnregistered handles GET /visit/unregistered for the calling business.
func (h *Handler) ListUnregistered(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.caller(w, r)
	if !ok {
		return
	}
	visits, err := h.svc.ListUnregisteredVisits(r.Context(), claims.IdentityID)
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, visits)
}

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (*token.Claims, bool) {
	claims, ok := token.ClaimsFrom(r.Context())
	if !ok {
		response.Error(w, r, h.logger, apperr.ErrUnauthorized)
		return nil, false
	}
	return claims, true
}

// parseDateTime reads an optional RFC 3339 timestamp. Empty means now.
func parseDateTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, apperr.Invalid("date_time", apperr.MsgDateTime)
	}
	return t, nil
}
