package token

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/MyraLuetke/CISC498-Backend/internal/apperr"
	"github.com/MyraLuetke/CISC498-Backend/internal/request"
	"github.com/MyraLuetke/CISC498-Backend/internal/response"
)

// Handler serves the token endpoints.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Obtain handles POST /api/token.
func (h *Handler) Obtain(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := request.DecodeJSON(w, r, &req, "email", "password"); err != nil {
		h.unauthorized(w, r, err)
		return
	}
	pair, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.unauthorized(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, pair)
}

// Refresh handles POST /api/token/refresh.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := request.DecodeJSON(w, r, &req, "refresh"); err != nil {
		h.unauthorized(w, r, err)
		return
	}
	pair, err := h.svc.Refresh(r.Context(), req.Refresh)
	if err != nil {
		h.unauthorized(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, pair)
}

// unauthorized reports any client-side failure on the token endpoints as
// 401; server errors keep their 500.
func (h *Handler) unauthorized(w http.ResponseWriter, r *http.Request, err error) {
	if apperr.IsValidation(err) {
		err = apperr.ErrUnauthorized
	}
	h.logger.Debugw("token request rejected", "path", r.URL.Path, "err", err)
	response.Error(w, r, h.logger, err)
}
