package response_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MyraLuetke/CISC498-Backend/internal/apperr"
	"github.com/MyraLuetke/CISC498-Backend/internal/response"
)

func TestErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{apperr.Invalid("email", apperr.MsgEmail), http.StatusBadRequest, response.CodeInvalidInput},
		{fmt.Errorf("register: %w", apperr.ErrConflict), http.StatusForbidden, response.CodeConflict},
		{apperr.ErrAuthentication, http.StatusBadRequest, response.CodeBadCredential},
		{apperr.ErrNotFound, http.StatusNotFound, response.CodeNotFound},
		{apperr.ErrForbidden, http.StatusForbidden, response.CodeForbidden},
		{apperr.ErrUnauthorized, http.StatusUnauthorized, response.CodeUnauthorized},
		{errors.New("db down"), http.StatusInternalServerError, response.CodeInternalError},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/x", nil)
		response.Error(w, r, zap.NewNop().Sugar(), tc.err)

		require.Equal(t, tc.status, w.Code, tc.err.Error())
		var body response.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Equal(t, tc.code, body.Code)
	}
}

func TestValidationBodyCarriesFields(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/x", nil)
	response.Error(w, r, zap.NewNop().Sugar(), apperr.Required("user.email", "user.password"))

	var body response.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, []string{apperr.MsgRequired}, body.Fields["user.email"])
	require.Equal(t, []string{apperr.MsgRequired}, body.Fields["user.password"])
}
