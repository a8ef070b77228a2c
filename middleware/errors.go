package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrEthical07/authcore"
)

// ErrorBody is the JSON shape of error responses.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// StatusFor maps an authcore error to an HTTP status.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, authcore.ErrInvalidCredentials), errors.Is(err, authcore.ErrTokenInvalid):
		return http.StatusUnauthorized
	case errors.Is(err, authcore.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, authcore.ErrAccountLocked):
		return http.StatusForbidden
	case errors.Is(err, authcore.ErrPolicyViolation),
		errors.Is(err, authcore.ErrInvalidEmail),
		errors.Is(err, authcore.ErrAccountExists):
		return http.StatusBadRequest
	case errors.Is(err, authcore.ErrUserNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes err as JSON. Internal failures are reported without
// detail.
func WriteError(w http.ResponseWriter, err error) {
	status := StatusFor(err)

	body := ErrorBody{Error: "internal error", Code: "AUTH_INTERNAL"}
	if status != http.StatusInternalServerError {
		body.Error = publicMessage(err)
		body.Code = authcore.ErrorCode(err)
		if body.Code == "" {
			body.Code = fallbackCode(err)
		}
	}

	WriteJSON(w, status, body)
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func publicMessage(err error) string {
	for _, sentinel := range []error{
		authcore.ErrInvalidCredentials,
		authcore.ErrTokenInvalid,
		authcore.ErrRateLimited,
		authcore.ErrAccountLocked,
		authcore.ErrPolicyViolation,
		authcore.ErrInvalidEmail,
		authcore.ErrAccountExists,
		authcore.ErrUserNotFound,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}

func fallbackCode(err error) string {
	switch {
	case errors.Is(err, authcore.ErrTokenInvalid):
		return authcore.CodeTokenInvalid
	case errors.Is(err, authcore.ErrInvalidCredentials):
		return authcore.CodeInvalidCredentials
	default:
		return "AUTH_ERROR"
	}
}
