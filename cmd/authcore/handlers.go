package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/middleware"
)

const maxBodyBytes = 1 << 16

type handlers struct {
	engine *authcore.Engine
	logger *slog.Logger
}

type credentialsBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	var body credentialsBody
	if !decode(w, r, &body) {
		return
	}

	rec, err := h.engine.Register(r.Context(), body.Email, body.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, map[string]any{
		"id":         rec.ID,
		"email":      rec.Email,
		"created_at": rec.CreatedAt,
	})
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var body credentialsBody
	if !decode(w, r, &body) {
		return
	}

	pair, err := h.engine.Login(r.Context(), authcore.LoginRequest{
		Email:    body.Email,
		Password: body.Password,
	})
	if err != nil {
		if errors.Is(err, authcore.ErrRateLimited) {
			wait := h.engine.RetryAfter(r.Context(), authcore.ClientIPFromContext(r.Context()))
			w.Header().Set("Retry-After", strconv.Itoa(int((wait+time.Second-1)/time.Second)))
		}
		h.fail(w, r, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, pair)
}

func (h *handlers) refresh(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.BearerToken(r.Header.Get("Authorization"))
	if !ok {
		middleware.WriteError(w, authcore.ErrTokenInvalid)
		return
	}

	pair, err := h.engine.Refresh(r.Context(), token)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, pair)
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.BearerToken(r.Header.Get("Authorization"))
	if !ok {
		middleware.WriteError(w, authcore.ErrTokenInvalid)
		return
	}

	if err := h.engine.Logout(r.Context(), token); err != nil {
		h.fail(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) protected(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, authcore.ErrTokenInvalid)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"user_id":    p.UserID,
		"email":      p.Email,
		"expires_at": p.ExpiresAt,
		"last_login": lastLogin(p.LastLoginAt),
	})
}

// lastLogin renders a zero time as null.
func lastLogin(at time.Time) *time.Time {
	if at.IsZero() {
		return nil
	}
	return &at
}

func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	if middleware.StatusFor(err) == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			"path", r.URL.Path,
			"code", authcore.ErrorCode(err),
			"error", err,
		)
	}
	middleware.WriteError(w, err)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		middleware.WriteJSON(w, http.StatusBadRequest, middleware.ErrorBody{
			Error: "invalid request body",
			Code:  "AUTH_BAD_REQUEST",
		})
		return false
	}
	return true
}

func remoteHost(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
