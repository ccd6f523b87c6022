package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/jwtauth/v5"

	"github.com/fieldforce/punchkit-go/internal/domain/user"
	"github.com/fieldforce/punchkit-go/internal/handler/http/response"
	"github.com/fieldforce/punchkit-go/internal/pkg/jwt"
	"github.com/fieldforce/punchkit-go/internal/stub"
)

type AuthHandler interface {
	DevToken(w http.ResponseWriter, r *http.Request)
	Logout(w http.ResponseWriter, r *http.Request)
}

type authHandlerImpl struct {
	store      *stub.Store
	jwtService jwt.Service
}

func NewAuthHandler(store *stub.Store, jwtService jwt.Service) AuthHandler {
	return &authHandlerImpl{store: store, jwtService: jwtService}
}

// DevToken implements AuthHandler. The stub has no real login; it hands
// out an access token for any seeded user, defaulting to the first one.
func (h *authHandlerImpl) DevToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
	}
	if r.Body != nil {
		// An empty body means "any user".
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	users, err := h.store.Users(r.Context())
	if err != nil {
		slog.Error("Failed to load users", "error", err)
		response.HandleError(w, err)
		return
	}
	if len(users) == 0 {
		response.HandleError(w, stub.ErrUserNotFound)
		return
	}

	var selected *user.User
	if req.UserID == "" {
		selected = &users[0]
	} else {
		for i := range users {
			if users[i].ID == req.UserID {
				selected = &users[i]
				break
			}
		}
	}
	if selected == nil {
		response.HandleError(w, stub.ErrUserNotFound)
		return
	}

	token, expiresAt, err := h.jwtService.GenerateDevToken(selected.ID, selected.Role)
	if err != nil {
		slog.Error("Failed to generate dev token", "error", err)
		response.HandleError(w, err)
		return
	}

	response.Success(w, map[string]interface{}{
		"token":      token,
		"expires_at": expiresAt,
		"user":       selected,
	})
}

// Logout implements AuthHandler. The presented token is revoked; later
// requests carrying it are rejected by the auth middleware.
func (h *authHandlerImpl) Logout(w http.ResponseWriter, r *http.Request) {
	token := jwtauth.TokenFromHeader(r)
	if token == "" {
		response.Unauthorized(w, "no token presented")
		return
	}
	h.jwtService.RevokeToken(token)
	response.SuccessWithMessage(w, "Logged out", nil)
}
