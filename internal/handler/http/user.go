package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fieldforce/punchkit-go/internal/domain/menu"
	"github.com/fieldforce/punchkit-go/internal/handler/http/response"
	"github.com/fieldforce/punchkit-go/internal/pkg/validator"
	"github.com/fieldforce/punchkit-go/internal/stub"
)

type UserHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	UpdateMenus(w http.ResponseWriter, r *http.Request)
}

type userHandlerImpl struct {
	store *stub.Store
}

func NewUserHandler(store *stub.Store) UserHandler {
	return &userHandlerImpl{store: store}
}

// List implements UserHandler.
func (h *userHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.Users(r.Context())
	if err != nil {
		slog.Error("Failed to list users", "error", err)
		response.HandleError(w, err)
		return
	}
	response.Success(w, map[string]interface{}{"users": users})
}

// UpdateMenus implements UserHandler. Unknown menu IDs are rejected so
// a stale admin client cannot grant access to menus that no longer
// exist.
func (h *userHandlerImpl) UpdateMenus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		MenuIDs []string `json:"menu_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	known := menu.AllIDs(menu.Default())
	var errs validator.ValidationErrors
	for _, menuID := range req.MenuIDs {
		if !validator.IsInSlice(menuID, known) {
			errs = append(errs, validator.ValidationError{Field: "menu_ids", Message: "unknown menu id: " + menuID})
		}
	}
	if !errs.IsEmpty() {
		response.HandleError(w, errs)
		return
	}

	if err := h.store.UpdateAllowedMenuIDs(r.Context(), id, req.MenuIDs); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Menu access updated", nil)
}
