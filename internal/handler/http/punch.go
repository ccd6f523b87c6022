package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fieldforce/punchkit-go/internal/domain/punch"
	"github.com/fieldforce/punchkit-go/internal/handler/http/response"
	"github.com/fieldforce/punchkit-go/internal/pkg/validator"
	"github.com/fieldforce/punchkit-go/internal/stub"
)

type PunchHandler interface {
	PunchIn(w http.ResponseWriter, r *http.Request)
	PunchOut(w http.ResponseWriter, r *http.Request)
	ActiveStatus(w http.ResponseWriter, r *http.Request)
}

type punchHandlerImpl struct {
	store *stub.Store
}

func NewPunchHandler(store *stub.Store) PunchHandler {
	return &punchHandlerImpl{store: store}
}

// PunchIn implements PunchHandler.
func (h *punchHandlerImpl) PunchIn(w http.ResponseWriter, r *http.Request) {
	var payload punch.PunchInPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	var errs validator.ValidationErrors
	if payload.CustomerCode == "" {
		errs = append(errs, validator.ValidationError{Field: "customer_code", Message: "customer_code is required"})
	}
	if payload.Image == "" {
		errs = append(errs, validator.ValidationError{Field: "image", Message: "image is required"})
	}
	if !validator.IsValidLatitude(payload.Latitude) {
		errs = append(errs, validator.ValidationError{Field: "latitude", Message: "latitude must be between -90 and 90"})
	}
	if !validator.IsValidLongitude(payload.Longitude) {
		errs = append(errs, validator.ValidationError{Field: "longitude", Message: "longitude must be between -180 and 180"})
	}
	if !errs.IsEmpty() {
		response.HandleError(w, errs)
		return
	}

	sess, err := h.store.CreateSession(r.Context(), payload)
	if err != nil {
		slog.Error("Failed to create attendance session", "error", err)
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Punched in", sess)
}

// PunchOut implements PunchHandler.
func (h *punchHandlerImpl) PunchOut(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.EndSession(r.Context(), id); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Punched out", nil)
}

// ActiveStatus implements PunchHandler.
func (h *punchHandlerImpl) ActiveStatus(w http.ResponseWriter, r *http.Request) {
	active, err := h.store.ActiveSession(r.Context())
	if err != nil {
		slog.Error("Failed to load active session", "error", err)
		response.HandleError(w, err)
		return
	}
	response.Success(w, map[string]interface{}{
		"is_active":       active != nil,
		"active_punch_in": active,
	})
}
