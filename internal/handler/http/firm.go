package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/fieldforce/punchkit-go/internal/handler/http/response"
	"github.com/fieldforce/punchkit-go/internal/pkg/validator"
	"github.com/fieldforce/punchkit-go/internal/stub"
)

type FirmHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	SetLocation(w http.ResponseWriter, r *http.Request)
}

type firmHandlerImpl struct {
	store *stub.Store
}

func NewFirmHandler(store *stub.Store) FirmHandler {
	return &firmHandlerImpl{store: store}
}

// List implements FirmHandler.
func (h *firmHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	firms, err := h.store.Firms(r.Context())
	if err != nil {
		slog.Error("Failed to list firms", "error", err)
		response.HandleError(w, err)
		return
	}
	response.Success(w, map[string]interface{}{"firms": firms})
}

// SetLocation implements FirmHandler. Field users tag a shop's
// coordinates from the spot, which becomes the firm's geofence center.
func (h *firmHandlerImpl) SetLocation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FirmName  string  `json:"firm_name"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	var errs validator.ValidationErrors
	if req.FirmName == "" {
		errs = append(errs, validator.ValidationError{Field: "firm_name", Message: "firm_name is required"})
	}
	if !validator.IsValidLatitude(req.Latitude) {
		errs = append(errs, validator.ValidationError{Field: "latitude", Message: "latitude must be between -90 and 90"})
	}
	if !validator.IsValidLongitude(req.Longitude) {
		errs = append(errs, validator.ValidationError{Field: "longitude", Message: "longitude must be between -180 and 180"})
	}
	if !errs.IsEmpty() {
		response.HandleError(w, errs)
		return
	}

	if err := h.store.SetFirmLocation(r.Context(), req.FirmName, req.Latitude, req.Longitude); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Firm location updated", nil)
}
