package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldforce/punchkit-go/internal/domain/punch"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, New(srv.URL, "test-token", 2*time.Second)
}

func writeEnvelope(w http.ResponseWriter, status int, payload map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func TestFirms_NormalizesLooseNameFields(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/firms", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		writeEnvelope(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"firms": []map[string]interface{}{
					{"id": "frm-1", "firm_name": "Marigold Traders", "latitude": 11.618044, "longitude": 76.081180},
					{"id": "frm-2", "customerName": "Hillside Stores"},
					{"id": "frm-3", "name": "Plain & Sons"},
				},
			},
		})
	})

	firms, err := c.Firms(context.Background())
	require.NoError(t, err)
	require.Len(t, firms, 3)
	assert.Equal(t, "Marigold Traders", firms[0].DisplayName)
	assert.True(t, firms[0].HasGeofence())
	assert.Equal(t, "Hillside Stores", firms[1].DisplayName)
	assert.False(t, firms[1].HasGeofence())
	assert.Equal(t, "Plain & Sons", firms[2].DisplayName)
}

func TestSubmitPunchIn_RoundTrip(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/punch-in", r.URL.Path)

		var payload punch.PunchInPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "frm-1", payload.CustomerCode)
		assert.Equal(t, "0.042", payload.Distance)

		writeEnvelope(w, http.StatusCreated, map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"id":        "ses-1",
				"firm_id":   payload.CustomerCode,
				"firm_name": payload.CustomerName,
				"photo_url": "http://files.local/visit-001.jpg",
				"status":    "PENDING",
			},
		})
	})

	sess, err := c.SubmitPunchIn(context.Background(), punch.PunchInPayload{
		CustomerCode: "frm-1", CustomerName: "Marigold Traders",
		Image: "visit-001.jpg", Latitude: 11.618044, Longitude: 76.081180, Distance: "0.042",
	})
	require.NoError(t, err)
	assert.Equal(t, "ses-1", sess.ID)
	assert.Equal(t, punch.StatusPending, sess.Status)
	assert.True(t, sess.Active())
}

func TestActiveStatus(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"is_active": true,
				"active_punch_in": map[string]interface{}{
					"id": "ses-4", "firm_id": "frm-1", "status": "PENDING",
				},
			},
		})
	})

	status, err := c.ActiveStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, status.IsActive)
	require.NotNil(t, status.Active)
	assert.Equal(t, "ses-4", status.Active.ID)
}

func TestErrorEnvelopeBecomesAPIError(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusConflict, map[string]interface{}{
			"success": false,
			"error": map[string]interface{}{
				"code":    "CONFLICT",
				"message": "an attendance session is already active",
			},
		})
	})

	_, err := c.SubmitPunchIn(context.Background(), punch.PunchInPayload{})
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "CONFLICT", apiErr.Code)
}

func TestGarbageResponseBecomesBadResponse(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html>gateway error</html>"))
	})

	_, err := c.ActiveStatus(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "BAD_RESPONSE", apiErr.Code)
}

func TestUpdateAllowedMenuIDs(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/api/v1/users/usr-2/menus", r.URL.Path)
		var body struct {
			MenuIDs []string `json:"menu_ids"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"mnu-field-punchin", "mnu-dashboard"}, body.MenuIDs)
		writeEnvelope(w, http.StatusOK, map[string]interface{}{"success": true})
	})

	err := c.UpdateAllowedMenuIDs(context.Background(), "usr-2", []string{"mnu-field-punchin", "mnu-dashboard"})
	require.NoError(t, err)
}
