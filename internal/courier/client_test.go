package courier_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Md-Rabbi-95/Khalab/internal/config"
	"github.com/Md-Rabbi-95/Khalab/internal/courier"
)

func newTestClient(t *testing.T, handler http.Handler) *courier.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return courier.NewClient(config.CourierConfig{
		Mode:           "sandbox",
		SandboxBaseURL: srv.URL,
		SandboxToken:   "token-123",
	})
}

func areasHandler(t *testing.T, areas []courier.Area) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token-123", r.Header.Get("API-ACCESS-TOKEN"))
		require.Equal(t, "/areas", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{"areas": areas})
	})
}

func TestClientNormalizesBearerToken(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("API-ACCESS-TOKEN")
		_ = json.NewEncoder(w).Encode(map[string]any{"areas": []courier.Area{}})
	}))
	t.Cleanup(srv.Close)

	client := courier.NewClient(config.CourierConfig{
		Mode:           "sandbox",
		SandboxBaseURL: srv.URL,
		SandboxToken:   "Bearer already-prefixed",
	})
	_, _ = client.Areas(context.Background())
	assert.Equal(t, "Bearer already-prefixed", got, "an existing prefix must not be doubled")
}

func TestFindArea(t *testing.T) {
	areas := []courier.Area{
		{ID: 1, Name: "Uttara", DistrictName: "Dhaka"},
		{ID: 2, Name: "Gulshan 1", DistrictName: "Dhaka"},
		{ID: 3, Name: "Zindabazar", DistrictName: "Sylhet"},
	}

	tests := []struct {
		name     string
		area     string
		district string
		wantID   int64
	}{
		{"exact_match", "gulshan 1", "Dhaka", 2},
		{"partial_match", "Gulshan", "Dhaka", 2},
		{"district_fallback", "Nowhere", "Sylhet", 3},
		{"ultimate_fallback", "Nowhere", "Barisal", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, areasHandler(t, areas))
			area, err := client.FindArea(context.Background(), tt.area, tt.district)
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, area.ID)
		})
	}

	t.Run("no_areas_at_all", func(t *testing.T) {
		client := newTestClient(t, areasHandler(t, []courier.Area{}))
		_, err := client.FindArea(context.Background(), "Uttara", "Dhaka")
		assert.ErrorIs(t, err, courier.ErrAreaNotFound)
	})
}

func TestCreateParcel(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/parcel", r.URL.Path)

			var req courier.ParcelRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "202608317", req.MerchantInvoiceID)

			_ = json.NewEncoder(w).Encode(map[string]any{"tracking_id": "RDX-1"})
		}))

		trackingID, raw, err := client.CreateParcel(context.Background(), &courier.ParcelRequest{
			MerchantInvoiceID: "202608317",
		})
		require.NoError(t, err)
		assert.Equal(t, "RDX-1", trackingID)
		assert.NotEmpty(t, raw)
	})

	t.Run("missing_tracking_id", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
		}))

		_, _, err := client.CreateParcel(context.Background(), &courier.ParcelRequest{})
		assert.Error(t, err)
	})
}

func TestAPIErrorMessageExtraction(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"message_field", `{"message": "invalid area"}`, "invalid area"},
		{"error_string", `{"error": "token expired"}`, "token expired"},
		{"error_object", `{"error": {"message": "bad payload"}}`, "bad payload"},
		{"errors_list", `{"errors": ["phone is required", "other"]}`, "phone is required"},
		{"plain_text", `gateway timeout`, "gateway timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnprocessableEntity)
				_, _ = w.Write([]byte(tt.body))
			}))

			_, _, err := client.CreateParcel(context.Background(), &courier.ParcelRequest{})
			var apiErr *courier.APIError
			require.True(t, errors.As(err, &apiErr), "want APIError, got %v", err)
			assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
			assert.Equal(t, tt.want, apiErr.Message)
		})
	}
}

func TestTrackParcel(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/parcel/track/RDX-1", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "in_transit"})
	}))

	status, raw, err := client.TrackParcel(context.Background(), "RDX-1")
	require.NoError(t, err)
	assert.Equal(t, "in_transit", status)
	assert.NotEmpty(t, raw)
}
