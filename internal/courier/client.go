package courier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Md-Rabbi-95/Khalab/internal/config"
)

var ErrAreaNotFound = errors.New("no delivery area available")

// Area is one courier delivery zone.
type Area struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	DistrictName string `json:"district_name"`
}

// ParcelRequest is the courier's parcel-creation payload.
type ParcelRequest struct {
	CustomerName         string  `json:"customer_name"`
	CustomerPhone        string  `json:"customer_phone"`
	CustomerAddress      string  `json:"customer_address"`
	DeliveryArea         string  `json:"delivery_area"`
	DeliveryAreaID       int64   `json:"delivery_area_id"`
	MerchantInvoiceID    string  `json:"merchant_invoice_id"`
	ParcelWeight         float64 `json:"parcel_weight"`
	CashCollectionAmount float64 `json:"cash_collection_amount"`
	Value                float64 `json:"value"`
}

// APIError is a non-2xx courier response with the most useful message
// the payload offered.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("courier api returned %d: %s", e.StatusCode, e.Message)
}

// Client talks to the courier's REST API. The configuration is passed
// in explicitly at construction; there is no active-config singleton.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(cfg config.CourierConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL(), "/"),
		token:      cfg.Token(),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// bearerToken normalizes the configured token; operators paste it both
// with and without the Bearer prefix.
func (c *Client) bearerToken() string {
	token := strings.TrimSpace(c.token)
	if !strings.HasPrefix(token, "Bearer ") {
		token = "Bearer " + token
	}
	return token
}

func (c *Client) do(ctx context.Context, method, path string, payload any) (json.RawMessage, error) {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("courier: failed to encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("courier: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("API-ACCESS-TOKEN", c.bearerToken())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("courier: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("courier: failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: extractErrorMessage(raw)}
	}
	return raw, nil
}

// extractErrorMessage digs the human-readable message out of the
// courier's inconsistent error payload shapes.
func extractErrorMessage(raw []byte) string {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		return strings.TrimSpace(string(raw))
	}

	if msg, ok := payload["message"]; ok {
		var s string
		if json.Unmarshal(msg, &s) == nil {
			return s
		}
	}
	if errField, ok := payload["error"]; ok {
		var nested struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(errField, &nested) == nil && nested.Message != "" {
			return nested.Message
		}
		var s string
		if json.Unmarshal(errField, &s) == nil {
			return s
		}
		return string(errField)
	}
	if errsField, ok := payload["errors"]; ok {
		var list []json.RawMessage
		if json.Unmarshal(errsField, &list) == nil && len(list) > 0 {
			var s string
			if json.Unmarshal(list[0], &s) == nil {
				return s
			}
			return string(list[0])
		}
		return string(errsField)
	}
	return strings.TrimSpace(string(raw))
}

func (c *Client) Areas(ctx context.Context) ([]Area, error) {
	raw, err := c.do(ctx, http.MethodGet, "/areas", nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Areas []Area `json:"areas"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("courier: failed to decode areas: %w", err)
	}
	return payload.Areas, nil
}

// FindArea resolves a delivery area by name within a district: exact
// name match first, then partial, then any area in the district, then
// any area at all.
func (c *Client) FindArea(ctx context.Context, name, district string) (*Area, error) {
	areas, err := c.Areas(ctx)
	if err != nil {
		return nil, err
	}
	if len(areas) == 0 {
		return nil, ErrAreaNotFound
	}

	lowerName := strings.ToLower(name)
	for i, a := range areas {
		if strings.ToLower(a.Name) == lowerName && a.DistrictName == district {
			return &areas[i], nil
		}
	}
	for i, a := range areas {
		if strings.Contains(strings.ToLower(a.Name), lowerName) && a.DistrictName == district {
			return &areas[i], nil
		}
	}
	for i, a := range areas {
		if a.DistrictName == district {
			return &areas[i], nil
		}
	}
	return &areas[0], nil
}

// CreateParcel books the parcel and returns the tracking id together
// with the raw payload for storage.
func (c *Client) CreateParcel(ctx context.Context, req *ParcelRequest) (string, json.RawMessage, error) {
	log.Info().Str("invoice", req.MerchantInvoiceID).Msg("creating courier parcel")

	raw, err := c.do(ctx, http.MethodPost, "/parcel", req)
	if err != nil {
		return "", nil, err
	}

	var payload struct {
		TrackingID string `json:"tracking_id"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", raw, fmt.Errorf("courier: failed to decode parcel response: %w", err)
	}
	if payload.TrackingID == "" {
		return "", raw, errors.New("courier: parcel created but no tracking id returned")
	}
	return payload.TrackingID, raw, nil
}

// TrackParcel returns the courier's status string plus the raw payload.
func (c *Client) TrackParcel(ctx context.Context, trackingID string) (string, json.RawMessage, error) {
	raw, err := c.do(ctx, http.MethodGet, "/parcel/track/"+trackingID, nil)
	if err != nil {
		return "", nil, err
	}

	var payload struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", raw, fmt.Errorf("courier: failed to decode tracking response: %w", err)
	}
	return payload.Status, raw, nil
}

func (c *Client) CancelParcel(ctx context.Context, trackingID string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "/parcel/cancel/"+trackingID, nil)
}
