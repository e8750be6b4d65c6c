// Package api provides clients for the Strapi content backend: the product
// catalog, carts with their items, and client contact records. All calls use
// the JSON {"data": ...} envelope Strapi wraps its resources in.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

// requestTimeout bounds every call to the content backend.
const requestTimeout = 8 * time.Second

// envelope is the Strapi response wrapper; Data holds an object or an array
// depending on the endpoint.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

// pictureFormat is one derived rendition of an uploaded image.
type pictureFormat struct {
	URL string `json:"url"`
}

// pictureRecord is the media field attached to a product.
type pictureRecord struct {
	URL     string                   `json:"url"`
	Formats map[string]pictureFormat `json:"formats"`
}

// productRecord mirrors a Strapi product entry with populated media.
type productRecord struct {
	ID          int            `json:"id"`
	DocumentID  string         `json:"documentId"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Price       float64        `json:"price"`
	QtyKg       float64        `json:"qty_kg"`
	Picture     *pictureRecord `json:"picture"`
}

// cartRecord mirrors a Strapi cart entry keyed by the owning chat identity.
type cartRecord struct {
	ID         int    `json:"id"`
	DocumentID string `json:"documentId"`
	TgID       string `json:"tg_id"`
}

// cartItemRecord mirrors a Strapi cart-item entry, optionally with its
// related product populated.
type cartItemRecord struct {
	ID         int            `json:"id"`
	DocumentID string         `json:"documentId"`
	QtyKg      float64        `json:"qty_kg"`
	Product    *productRecord `json:"product"`
}

// clientRecord mirrors a Strapi client entry.
type clientRecord struct {
	ID         int    `json:"id"`
	DocumentID string `json:"documentId"`
	TgID       string `json:"tg_id"`
	Email      string `json:"email"`
}

// makeHeaders sets the headers every Strapi request carries.
// Arguments:
//   - req: the request to decorate.
//   - token: optional bearer token, skipped when empty.
//   - isJSON: whether the request carries a JSON body.
func makeHeaders(req *http.Request, token string, isJSON bool) {
	req.Header.Set("Accept", "application/json")
	if isJSON {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// doRequest executes one call against the backend and returns the status
// code with the raw body. Transport-level failures are returned as errors;
// HTTP error statuses are left to the caller to interpret.
// Arguments:
//   - client: the HTTP client to use.
//   - baseURL: backend base URL.
//   - token: optional bearer token.
//   - method: HTTP method.
//   - apiPath: path under the base URL (e.g. "/api/products").
//   - query: optional query parameters.
//   - payload: optional JSON body, marshalled as-is.
func doRequest(client *http.Client, baseURL, token, method, apiPath string, query url.Values, payload interface{}) (int, []byte, error) {
	endpoint := baseURL + apiPath
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	ctx, cancel := context.WithTimeout(context.Background(), client.Timeout)
	defer cancel()

	var body io.Reader
	isJSON := payload != nil
	if isJSON {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	makeHeaders(req, token, isJSON)

	res, err := client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if err = res.Body.Close(); err != nil {
			logrus.WithError(err).Errorf("Failed to close response body: %v", err)
		}
	}()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return res.StatusCode, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return res.StatusCode, data, nil
}

// decodeData unmarshals the data field of a Strapi envelope into v.
func decodeData(body []byte, v interface{}) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("failed to unmarshal envelope: %w", err)
	}
	if len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}
	return nil
}

// dataPayload wraps a mutation body in the envelope Strapi expects.
type dataPayload struct {
	Data interface{} `json:"data"`
}
