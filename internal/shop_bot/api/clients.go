package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/DenisKhanov/FishShopBot/internal/shop_bot/models"
	"github.com/sirupsen/logrus"
)

// ClientsAPI manages contact records keyed by chat identity. At most one
// record exists per tg_id, kept by looking up before creating; concurrent
// upserts for the same identity are last-write-wins.
type ClientsAPI struct {
	baseURL string       // Base URL of the content backend.
	token   string       // Optional bearer token.
	client  *http.Client // HTTP client with a fixed timeout.
}

// NewClientsAPI creates a new ClientsAPI for the given backend.
// Arguments:
//   - baseURL: backend base URL, no trailing slash.
//   - token: optional bearer token, empty if the backend is open.
//
// Returns a pointer to a ClientsAPI.
func NewClientsAPI(baseURL, token string) *ClientsAPI {
	return &ClientsAPI{
		baseURL: baseURL,
		token:   token,
		client: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// findClient looks up the contact record for a chat identity.
func (c *ClientsAPI) findClient(tgID string) (models.Client, bool, error) {
	query := url.Values{}
	query.Set("filters[tg_id][$eq]", tgID)

	status, body, err := doRequest(c.client, c.baseURL, c.token, http.MethodGet, "/api/clients", query, nil)
	if err != nil {
		return models.Client{}, false, err
	}
	if status >= http.StatusBadRequest {
		logrus.Errorf("Client find error: %s", string(body))
		return models.Client{}, false, fmt.Errorf("client find: unexpected status code: %d", status)
	}

	var records []clientRecord
	if err = decodeData(body, &records); err != nil {
		return models.Client{}, false, err
	}
	if len(records) == 0 {
		return models.Client{}, false, nil
	}
	return toClient(records[0]), true, nil
}

// createClient creates a new contact record.
func (c *ClientsAPI) createClient(tgID, email string) (models.Client, error) {
	payload := dataPayload{Data: map[string]interface{}{
		"tg_id": tgID,
		"email": email,
	}}
	status, body, err := doRequest(c.client, c.baseURL, c.token, http.MethodPost, "/api/clients", nil, payload)
	if err != nil {
		return models.Client{}, err
	}
	if status >= http.StatusBadRequest {
		logrus.Errorf("Client create error: %s", string(body))
		return models.Client{}, fmt.Errorf("client create: unexpected status code: %d", status)
	}

	var record clientRecord
	if err = decodeData(body, &record); err != nil {
		return models.Client{}, err
	}
	return toClient(record), nil
}

// updateClient replaces the email of an existing contact record.
func (c *ClientsAPI) updateClient(clientID int, email string) (models.Client, error) {
	payload := dataPayload{Data: map[string]interface{}{"email": email}}
	status, body, err := doRequest(c.client, c.baseURL, c.token, http.MethodPut, "/api/clients/"+strconv.Itoa(clientID), nil, payload)
	if err != nil {
		return models.Client{}, err
	}
	if status >= http.StatusBadRequest {
		logrus.Errorf("Client update error: %s", string(body))
		return models.Client{}, fmt.Errorf("client update: unexpected status code: %d", status)
	}

	var record clientRecord
	if err = decodeData(body, &record); err != nil {
		return models.Client{}, err
	}
	return toClient(record), nil
}

// UpsertClient stores the captured email for a chat identity, updating the
// existing record when one exists and creating it otherwise.
// Arguments:
//   - tgID: chat identity used as the tg_id field.
//   - email: email address to store.
func (c *ClientsAPI) UpsertClient(tgID, email string) (models.Client, error) {
	existing, found, err := c.findClient(tgID)
	if err != nil {
		return models.Client{}, err
	}
	if found && existing.ID != 0 {
		return c.updateClient(existing.ID, email)
	}
	return c.createClient(tgID, email)
}

func toClient(record clientRecord) models.Client {
	return models.Client{
		ID:         record.ID,
		DocumentID: record.DocumentID,
		TgID:       record.TgID,
		Email:      record.Email,
	}
}
