package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/DenisKhanov/FishShopBot/internal/shop_bot/models"
	"github.com/sirupsen/logrus"
)

// CatalogAPI reads product listings and single products from the content
// backend. All failures degrade to empty or not-found results so menu
// rendering never crashes the dialogue.
type CatalogAPI struct {
	baseURL string       // Base URL of the content backend.
	token   string       // Optional bearer token.
	client  *http.Client // HTTP client with a fixed timeout.
}

// NewCatalogAPI creates a new CatalogAPI for the given backend.
// Arguments:
//   - baseURL: backend base URL, no trailing slash.
//   - token: optional bearer token, empty if the backend is open.
//
// Returns a pointer to a CatalogAPI.
func NewCatalogAPI(baseURL, token string) *CatalogAPI {
	return &CatalogAPI{
		baseURL: baseURL,
		token:   token,
		client: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// ListProducts fetches all products with their related media. On any
// transport or parse failure it logs the error and returns an empty slice,
// never an error: the caller renders a "no products" placeholder instead.
func (c *CatalogAPI) ListProducts() []models.Product {
	query := url.Values{}
	query.Set("populate", "*")

	status, body, err := doRequest(c.client, c.baseURL, c.token, http.MethodGet, "/api/products", query, nil)
	if err != nil {
		logrus.WithError(err).Error("Ошибка при запросе товаров")
		return nil
	}
	if status >= http.StatusBadRequest {
		logrus.Errorf("Products list error: status %d, body: %s", status, string(body))
		return nil
	}

	var records []productRecord
	if err = decodeData(body, &records); err != nil {
		logrus.WithError(err).Error("Ошибка при разборе списка товаров")
		return nil
	}

	products := make([]models.Product, 0, len(records))
	for _, record := range records {
		products = append(products, c.toProduct(record))
	}
	return products
}

// GetProduct fetches one product by its numeric id. The boolean result is
// false when the backend returns no matching record or any error; callers
// must treat that as "offer the user a retry", not as fatal.
// Arguments:
//   - productID: numeric product id.
func (c *CatalogAPI) GetProduct(productID int) (models.Product, bool) {
	query := url.Values{}
	query.Set("filters[id][$eq]", strconv.Itoa(productID))
	query.Set("populate", "*")

	status, body, err := doRequest(c.client, c.baseURL, c.token, http.MethodGet, "/api/products", query, nil)
	if err != nil {
		logrus.WithError(err).Errorf("Ошибка при запросе товара %d", productID)
		return models.Product{}, false
	}
	if status >= http.StatusBadRequest {
		logrus.Errorf("Product %d get error: status %d, body: %s", productID, status, string(body))
		return models.Product{}, false
	}

	var records []productRecord
	if err = decodeData(body, &records); err != nil {
		logrus.WithError(err).Errorf("Ошибка при разборе товара %d", productID)
		return models.Product{}, false
	}
	if len(records) == 0 {
		logrus.Errorf("Товар %d не найден", productID)
		return models.Product{}, false
	}

	return c.toProduct(records[0]), true
}

// DownloadImage fetches the product photo so it can be attached to the
// product card message.
// Arguments:
//   - imageURL: absolute image URL produced by resolveImageURL.
//
// Returns the raw image bytes or an error if the fetch fails.
func (c *CatalogAPI) DownloadImage(imageURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.client.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if err = res.Body.Close(); err != nil {
			logrus.WithError(err).Errorf("Failed to close response body: %v", err)
		}
	}()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", res.StatusCode)
	}
	return io.ReadAll(res.Body)
}

// toProduct converts a backend record into the domain model, resolving the
// image reference to an absolute URL.
func (c *CatalogAPI) toProduct(record productRecord) models.Product {
	title := record.Title
	if title == "" {
		title = fmt.Sprintf("Товар #%d", record.ID)
	}
	return models.Product{
		ID:          record.ID,
		Title:       title,
		Description: record.Description,
		Price:       record.Price,
		QtyKg:       record.QtyKg,
		ImageURL:    c.resolveImageURL(record.Picture),
	}
}

// resolveImageURL picks the medium rendition over the small one over the
// original, and resolves relative paths against the backend base URL.
// Returns "" when the product carries no picture.
func (c *CatalogAPI) resolveImageURL(picture *pictureRecord) string {
	if picture == nil {
		return ""
	}

	imgURL := picture.URL
	if format, ok := picture.Formats["medium"]; ok && format.URL != "" {
		imgURL = format.URL
	} else if format, ok = picture.Formats["small"]; ok && format.URL != "" {
		imgURL = format.URL
	}
	if imgURL == "" {
		return ""
	}
	if strings.HasPrefix(imgURL, "http://") || strings.HasPrefix(imgURL, "https://") {
		return imgURL
	}

	base, err := url.Parse(c.baseURL)
	if err != nil {
		logrus.WithError(err).Errorf("Некорректный базовый URL %s", c.baseURL)
		return imgURL
	}
	ref, err := url.Parse(imgURL)
	if err != nil {
		logrus.WithError(err).Errorf("Некорректный URL изображения %s", imgURL)
		return imgURL
	}
	return base.ResolveReference(ref).String()
}
