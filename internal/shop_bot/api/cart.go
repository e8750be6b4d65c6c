package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/DenisKhanov/FishShopBot/internal/shop_bot/models"
	"github.com/sirupsen/logrus"
)

// CartAPI manages carts and cart items in the content backend. The backend
// enforces no uniqueness, so the at-most-one-cart-per-chat and
// one-item-per-product invariants are kept by querying before creating;
// callers must serialize mutations per chat.
type CartAPI struct {
	baseURL string       // Base URL of the content backend.
	token   string       // Optional bearer token.
	client  *http.Client // HTTP client with a fixed timeout.
}

// NewCartAPI creates a new CartAPI for the given backend.
// Arguments:
//   - baseURL: backend base URL, no trailing slash.
//   - token: optional bearer token, empty if the backend is open.
//
// Returns a pointer to a CartAPI.
func NewCartAPI(baseURL, token string) *CartAPI {
	return &CartAPI{
		baseURL: baseURL,
		token:   token,
		client: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// GetCart looks up the cart owned by the given chat identity.
// Arguments:
//   - tgID: chat identity used as the tg_id filter.
//
// Returns the cart, whether one exists, and an error on backend failure.
func (c *CartAPI) GetCart(tgID string) (models.Cart, bool, error) {
	query := url.Values{}
	query.Set("filters[tg_id][$eq]", tgID)

	status, body, err := doRequest(c.client, c.baseURL, c.token, http.MethodGet, "/api/carts", query, nil)
	if err != nil {
		return models.Cart{}, false, err
	}
	if status >= http.StatusBadRequest {
		logrus.Errorf("Cart get error: %s", string(body))
		return models.Cart{}, false, fmt.Errorf("cart get: unexpected status code: %d", status)
	}

	var records []cartRecord
	if err = decodeData(body, &records); err != nil {
		return models.Cart{}, false, err
	}
	if len(records) == 0 {
		return models.Cart{}, false, nil
	}
	return toCart(records[0]), true, nil
}

// EnsureCart returns the existing cart for the chat identity or creates a
// new one. Safe to call repeatedly: the lookup runs before the create.
// Arguments:
//   - tgID: chat identity used as the tg_id field.
func (c *CartAPI) EnsureCart(tgID string) (models.Cart, error) {
	cart, found, err := c.GetCart(tgID)
	if err != nil {
		return models.Cart{}, err
	}
	if found {
		return cart, nil
	}

	payload := dataPayload{Data: map[string]interface{}{"tg_id": tgID}}
	status, body, err := doRequest(c.client, c.baseURL, c.token, http.MethodPost, "/api/carts", nil, payload)
	if err != nil {
		return models.Cart{}, err
	}
	if status >= http.StatusBadRequest {
		logrus.Errorf("Cart create error: %s", string(body))
		return models.Cart{}, fmt.Errorf("cart create: unexpected status code: %d", status)
	}

	var record cartRecord
	if err = decodeData(body, &record); err != nil {
		return models.Cart{}, err
	}
	return toCart(record), nil
}

// FindItem returns the cart item matching the (cart, product) pair, used to
// decide between creating and incrementing.
// Arguments:
//   - cartID: numeric cart id.
//   - productID: numeric product id.
//
// Returns the item, whether one exists, and an error on backend failure.
func (c *CartAPI) FindItem(cartID, productID int) (models.CartItem, bool, error) {
	query := url.Values{}
	query.Set("filters[cart][id][$eq]", strconv.Itoa(cartID))
	query.Set("filters[product][id][$eq]", strconv.Itoa(productID))

	status, body, err := doRequest(c.client, c.baseURL, c.token, http.MethodGet, "/api/cart-items", query, nil)
	if err != nil {
		return models.CartItem{}, false, err
	}
	if status >= http.StatusBadRequest {
		logrus.Errorf("CartItem find error: %s", string(body))
		return models.CartItem{}, false, fmt.Errorf("cart item find: unexpected status code: %d", status)
	}

	var records []cartItemRecord
	if err = decodeData(body, &records); err != nil {
		return models.CartItem{}, false, err
	}
	if len(records) == 0 {
		return models.CartItem{}, false, nil
	}
	return toCartItem(records[0]), true, nil
}

// createItem creates a fresh cart item with the given quantity.
func (c *CartAPI) createItem(cartID, productID int, qtyKg float64) (models.CartItem, error) {
	payload := dataPayload{Data: map[string]interface{}{
		"cart":    cartID,
		"product": productID,
		"qty_kg":  qtyKg,
	}}
	status, body, err := doRequest(c.client, c.baseURL, c.token, http.MethodPost, "/api/cart-items", nil, payload)
	if err != nil {
		return models.CartItem{}, err
	}
	if status >= http.StatusBadRequest {
		logrus.Errorf("CartItem create error: %s", string(body))
		return models.CartItem{}, fmt.Errorf("cart item create: unexpected status code: %d", status)
	}

	var record cartItemRecord
	if err = decodeData(body, &record); err != nil {
		return models.CartItem{}, err
	}
	return toCartItem(record), nil
}

// updateItemQty sets the stored quantity of an item. A 404 is a recognized
// race with a concurrent delete, reported as found=false with no error.
// Arguments:
//   - itemID: item identifier (document id or numeric id).
//   - qtyKg: new absolute quantity.
//   - suppressNotFound: skip the warning log when a 404 is expected.
func (c *CartAPI) updateItemQty(itemID string, qtyKg float64, suppressNotFound bool) (models.CartItem, bool, error) {
	payload := dataPayload{Data: map[string]interface{}{"qty_kg": qtyKg}}
	status, body, err := doRequest(c.client, c.baseURL, c.token, http.MethodPut, "/api/cart-items/"+itemID, nil, payload)
	if err != nil {
		return models.CartItem{}, false, err
	}
	if status == http.StatusNotFound {
		if !suppressNotFound {
			logrus.Warnf("CartItem %s not found on update: %s", itemID, string(body))
		}
		return models.CartItem{}, false, nil
	}
	if status >= http.StatusBadRequest {
		logrus.Errorf("CartItem update error: %s", string(body))
		return models.CartItem{}, false, fmt.Errorf("cart item update: unexpected status code: %d", status)
	}

	var record cartItemRecord
	if err = decodeData(body, &record); err != nil {
		return models.CartItem{}, false, err
	}
	return toCartItem(record), true, nil
}

// AddOrIncrement creates the item with qtyToAdd when the (cart, product)
// pair has none, otherwise adds qtyToAdd to the stored quantity. When the
// update hits a 404 (the item was hard-deleted since the lookup) it falls
// back to creating a fresh item with the summed quantity — the find-then-
// update path is not atomic against concurrent deletion.
// Arguments:
//   - cartID: numeric cart id.
//   - productID: numeric product id.
//   - qtyToAdd: kilograms to add.
func (c *CartAPI) AddOrIncrement(cartID, productID int, qtyToAdd float64) (models.CartItem, error) {
	existing, found, err := c.FindItem(cartID, productID)
	if err != nil {
		return models.CartItem{}, err
	}
	if !found {
		return c.createItem(cartID, productID, qtyToAdd)
	}

	newQty := existing.QtyKg + qtyToAdd
	updated, found, err := c.updateItemQty(existing.Identifier(), newQty, false)
	if err != nil {
		return models.CartItem{}, err
	}
	if !found {
		return c.createItem(cartID, productID, newQty)
	}
	return updated, nil
}

// deleteItem hard-deletes an item. A 404 means it was already gone and is
// reported as false with no error.
func (c *CartAPI) deleteItem(itemID string) (bool, error) {
	status, body, err := doRequest(c.client, c.baseURL, c.token, http.MethodDelete, "/api/cart-items/"+itemID, nil, nil)
	if err != nil {
		return false, err
	}
	if status == http.StatusNotFound {
		logrus.Warnf("CartItem %s not found on delete: %s", itemID, string(body))
		return false, nil
	}
	if status >= http.StatusBadRequest {
		logrus.Errorf("CartItem delete error: %s", string(body))
		return false, fmt.Errorf("cart item delete: unexpected status code: %d", status)
	}
	return true, nil
}

// hideItem forces the quantity to zero so the item disappears from cart
// rendering even when the physical record survives.
func (c *CartAPI) hideItem(itemID string) (bool, error) {
	_, found, err := c.updateItemQty(itemID, 0, true)
	if err != nil {
		return false, err
	}
	return found, nil
}

// RemoveItem runs the two-step removal protocol: a hard delete and a
// zero-quantity soft hide. Both are attempted; the removal succeeded if
// either did. The backend may reject deletes of referenced records, so the
// soft hide is the durable fallback; conversely a successful delete makes
// the hide's 404 an expected, suppressed outcome.
// Arguments:
//   - itemID: item identifier (document id or numeric id).
//
// Returns whether the item is gone from the bot's view of the cart.
func (c *CartAPI) RemoveItem(itemID string) (bool, error) {
	deleted, delErr := c.deleteItem(itemID)
	hidden, hideErr := c.hideItem(itemID)

	if deleted || hidden {
		return true, nil
	}
	if delErr != nil {
		return false, delErr
	}
	if hideErr != nil {
		return false, hideErr
	}
	return false, nil
}

// ListItems fetches all items of a cart with their related product
// expanded. Items with quantity <= 0 are included; filtering them out is
// the caller's job.
// Arguments:
//   - cartID: numeric cart id.
func (c *CartAPI) ListItems(cartID int) ([]models.CartItem, error) {
	query := url.Values{}
	query.Set("filters[cart][id][$eq]", strconv.Itoa(cartID))
	query.Set("populate", "product")

	status, body, err := doRequest(c.client, c.baseURL, c.token, http.MethodGet, "/api/cart-items", query, nil)
	if err != nil {
		return nil, err
	}
	if status >= http.StatusBadRequest {
		logrus.Errorf("Cart items get error: %s", string(body))
		return nil, fmt.Errorf("cart items get: unexpected status code: %d", status)
	}

	var records []cartItemRecord
	if err = decodeData(body, &records); err != nil {
		return nil, err
	}

	items := make([]models.CartItem, 0, len(records))
	for _, record := range records {
		items = append(items, toCartItem(record))
	}
	return items, nil
}

func toCart(record cartRecord) models.Cart {
	return models.Cart{
		ID:         record.ID,
		DocumentID: record.DocumentID,
		TgID:       record.TgID,
	}
}

func toCartItem(record cartItemRecord) models.CartItem {
	item := models.CartItem{
		ID:         record.ID,
		DocumentID: record.DocumentID,
		QtyKg:      record.QtyKg,
	}
	if record.Product != nil {
		title := record.Product.Title
		if title == "" {
			title = fmt.Sprintf("Товар #%d", record.Product.ID)
		}
		item.Product = models.Product{
			ID:          record.Product.ID,
			Title:       title,
			Description: record.Product.Description,
			Price:       record.Product.Price,
			QtyKg:       record.Product.QtyKg,
		}
	}
	return item
}
