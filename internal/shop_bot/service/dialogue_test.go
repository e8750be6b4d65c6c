package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/DenisKhanov/FishShopBot/internal/shop_bot/models"
)

// fakeBot records every outbound chattable instead of talking to Telegram.
// With failEdits set, message edits are rejected the way Telegram rejects a
// no-op redraw ("message is not modified").
type fakeBot struct {
	mu        sync.Mutex
	sent      []tgbotapi.Chattable
	requests  []tgbotapi.Chattable
	nextMsgID int
	failEdits bool
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failEdits {
		if _, isEdit := c.(tgbotapi.EditMessageTextConfig); isEdit {
			return tgbotapi.Message{}, errors.New("Bad Request: message is not modified")
		}
	}
	f.nextMsgID++
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: f.nextMsgID}, nil
}

func (f *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// lastText returns the text of the most recent sent or edited message.
func (f *fakeBot) lastText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sent) - 1; i >= 0; i-- {
		switch m := f.sent[i].(type) {
		case tgbotapi.MessageConfig:
			return m.Text
		case tgbotapi.EditMessageTextConfig:
			return m.Text
		}
	}
	return ""
}

// lastMarkup returns the inline keyboard of the most recent message that
// carried one.
func (f *fakeBot) lastMarkup() (tgbotapi.InlineKeyboardMarkup, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sent) - 1; i >= 0; i-- {
		switch m := f.sent[i].(type) {
		case tgbotapi.MessageConfig:
			if markup, ok := m.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup); ok {
				return markup, true
			}
		case tgbotapi.EditMessageTextConfig:
			if m.ReplyMarkup != nil {
				return *m.ReplyMarkup, true
			}
		}
	}
	return tgbotapi.InlineKeyboardMarkup{}, false
}

func markupPayloads(markup tgbotapi.InlineKeyboardMarkup) []string {
	var payloads []string
	for _, row := range markup.InlineKeyboard {
		for _, button := range row {
			if button.CallbackData != nil {
				payloads = append(payloads, *button.CallbackData)
			}
		}
	}
	return payloads
}

func containsPayload(payloads []string, want string) bool {
	for _, payload := range payloads {
		if payload == want {
			return true
		}
	}
	return false
}

func findPayloadWithPrefix(payloads []string, prefix string) (string, bool) {
	for _, payload := range payloads {
		if strings.HasPrefix(payload, prefix) {
			return payload, true
		}
	}
	return "", false
}

// fakeCatalog serves products from memory; photos always fail so cards take
// the text fallback path.
type fakeCatalog struct {
	products map[int]models.Product
}

func (f *fakeCatalog) ListProducts() []models.Product {
	ids := make([]int, 0, len(f.products))
	for id := range f.products {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	products := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		products = append(products, f.products[id])
	}
	return products
}

func (f *fakeCatalog) GetProduct(productID int) (models.Product, bool) {
	product, ok := f.products[productID]
	return product, ok
}

func (f *fakeCatalog) DownloadImage(string) ([]byte, error) {
	return nil, errors.New("no images in tests")
}

// fakeCart keeps one cart and its items in memory. Removal soft-hides by
// zeroing the quantity, so listing exposes the logically absent records the
// engine must filter out.
type fakeCart struct {
	mu       sync.Mutex
	products map[int]models.Product
	cart     *models.Cart
	items    []models.CartItem
	nextID   int
	getErr   error
}

func (f *fakeCart) GetCart(tgID string) (models.Cart, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return models.Cart{}, false, f.getErr
	}
	if f.cart == nil || f.cart.TgID != tgID {
		return models.Cart{}, false, nil
	}
	return *f.cart, true, nil
}

func (f *fakeCart) EnsureCart(tgID string) (models.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return models.Cart{}, f.getErr
	}
	if f.cart == nil {
		f.nextID++
		f.cart = &models.Cart{ID: f.nextID, DocumentID: fmt.Sprintf("cart-%d", f.nextID), TgID: tgID}
	}
	return *f.cart, nil
}

func (f *fakeCart) AddOrIncrement(cartID, productID int, qtyToAdd float64) (models.CartItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].Product.ID == productID {
			f.items[i].QtyKg += qtyToAdd
			return f.items[i], nil
		}
	}
	f.nextID++
	item := models.CartItem{
		ID:         f.nextID,
		DocumentID: fmt.Sprintf("doc-%d", f.nextID),
		QtyKg:      qtyToAdd,
		Product:    f.products[productID],
	}
	f.items = append(f.items, item)
	return item, nil
}

func (f *fakeCart) RemoveItem(itemID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].Identifier() == itemID {
			f.items[i].QtyKg = 0
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCart) ListItems(cartID int) ([]models.CartItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := make([]models.CartItem, len(f.items))
	copy(items, f.items)
	return items, nil
}

type fakeClients struct {
	emails  map[string]string
	upserts int
	err     error
}

func (f *fakeClients) UpsertClient(tgID, email string) (models.Client, error) {
	if f.err != nil {
		return models.Client{}, f.err
	}
	f.upserts++
	f.emails[tgID] = email
	return models.Client{ID: 1, TgID: tgID, Email: email}, nil
}

type fakeSessions struct {
	states map[int64]models.DialogueState
}

func (f *fakeSessions) GetState(_ context.Context, chatID int64) (models.DialogueState, error) {
	if state, ok := f.states[chatID]; ok {
		return state, nil
	}
	return models.StateStart, nil
}

func (f *fakeSessions) SetState(_ context.Context, chatID int64, state models.DialogueState) error {
	f.states[chatID] = state
	return nil
}

type fixture struct {
	bot      *fakeBot
	catalog  *fakeCatalog
	cart     *fakeCart
	clients  *fakeClients
	sessions *fakeSessions
	engine   *ShopBotServices
}

func newFixture() *fixture {
	products := map[int]models.Product{
		7: {ID: 7, Title: "Сёмга", Description: "Свежая сёмга", Price: 300, QtyKg: 2.5},
		8: {ID: 8, Title: "Треска", Description: "Атлантическая треска", Price: 150},
	}
	f := &fixture{
		bot:      &fakeBot{},
		catalog:  &fakeCatalog{products: products},
		cart:     &fakeCart{products: products},
		clients:  &fakeClients{emails: make(map[string]string)},
		sessions: &fakeSessions{states: make(map[int64]models.DialogueState)},
	}
	f.engine = NewShopBot(f.catalog, f.cart, f.clients, f.sessions, f.bot)
	return f
}

func (f *fixture) text(chatID int64, text string) {
	f.engine.UpdateProcessing(context.Background(), &tgbotapi.Update{
		Message: &tgbotapi.Message{
			MessageID: 1000,
			Text:      text,
			Chat:      &tgbotapi.Chat{ID: chatID},
		},
	})
}

func (f *fixture) button(chatID int64, data string) {
	f.engine.UpdateProcessing(context.Background(), &tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   "cb-1",
			Data: data,
			Message: &tgbotapi.Message{
				MessageID: 2000,
				Chat:      &tgbotapi.Chat{ID: chatID},
			},
		},
	})
}

func (f *fixture) state(chatID int64) models.DialogueState {
	return f.sessions.states[chatID]
}

const chatID = int64(555)

func TestPurchaseScenario(t *testing.T) {
	f := newFixture()

	// /start renders the catalog keyboard.
	f.text(chatID, "/start")
	if got := f.state(chatID); got != models.StateMenu {
		t.Fatalf("After /start expected state %s, got %s", models.StateMenu, got)
	}
	markup, ok := f.bot.lastMarkup()
	if !ok {
		t.Fatal("Expected the menu to carry a keyboard")
	}
	payloads := markupPayloads(markup)
	if !containsPayload(payloads, "7") || !containsPayload(payloads, "show_cart") {
		t.Fatalf("Menu keyboard missing product or cart buttons: %v", payloads)
	}

	// Selecting a product shows its card.
	f.button(chatID, "7")
	if got := f.state(chatID); got != models.StateDescription {
		t.Fatalf("After selection expected state %s, got %s", models.StateDescription, got)
	}
	if text := f.bot.lastText(); !strings.Contains(text, "Сёмга") || !strings.Contains(text, "Цена: 300 ₽") {
		t.Errorf("Unexpected product card text: %q", text)
	}
	markup, _ = f.bot.lastMarkup()
	if payloads = markupPayloads(markup); !containsPayload(payloads, "add_7") {
		t.Fatalf("Card keyboard missing add button: %v", payloads)
	}

	// First add creates the item with the product's per-press quantity.
	f.button(chatID, "add_7")
	if got := f.state(chatID); got != models.StateDescription {
		t.Fatalf("After add expected state %s, got %s", models.StateDescription, got)
	}
	if len(f.cart.items) != 1 || f.cart.items[0].QtyKg != 2.5 {
		t.Fatalf("Expected one item with qty 2.5, got %+v", f.cart.items)
	}
	if text := f.bot.lastText(); !strings.Contains(text, "+2.5 кг") {
		t.Errorf("Unexpected add confirmation: %q", text)
	}

	// Second add increments the same item instead of creating another.
	f.button(chatID, "add_7")
	if len(f.cart.items) != 1 || f.cart.items[0].QtyKg != 5.0 {
		t.Fatalf("Expected one item with qty 5.0, got %+v", f.cart.items)
	}

	// The cart view lists the item with subtotal and total.
	f.button(chatID, "show_cart")
	if got := f.state(chatID); got != models.StateCart {
		t.Fatalf("After show_cart expected state %s, got %s", models.StateCart, got)
	}
	text := f.bot.lastText()
	if !strings.Contains(text, "5 кг × 300 ₽ = 1500.00 ₽") {
		t.Errorf("Cart view missing subtotal line: %q", text)
	}
	if !strings.Contains(text, "Итого: 1500.00 ₽") {
		t.Errorf("Cart view missing total: %q", text)
	}
	markup, _ = f.bot.lastMarkup()
	payloads = markupPayloads(markup)
	removePayload, ok := findPayloadWithPrefix(payloads, "remove_item_")
	if !ok {
		t.Fatalf("Cart keyboard missing removal button: %v", payloads)
	}
	if !containsPayload(payloads, "pay") {
		t.Fatalf("Cart keyboard missing pay button: %v", payloads)
	}

	// Removing the only item redraws the empty-cart placeholder without a
	// pay action.
	f.button(chatID, removePayload)
	if got := f.state(chatID); got != models.StateCart {
		t.Fatalf("After removal expected state %s, got %s", models.StateCart, got)
	}
	if text = f.bot.lastText(); !strings.Contains(text, "корзина пока пуста") {
		t.Errorf("Expected empty-cart placeholder, got %q", text)
	}
	markup, _ = f.bot.lastMarkup()
	payloads = markupPayloads(markup)
	if containsPayload(payloads, "pay") {
		t.Errorf("Pay must be unreachable from an empty cart: %v", payloads)
	}
	if !containsPayload(payloads, "back_to_menu") {
		t.Errorf("Empty cart must offer the way back to the menu: %v", payloads)
	}
}

func TestEmailCapture(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantState models.DialogueState
		wantSaved bool
	}{
		{name: "no at and no dot", input: "notanemail", wantState: models.StateWaitingEmail},
		{name: "missing dot", input: "foo@bar", wantState: models.StateWaitingEmail},
		{name: "missing at", input: "foo.bar", wantState: models.StateWaitingEmail},
		{name: "loosely valid", input: "a@b.c", wantState: models.StateMenu, wantSaved: true},
		{name: "valid with spaces around", input: "  user@example.com  ", wantState: models.StateMenu, wantSaved: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.sessions.states[chatID] = models.StateWaitingEmail

			f.text(chatID, tt.input)

			if got := f.state(chatID); got != tt.wantState {
				t.Errorf("Expected state %s, got %s", tt.wantState, got)
			}
			if tt.wantSaved {
				want := strings.TrimSpace(tt.input)
				if got := f.clients.emails["555"]; got != want {
					t.Errorf("Expected stored email %q, got %q", want, got)
				}
			} else {
				if f.clients.upserts != 0 {
					t.Errorf("Expected no upsert for invalid input, got %d", f.clients.upserts)
				}
				if text := f.bot.lastText(); !strings.Contains(text, "это не e-mail") {
					t.Errorf("Expected the re-prompt, got %q", text)
				}
			}
		})
	}
}

func TestEmailCaptureButtonPressRePrompts(t *testing.T) {
	f := newFixture()
	f.sessions.states[chatID] = models.StateWaitingEmail

	f.button(chatID, "pay")

	if got := f.state(chatID); got != models.StateWaitingEmail {
		t.Errorf("Expected to stay in %s, got %s", models.StateWaitingEmail, got)
	}
	if text := f.bot.lastText(); !strings.Contains(text, "обычным сообщением") {
		t.Errorf("Expected plain-text prompt, got %q", text)
	}
}

func TestEmailCaptureSurvivesBackendFailure(t *testing.T) {
	f := newFixture()
	f.sessions.states[chatID] = models.StateWaitingEmail
	f.clients.err = errors.New("cms down")

	f.text(chatID, "a@b.c")

	// The contact save is best-effort: the user still gets the menu back.
	if got := f.state(chatID); got != models.StateMenu {
		t.Errorf("Expected state %s despite upsert failure, got %s", models.StateMenu, got)
	}
}

func TestHandlerFailureRecoversToStart(t *testing.T) {
	f := newFixture()
	f.sessions.states[chatID] = models.StateMenu
	f.cart.getErr = errors.New("backend down")

	f.button(chatID, "show_cart")

	if got := f.state(chatID); got != models.StateStart {
		t.Fatalf("Expected forced recovery to %s, got %s", models.StateStart, got)
	}

	// The next event is dispatched as if the dialogue had just begun.
	f.cart.getErr = nil
	f.text(chatID, "привет")
	if got := f.state(chatID); got != models.StateMenu {
		t.Errorf("Expected a fresh menu after recovery, got state %s", got)
	}
}

func TestCartRenderingExcludesSoftHiddenItems(t *testing.T) {
	f := newFixture()
	f.sessions.states[chatID] = models.StateMenu
	f.cart.cart = &models.Cart{ID: 1, DocumentID: "cart-1", TgID: "555"}
	f.cart.items = []models.CartItem{
		{ID: 2, DocumentID: "doc-2", QtyKg: 0, Product: f.catalog.products[7]},
		{ID: 3, DocumentID: "doc-3", QtyKg: 2, Product: f.catalog.products[8]},
	}

	f.button(chatID, "show_cart")

	text := f.bot.lastText()
	if strings.Contains(text, "Сёмга") {
		t.Errorf("Soft-hidden item leaked into the cart view: %q", text)
	}
	if !strings.Contains(text, "Треска") {
		t.Errorf("Visible item missing from the cart view: %q", text)
	}
	if !strings.Contains(text, "Итого: 300.00 ₽") {
		t.Errorf("Total must cover only visible items: %q", text)
	}

	markup, _ := f.bot.lastMarkup()
	payloads := markupPayloads(markup)
	if containsPayload(payloads, "remove_item_doc-2") {
		t.Errorf("Removal button rendered for a hidden item: %v", payloads)
	}
	if !containsPayload(payloads, "remove_item_doc-3") {
		t.Errorf("Removal button missing for a visible item: %v", payloads)
	}
}

func TestCartEditRejectionFallsBackToSend(t *testing.T) {
	f := newFixture()
	f.sessions.states[chatID] = models.StateCart
	f.cart.cart = &models.Cart{ID: 1, DocumentID: "cart-1", TgID: "555"}
	f.cart.items = []models.CartItem{
		{ID: 2, DocumentID: "doc-2", QtyKg: 2, Product: f.catalog.products[8]},
	}
	f.bot.failEdits = true

	f.button(chatID, "remove_item_doc-2")

	if got := f.state(chatID); got != models.StateCart {
		t.Fatalf("Expected state %s after removal, got %s", models.StateCart, got)
	}

	// The rejected edit must be followed by a fresh message carrying the
	// redrawn cart view.
	f.bot.mu.Lock()
	last := f.bot.sent[len(f.bot.sent)-1]
	f.bot.mu.Unlock()
	msg, ok := last.(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("Expected a fresh message after the rejected edit, got %T", last)
	}
	if !strings.Contains(msg.Text, "корзина пока пуста") {
		t.Errorf("Expected the redrawn cart view in the fresh message, got %q", msg.Text)
	}
	if _, ok = msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup); !ok {
		t.Error("Expected the fresh message to carry the cart keyboard")
	}
}

func TestProductCardCaptionTruncated(t *testing.T) {
	f := newFixture()
	f.catalog.products[9] = models.Product{
		ID:          9,
		Title:       "Палтус",
		Price:       500,
		Description: strings.Repeat("о", 1100),
	}
	f.sessions.states[chatID] = models.StateMenu

	f.button(chatID, "9")

	if got := f.state(chatID); got != models.StateDescription {
		t.Fatalf("Expected state %s, got %s", models.StateDescription, got)
	}
	caption := []rune(f.bot.lastText())
	if len(caption) != 1001 {
		t.Fatalf("Expected the caption cut to 1001 runes, got %d", len(caption))
	}
	if caption[len(caption)-1] != '…' {
		t.Errorf("Expected the caption to end with an ellipsis, got %q", string(caption[len(caption)-1]))
	}
}

func TestProductCardShortCaptionKeptIntact(t *testing.T) {
	f := newFixture()
	f.sessions.states[chatID] = models.StateMenu

	f.button(chatID, "7")

	caption := f.bot.lastText()
	if !strings.HasSuffix(caption, "Свежая сёмга") {
		t.Errorf("Expected the full description in a short caption, got %q", caption)
	}
	if strings.ContainsRune(caption, '…') {
		t.Errorf("Short caption must not be truncated: %q", caption)
	}
}

func TestCartViewAllItemsHiddenShowsPlaceholder(t *testing.T) {
	f := newFixture()
	f.sessions.states[chatID] = models.StateMenu
	f.cart.cart = &models.Cart{ID: 1, DocumentID: "cart-1", TgID: "555"}
	f.cart.items = []models.CartItem{
		{ID: 2, DocumentID: "doc-2", QtyKg: 0, Product: f.catalog.products[7]},
	}

	f.button(chatID, "show_cart")

	if text := f.bot.lastText(); !strings.Contains(text, "корзина пока пуста") {
		t.Errorf("Expected placeholder when every item is hidden, got %q", text)
	}
}

func TestMenuUnparsableSelection(t *testing.T) {
	f := newFixture()
	f.sessions.states[chatID] = models.StateMenu

	f.button(chatID, "garbage")

	if got := f.state(chatID); got != models.StateMenu {
		t.Errorf("Expected to stay in %s, got %s", models.StateMenu, got)
	}
	if text := f.bot.lastText(); !strings.Contains(text, "Не понял") {
		t.Errorf("Expected the re-prompt, got %q", text)
	}
}

func TestMenuNoProductsSentinel(t *testing.T) {
	f := newFixture()
	f.sessions.states[chatID] = models.StateMenu

	f.button(chatID, "no_products")

	if got := f.state(chatID); got != models.StateStart {
		t.Errorf("Expected return to %s, got %s", models.StateStart, got)
	}
}

func TestMenuPlainTextPointsToStart(t *testing.T) {
	f := newFixture()
	f.sessions.states[chatID] = models.StateMenu

	f.text(chatID, "покажи меню")

	if got := f.state(chatID); got != models.StateStart {
		t.Errorf("Expected state %s, got %s", models.StateStart, got)
	}
	if text := f.bot.lastText(); !strings.Contains(text, "/start") {
		t.Errorf("Expected the /start hint, got %q", text)
	}
}

func TestMenuKeyboardWithEmptyCatalog(t *testing.T) {
	f := newFixture()
	f.catalog.products = map[int]models.Product{}

	f.text(chatID, "/start")

	markup, ok := f.bot.lastMarkup()
	if !ok {
		t.Fatal("Expected a keyboard even with an empty catalog")
	}
	payloads := markupPayloads(markup)
	if !containsPayload(payloads, "no_products") || !containsPayload(payloads, "show_cart") {
		t.Errorf("Expected placeholder and cart buttons, got %v", payloads)
	}
}

func TestDescriptionAddUnavailableProduct(t *testing.T) {
	f := newFixture()
	f.sessions.states[chatID] = models.StateDescription

	f.button(chatID, "add_99")

	if got := f.state(chatID); got != models.StateDescription {
		t.Errorf("Expected to stay in %s, got %s", models.StateDescription, got)
	}
	if text := f.bot.lastText(); !strings.Contains(text, "больше не доступен") {
		t.Errorf("Expected the unavailable message, got %q", text)
	}
	if len(f.cart.items) != 0 {
		t.Errorf("Nothing should be added for an unavailable product, got %+v", f.cart.items)
	}
}

func TestAddDefaultsToOneKilogram(t *testing.T) {
	f := newFixture()
	f.sessions.states[chatID] = models.StateDescription

	// Product 8 carries no qty_kg, so one add means one kilogram.
	f.button(chatID, "add_8")

	if len(f.cart.items) != 1 || f.cart.items[0].QtyKg != 1 {
		t.Fatalf("Expected one item with qty 1, got %+v", f.cart.items)
	}
	if text := f.bot.lastText(); !strings.Contains(text, "+1.0 кг") {
		t.Errorf("Expected the confirmation to show the quantity as 1.0, got %q", text)
	}
}

func TestStartCommandResetsAnyState(t *testing.T) {
	f := newFixture()
	f.sessions.states[chatID] = models.StateWaitingEmail

	f.text(chatID, "/start")

	if got := f.state(chatID); got != models.StateMenu {
		t.Errorf("Expected /start to re-enter the menu, got %s", got)
	}
}

func TestResolveEvent(t *testing.T) {
	tests := []struct {
		name     string
		update   tgbotapi.Update
		wantKind models.EventKind
		wantOK   bool
	}{
		{
			name: "text message",
			update: tgbotapi.Update{Message: &tgbotapi.Message{
				MessageID: 1, Text: "hello", Chat: &tgbotapi.Chat{ID: 10},
			}},
			wantKind: models.EventText,
			wantOK:   true,
		},
		{
			name: "button press",
			update: tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
				ID: "cb", Data: "pay", Message: &tgbotapi.Message{MessageID: 2, Chat: &tgbotapi.Chat{ID: 10}},
			}},
			wantKind: models.EventButton,
			wantOK:   true,
		},
		{
			name: "message without text",
			update: tgbotapi.Update{Message: &tgbotapi.Message{
				MessageID: 3, Chat: &tgbotapi.Chat{ID: 10},
			}},
			wantOK: false,
		},
		{
			name: "callback without source message",
			update: tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
				ID: "cb", Data: "pay",
			}},
			wantOK: false,
		},
		{
			name:   "empty update",
			update: tgbotapi.Update{},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, ok := ResolveEvent(&tt.update)
			if ok != tt.wantOK {
				t.Fatalf("Expected ok=%v, got %v", tt.wantOK, ok)
			}
			if ok && event.Kind != tt.wantKind {
				t.Errorf("Expected kind %v, got %v", tt.wantKind, event.Kind)
			}
			if ok && event.ChatID != 10 {
				t.Errorf("Expected chat id 10, got %d", event.ChatID)
			}
		})
	}
}

func TestIsValidEmail(t *testing.T) {
	valid := []string{"a@b.c", "user@example.com", "weird.@."}
	for _, email := range valid {
		if !isValidEmail(email) {
			t.Errorf("Expected %q to pass the loose check", email)
		}
	}
	invalid := []string{"", "notanemail", "foo@bar", "foo.bar"}
	for _, email := range invalid {
		if isValidEmail(email) {
			t.Errorf("Expected %q to fail the loose check", email)
		}
	}
}
