// Package service contains the dialogue engine of the shop bot: the state
// machine over per-chat dialogue states, the keyboards it renders and the
// calls into the catalog, cart and clients backends.
package service

import (
	"context"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/DenisKhanov/FishShopBot/internal/shop_bot/constant"
	"github.com/DenisKhanov/FishShopBot/internal/shop_bot/models"
)

// Catalog defines the interface for product catalog reads.
type Catalog interface {
	ListProducts() []models.Product                  // All products, empty on failure.
	GetProduct(productID int) (models.Product, bool) // One product, false when unavailable.
	DownloadImage(imageURL string) ([]byte, error)   // Product photo bytes.
}

// Cart defines the interface for cart operations.
type Cart interface {
	GetCart(tgID string) (models.Cart, bool, error)
	EnsureCart(tgID string) (models.Cart, error)
	AddOrIncrement(cartID, productID int, qtyToAdd float64) (models.CartItem, error)
	RemoveItem(itemID string) (bool, error)
	ListItems(cartID int) ([]models.CartItem, error)
}

// Clients defines the interface for contact record upserts.
type Clients interface {
	UpsertClient(tgID, email string) (models.Client, error)
}

// SessionRepository defines the interface for durable dialogue states.
type SessionRepository interface {
	GetState(ctx context.Context, chatID int64) (models.DialogueState, error)
	SetState(ctx context.Context, chatID int64, state models.DialogueState) error
}

// BotAPI is the slice of the Telegram API the engine uses; *tgbotapi.BotAPI
// satisfies it.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// ShopBotServices is the dialogue engine, integrating all dependencies.
// The durable per-chat state lives in Sessions; the message-id and
// last-product scratch below is per-process only.
type ShopBotServices struct {
	Catalog  Catalog           // Product catalog reads.
	Cart     Cart              // Cart mutations and reads.
	Clients  Clients           // Contact record upserts.
	Sessions SessionRepository // Durable dialogue state store.
	Bot      BotAPI            // Telegram transport.

	chatLocks      map[int64]*sync.Mutex // Serializes events per chat.
	menuMsgIDs     map[int64]int         // Last shown menu message per chat.
	cardMsgIDs     map[int64]int         // Last shown product card per chat.
	lastProductIDs map[int64]int         // Last selected product per chat.
	mu             *sync.Mutex           // Protects the maps above.
}

// NewShopBot creates a new ShopBotServices instance with the specified
// dependencies.
// Arguments:
//   - catalog: product catalog client.
//   - cart: cart client.
//   - clients: contact records client.
//   - sessions: durable dialogue state store.
//   - bot: Telegram Bot API instance.
//
// Returns a pointer to a ShopBotServices.
func NewShopBot(catalog Catalog, cart Cart, clients Clients, sessions SessionRepository, bot BotAPI) *ShopBotServices {
	return &ShopBotServices{
		Catalog:        catalog,
		Cart:           cart,
		Clients:        clients,
		Sessions:       sessions,
		Bot:            bot,
		chatLocks:      make(map[int64]*sync.Mutex),
		menuMsgIDs:     make(map[int64]int),
		cardMsgIDs:     make(map[int64]int),
		lastProductIDs: make(map[int64]int),
		mu:             &sync.Mutex{},
	}
}

// chatLock returns the mutex serializing events for one chat, creating it
// on first use.
func (b *ShopBotServices) chatLock(chatID int64) *sync.Mutex {
	b.mu.Lock()
	defer b.mu.Unlock()

	lock, ok := b.chatLocks[chatID]
	if !ok {
		lock = &sync.Mutex{}
		b.chatLocks[chatID] = lock
	}
	return lock
}

func (b *ShopBotServices) setMenuMsgID(chatID int64, messageID int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.menuMsgIDs[chatID] = messageID
}

func (b *ShopBotServices) menuMsgID(chatID int64) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.menuMsgIDs[chatID]
}

func (b *ShopBotServices) setCardMsgID(chatID int64, messageID int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cardMsgIDs[chatID] = messageID
}

func (b *ShopBotServices) cardMsgID(chatID int64) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cardMsgIDs[chatID]
}

func (b *ShopBotServices) setLastProductID(chatID int64, productID int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastProductIDs[chatID] = productID
}

// sendMessage sends a message to the specified chat with optional parse
// mode and markup.
// Arguments:
//   - chatID: the ID of the chat to send the message to.
//   - text: the text content of the message.
//   - parseMode: "" for plain text or e.g. tgbotapi.ModeMarkdown.
//   - markup: an optional inline keyboard (nil if none).
//
// Returns the sent message id and an error if the message fails to send.
func (b *ShopBotServices) sendMessage(chatID int64, text, parseMode string, markup interface{}) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = parseMode
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	sent, err := b.Bot.Send(msg)
	if err != nil {
		logrus.WithError(err).Errorf("Failed to send message to chat %d: %s", chatID, text)
		return 0, err
	}
	return sent.MessageID, nil
}

// deleteMessage removes a previously sent message. Failures are expected
// (the message may already be gone) and are only logged.
func (b *ShopBotServices) deleteMessage(chatID int64, messageID int) {
	if messageID == 0 {
		return
	}
	if _, err := b.Bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		logrus.Infof("Не удалось удалить сообщение %d в чате %d: %v", messageID, chatID, err)
	}
}

// answerCallback acknowledges a callback query so the client stops showing
// the progress indicator.
func (b *ShopBotServices) answerCallback(callbackID string) {
	if callbackID == "" {
		return
	}
	if _, err := b.Bot.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
		logrus.WithError(err).Info("Failed to answer callback query")
	}
}

// getKeyboardRow creates a single-row inline keyboard with one button.
// Arguments:
//   - buttonText: the text displayed on the button.
//   - buttonCode: the callback data associated with the button.
//
// Returns a slice of InlineKeyboardButton representing the row.
func (b *ShopBotServices) getKeyboardRow(buttonText, buttonCode string) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(buttonText, buttonCode))
}

// buildMenuKeyboard renders the catalog as one button per product plus the
// cart button. With no products available it degrades to a placeholder
// button instead of failing.
func (b *ShopBotServices) buildMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	products := b.Catalog.ListProducts()

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, product := range products {
		if product.ID == 0 {
			continue
		}
		rows = append(rows, b.getKeyboardRow(product.Title, strconv.Itoa(product.ID)))
	}
	if len(rows) == 0 {
		rows = append(rows, b.getKeyboardRow(constant.BUTTON_TEXT_NO_PRODUCTS, constant.BUTTON_CODE_NO_PRODUCTS))
	}
	rows = append(rows, b.getKeyboardRow(constant.BUTTON_TEXT_SHOW_CART, constant.BUTTON_CODE_SHOW_CART))

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// sendMenu sends the catalog keyboard and remembers the menu message id so
// a later product selection can delete it.
// Arguments:
//   - chatID: the chat to render the menu in.
//   - text: the prompt above the keyboard.
func (b *ShopBotServices) sendMenu(chatID int64, text string) error {
	msgID, err := b.sendMessage(chatID, text, "", b.buildMenuKeyboard())
	if err != nil {
		return err
	}
	b.setMenuMsgID(chatID, msgID)
	return nil
}

// chatTgID renders the chat id the way the backend stores it in tg_id
// fields.
func chatTgID(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

// formatQty renders quantities and prices without trailing zeros, matching
// the backend's numbers as the user entered them.
func formatQty(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// formatQtyFloat renders a quantity with a decimal part even for whole
// numbers, so the add confirmation reads "+1.0 кг".
func formatQtyFloat(value float64) string {
	s := strconv.FormatFloat(value, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// truncateRunes shortens s to at most n runes.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
