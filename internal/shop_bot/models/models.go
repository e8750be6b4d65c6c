// Package models contains the domain types of the shop bot: the dialogue
// state machine labels, the inbound event union and the read models of the
// Strapi resources (products, carts, cart items, clients).
package models

import "strconv"

// DialogueState is the durable per-chat cursor of the conversation.
// The labels match the values the bot stores in Redis.
type DialogueState string

const (
	StateStart        DialogueState = "START"
	StateMenu         DialogueState = "HANDLE_MENU"
	StateDescription  DialogueState = "HANDLE_DESCRIPTION"
	StateCart         DialogueState = "HANDLE_CART"
	StateWaitingEmail DialogueState = "WAITING_EMAIL"
)

// EventKind tags the two shapes a Telegram update can take for this bot.
type EventKind int

const (
	EventText   EventKind = iota // plain text message
	EventButton                  // inline keyboard callback
)

// InboundEvent is a Telegram update resolved once at ingestion into the
// only two variants the dialogue engine distinguishes.
type InboundEvent struct {
	Kind       EventKind
	ChatID     int64
	Text       string // set for EventText
	Payload    string // callback data, set for EventButton
	MessageID  int    // message the event originated from
	CallbackID string // callback query id, set for EventButton
}

// Product is a read-only view over the content backend. ImageURL is already
// resolved to an absolute URL, or empty if the product has no picture.
type Product struct {
	ID          int
	Title       string
	Description string
	Price       float64
	QtyKg       float64 // kilograms added per "add to cart" press, 0 if unset
	ImageURL    string
}

// Cart is owned by one chat identity; at most one exists per tg_id.
type Cart struct {
	ID         int
	DocumentID string
	TgID       string
}

// CartItem links one product to one cart with a quantity in kilograms.
// A quantity of zero or less means the item is logically absent even if the
// backend record still exists.
type CartItem struct {
	ID         int
	DocumentID string
	QtyKg      float64
	Product    Product
}

// Identifier returns the id used to address the item in the backend,
// preferring the durable document id over the raw numeric one.
func (i CartItem) Identifier() string {
	if i.DocumentID != "" {
		return i.DocumentID
	}
	return strconv.Itoa(i.ID)
}

// Client is the contact record captured before the payment handoff.
type Client struct {
	ID         int
	DocumentID string
	TgID       string
	Email      string
}
