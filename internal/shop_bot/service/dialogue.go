package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/DenisKhanov/FishShopBot/internal/shop_bot/constant"
	"github.com/DenisKhanov/FishShopBot/internal/shop_bot/models"
)

// captionLimit is Telegram's photo caption ceiling; longer captions are cut
// to captionCut runes plus an ellipsis.
const (
	captionLimit = 1024
	captionCut   = 1000
)

// ResolveEvent collapses a Telegram update into the tagged event the engine
// dispatches on. The second result is false for updates the bot ignores
// (edits, stickers, callbacks without a source message).
func ResolveEvent(update *tgbotapi.Update) (models.InboundEvent, bool) {
	if update.Message != nil && update.Message.Text != "" {
		return models.InboundEvent{
			Kind:      models.EventText,
			ChatID:    update.Message.Chat.ID,
			Text:      update.Message.Text,
			MessageID: update.Message.MessageID,
		}, true
	}
	if update.CallbackQuery != nil && update.CallbackQuery.Message != nil {
		return models.InboundEvent{
			Kind:       models.EventButton,
			ChatID:     update.CallbackQuery.Message.Chat.ID,
			Payload:    update.CallbackQuery.Data,
			MessageID:  update.CallbackQuery.Message.MessageID,
			CallbackID: update.CallbackQuery.ID,
		}, true
	}
	return models.InboundEvent{}, false
}

// UpdateProcessing handles one incoming Telegram update: it resolves the
// event, loads the chat's dialogue state, runs the matching transition
// handler and commits the resulting state. A failed or panicking handler
// drops the event and forces the chat back to StateStart so the user is
// never stuck in a broken state.
// Arguments:
//   - ctx: request context.
//   - update: the Telegram update to process.
func (b *ShopBotServices) UpdateProcessing(ctx context.Context, update *tgbotapi.Update) {
	event, ok := ResolveEvent(update)
	if !ok {
		return
	}

	lock := b.chatLock(event.ChatID)
	lock.Lock()
	defer lock.Unlock()

	var state models.DialogueState
	if event.Kind == models.EventText && event.Text == "/start" {
		logrus.Infof("Команда /start от чата %d", event.ChatID)
		state = models.StateStart
	} else {
		var err error
		if state, err = b.Sessions.GetState(ctx, event.ChatID); err != nil {
			state = models.StateStart
		}
	}

	next, err := b.dispatch(ctx, state, event)
	if err != nil {
		logrus.WithError(err).Errorf("Ошибка в обработчике состояния %s для чата %d", state, event.ChatID)
		next = models.StateStart
	}
	if err = b.Sessions.SetState(ctx, event.ChatID, next); err != nil {
		logrus.WithError(err).Errorf("Не удалось сохранить состояние чата %d", event.ChatID)
	}
}

// dispatch routes the event to the handler of the current state. The switch
// is exhaustive over DialogueState; unknown labels (e.g. from a foreign
// Redis database) restart the dialogue.
func (b *ShopBotServices) dispatch(ctx context.Context, state models.DialogueState, event models.InboundEvent) (next models.DialogueState, err error) {
	defer func() {
		if r := recover(); r != nil {
			next = models.StateStart
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()

	switch state {
	case models.StateStart:
		return b.handleStart(event)
	case models.StateMenu:
		return b.handleMenu(ctx, event)
	case models.StateDescription:
		return b.handleDescription(ctx, event)
	case models.StateCart:
		return b.handleCart(ctx, event)
	case models.StateWaitingEmail:
		return b.handleWaitingEmail(event)
	default:
		return b.handleStart(event)
	}
}

// handleStart renders the catalog keyboard and moves the chat to the menu.
func (b *ShopBotServices) handleStart(event models.InboundEvent) (models.DialogueState, error) {
	b.answerCallback(event.CallbackID)

	text := "Выбери рыбу из меню:"
	if event.Kind == models.EventText {
		text = "Привет! Выбери рыбу из меню:"
	}
	if err := b.sendMenu(event.ChatID, text); err != nil {
		return models.StateStart, err
	}
	return models.StateMenu, nil
}

// handleMenu reacts to a product selection or the cart button while the
// catalog keyboard is shown.
func (b *ShopBotServices) handleMenu(ctx context.Context, event models.InboundEvent) (models.DialogueState, error) {
	if event.Kind == models.EventText {
		_, err := b.sendMessage(event.ChatID, "Нажми /start, чтобы увидеть меню.", "", nil)
		return models.StateStart, err
	}
	b.answerCallback(event.CallbackID)

	switch event.Payload {
	case constant.BUTTON_CODE_NO_PRODUCTS:
		_, err := b.sendMessage(event.ChatID, "Пока нет доступных товаров.", "", nil)
		return models.StateStart, err
	case constant.BUTTON_CODE_SHOW_CART:
		return b.showCart(event, false)
	}

	productID, err := strconv.Atoi(event.Payload)
	if err != nil {
		_, err = b.sendMessage(event.ChatID, "Не понял, какой товар выбран 🤔", "", nil)
		return models.StateMenu, err
	}

	product, found := b.Catalog.GetProduct(productID)
	if !found {
		_, err = b.sendMessage(event.ChatID, "Не удалось получить данные о товаре.", "", nil)
		return models.StateMenu, err
	}

	menuMsgID := b.menuMsgID(event.ChatID)
	if menuMsgID == 0 {
		menuMsgID = event.MessageID
	}
	b.deleteMessage(event.ChatID, menuMsgID)

	return b.sendProductCard(event.ChatID, product)
}

// sendProductCard renders the product card with its photo when one is
// available, falling back to a plain text message when the photo cannot be
// fetched or sent.
func (b *ShopBotServices) sendProductCard(chatID int64, product models.Product) (models.DialogueState, error) {
	caption := fmt.Sprintf("%s *%s*\nЦена: %s ₽\n\n%s",
		constant.EMOJI_FISH, product.Title, formatQty(product.Price), product.Description)
	if len([]rune(caption)) > captionLimit {
		caption = truncateRunes(caption, captionCut) + "…"
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		b.getKeyboardRow(constant.BUTTON_TEXT_ADD_TO_CART, constant.PREFIX_ADD_PRODUCT+strconv.Itoa(product.ID)),
		b.getKeyboardRow(constant.BUTTON_TEXT_SHOW_CART, constant.BUTTON_CODE_SHOW_CART),
		b.getKeyboardRow(constant.BUTTON_TEXT_BACK_TO_MENU, constant.BUTTON_CODE_BACK_TO_MENU),
	)

	msgID := 0
	if product.ImageURL != "" {
		data, err := b.Catalog.DownloadImage(product.ImageURL)
		if err != nil {
			logrus.WithError(err).Warn("Не удалось загрузить фото товара")
		} else {
			photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "fish.jpg", Bytes: data})
			photo.Caption = caption
			photo.ParseMode = tgbotapi.ModeMarkdown
			photo.ReplyMarkup = keyboard
			sent, sendErr := b.Bot.Send(photo)
			if sendErr != nil {
				logrus.WithError(sendErr).Warn("Не удалось отправить фото")
			} else {
				msgID = sent.MessageID
			}
		}
	}
	if msgID == 0 {
		var err error
		if msgID, err = b.sendMessage(chatID, caption, tgbotapi.ModeMarkdown, keyboard); err != nil {
			return models.StateMenu, err
		}
	}

	b.setCardMsgID(chatID, msgID)
	b.setLastProductID(chatID, product.ID)
	return models.StateDescription, nil
}

// handleDescription reacts to the buttons under a product card.
func (b *ShopBotServices) handleDescription(ctx context.Context, event models.InboundEvent) (models.DialogueState, error) {
	if event.Kind == models.EventText {
		_, err := b.sendMessage(event.ChatID, "Используй кнопки под карточкой товара или /start.", "", nil)
		return models.StateDescription, err
	}
	b.answerCallback(event.CallbackID)

	switch {
	case event.Payload == constant.BUTTON_CODE_BACK_TO_MENU:
		cardMsgID := b.cardMsgID(event.ChatID)
		if cardMsgID == 0 {
			cardMsgID = event.MessageID
		}
		b.deleteMessage(event.ChatID, cardMsgID)
		if err := b.sendMenu(event.ChatID, "Выбери рыбу из меню:"); err != nil {
			return models.StateDescription, err
		}
		return models.StateMenu, nil

	case event.Payload == constant.BUTTON_CODE_SHOW_CART:
		return b.showCart(event, false)

	case strings.HasPrefix(event.Payload, constant.PREFIX_ADD_PRODUCT):
		return b.addToCart(event)
	}

	return models.StateDescription, nil
}

// addToCart resolves the product behind an add button and adds its
// per-press quantity to the chat's cart. Backend failures degrade to a
// user-facing message and keep the card state.
func (b *ShopBotServices) addToCart(event models.InboundEvent) (models.DialogueState, error) {
	productID, err := strconv.Atoi(strings.TrimPrefix(event.Payload, constant.PREFIX_ADD_PRODUCT))
	if err != nil {
		_, err = b.sendMessage(event.ChatID, "Не понял, что добавить 🤔", "", nil)
		return models.StateDescription, err
	}

	product, found := b.Catalog.GetProduct(productID)
	if !found {
		_, err = b.sendMessage(event.ChatID, "Товар больше не доступен 😢", "", nil)
		return models.StateDescription, err
	}

	qty := product.QtyKg
	if qty <= 0 {
		qty = 1
	}

	cart, err := b.Cart.EnsureCart(chatTgID(event.ChatID))
	if err == nil {
		_, err = b.Cart.AddOrIncrement(cart.ID, productID, qty)
	}
	if err != nil {
		logrus.WithError(err).Error("Ошибка при добавлении в корзину")
		_, err = b.sendMessage(event.ChatID, "Не удалось добавить в корзину, попробуй ещё раз позже.", "", nil)
		return models.StateDescription, err
	}

	_, err = b.sendMessage(event.ChatID,
		fmt.Sprintf("Товар #%d: +%s кг добавлено в корзину.", productID, formatQtyFloat(qty)), "", nil)
	return models.StateDescription, err
}

// showCart renders the cart view: every item with a positive quantity, its
// subtotal, the running total and one removal button per item, plus the pay
// and back-to-menu actions. With replace set it edits the triggering
// message in place, falling back to a fresh message when the edit is
// rejected (e.g. "message is not modified" after a no-op redraw).
func (b *ShopBotServices) showCart(event models.InboundEvent, replace bool) (models.DialogueState, error) {
	cart, found, err := b.Cart.GetCart(chatTgID(event.ChatID))
	if err != nil {
		return models.StateCart, err
	}
	if !found {
		return models.StateCart, b.sendEmptyCart(event, replace)
	}

	allItems, err := b.Cart.ListItems(cart.ID)
	if err != nil {
		return models.StateCart, err
	}

	// Items soft-hidden by a zero quantity are logically absent.
	items := make([]models.CartItem, 0, len(allItems))
	for _, item := range allItems {
		if item.QtyKg <= 0 {
			continue
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return models.StateCart, b.sendEmptyCart(event, replace)
	}

	lines := []string{constant.EMOJI_BASKET + " *Ваша корзина:*", ""}
	var total float64
	var rows [][]tgbotapi.InlineKeyboardButton

	for idx, item := range items {
		subtotal := item.QtyKg * item.Product.Price
		total += subtotal

		lines = append(lines, fmt.Sprintf("%d. %s\n— %s кг × %s ₽ = %.2f ₽\n",
			idx+1, item.Product.Title, formatQty(item.QtyKg), formatQty(item.Product.Price), subtotal))
		rows = append(rows, b.getKeyboardRow(
			constant.BUTTON_TEXT_REMOVE_ITEM+truncateRunes(item.Product.Title, 20)+"…",
			constant.PREFIX_REMOVE_ITEM+item.Identifier(),
		))
	}
	lines = append(lines, fmt.Sprintf("Итого: %.2f ₽", total))

	rows = append(rows, b.getKeyboardRow(constant.BUTTON_TEXT_PAY, constant.BUTTON_CODE_PAY))
	rows = append(rows, b.getKeyboardRow(constant.BUTTON_TEXT_TO_MENU_ARROW, constant.BUTTON_CODE_BACK_TO_MENU))

	keyboard := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return models.StateCart, b.sendCartMessage(event, strings.Join(lines, "\n"), keyboard, replace)
}

// sendEmptyCart shows the empty-cart placeholder; the only offered action
// is going back to the menu, so pay is unreachable from an empty cart.
func (b *ShopBotServices) sendEmptyCart(event models.InboundEvent, replace bool) error {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		b.getKeyboardRow(constant.BUTTON_TEXT_TO_MENU, constant.BUTTON_CODE_BACK_TO_MENU),
	)
	return b.sendCartMessage(event, constant.EMOJI_BASKET+" Ваша корзина пока пуста.", keyboard, replace)
}

// sendCartMessage delivers the cart view, editing the originating message
// in place when requested and possible.
func (b *ShopBotServices) sendCartMessage(event models.InboundEvent, text string, keyboard tgbotapi.InlineKeyboardMarkup, replace bool) error {
	if replace && event.Kind == models.EventButton {
		edit := tgbotapi.NewEditMessageTextAndMarkup(event.ChatID, event.MessageID, text, keyboard)
		edit.ParseMode = tgbotapi.ModeMarkdown
		if _, err := b.Bot.Send(edit); err == nil {
			return nil
		} else {
			logrus.Infof("Не удалось отредактировать сообщение корзины, отправляем новое: %v", err)
		}
	}
	_, err := b.sendMessage(event.ChatID, text, tgbotapi.ModeMarkdown, keyboard)
	return err
}

// handleCart reacts to the buttons under the cart view.
func (b *ShopBotServices) handleCart(ctx context.Context, event models.InboundEvent) (models.DialogueState, error) {
	if event.Kind == models.EventText {
		_, err := b.sendMessage(event.ChatID, "Используй кнопки внизу корзины.", "", nil)
		return models.StateCart, err
	}
	b.answerCallback(event.CallbackID)

	switch {
	case event.Payload == constant.BUTTON_CODE_BACK_TO_MENU:
		if err := b.sendMenu(event.ChatID, "Выбери рыбу из меню:"); err != nil {
			return models.StateCart, err
		}
		return models.StateMenu, nil

	case event.Payload == constant.BUTTON_CODE_PAY:
		_, err := b.sendMessage(event.ChatID, "Введите, пожалуйста, ваш e-mail для связи:", "", nil)
		if err != nil {
			return models.StateCart, err
		}
		return models.StateWaitingEmail, nil

	case strings.HasPrefix(event.Payload, constant.PREFIX_REMOVE_ITEM):
		itemID := strings.TrimPrefix(event.Payload, constant.PREFIX_REMOVE_ITEM)

		removed, err := b.Cart.RemoveItem(itemID)
		switch {
		case err != nil:
			logrus.WithError(err).Error("Ошибка при удалении из корзины")
			_, _ = b.sendMessage(event.ChatID, "Не удалось удалить товар, попробуй ещё раз позже.", "", nil)
		case removed:
			_, _ = b.sendMessage(event.ChatID, "Товар удалён из корзины "+constant.EMOJI_CHECK_MARK, "", nil)
		default:
			_, _ = b.sendMessage(event.ChatID, "Позиция уже была удалена.", "", nil)
		}

		return b.showCart(event, true)
	}

	return models.StateCart, nil
}

// handleWaitingEmail captures the contact email before the payment handoff.
func (b *ShopBotServices) handleWaitingEmail(event models.InboundEvent) (models.DialogueState, error) {
	if event.Kind == models.EventButton {
		b.answerCallback(event.CallbackID)
		_, err := b.sendMessage(event.ChatID, "Пожалуйста, отправьте ваш e-mail обычным сообщением.", "", nil)
		return models.StateWaitingEmail, err
	}

	email := strings.TrimSpace(event.Text)
	if !isValidEmail(email) {
		_, err := b.sendMessage(event.ChatID, "Похоже, это не e-mail. Отправьте, пожалуйста, почту ещё раз.", "", nil)
		return models.StateWaitingEmail, err
	}

	if _, err := b.Clients.UpsertClient(chatTgID(event.ChatID), email); err != nil {
		// The email capture must not strand the user; the failure is logged
		// and the dialogue continues.
		logrus.WithError(err).Error("Не удалось сохранить клиента в CMS")
	}
	logrus.Infof("Получен email от chat_id=%d: %s", event.ChatID, email)

	if _, err := b.sendMessage(event.ChatID, "Спасибо! Мы записали вашу почту: "+email, "", nil); err != nil {
		return models.StateWaitingEmail, err
	}
	if err := b.sendMenu(event.ChatID, "Можешь продолжить покупки:"); err != nil {
		return models.StateWaitingEmail, err
	}
	return models.StateMenu, nil
}

// isValidEmail applies the deliberately loose check the checkout uses:
// "@" and "." present anywhere in the trimmed text.
func isValidEmail(email string) bool {
	return strings.Contains(email, "@") && strings.Contains(email, ".")
}
