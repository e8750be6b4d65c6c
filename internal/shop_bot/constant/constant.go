package constant

const (
	EMOJI_BASKET      = "\U0001F9FA"            //🧺
	EMOJI_SHOP_CART   = "\U0001F6D2"            //🛒
	EMOJI_FISH        = "\U0001F41F"            //🐟
	EMOJI_CREDIT_CARD = "\U0001F4B3"            //💳
	EMOJI_CROSS_MARK  = "\U0000274C"            //❌
	EMOJI_ARROW_LEFT  = "\U00002B05\U0000FE0F"  //⬅️
	EMOJI_CHECK_MARK  = "\U00002705"            //✅

	BUTTON_TEXT_SHOW_CART     = EMOJI_BASKET + " Моя корзина"
	BUTTON_TEXT_ADD_TO_CART   = EMOJI_SHOP_CART + " Добавить в корзину"
	BUTTON_TEXT_BACK_TO_MENU  = EMOJI_ARROW_LEFT + " Назад к меню"
	BUTTON_TEXT_TO_MENU       = "В меню"
	BUTTON_TEXT_TO_MENU_ARROW = EMOJI_ARROW_LEFT + " В меню"
	BUTTON_TEXT_PAY           = EMOJI_CREDIT_CARD + " Оплатить"
	BUTTON_TEXT_NO_PRODUCTS   = "Нет доступных товаров"
	BUTTON_TEXT_REMOVE_ITEM   = EMOJI_CROSS_MARK + " Убрать: "

	BUTTON_CODE_SHOW_CART    = "show_cart"
	BUTTON_CODE_NO_PRODUCTS  = "no_products"
	BUTTON_CODE_BACK_TO_MENU = "back_to_menu"
	BUTTON_CODE_PAY          = "pay"

	// Prefixed callback payloads carry the target id after the prefix.
	PREFIX_ADD_PRODUCT = "add_"
	PREFIX_REMOVE_ITEM = "remove_item_"
)
