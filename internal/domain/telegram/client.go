package telegram

import "gopkg.in/telebot.v3"

// Client is the messaging sink used by the reminder engine. Delivery is
// fire-and-forget from the engine's point of view: a failed send is logged
// by the caller and not retried here.
type Client interface {
	SendMessage(chatID int64, text string, options *telebot.SendOptions) error
}
