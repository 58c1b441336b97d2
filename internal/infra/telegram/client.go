// internal/infra/telegram/client.go
package telegram

import (
	"gopkg.in/telebot.v3"
)

// maxMessageLength is Telegram's limit for a single text message.
const maxMessageLength = 4096

// TelebotAdapter implements the Client interface using the gopkg.in/telebot.v3 library.
type TelebotAdapter struct {
	bot *telebot.Bot
}

func NewTelebotAdapter(b *telebot.Bot) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

// SendMessage sends a text message to the specified recipient.
func (tba *TelebotAdapter) SendMessage(recipientChatID int64, text string) error {
	recipient := &telebot.User{ID: recipientChatID} // The operator talks to the bot in a private chat
	_, err := tba.bot.Send(recipient, truncate(text), &telebot.SendOptions{DisableWebPagePreview: true})
	return err
}

func truncate(text string) string {
	r := []rune(text)
	if len(r) <= maxMessageLength {
		return text
	}
	return string(r[:maxMessageLength-1]) + "…"
}
