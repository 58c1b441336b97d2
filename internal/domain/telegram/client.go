package telegram

// Client sends plain text messages to a Telegram chat.
// This keeps the operator notifications independent of the bot library.
type Client interface {
	SendMessage(recipientChatID int64, text string) error
}
