// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"strings"

	"circulation_recall_daemon/internal/app"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func RegisterBotCommands(b *telebot.Bot, operator *app.OperatorService, baseLogger *logrus.Entry) {
	startHelpLogger := baseLogger.WithField("handler_group", "start_help")

	b.Handle("/start", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := startHelpLogger.WithField("command", "/start").WithField("sender_id", senderID)
		logCtx.Info("Processing /start command")
		return c.Send(startReply(operator, senderID, c.Sender().FirstName))
	})

	b.Handle("/help", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := startHelpLogger.WithField("command", "/help").WithField("sender_id", senderID)
		logCtx.Info("Processing /help command")
		return c.Send(helpReply(operator, senderID))
	})
}

func startReply(operator *app.OperatorService, senderID int64, firstName string) string {
	if operator.IsAdmin(senderID) {
		return "Hello " + firstName + ", the circulation daemon is running. Use /help for the list of commands."
	}
	return "This bot only serves the circulation desk operator."
}

func helpReply(operator *app.OperatorService, senderID int64) string {
	if !operator.IsAdmin(senderID) {
		return "No commands are available to you."
	}
	var helpText strings.Builder
	helpText.WriteString("Operator commands:\n\n")
	helpText.WriteString("/status - latest outcome of every scheduled job\n")
	helpText.WriteString("/run_recalls - send today's overdue recall letters now\n")
	helpText.WriteString("/help - show this message")
	return helpText.String()
}
