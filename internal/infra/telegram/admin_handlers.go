package telegram

import (
	"context"
	"errors"

	"circulation_recall_daemon/internal/app"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const unauthorizedReply = "Error: you are not allowed to run this command."

// RegisterAdminHandlers registers handlers for operator commands.
func RegisterAdminHandlers(ctx context.Context, b *telebot.Bot, operator *app.OperatorService, baseLogger *logrus.Entry) {
	b.Handle("/status", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/status",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")
		return c.Send(statusReply(operator, c.Sender().ID, handlerLogger))
	})

	b.Handle("/run_recalls", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/run_recalls",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")
		if !operator.IsAdmin(c.Sender().ID) {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(unauthorizedReply)
		}
		if err := c.Send("Recall sweep started..."); err != nil {
			handlerLogger.WithError(err).Warn("Failed to acknowledge command")
		}
		return c.Send(runRecallsReply(ctx, operator, c.Sender().ID, handlerLogger))
	})
}

func statusReply(operator *app.OperatorService, senderID int64, log *logrus.Entry) string {
	status, err := operator.Status(senderID)
	if err != nil {
		log.WithError(err).Warn("Unauthorized access attempt")
		return unauthorizedReply
	}
	return status
}

func runRecallsReply(ctx context.Context, operator *app.OperatorService, senderID int64, log *logrus.Entry) string {
	summary, err := operator.RunRecalls(ctx, senderID)
	switch {
	case err == nil:
		log.Info("Recall sweep triggered from bot finished")
		return summary
	case errors.Is(err, app.ErrAdminNotAuthorized):
		log.WithError(err).Warn("Admin not authorized (service level)")
		return unauthorizedReply
	case errors.Is(err, app.ErrSweepInProgress):
		log.Info("Recall sweep already running")
		return "A recall sweep is already running, try again later."
	default:
		log.WithError(err).Error("Recall sweep triggered from bot failed")
		return "Recall sweep failed: " + err.Error()
	}
}
