package telegram

import (
	"fmt"
	"strings"

	"circulation_recall_daemon/internal/app"
	domainTelegram "circulation_recall_daemon/internal/domain/telegram"

	"github.com/sirupsen/logrus"
)

// Notifier pushes the outcome of scheduled jobs to the operator chat.
type Notifier struct {
	client  domainTelegram.Client
	history *app.History
	adminID int64
	logger  *logrus.Entry
}

func NewNotifier(client domainTelegram.Client, history *app.History, adminID int64, logger *logrus.Entry) *Notifier {
	return &Notifier{client: client, history: history, adminID: adminID, logger: logger}
}

// JobFinished matches the scheduler's completion callback.
func (n *Notifier) JobFinished(job string, err error) {
	var b strings.Builder
	if err != nil {
		fmt.Fprintf(&b, "Scheduled job %s finished with errors: %v", job, err)
	} else {
		fmt.Fprintf(&b, "Scheduled job %s finished", job)
	}
	for _, e := range n.history.LastRun(job) {
		b.WriteString("\n")
		b.WriteString(e.Summary)
	}
	if sendErr := n.client.SendMessage(n.adminID, b.String()); sendErr != nil {
		n.logger.WithError(sendErr).WithField("job", job).Error("Failed to notify operator")
	}
}
