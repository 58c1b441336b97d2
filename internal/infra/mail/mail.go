package mail

import (
	"crypto/tls"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"circulation_recall_daemon/internal/domain/mailer"
	"circulation_recall_daemon/internal/infra/config"
	"circulation_recall_daemon/internal/infra/metrics"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// ErrMailDisabled is returned by the disabled sender. Letters are never recorded as
// sent while mail is switched off.
var ErrMailDisabled = errors.New("mail delivery is disabled (SMTP_HOST not set)")

type sender struct {
	dialer         *gomail.Dialer
	send           func(m ...*gomail.Message) error
	from           string
	replyTo        string
	retryCount     int
	retryBackoffMs int
	logger         *logrus.Entry
}

// NewSender returns an SMTP sender using from as the From header, or a disabled
// sender when no SMTP host is configured.
func NewSender(cfg *config.AppConfig, from string, logger *logrus.Entry) mailer.Sender {
	if !cfg.IsMailEnabled() {
		logger.Warn("Mail delivery disabled (SMTP_HOST not set)")
		return disabledSender{logger: logger}
	}

	logger.WithFields(logrus.Fields{
		"host": cfg.SMTPHost,
		"port": cfg.SMTPPort,
		"user": cfg.SMTPUser,
	}).Info("Initializing mail sender")

	d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	if cfg.SMTPInsecureSkipVerify {
		logger.Warn("InsecureSkipVerify is enabled for mail TLS connection")
		d.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}

	retryCount := cfg.MailRetryCount
	if retryCount < 0 {
		retryCount = 0
	}
	retryBackoffMs := cfg.MailRetryBackoffMs
	if retryBackoffMs <= 0 {
		retryBackoffMs = 100
	}

	return &sender{
		dialer:         d,
		send:           d.DialAndSend,
		from:           from,
		replyTo:        cfg.ContactEmail,
		retryCount:     retryCount,
		retryBackoffMs: retryBackoffMs,
		logger:         logger,
	}
}

func (s *sender) Send(to []string, subject, body string) error {
	if len(to) == 0 {
		return fmt.Errorf("no recipients for %q", subject)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	if s.replyTo != "" {
		msg.SetHeader("Reply-To", s.replyTo)
	}
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	var lastErr error
	backoffMs := s.retryBackoffMs
	log := s.logger.WithField("recipients", strings.Join(to, ","))

	for attempt := 0; attempt <= s.retryCount; attempt++ {
		err := s.send(msg)
		if err == nil {
			log.WithField("attempt", attempt+1).Debug("Mail sent")
			metrics.MailSendSuccess.WithLabelValues(s.host()).Inc()
			return nil
		}

		lastErr = err
		if attempt < s.retryCount {
			log.WithError(err).Warnf("Send attempt %d failed, retrying in %dms", attempt+1, backoffMs)
			time.Sleep(time.Duration(backoffMs) * time.Millisecond)
			backoffMs = int(math.Min(float64(backoffMs)*2, 32000))
		}
	}

	metrics.MailSendFailure.WithLabelValues(s.host()).Inc()
	return fmt.Errorf("failed to send mail after %d attempts: %w", s.retryCount+1, lastErr)
}

func (s *sender) host() string {
	if s.dialer == nil {
		return ""
	}
	return s.dialer.Host
}

type disabledSender struct {
	logger *logrus.Entry
}

func (d disabledSender) Send(to []string, subject, _ string) error {
	d.logger.WithField("subject", subject).Debugf("Mail to %v not sent, delivery disabled", to)
	return ErrMailDisabled
}
