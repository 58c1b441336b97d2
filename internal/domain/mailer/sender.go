package mailer

// Sender defines an interface for delivering a plain text letter.
// This decouples the recall sweep from the SMTP library.
type Sender interface {
	Send(to []string, subject, body string) error
}
