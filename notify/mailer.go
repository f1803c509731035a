package notify

import "log"

// Mailer dispatches partner-facing email. Delivery failures never affect
// state transitions; callers surface them as warnings.
type Mailer interface {
	Send(to, subject, body string) error
}

// LogMailer writes mail to the process log. Swap in a real SMTP/SES client
// via SetMailer in production wiring.
type LogMailer struct{}

func (LogMailer) Send(to, subject, body string) error {
	log.Printf("mail to=%s subject=%q: %s", to, subject, body)
	return nil
}

var mailer Mailer = LogMailer{}

func SetMailer(m Mailer) { mailer = m }

func Send(to, subject, body string) error {
	return mailer.Send(to, subject, body)
}
