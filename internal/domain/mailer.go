package domain

// Mailer defines the contract for sending emails (infrastructure port).
// Used only for operator alerts when local and remote state may have
// diverged; never on the user-facing request path.
type Mailer interface {
	Send(to, subject, html, text string) error
}
