// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig covers ports, TLS, logging and CORS. Everything the
// experiment service itself needs lives here and is passed to every
// lifecycle hook.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI            string
	MongoDatabase       string
	MongoMaxPoolSize    uint64
	MongoMinPoolSize    uint64
	MongoConnectTimeout time.Duration

	// Session cookie
	SessionKey    string // must be 32+ bytes outside dev
	SessionName   string
	SessionDomain string // blank means current host
	SessionMaxAge time.Duration

	// Email/SMTP configuration (Mailpit on :1025 in dev)
	MailSMTPHost string
	MailSMTPPort int
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string
	MailFromName string

	// BaseURL prefixes links in outgoing mail, e.g. the reset link.
	BaseURL string

	// Password reset
	ResetCooldown time.Duration
	ResetTokenTTL time.Duration

	// Partner directory cache lifetime per user.
	PartnerCacheTTL time.Duration

	// AdminContact is appended to the "awaiting approval" notice.
	AdminContact string

	// LoginRateLimit is sign-in attempts per minute per client address.
	LoginRateLimit int

	// TimeZone renders dates on the experiment list.
	TimeZone string

	// CleanupInterval paces the expired cooldown/token sweep.
	CleanupInterval time.Duration
}
