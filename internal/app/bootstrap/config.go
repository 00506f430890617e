// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for ExperimentHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: EXPERIMENTHUB_MONGO_URI, EXPERIMENTHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "experiment_hub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 5, Desc: "MongoDB min connection pool size"},
	{Name: "mongo_connect_timeout", Default: "10s", Desc: "Deadline for the initial MongoDB connect and ping"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "experimenthub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session cookie lifetime"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "localhost", Desc: "SMTP server host"},
	{Name: "mail_smtp_port", Default: 1025, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@experimenthub.local", Desc: "From email address"},
	{Name: "mail_from_name", Default: "מיזם ח\"ץ", Desc: "From display name"},

	{Name: "base_url", Default: "http://localhost:3000", Desc: "Base URL for email links"},

	// Password reset
	{Name: "reset_cooldown", Default: "180s", Desc: "Wait between reset requests for one address"},
	{Name: "reset_token_ttl", Default: "1h", Desc: "Lifetime of an e-mailed reset link"},

	{Name: "partner_cache_ttl", Default: "2m", Desc: "How long a user's partner directory is cached"},
	{Name: "admin_contact", Default: "", Desc: "Contact line shown to users awaiting approval"},
	{Name: "login_rate_limit", Default: 10, Desc: "Sign-in attempts per minute per client address"},
	{Name: "time_zone", Default: "Asia/Jerusalem", Desc: "IANA zone used to render dates"},
	{Name: "cleanup_interval", Default: "1m", Desc: "Interval of the expired cooldown/token sweep"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// Precedence is flags > env > files > defaults, handled by
// config.LoadWithAppConfig.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "EXPERIMENTHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:            appValues.String("mongo_uri"),
		MongoDatabase:       appValues.String("mongo_database"),
		MongoMaxPoolSize:    uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize:    uint64(appValues.Int("mongo_min_pool_size")),
		MongoConnectTimeout: appValues.Duration("mongo_connect_timeout", 10*time.Second),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 30*24*time.Hour),

		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),

		BaseURL: appValues.String("base_url"),

		ResetCooldown: appValues.Duration("reset_cooldown", 180*time.Second),
		ResetTokenTTL: appValues.Duration("reset_token_ttl", time.Hour),

		PartnerCacheTTL: appValues.Duration("partner_cache_ttl", 2*time.Minute),
		AdminContact:    appValues.String("admin_contact"),
		LoginRateLimit:  appValues.Int("login_rate_limit"),
		TimeZone:        appValues.String("time_zone"),
		CleanupInterval: appValues.Duration("cleanup_interval", time.Minute),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	return validateApp(coreCfg.Env, appCfg)
}

// validateApp holds the checks that do not need a logger.
func validateApp(env string, appCfg AppConfig) error {
	var errs []error

	if appCfg.MongoDatabase == "" {
		errs = append(errs, errors.New("mongo_database is required"))
	}
	if env != "dev" && len(appCfg.SessionKey) < 32 {
		errs = append(errs, fmt.Errorf("session_key must be at least 32 bytes outside dev (got %d)", len(appCfg.SessionKey)))
	}
	if appCfg.SessionMaxAge <= 0 {
		errs = append(errs, errors.New("session_max_age must be positive"))
	}
	if appCfg.ResetCooldown <= 0 {
		errs = append(errs, errors.New("reset_cooldown must be positive"))
	}
	if appCfg.ResetTokenTTL <= 0 {
		errs = append(errs, errors.New("reset_token_ttl must be positive"))
	}
	if appCfg.MailSMTPPort <= 0 || appCfg.MailSMTPPort > 65535 {
		errs = append(errs, fmt.Errorf("mail_smtp_port %d is out of range", appCfg.MailSMTPPort))
	}
	if u, err := url.Parse(appCfg.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("base_url %q must be an absolute URL", appCfg.BaseURL))
	}
	if _, err := time.LoadLocation(appCfg.TimeZone); err != nil {
		errs = append(errs, fmt.Errorf("time_zone %q: %w", appCfg.TimeZone, err))
	}

	return errors.Join(errs...)
}
