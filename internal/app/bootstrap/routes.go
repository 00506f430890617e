// internal/app/bootstrap/routes.go
package bootstrap

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	dashboardfeature "github.com/volcani/experimenthub/internal/app/features/dashboard"
	errorsfeature "github.com/volcani/experimenthub/internal/app/features/errors"
	experimentsfeature "github.com/volcani/experimenthub/internal/app/features/experiments"
	healthfeature "github.com/volcani/experimenthub/internal/app/features/health"
	loginfeature "github.com/volcani/experimenthub/internal/app/features/login"
	logoutfeature "github.com/volcani/experimenthub/internal/app/features/logout"
	passwordresetfeature "github.com/volcani/experimenthub/internal/app/features/passwordreset"
	registerfeature "github.com/volcani/experimenthub/internal/app/features/register"
	cooldownstore "github.com/volcani/experimenthub/internal/app/store/cooldowns"
	experimentstore "github.com/volcani/experimenthub/internal/app/store/experiments"
	publicprofilestore "github.com/volcani/experimenthub/internal/app/store/publicprofiles"
	resettokenstore "github.com/volcani/experimenthub/internal/app/store/resettokens"
	userstore "github.com/volcani/experimenthub/internal/app/store/users"
	"github.com/volcani/experimenthub/internal/app/system/auth"
	"github.com/volcani/experimenthub/internal/app/system/mailer"
	"github.com/volcani/experimenthub/internal/app/system/metrics"
	"go.uber.org/zap"
)

// Version is stamped at build time with -ldflags "-X ...bootstrap.Version=".
var Version = "dev"

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed. Every route below /dashboard and /experiments
// requires an approved session; the fetcher installed on the session
// manager enforces the approval flag on each request.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	db := deps.MongoDatabase
	sessionMgr.SetFetcher(userstore.NewFetcher(db))

	loc, err := time.LoadLocation(appCfg.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", appCfg.TimeZone, err)
	}

	errLog := errorsfeature.NewErrorLogger(logger)
	m := metrics.New(db)
	limiter := bg.authLimiter(appCfg.LoginRateLimit)

	users := userstore.New(db)
	experiments := experimentstore.New(db)
	mail := mailer.New(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		User:     appCfg.MailSMTPUser,
		Pass:     appCfg.MailSMTPPass,
		From:     appCfg.MailFrom,
		FromName: appCfg.MailFromName,
	}, logger)

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if signed in
	// and approved.
	r.Use(sessionMgr.LoadSessionUser)

	healthHandler := healthfeature.NewHandler(deps.MongoClient, Version, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Method(http.MethodGet, "/metrics", m.Handler())

	// Authentication
	loginHandler := loginfeature.NewHandler(users, sessionMgr, limiter, m, appCfg.AdminContact, errLog, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	registerHandler := registerfeature.NewHandler(users, sessionMgr, m, errLog, logger)
	r.Mount("/register", registerfeature.Routes(registerHandler))

	resetHandler := passwordresetfeature.NewHandler(
		users,
		cooldownstore.New(db),
		resettokenstore.New(db),
		mail,
		sessionMgr,
		limiter,
		m,
		appCfg.BaseURL,
		appCfg.ResetCooldown,
		appCfg.ResetTokenTTL,
		errLog,
		logger,
	)
	r.Mount("/forgot-password", passwordresetfeature.ForgotRoutes(resetHandler))
	r.Mount("/reset-password", passwordresetfeature.ResetRoutes(resetHandler))

	// Signed-in areas
	dashboardHandler := dashboardfeature.NewHandler(experiments, m, loc, errLog, logger)
	r.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler, sessionMgr))

	experimentsHandler := experimentsfeature.NewHandler(experiments, publicprofilestore.New(db), m, appCfg.PartnerCacheTTL, errLog, logger)
	r.Mount("/experiments", experimentsfeature.Routes(experimentsHandler, sessionMgr))

	// Fallbacks
	errorsHandler := errorsfeature.NewHandler(errLog)
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.NotFound(errorsHandler.NotFoundRoute)

	return r, nil
}
