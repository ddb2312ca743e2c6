// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	adminfeature "github.com/dalemusser/eventportal/internal/app/features/admin"
	announcementsfeature "github.com/dalemusser/eventportal/internal/app/features/announcements"
	authgooglefeature "github.com/dalemusser/eventportal/internal/app/features/authgoogle"
	clubfeature "github.com/dalemusser/eventportal/internal/app/features/club"
	errorsfeature "github.com/dalemusser/eventportal/internal/app/features/errors"
	eventfeature "github.com/dalemusser/eventportal/internal/app/features/event"
	healthfeature "github.com/dalemusser/eventportal/internal/app/features/health"
	homefeature "github.com/dalemusser/eventportal/internal/app/features/home"
	loginfeature "github.com/dalemusser/eventportal/internal/app/features/login"
	logoutfeature "github.com/dalemusser/eventportal/internal/app/features/logout"
	recruitmentfeature "github.com/dalemusser/eventportal/internal/app/features/recruitment"
	uploadfeature "github.com/dalemusser/eventportal/internal/app/features/upload"
	userfeature "github.com/dalemusser/eventportal/internal/app/features/user"
	"github.com/dalemusser/eventportal/internal/app/system/metrics"
	"github.com/dalemusser/eventportal/internal/app/system/ratelimit"
	"github.com/dalemusser/eventportal/internal/app/system/secure"
	"github.com/dalemusser/eventportal/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// running is the component graph built by BuildHandler, kept so Shutdown
// can stop its workers.
var running *services

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed.
//
// Every request passes, in order: request id, recoverer, metrics, security
// headers, NoSQL operator stripping, the general rate limit, CSRF and
// optional authentication. Feature routers add their own guards.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	svc, err := newServices(coreCfg, appCfg, deps, logger)
	if err != nil {
		logger.Error("service init failed", zap.Error(err))
		return nil, err
	}
	svc.start()
	running = svc

	viewdata.Init("Event Portal", svc.Sessions)

	// Initialize and boot the template engine once at startup.
	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	db := deps.MongoDatabase
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(errorsfeature.Recoverer(logger, coreCfg.Env == "dev"))
	r.Use(metrics.Middleware)
	r.Use(secure.Headers)
	r.Use(svc.Operators.Middleware)

	// Error pages. NotFound is set before any Mount so subrouters inherit it.
	errorsHandler := errorsfeature.NewHandler()
	r.NotFound(errorsHandler.NotFound)
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.Get("/unauthorized", errorsHandler.Unauthorized)

	// Probes and scrapes sit outside the limiter and CSRF.
	var cache healthfeature.Pinger
	if svc.Redis != nil {
		cache = svc.Store.(healthfeature.Pinger)
	}
	r.Mount("/health", healthfeature.Routes(healthfeature.NewHandler(deps.MongoClient, cache, logger)))
	r.Handle("/metrics", metrics.Handler())

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	r.Group(func(app chi.Router) {
		app.Use(svc.Limiter.Middleware(ratelimit.General))
		app.Use(svc.CSRF.Middleware)
		app.Use(svc.Authn.LoadOptional)

		// Public pages
		homeHandler := homefeature.NewHandler(db, logger)
		app.Get("/", homeHandler.ServeRoot)

		// Authentication
		loginHandler := loginfeature.NewHandler(db, svc.Sessions, svc.CSRF, svc.Tokens, svc.Guard, svc.Sec,
			svc.Mailer, svc.ErrLog, appCfg.BaseURL, appCfg.Production, googleConfigured(appCfg), logger)
		authRouter := loginfeature.Routes(loginHandler, svc.Limiter)

		logoutHandler := logoutfeature.NewHandler(svc.Sessions, svc.Tokens, svc.CSRF, svc.Sec, appCfg.Production, logger)
		authRouter.Mount("/logout", logoutfeature.Routes(logoutHandler))

		googleHandler := authgooglefeature.NewHandler(db, svc.Sessions, loginHandler, svc.Sec,
			appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, logger)
		if googleHandler.IsConfigured() {
			authRouter.Mount("/google", authgooglefeature.Routes(googleHandler))
		}
		app.Mount("/auth", authRouter)

		mountPortal(app, db, svc, logger)

		// Strict authentication: a bad or revoked token is cleared and
		// answered 401 rather than falling through as a guest.
		app.Group(func(strict chi.Router) {
			strict.Use(svc.Authn.RequireAuth)

			adminHandler := adminfeature.NewHandler(db, svc.Images, svc.Sessions, svc.Sec, svc.Audit, svc.ErrLog, logger)
			strict.Mount("/admin", adminfeature.Routes(adminHandler))

			uploadHandler := uploadfeature.NewHandler(svc.Uploads, svc.Images, logger)
			strict.Mount("/upload", uploadfeature.Routes(uploadHandler))
		})
	})

	logger.Info("routes mounted",
		zap.Bool("google_auth", googleConfigured(appCfg)),
		zap.String("image_host", appCfg.ImageHost),
		zap.String("ttl_store", appCfg.TTLStore))

	return r, nil
}

func googleConfigured(appCfg AppConfig) bool {
	return appCfg.GoogleClientID != "" && appCfg.GoogleClientSecret != ""
}

// mountPortal mounts the content pages under their singular prefixes.
func mountPortal(app chi.Router, db *mongo.Database, svc *services, logger *zap.Logger) {
	userHandler := userfeature.NewHandler(db, svc.Images, svc.Sessions, svc.Sec, svc.Audit, svc.ErrLog, logger)
	app.Mount("/user", userfeature.Routes(userHandler))

	clubHandler := clubfeature.NewHandler(db, svc.Images, svc.Sessions, svc.Audit, svc.ErrLog, logger)
	app.Mount("/club", clubfeature.Routes(clubHandler))

	eventHandler := eventfeature.NewHandler(db, svc.Images, svc.Sessions, svc.Audit, svc.ErrLog, logger)
	app.Mount("/event", eventfeature.Routes(eventHandler))

	recruitmentHandler := recruitmentfeature.NewHandler(db, svc.Sessions, svc.Audit, svc.ErrLog, logger)
	app.Mount("/recruitment", recruitmentfeature.Routes(recruitmentHandler))

	announcementsHandler := announcementsfeature.NewHandler(db, svc.Sessions, svc.Audit, svc.ErrLog, logger)
	app.Mount("/announcements", announcementsfeature.Routes(announcementsHandler))
}
