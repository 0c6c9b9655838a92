package api

import (
	"context"
	"net/http"

	"github.com/Harshitk-cp/crmgate/internal/api/handlers"
	mw "github.com/Harshitk-cp/crmgate/internal/api/middleware"
	"github.com/Harshitk-cp/crmgate/internal/bitrix"
	"github.com/Harshitk-cp/crmgate/internal/config"
	"github.com/Harshitk-cp/crmgate/internal/domain"
	"github.com/Harshitk-cp/crmgate/internal/lock"
	"github.com/Harshitk-cp/crmgate/internal/oauth"
	"github.com/Harshitk-cp/crmgate/internal/service"
	"github.com/Harshitk-cp/crmgate/internal/store"
	"github.com/Harshitk-cp/crmgate/internal/store/mongodb"
	"github.com/Harshitk-cp/crmgate/internal/transport"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// App holds the router and the services behind it.
type App struct {
	Router      *chi.Mux
	Credentials *service.CredentialService
	Contacts    *service.ContactService
}

// NewApp wires the gateway. locker may be nil to serialize refreshes only
// within this process. ctx bounds background work started by middleware.
func NewApp(ctx context.Context, cfg *config.Config, creds domain.CredentialStore, locker lock.Locker, logger *zap.Logger) *App {
	httpClient := transport.NewHTTPClient(cfg.RemoteTimeout)

	// Clients
	oauthClient := oauth.NewClient(oauth.Settings{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURI:  cfg.RedirectURI,
	}, oauth.WithHTTPClient(httpClient), oauth.WithScheme(cfg.RemoteScheme))

	// Services
	var credOpts []service.CredentialOption
	if locker != nil {
		credOpts = append(credOpts, service.WithLocker(locker))
	}
	credentialSvc := service.NewCredentialService(creds, oauthClient, logger, credOpts...)

	bitrixClient := bitrix.NewClient(credentialSvc, logger,
		bitrix.WithHTTPClient(httpClient), bitrix.WithScheme(cfg.RemoteScheme))
	contactSvc := service.NewContactService(bitrixClient, logger)
	lookupSvc := service.NewLookupService(bitrixClient)

	// Handlers
	installHandler := handlers.NewInstallHandler(credentialSvc, logger)
	healthHandler := handlers.NewHealthHandler(creds)
	contactHandler := handlers.NewContactHandler(contactSvc)
	lookupHandler := handlers.NewLookupHandler(lookupSvc)

	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Metrics)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst))

	// Unauthenticated
	r.Get("/health", healthHandler.Get)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Post("/install", installHandler.Post)
	r.Get("/install", installHandler.Get)

	r.Route("/test", func(r chi.Router) {
		r.Get("/contacts", lookupHandler.Contacts())
		r.Get("/user", lookupHandler.CurrentUser())
		r.Get("/deals", lookupHandler.Deals())
		r.Get("/leads", lookupHandler.Leads())
	})

	// Authenticated
	r.Route("/contacts", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(cfg.APIKey))

		r.Get("/", contactHandler.List)
		r.Post("/", contactHandler.Create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", contactHandler.GetByID)
			r.Put("/", contactHandler.Update)
			r.Delete("/", contactHandler.Delete)
		})
	})

	return &App{
		Router:      r,
		Credentials: credentialSvc,
		Contacts:    contactSvc,
	}
}

// Ensure stores and clients satisfy interfaces at compile time.
var (
	_ domain.CredentialStore = (*store.CredentialStore)(nil)
	_ domain.CredentialStore = (*store.MemoryCredentialStore)(nil)
	_ domain.CredentialStore = (*mongodb.CredentialStore)(nil)
	_ service.TokenExchanger = (*oauth.Client)(nil)
	_ service.Caller         = (*bitrix.Client)(nil)
	_ service.Lookups        = (*bitrix.Client)(nil)
	_ bitrix.TokenSource     = (*service.CredentialService)(nil)
	_ lock.Locker            = (*lock.RedisLocker)(nil)
	_ lock.Locker            = (*lock.MemoryLocker)(nil)
)
