package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/ecofinds/marketplace/docs"
	"github.com/ecofinds/marketplace/internal/api/handler"
	"github.com/ecofinds/marketplace/internal/api/middleware"
	"github.com/ecofinds/marketplace/internal/core/identity"
	"github.com/ecofinds/marketplace/internal/core/ports"
	"github.com/ecofinds/marketplace/internal/infrastructure/http/handlers"
	"github.com/ecofinds/marketplace/internal/infrastructure/storage/local"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Log      zerolog.Logger
	Auth     ports.AuthService
	Listings ports.ListingService
	Carts    ports.CartService
	Orders   ports.OrderService
	Images   ports.ImageStore

	// UploadDir is served under /uploads when images are stored on local disk.
	UploadDir string
	// BodyLimit caps request bodies, e.g. "10M". Empty disables the limit.
	BodyLimit string
	// Checks are probed by /health/ready.
	Checks []handlers.Checker
	// Registerer receives the HTTP metrics. Defaults to the global registry.
	Registerer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "marketplace",
		Registerer: deps.Registerer,
	}))
	if deps.BodyLimit != "" {
		e.Use(echomiddleware.BodyLimit(deps.BodyLimit))
	}
	e.Use(middleware.Authenticate(deps.Auth))

	// --- Dependencies ---
	idp := identity.ContextProvider{}
	authHandler := handler.NewAuthHandler(deps.Auth, idp)
	profileHandler := handler.NewProfileHandler(deps.Auth, deps.Listings, idp)
	listingHandler := handler.NewListingHandler(deps.Listings, deps.Images, idp, deps.Log.With().Str("component", "listings").Logger())
	cartHandler := handler.NewCartHandler(deps.Carts, deps.Images, idp)
	orderHandler := handler.NewOrderHandler(deps.Orders, idp)
	imageHandler := handler.NewImageHandler(deps.Images, idp)
	requireUser := middleware.RequireIdentity()

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.GET("/me", authHandler.Me, requireUser)
	e.PATCH("/me", profileHandler.UpdateMe, requireUser)

	// --- Catalog (anonymous read) ---
	e.GET("/categories", listingHandler.Categories)
	e.GET("/listings", listingHandler.List)
	e.GET("/listings/:id", listingHandler.Get)

	// --- Product store (owner mutations) ---
	e.POST("/listings", listingHandler.Create, requireUser)
	e.PATCH("/listings/:id", listingHandler.Update, requireUser)
	e.DELETE("/listings/:id", listingHandler.Delete, requireUser)
	e.GET("/me/listings", listingHandler.Mine, requireUser)
	e.POST("/images", imageHandler.Upload, requireUser)

	// --- Cart ledger ---
	e.GET("/cart", cartHandler.Get, requireUser)
	e.DELETE("/cart", cartHandler.Clear, requireUser)
	e.POST("/cart/items", cartHandler.AddItem, requireUser)
	e.GET("/cart/items/:id", cartHandler.Contains, requireUser)
	e.DELETE("/cart/items/:id", cartHandler.RemoveItem, requireUser)

	// --- Orders ---
	e.POST("/checkout", orderHandler.Checkout, requireUser)
	e.GET("/orders", orderHandler.List, requireUser)
	e.GET("/orders/:id", orderHandler.Get, requireUser)

	if deps.UploadDir != "" {
		e.Static(local.URLPrefix, deps.UploadDir)
	}

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.Checks...)

	e.GET("/health", healthHandler.Liveness)            // liveness: is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness: are dependencies up?

	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Status >= http.StatusInternalServerError {
				evt = log.Error().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
