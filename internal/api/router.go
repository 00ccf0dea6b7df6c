package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/parceltrack/delivery-platform/internal/api/handler"
	"github.com/parceltrack/delivery-platform/internal/api/middleware"
	"github.com/parceltrack/delivery-platform/internal/core/domain"
	"github.com/parceltrack/delivery-platform/internal/core/ports"
	"github.com/parceltrack/delivery-platform/internal/core/service"
	infmongo "github.com/parceltrack/delivery-platform/internal/infrastructure/db/mongo"
	infredis "github.com/parceltrack/delivery-platform/internal/infrastructure/db/redis"
)

// Options carries the runtime collaborators the router cannot build
// itself: the committed outbox dispatcher and the settings it needs.
type Options struct {
	JWTSecret       string
	PendingOrderTTL time.Duration
	Outbox          ports.NotificationQueue
	Logger          zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(db *mongo.Database, rdb *redis.Client, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(opts.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("parcel"))

	// --- Repositories ---
	shipmentRepo := infmongo.NewShipmentRepository(db)
	partnerRepo := infmongo.NewPartnerRepository(db)
	authRepo := infmongo.NewAuthRepository(db)

	dedup := infredis.NewDedupChecker(rdb)
	pendingOrders := infredis.NewPendingOrderStore(rdb, opts.PendingOrderTTL)
	publisher := infredis.NewPublisher(rdb)

	// --- Services ---
	assigner := service.NewAssignmentService(shipmentRepo, partnerRepo, opts.Logger)
	shipmentService := service.NewShipmentService(shipmentRepo, assigner, opts.Outbox, opts.Logger)
	transitionService := service.NewTransitionService(shipmentRepo, partnerRepo, dedup, opts.Outbox, opts.Logger)
	cancellationService := service.NewCancellationService(shipmentRepo, partnerRepo, opts.Outbox, opts.Logger)
	refundService := service.NewRefundService(shipmentRepo, partnerRepo, publisher, opts.Outbox, opts.Logger)
	complaintService := service.NewComplaintService(shipmentRepo, partnerRepo, opts.Outbox, opts.Logger)
	partnerService := service.NewPartnerMgmtService(partnerRepo, opts.Logger)
	paymentService := service.NewPaymentSessionService(pendingOrders, shipmentService, opts.Logger)
	authService := service.NewAuthService(authRepo, opts.JWTSecret, 24*time.Hour)

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(authService)
	trackingHandler := handler.NewTrackingHandler(shipmentService, transitionService, cancellationService, refundService, complaintService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	partnerHandler := handler.NewPartnerHandler(partnerService)

	authRequired := middleware.Auth(opts.JWTSecret)
	adminOnly := middleware.RBAC(domain.RoleAdmin)
	courierOrAdmin := middleware.RBAC(domain.RoleAdmin, domain.RolePartner)
	partnerOnly := middleware.RBAC(domain.RolePartner)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	// --- Tracking routes ---
	e.POST("/tracking/verify", trackingHandler.Verify) // public lookup
	e.POST("/tracking/add", trackingHandler.Create, authRequired)
	e.GET("/tracking", trackingHandler.List, authRequired)
	e.PUT("/tracking/cancel/:trackingId", trackingHandler.Cancel, authRequired)
	e.PUT("/tracking/refund/:trackingId", trackingHandler.RequestRefund, authRequired)
	e.PUT("/tracking/refund/cancel/:trackingId", trackingHandler.WithdrawRefund, authRequired)
	e.PUT("/tracking/refund/resolve/:trackingId", trackingHandler.ResolveRefund, authRequired, adminOnly)
	e.POST("/tracking/complaint/:trackingId", trackingHandler.Complaint, authRequired)
	e.DELETE("/tracking/delete/:trackingId", trackingHandler.Delete, authRequired, adminOnly)
	e.PUT("/tracking/:trackingId", trackingHandler.Update, authRequired, courierOrAdmin)

	// --- Payment session routes ---
	e.POST("/tracking/payment/session", paymentHandler.CreateSession, authRequired)
	e.POST("/tracking/payment/verify", paymentHandler.VerifySession, authRequired)

	// --- Partner routes ---
	e.POST("/partners/register", partnerHandler.Register, authRequired)
	e.PUT("/partners/availability", partnerHandler.SetAvailability, authRequired, partnerOnly)
	e.PUT("/partners/:id/status", partnerHandler.SetStatus, authRequired, adminOnly)
	e.GET("/partners", partnerHandler.List, authRequired, adminOnly)

	return e
}
