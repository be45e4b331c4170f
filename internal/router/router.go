package router

import (
	"fmt"
	"time"

	"hexagono/internal/cache"
	"hexagono/internal/config"
	"hexagono/internal/handler"
	"hexagono/internal/identifier"
	"hexagono/internal/infra"
	"hexagono/internal/middleware"
	"hexagono/internal/notify"
	"hexagono/internal/repository"
	"hexagono/internal/service"
	"hexagono/internal/workflow"
	"hexagono/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// App is the wired application. The caller owns the background loops:
// StartWorkerPool with Jobs and StartReminderCron with Notifier.
type App struct {
	Engine   *gin.Engine
	Quotes   service.QuoteService
	Notifier *notify.Dispatcher
	Jobs     worker.Handler
	SMTPCB   *infra.CircuitBreaker
	Events   infra.EventPublisher
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
//
//	                   ↘ worker.Dispatcher → Redis → NotificationWorker → notify.Dispatcher → SMTP
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*App, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	// ── Infrastructure ───────────────────────────────────────────────────────
	contact := notify.Contact{
		Company:  cfg.ContactCompany,
		Email:    cfg.ContactEmail,
		Phone:    cfg.ContactPhone,
		WhatsApp: cfg.ContactWhatsApp,
		Website:  cfg.ContactWebsite,
	}
	smtpCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	transport := infra.NewMailTransport(cfg, smtpCB)
	renderer, err := notify.NewTemplateRenderer(cfg.PublicBaseURL, contact)
	if err != nil {
		return nil, fmt.Errorf("router: templates: %w", err)
	}
	pdf := infra.NewQuotePDF(contact)
	events := infra.NewEventPublisher(cfg.AMQPURL)
	trackingCache := cache.NewTrackingCache(rdb, cfg.TrackingCacheTTL)

	// ── Repositories ─────────────────────────────────────────────────────────
	quoteRepo := repository.NewQuoteRepository(db)

	// ── Notifications ────────────────────────────────────────────────────────
	threshold := decimal.NewFromInt(cfg.HighPriorityThreshold)
	notifier := notify.NewDispatcher(quoteRepo, transport, renderer, notify.Config{
		AdminEmail:            cfg.AdminEmail,
		MaxAttempts:           cfg.MailMaxAttempts,
		BaseDelay:             cfg.MailRetryBaseDelay,
		ReminderAfter:         cfg.ReminderAfter,
		HighPriorityThreshold: threshold,
		BatchSize:             cfg.SweepBatchSize,
		BatchPause:            cfg.SweepBatchPause,
	}).WithSummarizer(pdf)

	// Jobs run in-process when Redis rejects the enqueue.
	jobs := worker.NewNotificationWorker(notifier)
	queue := worker.NewDispatcher(rdb).WithFallback(jobs)

	// ── Services ─────────────────────────────────────────────────────────────
	quoteSvc := service.NewQuoteService(service.QuoteServiceDeps{
		Repo:                  quoteRepo,
		Issuer:                identifier.NewIssuer(identifier.Scope(cfg.QuoteNumberScope), cfg.QuoteNumberPrefix, loc),
		Workflow:              workflow.New(quoteRepo, workflow.WithStrictTransitions(cfg.StrictTransitions)),
		Queue:                 queue,
		Events:                events,
		Cache:                 trackingCache,
		Sweeper:               notifier,
		PDF:                   pdf,
		TrackingURL:           renderer.TrackingURL,
		HighPriorityThreshold: threshold,
		Location:              loc,
	})

	r := Routes(cfg, db, rdb, smtpCB, quoteSvc)

	return &App{
		Engine:   r,
		Quotes:   quoteSvc,
		Notifier: notifier,
		Jobs:     jobs,
		SMTPCB:   smtpCB,
		Events:   events,
	}, nil
}

// corsOrigins restricts browsers to the public site in production.
func corsOrigins(cfg *config.Config) []string {
	if !cfg.IsProduction() {
		return nil
	}
	return []string{cfg.PublicBaseURL}
}

// Routes builds the engine around an already wired quote service.
func Routes(cfg *config.Config, db *gorm.DB, rdb *redis.Client, smtpCB *infra.CircuitBreaker, quoteSvc service.QuoteService) *gin.Engine {
	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(corsOrigins(cfg)...))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Handlers ─────────────────────────────────────────────────────────────
	quotesH := handler.NewQuotesHandler(quoteSvc)
	trackingH := handler.NewTrackingHandler(quoteSvc)
	adminH := handler.NewAdminQuotesHandler(quoteSvc, rdb)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, smtpCB))

	v1 := r.Group("/v1")
	{
		v1.GET("/catalogo", quotesH.Catalogo)
		v1.POST("/cotizaciones/preview", quotesH.Preview)
		v1.POST("/cotizaciones/rapida", quotesH.Rapida)
		v1.POST("/cotizaciones", middleware.SubmitRateLimiter(cfg.SubmitRateLimit), quotesH.Crear)

		// Client tracking: the access token is the credential
		v1.GET("/seguimiento/:token", trackingH.PorToken)
		v1.GET("/cotizaciones/:numero/seguimiento", trackingH.PorNumero)
	}

	// Admin: tokens from cmd/issuetoken, roles admin | operador
	admin := r.Group("/v1/admin",
		middleware.JWTAuth(cfg.JWTSecret),
		middleware.RequireRole(middleware.RoleAdmin, middleware.RoleOperador),
	)
	{
		admin.GET("/cotizaciones", adminH.Listar)
		admin.GET("/cotizaciones/:id", adminH.ObtenerPorID)
		admin.PATCH("/cotizaciones/:id", adminH.Actualizar)
		admin.PATCH("/cotizaciones/:id/estado", adminH.CambiarEstado)
		admin.POST("/cotizaciones/:id/notas", adminH.AgregarNota)
		admin.GET("/cotizaciones/:id/pdf", adminH.DescargarPDF)

		// Operational
		admin.POST("/recordatorios/barrido", middleware.RequireRole(middleware.RoleAdmin), adminH.BarridoRecordatorios)
		admin.GET("/notificaciones/dlq", middleware.RequireRole(middleware.RoleAdmin), adminH.ListarDLQ)
		admin.POST("/notificaciones/dlq/reintentar", middleware.RequireRole(middleware.RoleAdmin), adminH.ReintentarDLQ)
	}

	// Swagger UI, only outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
