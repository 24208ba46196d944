package router

import (
	"context"
	"time"

	"github.com/AbnerInnovation/coffee-shop-sub000/internal/config"
	"github.com/AbnerInnovation/coffee-shop-sub000/internal/handler"
	"github.com/AbnerInnovation/coffee-shop-sub000/internal/infra"
	"github.com/AbnerInnovation/coffee-shop-sub000/internal/middleware"
	"github.com/AbnerInnovation/coffee-shop-sub000/internal/repository"
	"github.com/AbnerInnovation/coffee-shop-sub000/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Closed sessions never change, so their reports can be cached for a long time.
const reportCacheTTL = 4 * time.Hour

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, metrics *infra.Metrics) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	// Without Redis the API still works; other desks just are not signalled.
	var (
		events  service.EventPublisher
		reports handler.ReportCache
		checks  []handler.HealthCheck
	)
	if db != nil {
		checks = append(checks, handler.HealthCheck{Name: "postgres", Ping: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}})
	}
	if rdb != nil {
		events = infra.NewEventPublisher(rdb, cfg.EventsChannel)
		reports = infra.NewReportCache(rdb, reportCacheTTL)
		checks = append(checks, handler.HealthCheck{Name: "redis", Ping: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}

	// ── Repositories ─────────────────────────────────────────────────────────
	cashRepo := repository.NewCashRegisterRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	cashSvc := service.NewCashRegisterService(cashRepo, events, metrics)

	// ── Handlers ─────────────────────────────────────────────────────────────
	cashH := handler.NewCashRegisterHandler(cashSvc, reports)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(checks...))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	anyRole := middleware.RequireRole(middleware.RoleCashier, middleware.RoleSupervisor, middleware.RoleAdmin)
	elevated := middleware.RequireRole(middleware.RoleSupervisor, middleware.RoleAdmin)

	cash := r.Group(infra.CashAPIBasePath, jwtMW)
	{
		cash.GET("/current-session", anyRole, cashH.CurrentSession)
		cash.POST("/open-session", anyRole, cashH.OpenSession)
		cash.PATCH("/close-session/:id", anyRole, cashH.CloseSession)
		cash.PATCH("/close-session/:id/denominations", anyRole, cashH.CloseSession)
		cash.POST("/cut/:sessionId", anyRole, cashH.PerformCut)
		cash.GET("/transactions", anyRole, cashH.ListTransactions)
		cash.POST("/transactions/:sessionId", anyRole, cashH.RecordTransaction)
		cash.POST("/expense/:sessionId", anyRole, cashH.AddExpense)
		cash.DELETE("/transaction/:id", elevated, cashH.DeleteTransaction)

		cash.GET("/sessions", elevated, cashH.ListSessions)
		cash.GET("/sessions/:id/report", anyRole, cashH.SessionReport)
	}

	// Swagger UI outside production only
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
