package http

import (
	"github.com/gin-gonic/gin"
	"github.com/memberdesk/backend/config"
	"github.com/memberdesk/backend/internal/usecase"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// operationRoutes maps API v1 paths to dispatcher operations.
var operationRoutes = []struct {
	path string
	op   usecase.Operation
}{
	{"/members/find", usecase.OpMemberFind},
	{"/members/register", usecase.OpMemberRegister},
	{"/members/save", usecase.OpMemberSave},
	{"/members/update", usecase.OpMemberUpdate},
	{"/members/delete", usecase.OpMemberDelete},
	{"/orders/find", usecase.OpOrderFind},
	{"/orders/register", usecase.OpOrderRegister},
	{"/orders/update", usecase.OpOrderUpdate},
	{"/orders/delete", usecase.OpOrderDelete},
	{"/orders/proxy", usecase.OpOrderProxy},
	{"/memos/save", usecase.OpMemoSave},
	{"/memos/search", usecase.OpMemoSearch},
	{"/commissions/find", usecase.OpCommissionFind},
	{"/commissions/register", usecase.OpCommissionRegister},
	{"/commissions/update", usecase.OpCommissionUpdate},
	{"/commissions/delete", usecase.OpCommissionDelete},
	{"/command", usecase.OpCommand},
}

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger *zap.Logger) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware(logger))
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(logger))
	router.Use(MetricsMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := router.Group("/api/v1")
	if cfg.RateLimit.PerIP > 0 {
		v1.Use(RateLimitMiddleware(NewIPRateLimiter(cfg.RateLimit.PerIP)))
	}
	{
		v1.GET("/operations", handler.Operations)
		for _, r := range operationRoutes {
			v1.POST(r.path, handler.Dispatch(r.op))
		}
	}

	return router
}
