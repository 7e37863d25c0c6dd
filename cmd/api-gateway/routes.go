package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/talent-intake-api/api/swagger"
	"github.com/noah-isme/talent-intake-api/internal/handler"
	"github.com/noah-isme/talent-intake-api/internal/middleware"
	"github.com/noah-isme/talent-intake-api/internal/models"
	"github.com/noah-isme/talent-intake-api/pkg/config"
	"github.com/noah-isme/talent-intake-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/talent-intake-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/talent-intake-api/pkg/middleware/requestid"
)

type routeDeps struct {
	auth       *handler.AuthHandler
	intake     *handler.IntakeHandler
	assessment *handler.AssessmentHandler
	users      *handler.UserHandler
	system     *handler.MetricsHandler
	tokens     middleware.TokenValidator
	metrics    middleware.RequestObserver
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routeDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metrics))

	r.GET("/health", deps.system.Health)
	r.GET("/ready", deps.system.Ready)
	r.GET("/metrics", deps.system.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/register", deps.auth.Register)
	auth.POST("/login", deps.auth.Login)
	auth.POST("/refresh", deps.auth.Refresh)

	authed := api.Group("")
	authed.Use(middleware.JWT(deps.tokens))
	authed.POST("/auth/logout", deps.auth.Logout)
	authed.GET("/auth/me", deps.auth.Me)
	authed.POST("/auth/change-password", deps.auth.ChangePassword)

	staff := authed.Group("")
	staff.Use(middleware.RequireStaff())

	intake := staff.Group("/intake")
	intake.POST("/search", deps.intake.Search)
	intake.GET("/clients/new", deps.intake.NewClientForm)
	intake.POST("/clients", deps.intake.CreateClient)
	intake.POST("/clients/:id/assessments", deps.intake.CreateAssessment)
	intake.GET("/clients/:id/assessments", deps.intake.ListAssessments)

	staff.GET("/assessments/:id", deps.assessment.Get)
	staff.GET("/assessments/:id/export", deps.assessment.Export)

	admin := authed.Group("/users")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	admin.GET("", deps.users.List)
	admin.GET("/:id", deps.users.Get)

	return r
}
