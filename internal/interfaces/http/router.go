package http

import (
	"github.com/gin-gonic/gin"

	"meridian/internal/interfaces/http/handlers"
	"meridian/internal/interfaces/http/middleware"
	"meridian/internal/shared/logger"
)

// Router wires handlers onto the gin engine. Three surfaces share the engine:
// the public storefront and auth routes, the JWT-gated user and admin API,
// and the internal node gateway API behind the shared key.
type Router struct {
	authHandler     *handlers.AuthHandler
	catalogHandler  *handlers.CatalogHandler
	orderHandler    *handlers.OrderHandler
	nodeHandler     *handlers.NodeHandler
	userHandler     *handlers.UserHandler
	internalHandler *handlers.InternalHandler
	settingHandler  *handlers.SettingHandler

	authMW     *middleware.AuthMiddleware
	internalMW *middleware.InternalTokenMiddleware

	allowedOrigins []string
	logger         logger.Interface
}

func NewRouter(
	authHandler *handlers.AuthHandler,
	catalogHandler *handlers.CatalogHandler,
	orderHandler *handlers.OrderHandler,
	nodeHandler *handlers.NodeHandler,
	userHandler *handlers.UserHandler,
	internalHandler *handlers.InternalHandler,
	settingHandler *handlers.SettingHandler,
	authMW *middleware.AuthMiddleware,
	internalMW *middleware.InternalTokenMiddleware,
	allowedOrigins []string,
	logger logger.Interface,
) *Router {
	return &Router{
		authHandler:     authHandler,
		catalogHandler:  catalogHandler,
		orderHandler:    orderHandler,
		nodeHandler:     nodeHandler,
		userHandler:     userHandler,
		internalHandler: internalHandler,
		settingHandler:  settingHandler,
		authMW:          authMW,
		internalMW:      internalMW,
		allowedOrigins:  allowedOrigins,
		logger:          logger,
	}
}

// Setup registers every route on the engine.
func (r *Router) Setup(engine *gin.Engine) {
	engine.Use(middleware.Recovery())
	engine.Use(middleware.Logger(r.logger))
	engine.Use(middleware.CORS(r.allowedOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := engine.Group("/api/v1")

	auth := v1.Group("/auth")
	{
		auth.POST("/login", r.authHandler.Login)
		auth.POST("/register", r.authHandler.Register)
	}

	// Storefront, no auth required.
	v1.GET("/plan-groups", r.catalogHandler.ListPublicGroups)
	v1.GET("/plans", r.catalogHandler.ListPublicPlans)

	authed := v1.Group("")
	authed.Use(r.authMW.RequireAuth())
	{
		user := authed.Group("/user")
		{
			user.GET("/me", r.userHandler.Me)
			user.GET("/clients", r.userHandler.ListClients)
			user.POST("/clients", r.userHandler.CreateClient)
			user.PATCH("/clients/:id", r.userHandler.SetClientEnabled)
			user.POST("/signin", r.userHandler.Signin)
			user.GET("/traffic", r.userHandler.Traffic)
			user.GET("/entitlements", r.orderHandler.ActiveEntitlements)
			user.GET("/entitlements/:id/remaining", r.orderHandler.Remaining)
		}

		orders := authed.Group("/orders")
		{
			orders.POST("", r.orderHandler.Create)
			orders.GET("", r.orderHandler.List)
			orders.POST("/:id/pay", r.orderHandler.Pay)
			orders.POST("/:id/cancel", r.orderHandler.Cancel)
			orders.POST("/unsubscribe", r.orderHandler.Unsubscribe)
			orders.POST("/upgrade/preview", r.orderHandler.UpgradePreview)
			orders.POST("/upgrade/confirm", r.orderHandler.UpgradeConfirm)
		}

		admin := authed.Group("/admin")
		admin.Use(r.authMW.RequireAdmin())
		{
			admin.GET("/users", r.userHandler.ListUsers)
			admin.GET("/users/:id", r.userHandler.UserDetail)
			admin.PATCH("/users/:id/status", r.userHandler.SetBanned)

			admin.GET("/plan-groups", r.catalogHandler.ListGroups)
			admin.POST("/plan-groups", r.catalogHandler.CreateGroup)
			admin.PUT("/plan-groups/:id", r.catalogHandler.UpdateGroup)
			admin.DELETE("/plan-groups/:id", r.catalogHandler.DeleteGroup)

			admin.GET("/plans", r.catalogHandler.ListPlans)
			admin.POST("/plans", r.catalogHandler.CreatePlan)
			admin.PUT("/plans/:id", r.catalogHandler.UpdatePlan)
			admin.DELETE("/plans/:id", r.catalogHandler.DeletePlan)

			admin.GET("/nodes", r.nodeHandler.List)
			admin.POST("/nodes", r.nodeHandler.Create)
			admin.PUT("/nodes/:id", r.nodeHandler.Update)
			admin.DELETE("/nodes/:id", r.nodeHandler.Delete)
			admin.POST("/nodes/import", r.nodeHandler.Import)
			admin.POST("/nodes/:id/push-identities", r.nodeHandler.PushIdentities)

			admin.GET("/orders", r.orderHandler.ListAll)
			admin.POST("/orders/:id/force-cancel", r.orderHandler.ForceCancel)

			admin.GET("/settings/internal-key", r.settingHandler.GetInternalKey)
			admin.PUT("/settings/internal-key", r.settingHandler.UpdateInternalKey)
		}
	}

	internal := engine.Group("/api/internal/v1")
	internal.Use(r.internalMW.RequireInternalToken())
	{
		internal.POST("/auth-check", r.internalHandler.AuthCheck)
		internal.GET("/nodes/:id/allowed-uuids", r.internalHandler.AllowedUUIDs)
		internal.POST("/nodes/register", r.internalHandler.RegisterNode)
		internal.POST("/traffic/report", r.internalHandler.ReportTraffic)
		internal.GET("/users/:id/traffic", r.internalHandler.UserTraffic)
	}
}
