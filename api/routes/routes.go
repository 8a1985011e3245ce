package routes

import (
	"furniture-miniapp/api/handlers"
	"furniture-miniapp/api/middleware"
	"furniture-miniapp/internal/activity"
	"furniture-miniapp/internal/backend"
	"furniture-miniapp/internal/chatbot"
	"furniture-miniapp/internal/events"
	"furniture-miniapp/internal/metrics"
	"furniture-miniapp/internal/scheduler"
	"furniture-miniapp/internal/state"
	"furniture-miniapp/internal/storage"
	"furniture-miniapp/internal/webapp"
	"furniture-miniapp/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Dependencies are the collaborators the HTTP surface is built from.
// Chatbot, Storage and Scheduler are optional.
type Dependencies struct {
	Logger     *logger.Logger
	Backend    *backend.Client
	Registry   *state.Registry
	Host       webapp.Host
	Activity   activity.Service
	Bus        events.EventBus
	Chatbot    chatbot.ChatbotService
	Storage    storage.Service
	Scheduler  scheduler.Scheduler
	AdminToken string
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	router.Use(middleware.RequestLogging(deps.Logger))
	router.Use(gin.Recovery())
	router.Use(metrics.GinMiddleware())

	healthHandler := handlers.NewHealthHandler(deps.Backend, deps.Registry, deps.Scheduler, deps.Logger)
	screens := handlers.NewScreenHandler(deps.Activity, deps.Bus, deps.Logger)

	router.GET("/health", healthHandler.Check)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthHandler.Check)

		if deps.Chatbot != nil {
			webhookHandler := handlers.NewWebhookHandler(deps.Chatbot, deps.Logger)
			v1.POST("/telegram/webhook", webhookHandler.HandleTelegramWebhook)
			v1.POST("/telegram/setup-webhook", middleware.AdminToken(deps.AdminToken), webhookHandler.SetupWebhook)
		}

		admin := v1.Group("", middleware.AdminToken(deps.AdminToken))
		if deps.Storage != nil {
			storageHandler := handlers.NewStorageHandler(deps.Storage, deps.Logger)
			admin.POST("/products/:id/images", storageHandler.UploadProductImage)
			admin.GET("/storage/objects", storageHandler.ListObjects)
			admin.DELETE("/storage/objects", storageHandler.DeleteObjects)
		}
		if deps.Activity != nil {
			activityHandler := handlers.NewActivityHandler(deps.Activity, deps.Logger)
			admin.DELETE("/users/:id/activity", activityHandler.DeleteUserActivity)
		}
	}

	app := router.Group("", middleware.Identity(deps.Host, deps.Registry, deps.Logger))
	{
		app.GET("/", screens.Splash)
		app.GET("/home", screens.Home)
		app.GET("/catalog", screens.Catalog)
		app.POST("/catalog/search", screens.Search)
		app.GET("/item/:id", screens.Item)
		app.POST("/item/:id/favorite", screens.ToggleFavorite)
		app.GET("/favorites", screens.Favorites)
		app.DELETE("/favorites", screens.ClearFavorites)
		app.DELETE("/favorites/:id", screens.RemoveFavorite)
		app.GET("/profile", screens.Profile)

		for path, title := range handlers.ComingSoonPages {
			app.GET(path, handlers.ComingSoon(title))
		}
	}

	router.GET("/404", handlers.NotFound)
	router.NoRoute(handlers.RedirectNotFound)
}
