package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"leadrouter_backend/internal/handlers"
	"leadrouter_backend/internal/middleware"
)

// RegisterRoutes вешает все маршруты на gin-роутер.
func RegisterRoutes(router *gin.Engine, h *handlers.AppHandlers) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")

	// Справочники читаются без авторизации
	reference := api.Group("/reference")
	{
		reference.GET("/categories", h.ReferenceHandler.ListCategories)
		reference.GET("/cities", h.ReferenceHandler.ListCities)
		reference.GET("/categories/:categoryId/subcategories", h.ReferenceHandler.ListSubCategories)
	}

	// Первый контакт исполнителя
	api.POST("/users/register", h.UserHandler.Register)

	// Профиль исполнителя
	users := api.Group("/users", middleware.AuthMiddleware())
	{
		users.PUT("/me/categories", h.UserHandler.DeclareCategories)
		users.PUT("/me/cities", h.UserHandler.DeclareCities)
		users.PUT("/me/subcategories", h.UserHandler.DeclareSubCategories)
		users.DELETE("/me", h.UserHandler.Deactivate)
		users.GET("/me/stats", h.UserHandler.Stats)
	}

	// Распределения: ответ и карточка заявки
	distributions := api.Group("/distributions", middleware.AuthMiddleware())
	{
		distributions.GET("/my", h.DistributionHandler.My)
		distributions.GET("/:distributionId", h.DistributionHandler.Detail)
		distributions.POST("/:distributionId/respond", h.DistributionHandler.Respond)
	}

	// Подача заявки: чат-извлечение, демо-генератор, админка
	api.POST("/requests", middleware.AuthMiddleware(), h.RequestHandler.Submit)

	// Администрирование
	admin := api.Group("/admin", middleware.AuthMiddleware(), middleware.AdminOnly())
	{
		admin.GET("/requests/:requestId", h.RequestHandler.GetRequest)
		admin.POST("/requests/:requestId/complete", h.RequestHandler.Complete)
		admin.POST("/requests/:requestId/cancel", h.RequestHandler.Cancel)
		admin.GET("/requests/:requestId/export", h.RequestHandler.ExportForCRM)

		admin.POST("/reference/categories", h.ReferenceHandler.CreateCategory)
		admin.POST("/reference/cities", h.ReferenceHandler.CreateCity)
		admin.POST("/reference/categories/:categoryId/subcategories", h.ReferenceHandler.CreateSubCategory)
		admin.PATCH("/reference/categories/:categoryId/active", h.ReferenceHandler.SetCategoryActive)
		admin.PATCH("/reference/cities/:cityId/active", h.ReferenceHandler.SetCityActive)
		admin.PATCH("/reference/subcategories/:subcategoryId/active", h.ReferenceHandler.SetSubCategoryActive)
	}
}
