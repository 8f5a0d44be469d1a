package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"leadrouter_backend/internal/appErrors"
	"leadrouter_backend/internal/logger"
)

type BaseHandler struct{}

func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// GetUserID достает идентификатор пользователя, положенный AuthMiddleware
func (h *BaseHandler) GetUserID(c *gin.Context) (string, bool) {
	val, exists := c.Get("userID")
	if !exists {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return "", false
	}
	userID, ok := val.(string)
	if !ok || userID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return "", false
	}
	return userID, true
}

func (h *BaseHandler) BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": appErrors.ValidationError(err.Error())})
		return false
	}
	return true
}

// HandleServiceError переводит ошибку сервиса в HTTP-ответ
func (h *BaseHandler) HandleServiceError(c *gin.Context, err error) {
	var appErr *appErrors.AppError
	if appErrors.As(err, &appErr) {
		if appErr.HTTPCode >= http.StatusInternalServerError {
			logger.FromContext(c.Request.Context()).Error("internal error", "error", appErr.Error())
		}
		c.JSON(appErr.HTTPCode, gin.H{"error": appErr})
		return
	}

	logger.FromContext(c.Request.Context()).Error("unhandled error", "error", err.Error())
	c.JSON(http.StatusInternalServerError, gin.H{"error": appErrors.InternalError(err)})
}
