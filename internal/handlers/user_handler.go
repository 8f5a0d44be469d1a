package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"leadrouter_backend/internal/auth"
	"leadrouter_backend/internal/services"
)

type UserHandler struct {
	*BaseHandler
	userService services.UserService
}

func NewUserHandler(base *BaseHandler, userService services.UserService) *UserHandler {
	return &UserHandler{
		BaseHandler: base,
		userService: userService,
	}
}

type registerBody struct {
	Handle string `json:"handle" binding:"required"`
	Phone  string `json:"phone" binding:"required"`
}

// Register - первый контакт исполнителя. Повторный вызов возвращает
// существующий аккаунт.
func (h *UserHandler) Register(c *gin.Context) {
	var body registerBody
	if !h.BindJSON(c, &body) {
		return
	}

	user, err := h.userService.RegisterOrGet(body.Handle, body.Phone)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	token, err := auth.IssueToken(user.ID, user.IsAdmin)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id": user.ID,
		"token":   token,
	})
}

type declareBody struct {
	IDs []string `json:"ids" binding:"required"`
}

func (h *UserHandler) DeclareCategories(c *gin.Context) {
	h.declare(c, h.userService.DeclareCategories)
}

func (h *UserHandler) DeclareCities(c *gin.Context) {
	h.declare(c, h.userService.DeclareCities)
}

func (h *UserHandler) DeclareSubCategories(c *gin.Context) {
	h.declare(c, h.userService.DeclareSubCategories)
}

func (h *UserHandler) declare(c *gin.Context, set func(string, []string) error) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}
	var body declareBody
	if !h.BindJSON(c, &body) {
		return
	}
	if err := set(userID, body.IDs); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *UserHandler) Deactivate(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}
	if err := h.userService.Deactivate(userID); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deactivated"})
}

func (h *UserHandler) Stats(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}
	stats, err := h.userService.Stats(userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
