package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"leadrouter_backend/internal/appErrors"
	"leadrouter_backend/internal/services"
)

type DistributionHandler struct {
	*BaseHandler
	requestService services.RequestService
}

func NewDistributionHandler(base *BaseHandler, requestService services.RequestService) *DistributionHandler {
	return &DistributionHandler{
		BaseHandler:    base,
		requestService: requestService,
	}
}

type respondBody struct {
	Decision string `json:"decision" binding:"required"`
}

// Respond - ответ исполнителя на распределение: accept или reject
func (h *DistributionHandler) Respond(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	var body respondBody
	if !h.BindJSON(c, &body) {
		return
	}

	var accept bool
	switch strings.ToLower(body.Decision) {
	case "accept":
		accept = true
	case "reject":
		accept = false
	default:
		h.HandleServiceError(c, appErrors.ValidationError(map[string]string{
			"decision": "must be accept or reject",
		}))
		return
	}

	if err := h.requestService.RespondToDistribution(c.Param("distributionId"), userID, accept); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Detail отдает карточку заявки с PII по правилам маскирования
func (h *DistributionHandler) Detail(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	detail, err := h.requestService.RenderDistributionDetail(c.Param("distributionId"), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"distribution": detail})
}

// My - распределения текущего исполнителя
func (h *DistributionHandler) My(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	list, err := h.requestService.ListUserDistributions(userID, limit, offset)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"distributions": list})
}
