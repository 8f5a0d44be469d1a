package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"leadrouter_backend/internal/services"
)

type RequestHandler struct {
	*BaseHandler
	requestService   services.RequestService
	lifecycleService services.LifecycleService
}

func NewRequestHandler(base *BaseHandler, requestService services.RequestService, lifecycleService services.LifecycleService) *RequestHandler {
	return &RequestHandler{
		BaseHandler:      base,
		requestService:   requestService,
		lifecycleService: lifecycleService,
	}
}

type submitRequestBody struct {
	CategoryID     string   `json:"category_id" binding:"required"`
	CityID         string   `json:"city_id" binding:"required"`
	SubCategoryIDs []string `json:"subcategory_ids"`
	ClientName     string   `json:"client_name" binding:"required"`
	ClientPhone    string   `json:"client_phone" binding:"required"`
	Address        string   `json:"address"`
	Description    string   `json:"description"`
	Area           *float64 `json:"area"`
	EstimatedCost  *float64 `json:"estimated_cost"`
	IsDemo         bool     `json:"is_demo"`
}

// Submit - единая точка подачи заявки для всех внешних коллабораторов
func (h *RequestHandler) Submit(c *gin.Context) {
	var body submitRequestBody
	if !h.BindJSON(c, &body) {
		return
	}

	requestID, err := h.requestService.Submit(services.SubmitRequestInput{
		CategoryID:     body.CategoryID,
		CityID:         body.CityID,
		SubCategoryIDs: body.SubCategoryIDs,
		ClientName:     body.ClientName,
		ClientPhone:    body.ClientPhone,
		Address:        body.Address,
		Description:    body.Description,
		Area:           body.Area,
		EstimatedCost:  body.EstimatedCost,
		IsDemo:         body.IsDemo,
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"request_id": requestID})
}

func (h *RequestHandler) GetRequest(c *gin.Context) {
	req, err := h.requestService.GetRequest(c.Param("requestId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": req})
}

// Complete/Cancel - терминальные переходы оператора

func (h *RequestHandler) Complete(c *gin.Context) {
	if err := h.lifecycleService.Complete(c.Param("requestId")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "completed"})
}

func (h *RequestHandler) Cancel(c *gin.Context) {
	if err := h.lifecycleService.Cancel(c.Param("requestId")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

// ExportForCRM отдает расшифрованный снимок внешней sales-tracking
// системе. Только для администраторов, всегда журналируется.
func (h *RequestHandler) ExportForCRM(c *gin.Context) {
	actorID, ok := h.GetUserID(c)
	if !ok {
		return
	}
	export, err := h.requestService.ExportForCRM(c.Param("requestId"), actorID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"export": export})
}
