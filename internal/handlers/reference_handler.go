package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"leadrouter_backend/internal/models"
	"leadrouter_backend/internal/services"
)

type ReferenceHandler struct {
	*BaseHandler
	referenceService services.ReferenceService
}

func NewReferenceHandler(base *BaseHandler, referenceService services.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{
		BaseHandler:      base,
		referenceService: referenceService,
	}
}

func (h *ReferenceHandler) ListCategories(c *gin.Context) {
	categories, err := h.referenceService.ActiveCategories(c.Request.Context())
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (h *ReferenceHandler) ListCities(c *gin.Context) {
	cities, err := h.referenceService.ActiveCities(c.Request.Context())
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cities": cities})
}

func (h *ReferenceHandler) ListSubCategories(c *gin.Context) {
	subs, err := h.referenceService.ActiveSubCategories(c.Param("categoryId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subcategories": subs})
}

type createNamedBody struct {
	Name string `json:"name" binding:"required"`
}

func (h *ReferenceHandler) CreateCategory(c *gin.Context) {
	var body createNamedBody
	if !h.BindJSON(c, &body) {
		return
	}
	category, err := h.referenceService.CreateCategory(body.Name)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"category": category})
}

func (h *ReferenceHandler) CreateCity(c *gin.Context) {
	var body createNamedBody
	if !h.BindJSON(c, &body) {
		return
	}
	city, err := h.referenceService.CreateCity(body.Name)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"city": city})
}

type createSubCategoryBody struct {
	Name     string   `json:"name" binding:"required"`
	Type     string   `json:"type" binding:"required"`
	MinValue *float64 `json:"min_value"`
	MaxValue *float64 `json:"max_value"`
}

func (h *ReferenceHandler) CreateSubCategory(c *gin.Context) {
	var body createSubCategoryBody
	if !h.BindJSON(c, &body) {
		return
	}
	sub, err := h.referenceService.CreateSubCategory(
		c.Param("categoryId"),
		body.Name,
		models.SubCategoryType(body.Type),
		body.MinValue,
		body.MaxValue,
	)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"subcategory": sub})
}

type setActiveBody struct {
	Active *bool `json:"active" binding:"required"`
}

func (h *ReferenceHandler) SetCategoryActive(c *gin.Context) {
	h.setActive(c, "categoryId", h.referenceService.SetCategoryActive)
}

func (h *ReferenceHandler) SetCityActive(c *gin.Context) {
	h.setActive(c, "cityId", h.referenceService.SetCityActive)
}

func (h *ReferenceHandler) SetSubCategoryActive(c *gin.Context) {
	h.setActive(c, "subcategoryId", h.referenceService.SetSubCategoryActive)
}

func (h *ReferenceHandler) setActive(c *gin.Context, param string, set func(string, bool) error) {
	var body setActiveBody
	if !h.BindJSON(c, &body) {
		return
	}
	if err := set(c.Param(param), *body.Active); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
