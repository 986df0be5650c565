package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"machine-maintenance-backend/internal/model"
)

// Thin catalog CRUD: providers and locations have no branching logic beyond
// existence checks.

func (h *Handler) ListProviders(c *gin.Context) {
	var providers []model.Provider
	if err := h.db.WithContext(c.Request.Context()).Order("nombre").Find(&providers).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "error interno"})
		return
	}
	c.JSON(http.StatusOK, providers)
}

func (h *Handler) CreateProvider(c *gin.Context) {
	var provider model.Provider
	if err := c.ShouldBindJSON(&provider); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if provider.Nombre == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "el nombre es obligatorio"})
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&provider).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "error interno"})
		return
	}
	c.JSON(http.StatusCreated, provider)
}

func (h *Handler) DeleteProvider(c *gin.Context) {
	var req struct {
		ID uint `json:"id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res := h.db.WithContext(c.Request.Context()).Delete(&model.Provider{}, req.ID)
	if res.Error != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "error interno"})
		return
	}
	if res.RowsAffected == 0 {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Proveedor no encontrado"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListLocations(c *gin.Context) {
	var locations []model.Location
	if err := h.db.WithContext(c.Request.Context()).Order("nombre").Find(&locations).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "error interno"})
		return
	}
	c.JSON(http.StatusOK, locations)
}

func (h *Handler) CreateLocation(c *gin.Context) {
	var location model.Location
	if err := c.ShouldBindJSON(&location); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if location.Nombre == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "el nombre es obligatorio"})
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&location).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "error interno"})
		return
	}
	c.JSON(http.StatusCreated, location)
}

func (h *Handler) DeleteLocation(c *gin.Context) {
	var req struct {
		ID uint `json:"id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res := h.db.WithContext(c.Request.Context()).Delete(&model.Location{}, req.ID)
	if res.Error != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "error interno"})
		return
	}
	if res.RowsAffected == 0 {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Ubicación no encontrada"})
		return
	}
	c.Status(http.StatusNoContent)
}
