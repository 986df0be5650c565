package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"machine-maintenance-backend/internal/model"
	"machine-maintenance-backend/internal/service"
)

// ListReports handles GET /api/reportes-cliente with an optional ?estado
// filter.
func (h *Handler) ListReports(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).
		Preload("Machine").
		Preload("TecnicoAsignado").
		Order("fecha_reporte DESC")

	if estado := c.Query("estado"); estado != "" {
		if model.ReportStatusRank(model.ReportStatus(estado)) < 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "estado de reporte inválido"})
			return
		}
		q = q.Where("estado_reporte = ?", estado)
	}

	var reports []model.ClientReport
	if err := q.Find(&reports).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "error interno"})
		return
	}
	c.JSON(http.StatusOK, reports)
}

type createReportRequest struct {
	MaquinaID   uint             `json:"maquina_id" binding:"required"`
	UsuarioID   uint             `json:"usuario_id" binding:"required"`
	Descripcion string           `json:"descripcion" binding:"required"`
	Gravedad    model.Severity   `json:"gravedad"`
	Tipo        model.ReportType `json:"tipo" binding:"required"`
}

// CreateReport handles POST /api/reportes-cliente.
func (h *Handler) CreateReport(c *gin.Context) {
	var req createReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.lifecycle.CreateReport(c.Request.Context(), service.CreateReportInput{
		MachineID:   req.MaquinaID,
		ClienteID:   req.UsuarioID,
		Descripcion: req.Descripcion,
		Gravedad:    req.Gravedad,
		Tipo:        req.Tipo,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type updateReportRequest struct {
	ID                 uint               `json:"id" binding:"required"`
	Estado             model.ReportStatus `json:"estado"`
	ObservacionesAdmin string             `json:"observaciones_admin"`
	FechaProcesado     *time.Time         `json:"fecha_procesado"`
}

// UpdateReport handles PUT /api/reportes-cliente.
func (h *Handler) UpdateReport(c *gin.Context) {
	var req updateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.lifecycle.UpdateReportStatus(c.Request.Context(), req.ID, req.Estado, req.ObservacionesAdmin, req.FechaProcesado)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

type deleteReportRequest struct {
	ID uint `json:"id" binding:"required"`
}

// DeleteReport handles DELETE /api/reportes-cliente.
func (h *Handler) DeleteReport(c *gin.Context) {
	var req deleteReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.lifecycle.DeleteReport(c.Request.Context(), req.ID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
