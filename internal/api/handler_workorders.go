package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"machine-maintenance-backend/internal/model"
	"machine-maintenance-backend/internal/service"
)

// ListWorkOrders handles GET /api/ordenes-trabajo with optional ?estado and
// ?tecnico_id filters.
func (h *Handler) ListWorkOrders(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).
		Preload("Machine").
		Preload("Tecnico").
		Order("fecha_creacion DESC")

	if estado := c.Query("estado"); estado != "" {
		if !model.ValidWorkOrderStatus(model.WorkOrderStatus(estado)) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "estado de orden inválido"})
			return
		}
		q = q.Where("estado = ?", estado)
	}
	if tecnicoID := c.Query("tecnico_id"); tecnicoID != "" {
		q = q.Where("tecnico_id = ?", tecnicoID)
	}

	var orders []model.WorkOrder
	if err := q.Find(&orders).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "error interno"})
		return
	}
	c.JSON(http.StatusOK, orders)
}

type createWorkOrderRequest struct {
	ReporteID      uint                `json:"reporteId"`
	TecnicoID      uint                `json:"tecnicoId" binding:"required"`
	TiempoEstimado float64             `json:"tiempoEstimado"`
	MaquinaID      uint                `json:"maquinaId"`
	Tipo           model.WorkOrderType `json:"tipo"`
	Prioridad      string              `json:"prioridad"`
	Descripcion    string              `json:"descripcion"`
}

// CreateWorkOrder handles POST /api/ordenes-trabajo. With a reporteId it
// assigns a technician to that report; without one it creates a standalone
// order, which then requires maquinaId.
func (h *Handler) CreateWorkOrder(c *gin.Context) {
	var req createWorkOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var (
		order *model.WorkOrder
		err   error
	)
	if req.ReporteID != 0 {
		order, err = h.lifecycle.AssignTechnician(c.Request.Context(), req.ReporteID, req.TecnicoID, req.TiempoEstimado)
	} else {
		if req.MaquinaID == 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "se requiere reporteId o maquinaId"})
			return
		}
		order, err = h.lifecycle.CreateWorkOrder(c.Request.Context(), service.CreateWorkOrderInput{
			MachineID:      req.MaquinaID,
			TecnicoID:      req.TecnicoID,
			Tipo:           req.Tipo,
			Prioridad:      req.Prioridad,
			Descripcion:    req.Descripcion,
			TiempoEstimado: req.TiempoEstimado,
		})
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

type updateWorkOrderRequest struct {
	ID                uint                  `json:"id" binding:"required"`
	Estado            model.WorkOrderStatus `json:"estado"`
	NotasTecnico      string                `json:"notasTecnico"`
	FirmaCliente      string                `json:"firmaCliente"`
	Calificacion      *int                  `json:"calificacion"`
	FechaInicio       *time.Time            `json:"fechaInicio"`
	FechaFinalizacion *time.Time            `json:"fechaFinalizacion"`
}

// UpdateWorkOrder handles PUT /api/ordenes-trabajo.
func (h *Handler) UpdateWorkOrder(c *gin.Context) {
	var req updateWorkOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.lifecycle.UpdateWorkOrder(c.Request.Context(), req.ID, service.UpdateWorkOrderInput{
		Estado:            req.Estado,
		NotasTecnico:      req.NotasTecnico,
		FirmaCliente:      req.FirmaCliente,
		Calificacion:      req.Calificacion,
		FechaInicio:       req.FechaInicio,
		FechaFinalizacion: req.FechaFinalizacion,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
