package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"machine-maintenance-backend/internal/model"
	"machine-maintenance-backend/internal/mw"
)

// ListMachines handles GET /api/inventario/maquinas with an optional ?estado
// filter.
func (h *Handler) ListMachines(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).
		Preload("Ubicacion").
		Preload("Proveedor").
		Order("nombre")

	if estado := c.Query("estado"); estado != "" {
		if !model.ValidMachineState(model.MachineState(estado)) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "estado de máquina inválido"})
			return
		}
		q = q.Where("estado = ?", estado)
	}

	var machines []model.Machine
	if err := q.Find(&machines).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "error interno"})
		return
	}
	c.JSON(http.StatusOK, machines)
}

type createMachineRequest struct {
	NumeroSerie          string             `json:"numero_serie" binding:"required"`
	Nombre               string             `json:"nombre" binding:"required"`
	Modelo               string             `json:"modelo"`
	Estado               model.MachineState `json:"estado"`
	UbicacionID          *uint              `json:"ubicacion_id"`
	ProveedorID          *uint              `json:"proveedor_id"`
	ResponsableID        *uint              `json:"responsable_id"`
	ProximoMantenimiento *time.Time         `json:"proximo_mantenimiento"`
	Notas                string             `json:"notas"`
}

// CreateMachine handles POST /api/inventario/maquinas.
func (h *Handler) CreateMachine(c *gin.Context) {
	var req createMachineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	estado := req.Estado
	if estado == "" {
		estado = model.EstadoAlmacen
	}
	if !model.ValidMachineState(estado) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "estado de máquina inválido"})
		return
	}

	machine := model.Machine{
		NumeroSerie:          req.NumeroSerie,
		Nombre:               req.Nombre,
		Modelo:               req.Modelo,
		Estado:               estado,
		UbicacionID:          req.UbicacionID,
		ProveedorID:          req.ProveedorID,
		ResponsableID:        req.ResponsableID,
		ProximoMantenimiento: req.ProximoMantenimiento,
		Notas:                req.Notas,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&machine).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "error interno"})
		return
	}
	c.JSON(http.StatusCreated, machine)
}

type updateMachineRequest struct {
	ID                   uint               `json:"id" binding:"required"`
	Nombre               string             `json:"nombre"`
	Modelo               string             `json:"modelo"`
	Estado               model.MachineState `json:"estado"`
	UbicacionID          *uint              `json:"ubicacion_id"`
	ProveedorID          *uint              `json:"proveedor_id"`
	ResponsableID        *uint              `json:"responsable_id"`
	UltimoMantenimiento  *time.Time         `json:"ultimo_mantenimiento"`
	ProximoMantenimiento *time.Time         `json:"proximo_mantenimiento"`
	Nota                 string             `json:"nota"`
}

// UpdateMachine handles PUT /api/inventario/maquinas. A state change goes
// through the lifecycle service so the audit trail is appended; the remaining
// fields are a plain update.
func (h *Handler) UpdateMachine(c *gin.Context) {
	var req updateMachineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()

	var machine model.Machine
	if err := h.db.WithContext(ctx).First(&machine, req.ID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Máquina no encontrada"})
		} else {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "error interno"})
		}
		return
	}

	if req.Estado != "" && req.Estado != machine.Estado {
		user, _ := mw.CurrentUser(c)
		note := req.Nota
		if note == "" {
			note = "Cambio manual de estado"
		}
		note = "[" + time.Now().Format("2006-01-02 15:04") + "] " + note + " (por " + user.Username + ")"

		updated, err := h.lifecycle.UpdateMachineEstado(ctx, req.ID, req.Estado, note)
		if err != nil {
			respondError(c, err)
			return
		}
		machine = *updated
	}

	updates := map[string]any{}
	if req.Nombre != "" {
		updates["nombre"] = req.Nombre
	}
	if req.Modelo != "" {
		updates["modelo"] = req.Modelo
	}
	if req.UbicacionID != nil {
		updates["ubicacion_id"] = req.UbicacionID
	}
	if req.ProveedorID != nil {
		updates["proveedor_id"] = req.ProveedorID
	}
	if req.ResponsableID != nil {
		updates["responsable_id"] = req.ResponsableID
	}
	if req.UltimoMantenimiento != nil {
		updates["ultimo_mantenimiento"] = req.UltimoMantenimiento
	}
	if req.ProximoMantenimiento != nil {
		updates["proximo_mantenimiento"] = req.ProximoMantenimiento
	}
	if len(updates) > 0 {
		if err := h.db.WithContext(ctx).Model(&machine).Updates(updates).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "error interno"})
			return
		}
	}

	c.JSON(http.StatusOK, machine)
}

type deleteMachineRequest struct {
	ID uint `json:"id" binding:"required"`
}

// DeleteMachine handles DELETE /api/inventario/maquinas.
func (h *Handler) DeleteMachine(c *gin.Context) {
	var req deleteMachineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res := h.db.WithContext(c.Request.Context()).Delete(&model.Machine{}, req.ID)
	if res.Error != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "error interno"})
		return
	}
	if res.RowsAffected == 0 {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Máquina no encontrada"})
		return
	}
	c.Status(http.StatusNoContent)
}
