package model

import "time"

// WorkOrderStatus is the lifecycle state of a work order.
type WorkOrderStatus string

const (
	OrdenPendiente  WorkOrderStatus = "pendiente"
	OrdenEnProceso  WorkOrderStatus = "en_proceso"
	OrdenCompletada WorkOrderStatus = "completada"
	OrdenCancelada  WorkOrderStatus = "cancelada"
)

// ValidWorkOrderStatus reports whether s is one of the enumerated states.
func ValidWorkOrderStatus(s WorkOrderStatus) bool {
	switch s {
	case OrdenPendiente, OrdenEnProceso, OrdenCompletada, OrdenCancelada:
		return true
	}
	return false
}

// WorkOrderType classifies the kind of maintenance an order covers.
type WorkOrderType string

const (
	OrdenPreventiva WorkOrderType = "preventivo"
	OrdenCorrectiva WorkOrderType = "correctivo"
	OrdenEmergencia WorkOrderType = "emergencia"
)

// WorkOrder is a technician work assignment, optionally derived from a
// client report.
type WorkOrder struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Codigo string `gorm:"uniqueIndex;size:32;not null" json:"codigo"`

	MachineID uint `gorm:"index;not null" json:"maquina_id"`
	TecnicoID uint `gorm:"index;not null" json:"tecnico_id"`
	// ReporteClienteID is nil for orders created directly by an
	// administrator rather than from a client report.
	ReporteClienteID *uint `gorm:"index" json:"reporte_cliente_id"`

	Tipo      WorkOrderType   `gorm:"type:varchar(16);not null" json:"tipo"`
	Prioridad string          `gorm:"size:16" json:"prioridad"`
	Estado    WorkOrderStatus `gorm:"type:varchar(16);not null;default:'pendiente';index" json:"estado"`

	Descripcion    string  `gorm:"type:text" json:"descripcion"`
	TiempoEstimado float64 `json:"tiempo_estimado"` // hours
	TiempoReal     float64 `json:"tiempo_real"`     // hours

	FechaCreacion     time.Time  `gorm:"not null" json:"fecha_creacion"`
	FechaAsignacion   *time.Time `json:"fecha_asignacion"`
	FechaInicio       *time.Time `json:"fecha_inicio"`
	FechaFinalizacion *time.Time `json:"fecha_finalizacion"`

	// Completion artifacts filled in by the technician.
	NotasTecnico string `gorm:"type:text" json:"notas_tecnico"`
	FirmaCliente string `gorm:"type:text" json:"firma_cliente"`
	Calificacion *int   `json:"calificacion"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	Machine *Machine `gorm:"foreignKey:MachineID" json:"maquina,omitempty"`
	Tecnico *User    `gorm:"foreignKey:TecnicoID" json:"tecnico,omitempty"`
}
