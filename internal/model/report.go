package model

import "time"

// Severity is the client-assigned fault severity of a report. It drives the
// automatic machine-state suggestion on problem reports.
type Severity string

const (
	GravedadBaja    Severity = "Baja"
	GravedadMedia   Severity = "Media"
	GravedadAlta    Severity = "Alta"
	GravedadCritica Severity = "Crítica"
)

// ValidSeverity reports whether g is one of the enumerated severities.
func ValidSeverity(g Severity) bool {
	switch g {
	case GravedadBaja, GravedadMedia, GravedadAlta, GravedadCritica:
		return true
	}
	return false
}

// ReportType distinguishes a fault report from an operational confirmation.
type ReportType string

const (
	TipoReporteProblema       ReportType = "reporte_problema"
	TipoConfirmacionOperativa ReportType = "confirmacion_operativa"
)

// ValidReportType reports whether t is one of the enumerated report types.
func ValidReportType(t ReportType) bool {
	return t == TipoReporteProblema || t == TipoConfirmacionOperativa
}

// ReportStatus is the lifecycle state of a client report. It only moves
// forward through pendiente -> procesado -> resuelto.
type ReportStatus string

const (
	ReportePendiente ReportStatus = "pendiente"
	ReporteProcesado ReportStatus = "procesado"
	ReporteResuelto  ReportStatus = "resuelto"
)

// ReportStatusRank orders report statuses for forward-only validation.
// Unknown statuses map to -1.
func ReportStatusRank(s ReportStatus) int {
	switch s {
	case ReportePendiente:
		return 0
	case ReporteProcesado:
		return 1
	case ReporteResuelto:
		return 2
	}
	return -1
}

// ClientReport is a client-submitted notice about a machine: either a fault
// report or a confirmation that the machine operates normally.
type ClientReport struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	MachineID   uint         `gorm:"index;not null" json:"maquina_id"`
	ClienteID   uint         `gorm:"index;not null" json:"usuario_id"`
	Descripcion string       `gorm:"type:text;not null" json:"descripcion"`
	Gravedad    Severity     `gorm:"type:varchar(16)" json:"gravedad"`
	Tipo        ReportType   `gorm:"type:varchar(32);not null" json:"tipo"`
	Estado      ReportStatus `gorm:"column:estado_reporte;type:varchar(16);not null;default:'pendiente';index" json:"estado_reporte"`

	// Machine-state snapshot: EstadoAnterior is captured at submission time
	// and immutable afterwards; EstadoNuevo is the state the lifecycle
	// service pushed to the machine (equal to EstadoAnterior for
	// confirmations).
	EstadoAnterior MachineState `gorm:"type:varchar(32)" json:"estado_anterior"`
	EstadoNuevo    MachineState `gorm:"type:varchar(32)" json:"estado_nuevo"`

	TecnicoAsignadoID  *uint  `gorm:"index" json:"tecnico_asignado_id"`
	OrdenTrabajoID     *uint  `gorm:"index" json:"orden_trabajo_id"`
	ObservacionesAdmin string `gorm:"type:text" json:"observaciones_admin"`

	FechaReporte    time.Time  `gorm:"not null" json:"fecha_reporte"`
	FechaAsignacion *time.Time `json:"fecha_asignacion"`
	FechaProcesado  *time.Time `json:"fecha_procesado"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	Machine         *Machine   `gorm:"foreignKey:MachineID" json:"maquina,omitempty"`
	Cliente         *User      `gorm:"foreignKey:ClienteID" json:"cliente,omitempty"`
	TecnicoAsignado *User      `gorm:"foreignKey:TecnicoAsignadoID" json:"tecnico_asignado,omitempty"`
	OrdenTrabajo    *WorkOrder `gorm:"foreignKey:OrdenTrabajoID" json:"orden_trabajo,omitempty"`
}
