package model

import "time"

// MachineState is the operational status of a poker machine. It is the single
// source of truth for dashboards and report eligibility.
type MachineState string

const (
	EstadoOperativo       MachineState = "Operativo"
	EstadoAdvertencia     MachineState = "Advertencia"
	EstadoEnMantenimiento MachineState = "En Mantenimiento"
	EstadoFueraDeServicio MachineState = "Fuera de Servicio"
	EstadoAlmacen         MachineState = "Almacen"
)

// ValidMachineState reports whether s is one of the enumerated states.
func ValidMachineState(s MachineState) bool {
	switch s {
	case EstadoOperativo, EstadoAdvertencia, EstadoEnMantenimiento,
		EstadoFueraDeServicio, EstadoAlmacen:
		return true
	}
	return false
}

// Machine represents a poker machine in the fleet.
type Machine struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	NumeroSerie string       `gorm:"uniqueIndex;size:64;not null" json:"numero_serie"`
	Nombre      string       `gorm:"size:256;not null" json:"nombre"`
	Modelo      string       `gorm:"size:128" json:"modelo"`
	Estado      MachineState `gorm:"type:varchar(32);not null;default:'Operativo';index" json:"estado"`

	UbicacionID   *uint `gorm:"index" json:"ubicacion_id"`
	ProveedorID   *uint `gorm:"index" json:"proveedor_id"`
	ResponsableID *uint `json:"responsable_id"`

	UltimoMantenimiento  *time.Time `json:"ultimo_mantenimiento"`
	ProximoMantenimiento *time.Time `json:"proximo_mantenimiento"`

	// Notas is an append-only audit trail; the lifecycle service only ever
	// appends timestamped blocks to it.
	Notas string `gorm:"type:text" json:"notas"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	Ubicacion   *Location `gorm:"foreignKey:UbicacionID" json:"ubicacion,omitempty"`
	Proveedor   *Provider `gorm:"foreignKey:ProveedorID" json:"proveedor,omitempty"`
	Responsable *User     `gorm:"foreignKey:ResponsableID" json:"responsable,omitempty"`
}
