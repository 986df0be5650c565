package model

import "time"

// UserRole determines what a user may do through the API.
type UserRole string

const (
	RolAdmin   UserRole = "admin"
	RolTecnico UserRole = "tecnico"
	RolCliente UserRole = "cliente"
)

// User is an account known to the system: administrators, technicians and
// clients operating machines at their venues.
type User struct {
	ID           uint     `gorm:"primaryKey" json:"id"`
	Username     string   `gorm:"uniqueIndex;size:128;not null" json:"username"`
	Nombre       string   `gorm:"size:256" json:"nombre"`
	PasswordHash string   `gorm:"not null" json:"-"`
	Rol          UserRole `gorm:"type:varchar(16);not null;index" json:"rol"`

	// APIToken is the bearer token presented on every request. Token
	// issuance and rotation live outside this service.
	APIToken string `gorm:"uniqueIndex;size:64;not null" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
