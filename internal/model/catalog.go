package model

import "time"

// Provider is a machine supplier or service company.
type Provider struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Nombre   string `gorm:"uniqueIndex;size:256;not null" json:"nombre"`
	Contacto string `gorm:"size:256" json:"contacto"`
	Telefono string `gorm:"size:50" json:"telefono"`
	Email    string `gorm:"size:256" json:"email"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Location is a venue where machines are installed.
type Location struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Nombre    string `gorm:"uniqueIndex;size:256;not null" json:"nombre"`
	Direccion string `gorm:"size:512" json:"direccion"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
