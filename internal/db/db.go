package db

import (
	"fmt"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"machine-maintenance-backend/config"
	"machine-maintenance-backend/internal/model"
)

// Init initializes the database connection, runs migrations and seeds the
// default accounts.
func Init(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		// Unique-constraint violations must surface as gorm.ErrDuplicatedKey
		// for the work-order code retry to fire.
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetimeMinutes) * time.Minute)

	log.Println("Running database migrations...")
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("automigrate failed: %w", err)
	}

	if err := seedAdmin(db, &cfg.Seed); err != nil {
		log.Printf("Warning: failed to seed default admin: %v", err)
	}

	log.Println("Database initialization complete.")
	return db, nil
}

// Migrate runs the schema migrations for every persisted model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Provider{},
		&model.Location{},
		&model.Machine{},
		&model.ClientReport{},
		&model.WorkOrder{},
		&model.PushSubscription{},
	)
}

// seedAdmin creates the default administrator account on first startup so
// the API is reachable before the external auth service provisions users.
func seedAdmin(db *gorm.DB, seed *config.SeedConfig) error {
	if seed.AdminPassword == "" || seed.AdminToken == "" {
		log.Println("seed.admin_password/admin_token not configured; skipping admin seed")
		return nil
	}

	var count int64
	if err := db.Model(&model.User{}).
		Where("rol = ?", model.RolAdmin).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(seed.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := model.User{
		Username:     seed.AdminUsername,
		Nombre:       "Administrador",
		PasswordHash: string(hash),
		Rol:          model.RolAdmin,
		APIToken:     seed.AdminToken,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	log.Printf("created default admin user: %s", admin.Username)
	return nil
}
