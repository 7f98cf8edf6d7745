package main

import (
	"errors"

	"github.com/emisorlabs/emisor/internal/auth"
	"github.com/emisorlabs/emisor/internal/config"
	"github.com/emisorlabs/emisor/internal/constant"
	"github.com/emisorlabs/emisor/internal/database"
	"github.com/emisorlabs/emisor/internal/env"
	"github.com/emisorlabs/emisor/internal/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	env.LoadEnv()
}

func main() {
	logger := zap.Must(zap.NewDevelopment()).Sugar()
	defer logger.Sync()
	cfg := config.GetConfig()

	logger.Infof("Database configuration: %+v", cfg.DB)

	db, err := database.ConnectReturnGormDB(cfg.DB)
	if err != nil {
		logger.Panic(err)
	}

	db.Exec(`CREATE EXTENSION IF NOT EXISTS citext`)

	migrateErr := db.AutoMigrate(
		&model.User{},
		&model.Project{},
		&model.ProjectUser{},
		&model.Template{},
		&model.PadronRow{},
		&model.EmissionTemp{},
		&model.EmissionFinal{},
		&model.EmissionAccumulated{},
		&model.AuditLog{},
	)
	if migrateErr != nil {
		logger.Panic(migrateErr)
	}

	if err := seedSuperadmin(db); err != nil {
		logger.Panic(err)
	}

	logger.Info("Migration finished")
}

// seedSuperadmin creates the initial SUPERADMIN account when the usuarios
// table has none, so a fresh deployment can be bootstrapped. Credentials
// come from the environment and the password must be rotated after first
// login.
func seedSuperadmin(db *gorm.DB) error {
	username := env.GetString("SEED_SUPERADMIN_USERNAME", "")
	password := env.GetString("SEED_SUPERADMIN_PASSWORD", "")
	email := env.GetString("SEED_SUPERADMIN_EMAIL", "")
	if username == "" || password == "" || email == "" {
		return nil
	}

	var existing model.User
	err := db.Where("rol = ? AND is_deleted = ?", constant.RoleSuperadmin, false).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	return db.Create(&model.User{
		Username:       username,
		Email:          email,
		HashedPassword: hashed,
		NombreCompleto: "Administrador",
		Rol:            constant.RoleSuperadmin,
		IsActive:       true,
	}).Error
}
