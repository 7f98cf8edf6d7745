package database

import (
	"fmt"
	"time"

	"github.com/emisorlabs/emisor/internal/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// ConnectReturnGormDB opens the Postgres connection pool. TranslateError is
// enabled so unique-constraint violations surface as gorm.ErrDuplicatedKey
// and can fail closed at the call site.
func ConnectReturnGormDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DB_HOST, cfg.DB_PORT, cfg.DB_USERNAME, cfg.DB_PASSWORD, cfg.DB_DATABASE)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)

	maxIdleTime, err := time.ParseDuration(cfg.MaxIdleTime)
	if err != nil {
		maxIdleTime = 15 * time.Minute
	}
	sqlDB.SetConnMaxIdleTime(maxIdleTime)

	return db, nil
}
