package config

import (
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"movers-api/models"
)

// OpenDB connects to the configured database and migrates all models.
// Timestamps written by gorm come from clk, in UTC.
func OpenDB(c *Config, clk clock.Clock) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(c.DatabaseDriver) {
	case "", "sqlite":
		dialector = sqlite.Open(c.DatabaseURL)
	case "postgres", "postgresql":
		dialector = postgres.Open(c.DatabaseURL)
	default:
		return nil, errors.NotValidf("DATABASE_DRIVER %q", c.DatabaseDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Warn),
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc: func() time.Time {
			return clk.Now().UTC()
		},
	})
	if err != nil {
		return nil, errors.Annotate(err, "connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Annotate(err, "database handle")
	}
	if c.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(c.MaxOpenConns)
	}
	if c.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(c.MaxIdleConns)
	}
	if c.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(c.ConnMaxLifetime)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate auto-migrates every model.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.ClientProfile{},
		&models.ProviderProfile{},
		&models.AdminProfile{},
		&models.ServiceRequest{},
		&models.RequestStatusHistory{},
		&models.Payment{},
		&models.Review{},
	)
	return errors.Annotate(err, "migrate database")
}
