package devserver

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/resourcemart/storefront/internal/config"
)

// Config is the devserver's environment. With no DATABASE_URL it runs on
// an in-memory sqlite database and seeds itself, which is the mode the
// integration tests use.
type Config struct {
	Port        int
	DatabaseURL string
	JWTSecret   []byte
	ESURL       string
	ESUser      string
	ESPassword  string
	Brokers     []string
	LogLevel    string
	SeedCount   int
}

func LoadConfig() Config {
	return Config{
		Port:        config.EnvIntDefault("PORT", 8080),
		DatabaseURL: config.EnvDefault("DATABASE_URL", ""),
		JWTSecret:   []byte(config.EnvDefault("JWT_SECRET", "dev-secret")),
		ESURL:       config.EnvDefault("ES_URL", ""),
		ESUser:      config.EnvDefault("ES_USER", ""),
		ESPassword:  config.EnvDefault("ES_PASSWORD", ""),
		Brokers:     config.CSV(config.EnvDefault("KAFKA_BROKERS", "")),
		LogLevel:    config.EnvDefault("LOG_LEVEL", "info"),
		SeedCount:   config.EnvIntDefault("SEED_COUNT", 60),
	}
}

func configurePool(sqlDB *sql.DB) {
	const (
		maxOpenConns    = 20
		maxIdleConns    = 10
		connMaxLifetime = 30 * time.Minute
		connMaxIdleTime = 5 * time.Minute
	)
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)
}

// InitDB opens postgres when DATABASE_URL is set, in-memory sqlite
// otherwise, and migrates the schema.
func InitDB(ctx context.Context, databaseURL string) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	}

	var db *gorm.DB
	var err error
	if databaseURL != "" {
		db, err = gorm.Open(postgres.Open(databaseURL), gcfg)
	} else {
		db, err = gorm.Open(sqlite.Open(":memory:"), gcfg)
	}
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap sql.DB: %w", err)
	}
	if databaseURL != "" {
		configurePool(sqlDB)

		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := sqlDB.PingContext(pingCtx); err != nil {
			return nil, fmt.Errorf("ping db: %w", err)
		}
	} else {
		// The in-memory database lives in a single connection; a second
		// pooled connection would see an empty schema.
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&ResourceRow{}, &CartRow{}, &Account{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}
