package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"jkd-coach-app/backend/internal/config"
	rounddomain "jkd-coach-app/backend/internal/domain/round"
	userdomain "jkd-coach-app/backend/internal/domain/user"
	appLogger "jkd-coach-app/backend/internal/infra/logger"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Resources holds the process-wide connections.
type Resources struct {
	Flags config.RuntimeFlags
	DB    *gorm.DB
	Redis *redis.Client
}

// Bootstrap loads the environment, opens the database for the configured
// mode, runs migrations and optionally connects Redis.
func Bootstrap(ctx context.Context) (*Resources, error) {
	envFiles := config.LoadEnvFiles()

	flags := config.LoadRuntimeFlags()
	log := appLogger.S().With("component", "app.bootstrap")
	for _, path := range envFiles {
		log.Infow("environment file applied", "path", path)
	}

	db, err := openDatabase(flags)
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&userdomain.User{}, &rounddomain.Round{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	resources := &Resources{Flags: flags, DB: db}

	if flags.RedisAddr != "" {
		client, err := connectRedis(ctx, flags)
		if err != nil {
			return nil, err
		}
		resources.Redis = client
		log.Infow("redis connected", "addr", flags.RedisAddr)
	} else {
		log.Infow("redis not configured, falling back to in-process stores")
	}

	log.Infow("storage ready", "mode", flags.Mode)
	return resources, nil
}

// openDatabase picks the driver by runtime mode: embedded SQLite for local
// runs, MySQL online.
func openDatabase(flags config.RuntimeFlags) (*gorm.DB, error) {
	switch flags.Mode {
	case config.ModeOnline:
		if flags.MySQLDSN == "" {
			return nil, fmt.Errorf("online mode requires MYSQL_DSN")
		}
		db, err := gorm.Open(mysql.Open(flags.MySQLDSN), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("open mysql: %w", err)
		}
		return db, nil
	default:
		if dir := filepath.Dir(flags.SQLitePath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		db, err := gorm.Open(sqlite.Open(flags.SQLitePath), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return db, nil
	}
}

// connectRedis opens the client and verifies the connection with a ping.
func connectRedis(ctx context.Context, flags config.RuntimeFlags) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     flags.RedisAddr,
		Password: flags.RedisPass,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

// Close releases the held connections.
func (r *Resources) Close() error {
	if r == nil {
		return nil
	}
	if r.Redis != nil {
		if err := r.Redis.Close(); err != nil {
			return err
		}
	}
	if r.DB != nil {
		sqlDB, err := r.DB.DB()
		if err != nil {
			return err
		}
		if err := sqlDB.Close(); err != nil {
			return err
		}
	}
	return nil
}
