package app

import (
	"context"
	"fmt"

	"campus-auth/internal/auth/directory"
	"campus-auth/internal/config"
	"campus-auth/internal/db"
	"campus-auth/internal/logger"
	"campus-auth/internal/redis"
)

type Infra struct {
	Directory directory.Directory
	DB        *db.DB
	Redis     *redis.Client
}

// Close releases whichever backend was opened.
func (i *Infra) Close() error {
	if i.DB != nil {
		return i.DB.Close()
	}
	if i.Redis != nil {
		return i.Redis.Close()
	}
	return nil
}

func setupInfra(ctx context.Context, cfg config.Config) (*Infra, error) {
	switch cfg.DirectoryDriver {
	case config.DriverPostgres:
		d, err := db.OpenPostgres(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		logger.Info("database ready", map[string]any{"driver": cfg.DirectoryDriver})
		return &Infra{Directory: directory.NewPostgresDirectory(d), DB: d}, nil

	case config.DriverSQLite:
		d, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("database ready", map[string]any{
			"driver": cfg.DirectoryDriver,
			"path":   cfg.SQLitePath,
		})
		return &Infra{Directory: directory.NewSQLiteDirectory(d), DB: d}, nil

	case config.DriverRedis:
		rc, err := redis.New(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return nil, err
		}
		logger.Info("redis ready", map[string]any{"addr": cfg.RedisAddr})
		return &Infra{Directory: directory.NewRedisDirectory(rc.Client), Redis: rc}, nil

	default:
		return nil, fmt.Errorf("unknown directory driver %q", cfg.DirectoryDriver)
	}
}
