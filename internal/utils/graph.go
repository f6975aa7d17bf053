package utils

import (
	"context"
	"fmt"
	"os"
	"time"

	"world-api/internal/logger"
	"world-api/internal/migrate"
	"world-api/internal/store"
)

// GraphStore：打开的图谱存储及其关闭函数
type GraphStore struct {
	store.Graph
	Driver string
	Close  func() error
}

// OpenGraph：driver 为 postgres（默认）或 memory；postgres 打开后确保表结构
func OpenGraph(ctx context.Context, driver string) (*GraphStore, error) {
	switch driver {
	case "", "postgres":
		db, err := OpenPostgresFromEnv()
		if err != nil {
			return nil, err
		}
		pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := db.PingContext(pctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		logger.L().Info("db_ping_ok")
		if err := migrate.EnsureSchema(db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		return &GraphStore{Graph: store.AttachDB(db), Driver: "postgres", Close: db.Close}, nil
	case "memory":
		return &GraphStore{Graph: store.NewMemory(), Driver: "memory", Close: func() error { return nil }}, nil
	}
	return nil, fmt.Errorf("unknown STORE_DRIVER %q", driver)
}

// OpenGraphFromEnv：按 STORE_DRIVER 打开
func OpenGraphFromEnv(ctx context.Context) (*GraphStore, error) {
	return OpenGraph(ctx, os.Getenv("STORE_DRIVER"))
}
