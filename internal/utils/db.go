// 包 utils：数据库与缓存连接工具，统一环境变量读取
package utils

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	_ "github.com/lib/pq"
)

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			return n
		}
	}
	return def
}

// BuildPostgresDSNFromEnv：PG_HOST/PG_PORT/PG_USER/PG_PASSWORD/PG_DB/PG_SSLMODE 组装 DSN
// 约束：口令做 URL 转义
func BuildPostgresDSNFromEnv() string {
	u := url.URL{
		Scheme:   "postgres",
		Host:     getenv("PG_HOST", "localhost") + ":" + getenv("PG_PORT", "5432"),
		Path:     "/" + getenv("PG_DB", "world"),
		RawQuery: "sslmode=" + url.QueryEscape(getenv("PG_SSLMODE", "disable")),
	}
	user := getenv("PG_USER", "postgres")
	if pass := os.Getenv("PG_PASSWORD"); pass != "" {
		u.User = url.UserPassword(user, pass)
	} else {
		u.User = url.User(user)
	}
	return u.String()
}

// OpenPostgresFromEnv：打开连接池；PG_MAX_OPEN_CONNS/PG_MAX_IDLE_CONNS 可调
// 约束：导入时每个 worker 至少占用一个连接，另有一个连接长期持有导入锁
func OpenPostgresFromEnv() (*sql.DB, error) {
	db, err := sql.Open("postgres", BuildPostgresDSNFromEnv())
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(getenvInt("PG_MAX_OPEN_CONNS", 50))
	db.SetMaxIdleConns(getenvInt("PG_MAX_IDLE_CONNS", 25))
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}
