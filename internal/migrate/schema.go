package migrate

import (
	"database/sql"

	"world-api/internal/logger"
	"world-api/internal/place"
	"world-api/internal/store"
)

// EnsureSchema：首次运行创建层级表、边表与索引
// 约束：全部语句使用 IF NOT EXISTS，可重复执行；需要有创建扩展的权限（cube/earthdistance）
func EnsureSchema(db *sql.DB) error {
	for i, s := range Statements() {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	logger.L().Debug("schema_done")
	return nil
}

// Statements：建表语句清单，按执行顺序
func Statements() []string {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS cube`,
		`CREATE EXTENSION IF NOT EXISTS earthdistance`,
	}
	for _, l := range place.Levels {
		t := string(l)
		stmts = append(stmts,
			`CREATE TABLE IF NOT EXISTS `+t+` (
            geoname_id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            alternate_names TEXT[] NOT NULL DEFAULT '{}',
            names_tsv TSVECTOR,
            latitude DOUBLE PRECISION NOT NULL,
            longitude DOUBLE PRECISION NOT NULL,
            population BIGINT NOT NULL DEFAULT 0
        )`,
			`CREATE INDEX IF NOT EXISTS idx_`+t+`_names ON `+t+` USING GIN (names_tsv)`,
			`CREATE INDEX IF NOT EXISTS idx_`+t+`_geo ON `+t+` USING GIST (ll_to_earth(latitude, longitude))`,
		)
	}
	stmts = append(stmts,
		`CREATE TABLE IF NOT EXISTS `+store.EdgeTable+` (
            from_level TEXT NOT NULL,
            from_key TEXT NOT NULL,
            to_level TEXT NOT NULL,
            to_key TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
            PRIMARY KEY (from_level, from_key)
        )`,
		`CREATE INDEX IF NOT EXISTS idx_`+store.EdgeTable+`_to ON `+store.EdgeTable+`(to_level, to_key)`,
	)
	return stmts
}
