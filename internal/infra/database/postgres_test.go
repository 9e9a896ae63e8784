package database

import (
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yusay1498/vibe-coding-practice-api/internal/infra/config"
)

func TestDSNParsesIntoPoolConfig(t *testing.T) {
	cfg := config.PostgresSettings{
		Host:     "db.internal",
		Port:     6432,
		User:     "users",
		Password: "secret",
		Database: "users",
		SSLMode:  "require",
	}

	poolConfig, err := pgxpool.ParseConfig(DSN(cfg))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if poolConfig.ConnConfig.Host != "db.internal" || poolConfig.ConnConfig.Port != 6432 {
		t.Fatalf("unexpected host/port %s:%d", poolConfig.ConnConfig.Host, poolConfig.ConnConfig.Port)
	}
	if poolConfig.ConnConfig.Database != "users" || poolConfig.ConnConfig.User != "users" {
		t.Fatalf("unexpected database/user %s/%s", poolConfig.ConnConfig.Database, poolConfig.ConnConfig.User)
	}
}
