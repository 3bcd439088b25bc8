package postgres

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// New opens the Postgres pool described by the DB_* environment variables.
func New() (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", DSNFromEnv())
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	maxOpen := envInt("DB_MAX_OPEN_CONNS", 25)
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(envInt("DB_MAX_IDLE_CONNS", maxOpen/2))
	db.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

func DSNFromEnv() string {
	sslMode := os.Getenv("DB_SSLMODE")
	if sslMode == "" {
		sslMode = "disable"
	}

	port := os.Getenv("DB_PORT")
	if port == "" {
		port = "5432"
	}

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		os.Getenv("DB_HOST"),
		port,
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		sslMode,
	)
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
