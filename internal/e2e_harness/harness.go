package e2e_harness

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	campus "github.com/lychee-technology/campus"
	"github.com/lychee-technology/campus/internal"
)

// TestHarness holds the Postgres container and the two handles E2E tests use:
// PGDB for schema setup and assertions, Pool for the service under test.
type TestHarness struct {
	PGContainer testcontainers.Container
	PGDSN       string
	PGDB        *sql.DB
	Database    campus.DatabaseConfig
	Pool        *pgxpool.Pool
}

// StartPostgres starts a postgres container and returns a DSN.
// It waits until Postgres is reachable. Caller is responsible for calling StopPostgres.
func (h *TestHarness) StartPostgres(ctx context.Context) (string, error) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_PASSWORD": "password",
			"POSTGRES_USER":     "postgres",
			"POSTGRES_DB":       "campus",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", err
	}
	h.PGContainer = container

	host, err := container.Host(ctx)
	if err != nil {
		return "", err
	}
	mapped, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return "", err
	}
	port, err := strconv.Atoi(mapped.Port())
	if err != nil {
		return "", fmt.Errorf("parse mapped port: %w", err)
	}

	h.Database = campus.DefaultConfig().Database
	h.Database.Host = host
	h.Database.Port = port
	h.Database.Database = "campus"
	h.Database.Username = "postgres"
	h.Database.Password = "password"
	h.Database.SSLMode = "disable"
	h.PGDSN = internal.PostgresDSN(h.Database)

	db, err := sql.Open("postgres", h.PGDSN)
	if err != nil {
		return "", err
	}
	deadline := time.Now().Add(20 * time.Second)
	for {
		if err := db.PingContext(ctx); err == nil {
			h.PGDB = db
			return h.PGDSN, nil
		}
		if time.Now().After(deadline) {
			db.Close()
			return "", fmt.Errorf("postgres did not become ready: %w", err)
		}
		time.Sleep(200 * time.Millisecond)
	}
}

// OpenPool connects the pgx pool the service runs on. Call after StartPostgres.
func (h *TestHarness) OpenPool(ctx context.Context) (*pgxpool.Pool, error) {
	pool, err := internal.NewPostgresPool(ctx, h.Database)
	if err != nil {
		return nil, err
	}
	h.Pool = pool
	return pool, nil
}

// StopPostgres closes both handles and stops the container.
func (h *TestHarness) StopPostgres(ctx context.Context) error {
	if h.Pool != nil {
		h.Pool.Close()
		h.Pool = nil
	}
	if h.PGDB != nil {
		h.PGDB.Close()
		h.PGDB = nil
	}
	if h.PGContainer != nil {
		if err := h.PGContainer.Terminate(ctx); err != nil {
			return err
		}
		h.PGContainer = nil
	}
	return nil
}
