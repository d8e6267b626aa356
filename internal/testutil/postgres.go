// Package testutil provides test helpers including container management
// and test client utilities.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/chronique-jdr/chronique/internal/config"
	"github.com/chronique-jdr/chronique/internal/storage/postgres"
)

// PostgresContainer wraps a testcontainers PostgreSQL instance.
type PostgresContainer struct {
	container testcontainers.Container
	Pool      *postgres.Pool
	RawPool   *pgxpool.Pool
	Config    config.DatabaseConfig
}

// NewPostgresContainer starts a PostgreSQL test container and returns
// a connected Pool.
//
// Precondition: Docker must be available.
// Postcondition: Returns a running container with a connected pool,
// or fails the test.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	ctx := context.Background()
	start := time.Now()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(30 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("starting postgres container: %v [%s]", err, time.Since(start))
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("getting container host: %v", err)
	}

	mappedPort, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("getting mapped port: %v", err)
	}

	dbCfg := config.DatabaseConfig{
		Host:            host,
		Port:            mappedPort.Int(),
		User:            "test",
		Password:        "test",
		Name:            "test",
		SSLMode:         "disable",
		MaxConns:        5,
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
	}

	pool, err := postgres.NewPool(ctx, dbCfg)
	if err != nil {
		t.Fatalf("connecting to test postgres: %v [%s]", err, time.Since(start))
	}

	t.Logf("postgres container started [%s]", time.Since(start))

	pc := &PostgresContainer{
		container: container,
		Pool:      pool,
		RawPool:   pool.DB(),
		Config:    dbCfg,
	}

	t.Cleanup(func() {
		pool.Close()
		_ = container.Terminate(ctx)
	})

	return pc
}

// ApplyMigrations runs the schema creation SQL directly for tests.
// This avoids requiring the migrate tool in the test environment; the
// statements mirror the files under migrations/.
//
// Precondition: Pool must be connected.
// Postcondition: Every application table exists in the test database.
func (pc *PostgresContainer) ApplyMigrations(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	start := time.Now()

	schema := `
		CREATE TABLE IF NOT EXISTS accounts (
			id            BIGSERIAL    PRIMARY KEY,
			username      VARCHAR(64)  NOT NULL UNIQUE,
			password_hash TEXT         NOT NULL,
			role          VARCHAR(16)  NOT NULL DEFAULT 'player',
			created_at    TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_accounts_username ON accounts (username);

		CREATE TABLE IF NOT EXISTS campaigns (
			id            BIGSERIAL    PRIMARY KEY,
			name          VARCHAR(120) NOT NULL,
			description   TEXT         NOT NULL DEFAULT '',
			gm_account_id BIGINT       NOT NULL REFERENCES accounts (id),
			created_at    TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			updated_at    TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS campaign_members (
			campaign_id BIGINT      NOT NULL REFERENCES campaigns (id) ON DELETE CASCADE,
			account_id  BIGINT      NOT NULL REFERENCES accounts (id) ON DELETE CASCADE,
			joined_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (campaign_id, account_id)
		);

		CREATE TABLE IF NOT EXISTS characters (
			id               BIGSERIAL    PRIMARY KEY,
			campaign_id      BIGINT       NOT NULL REFERENCES campaigns (id) ON DELETE CASCADE,
			owner_account_id BIGINT       NOT NULL REFERENCES accounts (id),
			name             VARCHAR(100) NOT NULL,
			race             VARCHAR(50)  NOT NULL DEFAULT '',
			class            VARCHAR(50)  NOT NULL DEFAULT '',
			level            INT          NOT NULL DEFAULT 1,
			strength         INT          NOT NULL,
			dexterity        INT          NOT NULL,
			constitution     INT          NOT NULL,
			intelligence     INT          NOT NULL,
			wisdom           INT          NOT NULL,
			charisma         INT          NOT NULL,
			max_hp           INT          NOT NULL,
			current_hp       INT          NOT NULL,
			temp_hp          INT          NOT NULL DEFAULT 0,
			created_at       TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			updated_at       TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			UNIQUE (campaign_id, name)
		);

		CREATE TABLE IF NOT EXISTS items (
			id          BIGSERIAL        PRIMARY KEY,
			name        VARCHAR(100)     NOT NULL UNIQUE,
			description TEXT             NOT NULL DEFAULT '',
			slot        VARCHAR(20)      NOT NULL DEFAULT '',
			weight      DOUBLE PRECISION NOT NULL DEFAULT 0,
			value       INT              NOT NULL DEFAULT 0,
			stackable   BOOLEAN          NOT NULL DEFAULT FALSE
		);

		CREATE TABLE IF NOT EXISTS character_items (
			id           BIGSERIAL PRIMARY KEY,
			character_id BIGINT    NOT NULL REFERENCES characters (id) ON DELETE CASCADE,
			item_id      BIGINT    NOT NULL REFERENCES items (id),
			quantity     INT       NOT NULL CHECK (quantity >= 1),
			equipped     BOOLEAN   NOT NULL DEFAULT FALSE
		);

		CREATE TABLE IF NOT EXISTS articles (
			id                BIGSERIAL    PRIMARY KEY,
			campaign_id       BIGINT       NOT NULL REFERENCES campaigns (id) ON DELETE CASCADE,
			author_account_id BIGINT       NOT NULL REFERENCES accounts (id),
			slug              VARCHAR(220) NOT NULL,
			title             VARCHAR(200) NOT NULL,
			body              TEXT         NOT NULL DEFAULT '',
			category          VARCHAR(20)  NOT NULL,
			created_at        TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			updated_at        TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			UNIQUE (campaign_id, slug)
		);

		CREATE TABLE IF NOT EXISTS messages (
			id                BIGSERIAL   PRIMARY KEY,
			campaign_id       BIGINT      NOT NULL REFERENCES campaigns (id) ON DELETE CASCADE,
			author_account_id BIGINT      NOT NULL REFERENCES accounts (id),
			room              VARCHAR(80) NOT NULL,
			body              TEXT        NOT NULL,
			created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS combats (
			id            VARCHAR(64) PRIMARY KEY,
			campaign_id   BIGINT      NOT NULL REFERENCES campaigns (id) ON DELETE CASCADE,
			gm_account_id BIGINT      NOT NULL REFERENCES accounts (id),
			status        VARCHAR(24) NOT NULL,
			round         INT         NOT NULL DEFAULT 0,
			turn_index    INT         NOT NULL DEFAULT 0,
			turn_order    TEXT[],
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS combat_participants (
			combat_id        VARCHAR(64) NOT NULL REFERENCES combats (id) ON DELETE CASCADE,
			participant_id   VARCHAR(64) NOT NULL,
			position         INT         NOT NULL,
			kind             VARCHAR(24) NOT NULL,
			display_name     VARCHAR(100) NOT NULL,
			character_id     BIGINT      REFERENCES characters (id),
			owner_account_id BIGINT      REFERENCES accounts (id),
			hp_current       INT         NOT NULL CHECK (hp_current >= 0),
			hp_max           INT         NOT NULL CHECK (hp_max > 0),
			temp_hp          INT         NOT NULL DEFAULT 0 CHECK (temp_hp >= 0),
			initiative       INT,
			PRIMARY KEY (combat_id, participant_id)
		);

		CREATE TABLE IF NOT EXISTS participant_conditions (
			combat_id      VARCHAR(64) NOT NULL,
			participant_id VARCHAR(64) NOT NULL,
			position       INT         NOT NULL,
			condition_id   VARCHAR(64) NOT NULL,
			name           VARCHAR(100) NOT NULL,
			metadata       JSONB,
			PRIMARY KEY (combat_id, participant_id, condition_id),
			FOREIGN KEY (combat_id, participant_id)
				REFERENCES combat_participants (combat_id, participant_id)
				ON DELETE CASCADE
		);
	`

	_, err := pc.RawPool.Exec(ctx, schema)
	if err != nil {
		t.Fatalf("applying migrations: %v", err)
	}
	t.Logf("migrations applied [%s]", time.Since(start))
}

// NewPool starts a migrated test database and returns its connection pool.
// It is the one-call helper for repository tests; the container is torn down
// via t.Cleanup.
//
// Precondition: Docker must be available.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	pc := NewPostgresContainer(t)
	pc.ApplyMigrations(t)
	return pc.RawPool
}

// DSN returns the connection string for the test database.
func (pc *PostgresContainer) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		pc.Config.User, pc.Config.Password,
		pc.Config.Host, pc.Config.Port,
		pc.Config.Name, pc.Config.SSLMode,
	)
}
