package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/gramseva/idverify/internal/config"
	"github.com/gramseva/idverify/internal/logger"
)

// LocalDB is the agent's durable SQLite store: the offline transaction
// queue, the attempt-event journal, OTP issues, the lockout cache and
// the encrypted credential cache all live here so a power cut in the
// field never loses state.
type LocalDB struct {
	*sql.DB
	logger *logger.Logger
}

func NewConnectSQLite(ctx context.Context, cfg config.LocalDB, log *logger.Logger) (*LocalDB, error) {
	dsn := cfg.DSN
	if dsn == "" {
		dsn = ":memory:"
	}

	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		log.Err(err).Str("func", "NewConnectSQLite").Msg("error opening local database")
		return nil, fmt.Errorf("open local database: %w", err)
	}

	// SQLite serializes writers itself; a single connection avoids
	// SQLITE_BUSY under the agent's concurrent jobs.
	conn.SetMaxOpenConns(1)

	if err = conn.PingContext(ctx); err != nil {
		log.Err(err).Str("func", "NewConnectSQLite").Msg("error connecting local database (ping)")
		return nil, err
	}

	if _, err = conn.ExecContext(ctx, localSchema); err != nil {
		log.Err(err).Str("func", "NewConnectSQLite").Msg("error bootstrapping local schema")
		return nil, fmt.Errorf("bootstrap local schema: %w", err)
	}
	log.Info().Str("func", "NewConnectSQLite").Msg("local database ready")

	return &LocalDB{DB: conn, logger: log}, nil
}
