package room

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
)

const snapshotRowID = "rooms"

const createSnapshotTable = `CREATE TABLE IF NOT EXISTS room_snapshots (
	id TEXT PRIMARY KEY,
	version INTEGER NOT NULL,
	data BYTEA NOT NULL,
	saved_at TIMESTAMPTZ NOT NULL
)`

const upsertSnapshot = `INSERT INTO room_snapshots (id, version, data, saved_at) VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET version = EXCLUDED.version, data = EXCLUDED.data, saved_at = EXCLUDED.saved_at`

const selectSnapshot = `SELECT data FROM room_snapshots WHERE id = $1`

// PostgresStore keeps the snapshot in a single row of room_snapshots.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgresStore connects with a lib/pq connection string and makes sure
// the snapshot table exists.
func OpenPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", connStr)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to connect to postgres")
	}
	store := NewPostgresStore(db)
	if err := store.CreateSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (p *PostgresStore) CreateSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, createSnapshotTable)
	if err != nil {
		return errors.Wrap(err, "Unable to create room_snapshots table")
	}
	return nil
}

func (p *PostgresStore) SaveSnapshot(ctx context.Context, rooms []Room) error {
	savedAt := time.Now().UTC()
	data, err := encodeSnapshot(rooms, savedAt)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, upsertSnapshot, snapshotRowID, snapshotVersion, data, savedAt)
	if err != nil {
		return errors.Wrap(err, "Unable to save room snapshot to postgres")
	}
	return nil
}

func (p *PostgresStore) LoadSnapshot(ctx context.Context) ([]Room, error) {
	var data []byte
	err := p.db.GetContext(ctx, &data, selectSnapshot, snapshotRowID)
	if err == sql.ErrNoRows {
		return nil, ErrSnapshotNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "Unable to load room snapshot from postgres")
	}
	return decodeSnapshot(data)
}

func (p *PostgresStore) Close() error {
	return p.db.Close()
}
