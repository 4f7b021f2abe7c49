package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"medease/m/domain"
)

// ErrNoSession means the id is unknown or the session has expired.
var ErrNoSession = errors.New("session: not found")

// Record is what a store keeps for one logged-in browser. Token is the API
// bearer token obtained at login.
type Record struct {
	ID        string      `json:"id"`
	User      domain.User `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
}

type Store interface {
	Save(ctx context.Context, rec Record) error
	Get(ctx context.Context, id string) (Record, error)
	Delete(ctx context.Context, id string) error
}

// SQLStore keeps sessions in the sessions table.
type SQLStore struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db, now: time.Now}
}

type sessionRow struct {
	ID        string `db:"id"`
	UserJSON  string `db:"user_json"`
	Token     string `db:"token"`
	ExpiresAt int64  `db:"expires_at"`
}

func (s *SQLStore) Save(ctx context.Context, rec Record) error {
	user, err := json.Marshal(rec.User)
	if err != nil {
		return fmt.Errorf("encode session user: %w", err)
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin session save: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, rec.ID); err != nil {
		return fmt.Errorf("replace session: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO sessions (id, user_json, token, expires_at) VALUES ($1, $2, $3, $4)`,
		rec.ID, string(user), rec.Token, rec.ExpiresAt.Unix()); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return tx.Commit()
}

func (s *SQLStore) Get(ctx context.Context, id string) (Record, error) {
	var row sessionRow
	err := s.db.GetContext(ctx, &row, `SELECT id, user_json, token, expires_at FROM sessions WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNoSession
	}
	if err != nil {
		return Record{}, fmt.Errorf("load session: %w", err)
	}
	expires := time.Unix(row.ExpiresAt, 0)
	if !s.now().Before(expires) {
		_ = s.Delete(ctx, id)
		return Record{}, ErrNoSession
	}
	rec := Record{ID: row.ID, Token: row.Token, ExpiresAt: expires}
	if err := json.Unmarshal([]byte(row.UserJSON), &rec.User); err != nil {
		return Record{}, fmt.Errorf("decode session user: %w", err)
	}
	return rec, nil
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// PurgeExpired drops every session past its expiry and returns how many went.
func (s *SQLStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, s.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return res.RowsAffected()
}

// Cache key for a dashboard session: session:{id} -> Record JSON
const keySession = "session:%s"

// RedisStore keeps sessions as JSON values that expire with the session.
type RedisStore struct {
	rdb *redis.Client
	now func() time.Time
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, now: time.Now}
}

func (s *RedisStore) Save(ctx context.Context, rec Record) error {
	ttl := rec.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return fmt.Errorf("save session %s: already expired", rec.ID)
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.rdb.Set(ctx, fmt.Sprintf(keySession, rec.ID), b, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, id string) (Record, error) {
	val, err := s.rdb.Get(ctx, fmt.Sprintf(keySession, id)).Result()
	if errors.Is(err, redis.Nil) {
		return Record{}, ErrNoSession
	}
	if err != nil {
		return Record{}, fmt.Errorf("load session: %w", err)
	}
	var rec Record
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return Record{}, fmt.Errorf("decode session: %w", err)
	}
	return rec, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, fmt.Sprintf(keySession, id)).Err()
}
