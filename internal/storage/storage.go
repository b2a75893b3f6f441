// internal/storage/storage.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"

	"imagehost/internal/models"
)

// Storage is the metadata store for uploaded images, backed by a pgx
// connection pool. Every request checks a connection out of the pool for
// the duration of its statement, so concurrent handlers never share one.
type Storage struct {
	pool     *pgxpool.Pool
	db       *sql.DB // for migrations
	attempts int
	delay    time.Duration
	log      zerolog.Logger

	mu       sync.Mutex
	migrated bool
}

// ImageFilter selects at most one row by a conjunction of the set fields.
// Only these two columns are queryable; anything else is not expressible.
type ImageFilter struct {
	ID       *int64
	Filename *string
}

func New(dsn string, attempts int, delay time.Duration, log zerolog.Logger) (*Storage, error) {
	const op = "storage.New"

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", op, err)
	}

	return &Storage{
		pool:     pool,
		db:       stdlib.OpenDBFromPool(pool),
		attempts: attempts,
		delay:    delay,
		log:      log,
	}, nil
}

func (s *Storage) Close() {
	s.db.Close()
	s.pool.Close()
}

// Connect pings the database with bounded retries and a fixed delay
// between attempts, applying migrations on the first successful ping.
// On exhaustion the store stays usable: Ready keeps probing, and callers
// are expected to answer 503 until the database appears.
func (s *Storage) Connect(ctx context.Context) error {
	const op = "storage.Connect"

	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		err := s.Ready(ctx)
		if err == nil {
			s.log.Info().Int("attempt", attempt).Msg("database connection established")
			return nil
		}
		lastErr = err
		s.log.Warn().Int("attempt", attempt).Int("max", s.attempts).Err(err).
			Msg("database not ready yet")

		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %v", op, ctx.Err())
		case <-time.After(s.delay):
		}
	}

	return fmt.Errorf("%s: database unreachable after %d attempts: %v", op, s.attempts, lastErr)
}

// Ready is the liveness probe used as the guard at the top of every
// handler that touches the store. It pings the pool and runs migrations
// once on the first success; subsequent calls only ping.
func (s *Storage) Ready(ctx context.Context) error {
	const op = "storage.Ready"

	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%s: %v", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.migrated {
		return nil
	}
	if err := runMigrations(s.db); err != nil {
		return fmt.Errorf("%s: %v", op, err)
	}
	s.migrated = true
	return nil
}

func (s *Storage) InsertImage(ctx context.Context, filename, originalName string, size int64, fileType string) error {
	const op = "storage.InsertImage"

	_, err := s.pool.Exec(ctx,
		`INSERT INTO images (filename, original_name, size, file_type)
		 VALUES ($1, $2, $3, $4)`,
		filename, originalName, size, fileType)
	if err != nil {
		return fmt.Errorf("%s: %v", op, err)
	}
	return nil
}

// ListImages returns one page of rows ordered by upload time, newest
// first. Pages are 1-based; a page past the end is an empty slice, not
// an error.
func (s *Storage) ListImages(ctx context.Context, page, perPage int) ([]models.Image, error) {
	const op = "storage.ListImages"

	if page < 1 {
		page = 1
	}
	offset := (page - 1) * perPage

	rows, err := s.pool.Query(ctx,
		`SELECT id, filename, original_name, size, file_type, upload_time
		 FROM images
		 ORDER BY upload_time DESC
		 LIMIT $1 OFFSET $2`,
		perPage, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", op, err)
	}
	defer rows.Close()

	images := []models.Image{}
	for rows.Next() {
		var img models.Image
		if err := rows.Scan(&img.ID, &img.Filename, &img.OriginalName,
			&img.Size, &img.FileType, &img.UploadTime); err != nil {
			return nil, fmt.Errorf("%s: %v", op, err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %v", op, err)
	}
	return images, nil
}

func (s *Storage) CountImages(ctx context.Context) (int64, error) {
	const op = "storage.CountImages"

	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM images`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%s: %v", op, err)
	}
	return count, nil
}

// GetImage returns the row matching all set filter fields, or (nil, nil)
// when nothing matches.
func (s *Storage) GetImage(ctx context.Context, f ImageFilter) (*models.Image, error) {
	const op = "storage.GetImage"

	conds := []string{}
	args := []any{}
	if f.ID != nil {
		args = append(args, *f.ID)
		conds = append(conds, fmt.Sprintf("id = $%d", len(args)))
	}
	if f.Filename != nil {
		args = append(args, *f.Filename)
		conds = append(conds, fmt.Sprintf("filename = $%d", len(args)))
	}
	if len(conds) == 0 {
		return nil, fmt.Errorf("%s: empty filter", op)
	}

	var img models.Image
	err := s.pool.QueryRow(ctx,
		`SELECT id, filename, original_name, size, file_type, upload_time
		 FROM images WHERE `+strings.Join(conds, " AND ")+` LIMIT 1`,
		args...).Scan(&img.ID, &img.Filename, &img.OriginalName,
		&img.Size, &img.FileType, &img.UploadTime)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %v", op, err)
	}
	return &img, nil
}

// DeleteImage removes the row with the given id and reports how many
// rows were affected (0 for an id that does not exist).
func (s *Storage) DeleteImage(ctx context.Context, id int64) (int64, error) {
	const op = "storage.DeleteImage"

	tag, err := s.pool.Exec(ctx, `DELETE FROM images WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %v", op, err)
	}
	return tag.RowsAffected(), nil
}
