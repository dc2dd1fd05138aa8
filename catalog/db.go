package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/klauspost/compress/zstd"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// DB is the sqlite database backing a Catalog.
type DB struct {
	db *sql.DB

	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewDB opens or creates the database in file.
func NewDB(file string) (*DB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on&_busy_timeout=5000", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS image (id INTEGER PRIMARY KEY NOT NULL, path TEXT NOT NULL UNIQUE, sha1 TEXT NOT NULL, hash TEXT NOT NULL, width INTEGER NOT NULL, height INTEGER NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec("CREATE INDEX IF NOT EXISTS image_sha1 ON image (sha1)"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS placeholder (id INTEGER PRIMARY KEY NOT NULL, hash TEXT NOT NULL, width INTEGER NOT NULL, height INTEGER NOT NULL, punch REAL NOT NULL, pixels BLOB NOT NULL, UNIQUE(hash, width, height, punch))"); err != nil {
		db.Close()
		return nil, err
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, err
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		db.Close()
		return nil, err
	}

	return &DB{
		db:      db,
		encoder: encoder,
		decoder: decoder,
	}, nil
}

// Close closes the database.
func (db *DB) Close() error {
	db.decoder.Close()
	if err := db.encoder.Close(); err != nil {
		db.db.Close()
		return err
	}
	return db.db.Close()
}

// Image is an indexed image file.
type Image struct {
	Path   string
	SHA1   string
	Hash   string
	Width  int
	Height int
}

// AddImage stores or replaces the entry for m.Path.
func (db *DB) AddImage(ctx context.Context, m Image) error {
	if _, err := db.db.ExecContext(ctx, "INSERT OR REPLACE INTO image (path, sha1, hash, width, height) VALUES (?, ?, ?, ?, ?)", m.Path, m.SHA1, m.Hash, m.Width, m.Height); err != nil {
		return err
	}
	return nil
}

func (db *DB) findImage(ctx context.Context, query string, arg interface{}) (*Image, error) {
	var m Image
	switch err := db.db.QueryRowContext(ctx, query, arg).Scan(&m.Path, &m.SHA1, &m.Hash, &m.Width, &m.Height); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		return &m, nil
	default:
		return nil, err
	}
}

// FindImageByPath returns the entry for path or nil if there isn't one.
func (db *DB) FindImageByPath(ctx context.Context, path string) (*Image, error) {
	return db.findImage(ctx, "SELECT path, sha1, hash, width, height FROM image WHERE path = ?", path)
}

// FindImageBySHA1 returns any entry with the given content checksum or nil
// if there isn't one.
func (db *DB) FindImageBySHA1(ctx context.Context, sha string) (*Image, error) {
	return db.findImage(ctx, "SELECT path, sha1, hash, width, height FROM image WHERE sha1 = ? ORDER BY id LIMIT 1", sha)
}

// AddPlaceholder stores the decoded pixels for the given parameters.
func (db *DB) AddPlaceholder(ctx context.Context, hash string, width, height int, punch float64, pixels []byte) error {
	if _, err := db.db.ExecContext(ctx, "INSERT OR REPLACE INTO placeholder (hash, width, height, punch, pixels) VALUES (?, ?, ?, ?, ?)", hash, width, height, punch, db.encoder.EncodeAll(pixels, nil)); err != nil {
		return err
	}
	return nil
}

// FindPlaceholder returns the decoded pixels for the given parameters or nil
// if they haven't been stored.
func (db *DB) FindPlaceholder(ctx context.Context, hash string, width, height int, punch float64) ([]byte, error) {
	var pixels []byte
	switch err := db.db.QueryRowContext(ctx, "SELECT pixels FROM placeholder WHERE hash = ? AND width = ? AND height = ? AND punch = ?", hash, width, height, punch).Scan(&pixels); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		b, err := db.decoder.DecodeAll(pixels, nil)
		if err != nil {
			return nil, errors.Wrapf(ErrCorruptPlaceholder, "%v", err)
		}
		return b, nil
	default:
		return nil, err
	}
}
