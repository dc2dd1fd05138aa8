/*
Package catalog maintains a sqlite database of blurhashes for a tree of image
files along with a cache of decoded placeholders.
*/
package catalog

import (
	"context"
	"log"
	"path/filepath"

	"github.com/bodgit/blurhash"
	"github.com/pkg/errors"
)

// ErrCorruptPlaceholder is returned when a cached placeholder is the wrong size
// for its dimensions.
var ErrCorruptPlaceholder = errors.New("catalog: corrupt placeholder")

// Catalog indexes images and caches decoded placeholders. It implements
// blurhash.Source.
type Catalog struct {
	db     *DB
	logger *log.Logger
}

// New returns a Catalog using db.
func New(db *DB, logger *log.Logger) *Catalog {
	return &Catalog{
		db:     db,
		logger: logger,
	}
}

func punch(p float64) float64 {
	if p == 0 {
		return 1
	}
	return p
}

// Decode returns the placeholder for req, decoding and storing it if it
// isn't already cached.
func (c *Catalog) Decode(ctx context.Context, req blurhash.Request) (*blurhash.PixelBuffer, error) {
	p := punch(req.Punch)

	pixels, err := c.db.FindPlaceholder(ctx, req.Hash, req.Width, req.Height, p)
	if err != nil {
		return nil, err
	}
	if pixels != nil {
		if len(pixels) != req.Width*req.Height*4 {
			return nil, ErrCorruptPlaceholder
		}
		return &blurhash.PixelBuffer{
			Width:  req.Width,
			Height: req.Height,
			Pix:    pixels,
		}, nil
	}

	pb, err := blurhash.Decode(req.Hash, req.Width, req.Height, &blurhash.Options{Punch: p})
	if err != nil {
		return nil, err
	}

	if err := c.db.AddPlaceholder(ctx, req.Hash, req.Width, req.Height, p, pb.Pix); err != nil {
		// Still usable, just not cached
		c.logger.Printf("Unable to cache \"%s\" at %dx%d: %v\n", req.Hash, req.Width, req.Height, err)
	}

	return pb, nil
}

// Lookup returns the stored entry for an image file. An entry for the same
// path is only used if the contents haven't changed, otherwise any entry with
// identical contents is returned.
func (c *Catalog) Lookup(ctx context.Context, file string) (*Image, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return nil, err
	}

	sha, err := hashFile(abs)
	if err != nil {
		return nil, err
	}

	m, err := c.db.FindImageByPath(ctx, abs)
	if err != nil {
		return nil, err
	}
	if m != nil && m.SHA1 == sha {
		return m, nil
	}

	return c.db.FindImageBySHA1(ctx, sha)
}
