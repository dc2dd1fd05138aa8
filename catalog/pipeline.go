package catalog

import (
	"context"
	"crypto/sha1"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bodgit/blurhash"
	"github.com/pkg/errors"
)

const defaultWorkers = 10

// Ignore anything bigger than this, it's only ever going to be a thumbnail
const maxFileSize = 64 << (10 * 2)

var extensions = map[string]struct{}{
	".gif":  {},
	".jpeg": {},
	".jpg":  {},
	".png":  {},
}

func hashFile(file string) (string, error) {
	f, err := os.Open(file)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return fmt.Sprintf("%X", h.Sum(nil)), nil
}

func decodeFile(file string) (string, image.Image, error) {
	f, err := os.Open(file)
	if err != nil {
		return "", nil, err
	}
	defer f.Close()

	h := sha1.New()
	m, _, err := image.Decode(io.TeeReader(f, h))
	if err != nil {
		return "", nil, err
	}
	// Make sure any trailing bytes are part of the checksum
	if _, err := io.Copy(h, f); err != nil {
		return "", nil, err
	}

	return fmt.Sprintf("%X", h.Sum(nil)), m, nil
}

func (c *Catalog) findFiles(ctx context.Context, base string) (<-chan string, <-chan error, error) {
	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		errc <- filepath.Walk(base, func(file string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// Ignore any hidden files or directories, otherwise we end up fighting with things like Spotlight, etc.
			if info.Name()[0] == '.' && file != base {
				if info.Mode().IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			// Ignore anything that isn't a normal file
			if !info.Mode().IsRegular() || info.Size() > maxFileSize {
				return nil
			}

			if _, ok := extensions[strings.ToLower(filepath.Ext(file))]; !ok {
				return nil
			}

			select {
			case out <- file:
			case <-ctx.Done():
				return ctx.Err()
			}

			return nil
		})
	}()
	return out, errc, nil
}

func (c *Catalog) addFile(ctx context.Context, file string, xComponents, yComponents int) error {
	sha, err := hashFile(file)
	if err != nil {
		return err
	}

	existing, err := c.db.FindImageByPath(ctx, file)
	if err != nil {
		return err
	}
	if existing != nil && existing.SHA1 == sha {
		x, y, err := blurhash.Components(existing.Hash)
		if err == nil && x == xComponents && y == yComponents {
			return nil
		}
	}

	// Identical contents elsewhere in the tree
	if dup, err := c.db.FindImageBySHA1(ctx, sha); err != nil {
		return err
	} else if dup != nil {
		x, y, err := blurhash.Components(dup.Hash)
		if err != nil {
			return err
		}
		if x == xComponents && y == yComponents {
			dup.Path = file
			return c.db.AddImage(ctx, *dup)
		}
	}

	sha, m, err := decodeFile(file)
	if err != nil {
		c.logger.Printf("Unable to decode \"%s\": %v\n", file, err)
		return nil
	}

	hash, err := blurhash.Encode(xComponents, yComponents, m)
	if err != nil {
		return err
	}

	c.logger.Printf("Indexed \"%s\" as \"%s\"\n", file, hash)

	return c.db.AddImage(ctx, Image{
		Path:   file,
		SHA1:   sha,
		Hash:   hash,
		Width:  m.Bounds().Dx(),
		Height: m.Bounds().Dy(),
	})
}

func (c *Catalog) fileWorker(ctx context.Context, in <-chan string, xComponents, yComponents int) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for file := range in {
			if err := c.addFile(ctx, file, xComponents, yComponents); err != nil {
				errc <- err
				return
			}
		}
	}()
	return errc, nil
}

func waitForPipeline(cancel context.CancelFunc, errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	var first error
	for err := range errc {
		if err != nil && first == nil {
			first = err
			// Stop the walker so the remaining workers drain
			cancel()
		}
	}
	return first
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Scan walks path and indexes every image found using xComponents by
// yComponents blurhash components. Files that fail to decode as an image are
// logged and skipped.
func (c *Catalog) Scan(ctx context.Context, path string, xComponents, yComponents int, workers int) error {
	if xComponents < 1 || xComponents > blurhash.MaxComponents || yComponents < 1 || yComponents > blurhash.MaxComponents {
		return errors.Wrapf(blurhash.ErrInvalidComponents, "%dx%d", xComponents, yComponents)
	}

	if workers < 1 {
		workers = defaultWorkers
	}

	dir, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	var errcList []<-chan error

	files, errc, err := c.findFiles(ctx, dir)
	if err != nil {
		return err
	}
	errcList = append(errcList, errc)

	for i := 0; i < workers; i++ {
		errc, err := c.fileWorker(ctx, files, xComponents, yComponents)
		if err != nil {
			return err
		}
		errcList = append(errcList, errc)
	}

	return waitForPipeline(cancelFunc, errcList...)
}
