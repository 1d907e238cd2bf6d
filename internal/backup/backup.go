// Package backup copies the store file into timestamped snapshots and moves
// the whole store in and out of the JSON export format.
package backup

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/lojf/classbook/internal/apperr"
	"github.com/lojf/classbook/internal/events"
	"github.com/lojf/classbook/internal/store"
)

const stampLayout = "20060102_150405"

type Coordinator struct {
	store *store.Store
	bus   *events.Bus
	dir   string
	keep  int
	log   zerolog.Logger
	now   func() time.Time
}

// NewCoordinator writes snapshots into dir, keeping the newest keep of them
// (0 keeps all).
func NewCoordinator(st *store.Store, bus *events.Bus, dir string, keep int, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		store: st,
		bus:   bus,
		dir:   dir,
		keep:  keep,
		log:   log.With().Str("component", "backup").Logger(),
		now:   time.Now,
	}
}

func (c *Coordinator) Dir() string { return c.dir }

// nameParts splits the store file name into base and extension.
func (c *Coordinator) nameParts() (string, string) {
	name := filepath.Base(c.store.Path())
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext), ext
}

// Snapshot copies the store into <dir>/<base>_<YYYYMMDD_HHMMSS><ext>. The copy
// is written to a temporary name first so a partial file never carries a
// snapshot name.
func (c *Coordinator) Snapshot(ctx context.Context) (string, error) {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return "", apperr.New(apperr.Store, errors.Wrap(err, "create backup dir"), c.dir)
	}
	base, ext := c.nameParts()
	dst := filepath.Join(c.dir, base+"_"+c.now().Format(stampLayout)+ext)
	tmp := dst + ".tmp"
	_ = os.Remove(tmp)

	if err := c.store.Conn(ctx).Exec("VACUUM INTO ?", tmp).Error; err != nil {
		_ = os.Remove(tmp)
		return "", apperr.New(apperr.Store, errors.Wrap(err, "copy store"), tmp)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return "", apperr.New(apperr.Store, errors.Wrap(err, "rename snapshot"), dst)
	}
	c.log.Info().Str("file", dst).Msg("snapshot written")

	if _, err := c.Prune(); err != nil {
		c.log.Warn().Err(err).Msg("prune snapshots")
	}
	return dst, nil
}

// List returns the snapshot files of this store, oldest first.
func (c *Coordinator) List() ([]string, error) {
	base, ext := c.nameParts()
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "read backup dir")
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, base+"_") || !strings.HasSuffix(name, ext) {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, base+"_"), ext)
		if _, err := time.Parse(stampLayout, stamp); err != nil {
			continue
		}
		out = append(out, filepath.Join(c.dir, name))
	}
	sort.Strings(out)
	return out, nil
}

// Prune removes the oldest snapshots beyond the keep limit.
func (c *Coordinator) Prune() ([]string, error) {
	if c.keep <= 0 {
		return nil, nil
	}
	files, err := c.List()
	if err != nil {
		return nil, err
	}
	if len(files) <= c.keep {
		return nil, nil
	}
	stale := files[:len(files)-c.keep]
	for _, f := range stale {
		if err := os.Remove(f); err != nil {
			return nil, errors.Wrap(err, "remove snapshot")
		}
		c.log.Debug().Str("file", f).Msg("snapshot pruned")
	}
	return stale, nil
}
