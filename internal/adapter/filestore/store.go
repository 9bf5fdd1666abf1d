// Package filestore keeps each collection of snow pits in its own JSON file
// under a per-site, per-season directory tree:
//
//	{base}/{site}/{season}/clean_data/snowpits_{date}.json
//	{base}/{site}/{season}/plot/{title}-{date}.{ext}
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/couchcryptid/snowpit-service/internal/domain"
)

const (
	dataDir    = "clean_data"
	plotDir    = "plot"
	filePrefix = "snowpits_"
	fileExt    = ".json"
)

// Store implements domain.Store and domain.Catalog on the local filesystem.
// Writes go to a temporary file that is renamed over the collection file, so
// readers never observe a partial document.
type Store struct {
	base   string
	mu     sync.Mutex
	logger *slog.Logger
}

// New returns a Store rooted at base. The directory is created lazily.
func New(base string, logger *slog.Logger) *Store {
	return &Store{base: base, logger: logger}
}

// CheckReadiness reports whether the base directory exists or can be created.
func (s *Store) CheckReadiness(_ context.Context) error {
	if err := os.MkdirAll(s.base, 0o755); err != nil {
		return fmt.Errorf("data directory unavailable: %w", err)
	}
	return nil
}

// Path returns the collection file for c.
func (s *Store) Path(c domain.Collection) string {
	return filepath.Join(s.base, c.Site, c.Season, dataDir, filePrefix+c.Date+fileExt)
}

// PlotPath returns where a diagram of collection c is saved: titles name the
// file and the collection date suffixes it.
func PlotPath(base string, c domain.Collection, title, ext string) string {
	name := fmt.Sprintf("%s-%s.%s", sanitize(title), c.Date, strings.TrimPrefix(ext, "."))
	return filepath.Join(base, c.Site, c.Season, plotDir, name)
}

// EnsureTree creates the data and plot directories of every site and season.
// Nothing is created unless every site and season is a plain name.
func EnsureTree(base string, sites, seasons []string) error {
	for _, site := range sites {
		if err := domain.CheckPlainName("site", site); err != nil {
			return err
		}
	}
	for _, season := range seasons {
		if err := domain.CheckPlainName("season", season); err != nil {
			return err
		}
	}
	for _, site := range sites {
		for _, season := range seasons {
			for _, dir := range []string{dataDir, plotDir} {
				p := filepath.Join(base, site, season, dir)
				if err := os.MkdirAll(p, 0o755); err != nil {
					return fmt.Errorf("create directory %s: %w", p, err)
				}
			}
		}
	}
	return nil
}

func (s *Store) Load(_ context.Context, c domain.Collection) ([]domain.SnowPit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(c)
}

func (s *Store) Upsert(_ context.Context, c domain.Collection, pit domain.SnowPit) (domain.Action, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pits, err := s.read(c)
	if err != nil {
		return "", err
	}
	pits, action := domain.UpsertPit(pits, pit)
	if err := s.write(c, pits); err != nil {
		return "", err
	}
	s.logger.Debug("snow pit saved", "collection", c.String(), "pit_id", pit.ID, "action", action)
	return action, nil
}

func (s *Store) Delete(_ context.Context, c domain.Collection, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pits, err := s.read(c)
	if err != nil {
		return false, err
	}
	pits, ok := domain.RemovePit(pits, id)
	if !ok {
		return false, domain.ErrPitNotFound
	}
	if len(pits) == 0 {
		if err := os.Remove(s.Path(c)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return false, fmt.Errorf("remove collection %s: %w", c, err)
		}
		s.logger.Info("collection emptied, file removed", "collection", c.String())
		return true, nil
	}
	return false, s.write(c, pits)
}

// Collections walks the data tree. Files that do not follow the naming
// scheme are skipped.
func (s *Store) Collections(_ context.Context) ([]domain.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pattern := filepath.Join(s.base, "*", "*", dataDir, filePrefix+"*"+fileExt)
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	out := make([]domain.Collection, 0, len(matches))
	for _, m := range matches {
		rel, err := filepath.Rel(s.base, m)
		if err != nil {
			continue
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		date := strings.TrimSuffix(strings.TrimPrefix(parts[3], filePrefix), fileExt)
		c, err := domain.ParseCollection(parts[0], date)
		if err != nil || c.Season != parts[1] {
			s.logger.Warn("skipping misplaced collection file", "path", m)
			continue
		}
		out = append(out, c)
	}
	domain.SortCollections(out)
	return out, nil
}

func (s *Store) read(c domain.Collection) ([]domain.SnowPit, error) {
	data, err := os.ReadFile(s.Path(c))
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.SnowPit{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read collection %s: %w", c, err)
	}
	pits, err := domain.UnmarshalCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode collection %s: %w", c, err)
	}
	return pits, nil
}

func (s *Store) write(c domain.Collection, pits []domain.SnowPit) error {
	data, err := domain.MarshalCollection(pits)
	if err != nil {
		return fmt.Errorf("encode collection %s: %w", c, err)
	}
	path := s.Path(c)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create collection directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".snowpits-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write collection %s: %w", c, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close collection %s: %w", c, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace collection %s: %w", c, err)
	}
	return nil
}

// sanitize keeps a title usable as a file name.
func sanitize(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "snowpit"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, title)
}
