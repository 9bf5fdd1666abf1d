package domain

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrPitNotFound is returned when no pit with the given id exists.
var ErrPitNotFound = errors.New("snow pit not found")

// ErrInvalidCollection is returned for a site or date that cannot key a collection.
var ErrInvalidCollection = errors.New("invalid collection")

// Action reports what an upsert did.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
)

// Collection identifies the pits recorded at one site on one date. Season is
// derived from the date.
type Collection struct {
	Site   string `json:"site"`
	Season string `json:"season"`
	Date   string `json:"date"`
}

// NewCollection keys the pits of site on date.
func NewCollection(site string, date time.Time) (Collection, error) {
	site = strings.TrimSpace(site)
	if site == "" {
		return Collection{}, fmt.Errorf("%w: site is required", ErrInvalidCollection)
	}
	if err := CheckPlainName("site", site); err != nil {
		return Collection{}, err
	}
	if date.IsZero() {
		return Collection{}, fmt.Errorf("%w: date is required", ErrInvalidCollection)
	}
	return Collection{Site: site, Season: SeasonOf(date), Date: date.Format(DateLayout)}, nil
}

// CheckPlainName rejects names that would not stay a single directory below
// the data root: empty names, "." and "..", and names with path separators.
func CheckPlainName(kind, name string) error {
	if name == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidCollection, kind)
	}
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %s %q is not a plain name", ErrInvalidCollection, kind, name)
	}
	return nil
}

// ParseCollection is NewCollection for a date in DateLayout.
func ParseCollection(site, date string) (Collection, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(date))
	if err != nil {
		return Collection{}, fmt.Errorf("%w: date %q: %v", ErrInvalidCollection, date, err)
	}
	return NewCollection(site, d)
}

func (c Collection) String() string {
	return c.Site + "/" + c.Season + "/" + c.Date
}

// SeasonOf returns the winter season a date belongs to. Seasons start in
// October: 2025-11-02 is in "2025-2026", 2026-02-04 is also in "2025-2026".
func SeasonOf(d time.Time) string {
	y := d.Year()
	if d.Month() >= time.October {
		return fmt.Sprintf("%d-%d", y, y+1)
	}
	return fmt.Sprintf("%d-%d", y-1, y)
}

// CurrentSeason is SeasonOf for today.
func CurrentSeason() string {
	return SeasonOf(clock.Now())
}

// Store persists collections of pits.
type Store interface {
	// Load returns the pits of a collection in stored order. A collection
	// that does not exist yet is empty, not an error.
	Load(ctx context.Context, c Collection) ([]SnowPit, error)

	// Upsert replaces the pit with the same id in place, or appends it.
	Upsert(ctx context.Context, c Collection, pit SnowPit) (Action, error)

	// Delete removes a pit by id and returns ErrPitNotFound if it is absent.
	// emptied reports that the collection was left empty and removed.
	Delete(ctx context.Context, c Collection, id string) (emptied bool, err error)
}

// Catalog is implemented by stores that can enumerate their collections.
type Catalog interface {
	// Collections lists every stored collection ordered by site, season
	// and date.
	Collections(ctx context.Context) ([]Collection, error)
}

// SortCollections orders collections by site, season and date.
func SortCollections(cs []Collection) {
	sort.Slice(cs, func(i, j int) bool {
		a, b := cs[i], cs[j]
		if a.Site != b.Site {
			return a.Site < b.Site
		}
		if a.Season != b.Season {
			return a.Season < b.Season
		}
		return a.Date < b.Date
	})
}

// UpsertPit is the in-memory form of Store.Upsert: it replaces the pit with a
// matching id at its position or appends a new one.
func UpsertPit(pits []SnowPit, pit SnowPit) ([]SnowPit, Action) {
	for i := range pits {
		if pits[i].ID == pit.ID {
			pits[i] = pit
			return pits, ActionUpdated
		}
	}
	return append(pits, pit), ActionCreated
}

// RemovePit drops the pit with the given id, keeping the order of the rest.
func RemovePit(pits []SnowPit, id string) ([]SnowPit, bool) {
	for i := range pits {
		if pits[i].ID == id {
			return append(pits[:i], pits[i+1:]...), true
		}
	}
	return pits, false
}

// FindPit returns the pit with the given id.
func FindPit(pits []SnowPit, id string) (SnowPit, bool) {
	for _, p := range pits {
		if p.ID == id {
			return p, true
		}
	}
	return SnowPit{}, false
}
