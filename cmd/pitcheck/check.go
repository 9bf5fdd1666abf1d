package main

import (
	"fmt"

	"github.com/couchcryptid/snowpit-service/internal/domain"
)

// report collects the problems found in one collection.
type report struct {
	collection domain.Collection
	errors     []string
}

func (r *report) errorf(format string, args ...any) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
}

func (r *report) passed() bool { return len(r.errors) == 0 }

func checkCollection(r *report, pits []domain.SnowPit) {
	if len(pits) == 0 {
		r.errorf("collection is empty")
	}
	seen := make(map[string]int, len(pits))
	for i, pit := range pits {
		name := pit.ID
		if name == "" {
			name = fmt.Sprintf("#%d", i+1)
			r.errorf("%s: missing id", name)
		} else if j, dup := seen[pit.ID]; dup {
			r.errorf("%s: duplicate id (also #%d)", name, j+1)
		} else {
			seen[pit.ID] = i
		}
		checkPit(r, name, pit)
	}
}

func checkPit(r *report, name string, pit domain.SnowPit) {
	if got := pit.DateString(); got != r.collection.Date {
		r.errorf("%s: date %q filed under %s", name, got, r.collection.Date)
	} else if season := domain.SeasonOf(pit.Date); season != r.collection.Season {
		r.errorf("%s: date %s belongs to season %s, filed under %s", name, got, season, r.collection.Season)
	}
	for _, msg := range pit.Validate().Messages() {
		r.errorf("%s: %s", name, msg)
	}
	if err := domain.CheckAbsoluteZero(pit.AirTemperature, pit.Temperature); err != nil {
		r.errorf("%s: %v", name, err)
	}
}
