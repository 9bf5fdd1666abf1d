// Command pitplot renders the stratigraphic diagram of a stored snow pit and
// saves it under the plot directory of its site and season.
//
// Usage:
//
//	go run ./cmd/pitplot -site "Col de Porte" -date 2026-02-04 -id cdp-001 \
//	  -format svg -temperature -title "Morning pit"
//
// Store settings come from the same environment as the service (STORE_DRIVER,
// DATA_DIR, SQLITE_PATH). When MAPBOX_ENABLED is set the site name is
// geocoded for the caption unless -location is given.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/snowpit-service/internal/adapter/filestore"
	"github.com/couchcryptid/snowpit-service/internal/adapter/mapbox"
	storeadapter "github.com/couchcryptid/snowpit-service/internal/adapter/store"
	"github.com/couchcryptid/snowpit-service/internal/adapter/vgplot"
	"github.com/couchcryptid/snowpit-service/internal/config"
	"github.com/couchcryptid/snowpit-service/internal/domain"
	"github.com/couchcryptid/snowpit-service/internal/observability"
	"github.com/couchcryptid/snowpit-service/internal/render"
)

type options struct {
	site, date, id string
	format         string
	outDir         string
	dpi            int
	render         render.Options
	unit           string
}

func main() {
	if err := run(); err != nil {
		slog.Error("pitplot failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var o options
	flag.StringVar(&o.site, "site", "", "site name")
	flag.StringVar(&o.date, "date", "", "collection date, YYYY-MM-DD")
	flag.StringVar(&o.id, "id", "", "pit id; every pit of the collection when empty")
	flag.StringVar(&o.format, "format", string(vgplot.PNG), "png, svg or pdf")
	flag.StringVar(&o.outDir, "out-dir", cfg.DataDir, "root of the plot tree")
	flag.IntVar(&o.dpi, "dpi", cfg.PlotDPI, "raster resolution")
	flag.StringVar(&o.render.Title, "title", render.DefaultTitle, "diagram title")
	flag.StringVar(&o.render.Location, "location", "", "location caption; geocoded from the site when empty")
	flag.StringVar(&o.render.Weather, "weather", "", "weather caption")
	flag.BoolVar(&o.render.ShowTemperature, "temperature", false, "overlay the temperature profile")
	flag.BoolVar(&o.render.ShowLWC, "lwc", false, "overlay the liquid water content profile")
	flag.StringVar(&o.unit, "unit", "", "temperature display unit: K, °C or °F")
	flag.Parse()

	if o.site == "" || o.date == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -site, -date")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := context.Background()

	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		geocoder = mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, observability.NewMetrics(), logger)
	}

	store, err := storeadapter.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	paths, err := plot(ctx, store, geocoder, o, logger)
	for _, p := range paths {
		logger.Info("wrote diagram", "path", p)
	}
	return err
}

// plot renders the selected pits and returns the files written.
func plot(ctx context.Context, store domain.Store, geocoder domain.Geocoder, o options, logger *slog.Logger) ([]string, error) {
	c, err := domain.ParseCollection(o.site, o.date)
	if err != nil {
		return nil, err
	}
	format, err := vgplot.ParseFormat(o.format)
	if err != nil {
		return nil, err
	}
	if o.render.TemperatureUnit, err = domain.ParseTemperatureUnit(o.unit); err != nil {
		return nil, err
	}

	pits, err := store.Load(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", c, err)
	}
	if o.id != "" {
		pit, ok := domain.FindPit(pits, o.id)
		if !ok {
			return nil, fmt.Errorf("%s in %s: %w", o.id, c, domain.ErrPitNotFound)
		}
		pits = []domain.SnowPit{pit}
	}
	if len(pits) == 0 {
		return nil, fmt.Errorf("no snow pits in %s", c)
	}

	opts := o.render
	opts.Location = domain.ResolveLocation(ctx, c.Site, opts.Location, geocoder, logger)

	paths := make([]string, 0, len(pits))
	for _, pit := range pits {
		title := opts.Title
		if len(pits) > 1 {
			// One file per pit; the title names the file.
			title = fmt.Sprintf("%s %s", opts.Title, pit.ID)
		}
		path := filestore.PlotPath(o.outDir, c, title, format.Ext())
		pitOpts := opts
		pitOpts.Title = title
		if err := writeDiagram(path, pit, pitOpts, format, o.dpi); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeDiagram(path string, pit domain.SnowPit, opts render.Options, format vgplot.Format, dpi int) error {
	var buf bytes.Buffer
	if err := vgplot.Encode(&buf, render.Render(pit, opts), format, dpi); err != nil {
		return fmt.Errorf("render %s: %w", pit.ID, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create plot directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
