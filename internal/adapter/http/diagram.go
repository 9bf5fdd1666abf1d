package http

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/snowpit-service/internal/adapter/vgplot"
	"github.com/couchcryptid/snowpit-service/internal/domain"
	"github.com/couchcryptid/snowpit-service/internal/render"
)

// handleDiagram renders one pit. Query parameters: temperature and lwc
// (booleans) toggle the overlays, title, location and weather fill the
// header, unit picks the temperature display unit. Without an explicit
// location the site name is geocoded.
func (a *API) handleDiagram(w http.ResponseWriter, r *http.Request) {
	c, err := domain.ParseCollection(r.PathValue("site"), r.PathValue("date"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	format, err := vgplot.ParseFormat(r.PathValue("format"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	opts, err := diagramOptions(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	pits, err := a.store.Load(r.Context(), c)
	if err != nil {
		a.logger.Error("load collection failed", "collection", c.String(), "error", err)
		writeError(w, r, http.StatusInternalServerError, errors.New("load collection failed"))
		return
	}
	id := r.PathValue("id")
	pit, ok := domain.FindPit(pits, id)
	if !ok {
		writeError(w, r, http.StatusNotFound, domain.ErrPitNotFound)
		return
	}
	opts.Location = domain.ResolveLocation(r.Context(), c.Site, opts.Location, a.geocoder, a.logger)

	body, err := a.diagram(pit, opts, format)
	if err != nil {
		a.logger.Error("render diagram failed", "collection", c.String(), "pit_id", id, "format", format, "error", err)
		writeError(w, r, http.StatusInternalServerError, errors.New("render diagram failed"))
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", diagramFileName(opts.Title, c, format)))
	w.WriteHeader(http.StatusOK)
	w.Write(body) //nolint:errcheck // client went away
}

// diagram returns the encoded diagram, from the cache when the same pit was
// rendered with the same options before.
func (a *API) diagram(pit domain.SnowPit, opts render.Options, format vgplot.Format) ([]byte, error) {
	key, err := diagramKey(pit, opts, format, a.dpi)
	if err != nil {
		return nil, err
	}
	if body, ok := a.diagrams.Get(key); ok {
		a.metrics.DiagramCache.WithLabelValues("hit").Inc()
		return body, nil
	}
	a.metrics.DiagramCache.WithLabelValues("miss").Inc()

	start := time.Now()
	var buf bytes.Buffer
	if err := vgplot.Encode(&buf, render.Render(pit, opts), format, a.dpi); err != nil {
		return nil, err
	}
	a.metrics.RenderDuration.WithLabelValues(string(format)).Observe(time.Since(start).Seconds())
	a.metrics.Renders.WithLabelValues(string(format)).Inc()

	body := buf.Bytes()
	a.diagrams.Put(key, body)
	return body, nil
}

func diagramOptions(r *http.Request) (render.Options, error) {
	q := r.URL.Query()
	var opts render.Options
	var err error
	if opts.ShowTemperature, err = queryBool(q.Get("temperature")); err != nil {
		return opts, fmt.Errorf("invalid temperature flag: %w", err)
	}
	if opts.ShowLWC, err = queryBool(q.Get("lwc")); err != nil {
		return opts, fmt.Errorf("invalid lwc flag: %w", err)
	}
	if opts.TemperatureUnit, err = domain.ParseTemperatureUnit(q.Get("unit")); err != nil {
		return opts, err
	}
	opts.Title = q.Get("title")
	opts.Location = q.Get("location")
	opts.Weather = q.Get("weather")
	return opts, nil
}

func queryBool(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	return strconv.ParseBool(s)
}

// diagramKey hashes everything the encoded output depends on.
func diagramKey(pit domain.SnowPit, opts render.Options, format vgplot.Format, dpi int) (string, error) {
	record, err := json.Marshal(pit)
	if err != nil {
		return "", fmt.Errorf("encode snow pit: %w", err)
	}
	h := sha256.New()
	h.Write(record)
	fmt.Fprintf(h, "\x00%t|%t|%q|%q|%q|%q|%s|%d",
		opts.ShowTemperature, opts.ShowLWC, opts.Title, opts.Location, opts.Weather,
		opts.TemperatureUnit, format, dpi)
	return hex.EncodeToString(h.Sum(nil)), nil
}

func diagramFileName(title string, c domain.Collection, f vgplot.Format) string {
	if title == "" {
		title = render.DefaultTitle
	}
	return fmt.Sprintf("%s-%s.%s", title, c.Date, f.Ext())
}
