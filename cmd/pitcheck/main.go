// Command pitcheck audits every stored collection of snow pits: each pit is
// re-validated against the stratigraphy rules, its temperatures are checked
// against absolute zero, and its date is checked against the collection it
// is filed under.
//
// Usage:
//
//	go run ./cmd/pitcheck -store file -data-dir ./data
//	go run ./cmd/pitcheck -store sqlite -sqlite-path snowpits.db
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	sharedconfig "github.com/couchcryptid/storm-data-shared/config"

	storeadapter "github.com/couchcryptid/snowpit-service/internal/adapter/store"
	"github.com/couchcryptid/snowpit-service/internal/config"
)

func main() {
	driver := flag.String("store", sharedconfig.EnvOrDefault("STORE_DRIVER", config.StoreFile), "store driver: file or sqlite")
	dataDir := flag.String("data-dir", sharedconfig.EnvOrDefault("DATA_DIR", "./data"), "root of the file store")
	sqlitePath := flag.String("sqlite-path", sharedconfig.EnvOrDefault("SQLITE_PATH", "snowpits.db"), "sqlite database file")
	flag.Parse()

	cfg := &config.Config{StoreDriver: *driver, DataDir: *dataDir, SQLitePath: *sqlitePath}
	os.Exit(run(context.Background(), cfg, os.Stdout))
}

func run(ctx context.Context, cfg *config.Config, out io.Writer) int {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	store, err := storeadapter.Open(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: open store: %v\n", err)
		return 1
	}
	defer store.Close()

	fmt.Fprintln(out, "=== Snow Pit Integrity Check ===")
	fmt.Fprintln(out)

	collections, err := store.Collections(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: list collections: %v\n", err)
		return 1
	}

	var reports []*report
	pits := 0
	for _, c := range collections {
		loaded, err := store.Load(ctx, c)
		r := &report{collection: c}
		if err != nil {
			r.errorf("load: %v", err)
		} else {
			checkCollection(r, loaded)
			pits += len(loaded)
		}
		reports = append(reports, r)
	}

	return printReports(out, reports, pits)
}

func printReports(out io.Writer, reports []*report, pits int) int {
	allPassed := true
	for _, r := range reports {
		status := "\033[32mPASS\033[0m"
		if !r.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(r.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-52s %s\n", r.collection.String(), status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Collections: %d, pits: %d\n", len(reports), pits)

	for _, r := range reports {
		if r.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", r.collection.String())
		for i, e := range r.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll collections passed.")
		return 0
	}
	fmt.Fprintln(out, "\nIntegrity check FAILED.")
	return 1
}
