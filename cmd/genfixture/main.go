// Command genfixture normalizes a raw NVE warning response (JSON or XML) with
// the same code the service uses and writes the result as a golden fixture
// for the adapter tests.
//
// Usage:
//
//	go run ./cmd/genfixture \
//	  -in internal/adapter/nve/testdata/warnings_tromso.xml \
//	  -region 3031 \
//	  -out internal/adapter/nve/testdata/warnings_tromso.golden.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/couchcryptid/hazard-data-service/internal/adapter/nve"
	"github.com/couchcryptid/hazard-data-service/internal/domain"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	in := flag.String("in", "", "raw upstream response body")
	out := flag.String("out", "", "output path for the normalized fixture")
	regionID := flag.Int("region", 0, "region id assigned to records that do not name one")
	flag.Parse()

	if *in == "" || *out == "" || *regionID <= 0 {
		flag.Usage()
		return fmt.Errorf("missing required flags: -in, -out, -region")
	}

	raw, err := os.ReadFile(*in)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	body, err := nve.ParseBody(string(raw))
	if err != nil {
		return fmt.Errorf("parsing %s: %w", *in, err)
	}
	log.Printf("%s: %d raw records (%s)", *in, len(body.Items), body.Kind)

	records := domain.NormalizeWarnings(*regionID, body.Items)
	if err := writeJSON(*out, records); err != nil {
		return fmt.Errorf("writing fixture: %w", err)
	}
	log.Printf("wrote fixture: %s", *out)

	printStats(len(body.Items), records)
	return nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(rawCount int, records []domain.WarningRecord) {
	var byLevel [6]int
	for _, r := range records {
		byLevel[r.DangerLevel]++
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Raw: %d, normalized: %d, dropped or merged: %d\n", rawCount, len(records), rawCount-len(records))
	for level := domain.DangerNotAssessed; level <= domain.DangerVeryHigh; level++ {
		fmt.Printf("  %-16s %d\n", level.String(), byLevel[level])
	}
	if len(records) > 0 {
		fmt.Printf("Range: %s .. %s\n", records[0].Date, records[len(records)-1].Date)
		a := domain.LatestActivity(records[0].RegionID, "fixture", records)
		fmt.Printf("Latest: %s at %s\n", a.LastDate, a.DangerLevel.Label())
	}
}
