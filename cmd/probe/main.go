// Command probe runs each NVE resolution against the live API (or the
// NVE_BASE_URL override) and prints every candidate URL tried, so a change in
// the upstream URL shapes shows up as a failing phase.
//
// Usage:
//
//	go run ./cmd/probe -region 3031 -days 7
//	go run ./cmd/probe -region 3031 -county 46 -lang en
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/hazard-data-service/internal/adapter/nve"
	"github.com/couchcryptid/hazard-data-service/internal/config"
	"github.com/couchcryptid/hazard-data-service/internal/domain"
	"github.com/couchcryptid/hazard-data-service/internal/observability"
)

// phase tracks pass/fail for one resolution.
type phase struct {
	name     string
	attempts []string
	errs     []error
	summary  string
}

func (p *phase) fail(err error) {
	p.errs = append(p.errs, err)
}

func (p *phase) passed() bool { return len(p.errs) == 0 }

type probe struct {
	name string
	fn   func(p *phase)
}

func main() {
	regionID := flag.Int("region", 3031, "avalanche forecast region id")
	countyID := flag.Int("county", 0, "county id for flood and landslide probes (0 skips them)")
	days := flag.Int("days", 7, "length of the warning window ending today")
	lang := flag.String("lang", "", "language override: 1, 2, no or en")
	timeout := flag.Duration("timeout", 0, "per-request timeout override")
	flag.Parse()

	if code := run(*regionID, *countyID, *days, *lang, *timeout); code != 0 {
		os.Exit(code)
	}
}

func run(regionID, countyID, days int, lang string, timeout time.Duration) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load config: %v\n", err)
		return 1
	}
	if lang != "" {
		cfg.Language = lang
	}
	if timeout > 0 {
		cfg.FetchTimeout = timeout
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	client, err := nve.NewClient(cfg, logger, observability.NewMetricsForTesting())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	var current *phase
	client.SetTrace(func(url string, err error) {
		line := "ok    " + url
		if err != nil {
			line = "fail  " + url + "\n        " + err.Error()
		}
		current.attempts = append(current.attempts, line)
	})

	to := domain.Today()
	from := to.AddDate(0, 0, -days)
	ctx := context.Background()

	fmt.Println("=== NVE Resolution Probe ===")
	fmt.Printf("base=%s lang=%s region=%d window=%s..%s\n\n",
		cfg.NVEBaseURL, cfg.Language, regionID, from.Format(domain.DateLayout), to.Format(domain.DateLayout))

	probes := []probe{
		{"Warnings (simple)", func(p *phase) {
			recs, err := client.Warnings(ctx, regionID, from, to)
			if err != nil {
				p.fail(err)
				return
			}
			a := domain.LatestActivity(regionID, "probe", recs)
			p.summary = fmt.Sprintf("%d records, newest %s at %s", len(recs), a.LastDate, a.DangerLevel.Label())
		}},
		{"Detail (today..tomorrow)", func(p *phase) {
			details, err := client.Details(ctx, regionID, to, to.AddDate(0, 0, 1))
			if err != nil {
				p.fail(err)
				return
			}
			d, ok := domain.PickForDay(details, to.Format(domain.DateLayout))
			if !ok {
				p.fail(fmt.Errorf("no forecast published for %s", to.Format(domain.DateLayout)))
				return
			}
			p.summary = fmt.Sprintf("%s, %d problems", d.DangerLabel, len(d.Problems))
		}},
		{"Regions", func(p *phase) {
			regions, err := client.Regions(ctx)
			if err != nil {
				p.fail(err)
				return
			}
			p.summary = fmt.Sprintf("%d regions", len(regions))
		}},
	}
	if countyID > 0 {
		probes = append(probes,
			probe{"Flood", func(p *phase) {
				w, err := client.FloodWarnings(ctx, countyID)
				if err != nil {
					p.fail(err)
					return
				}
				p.summary = fmt.Sprintf("%d warnings", len(w))
			}},
			probe{"Landslide", func(p *phase) {
				w, err := client.LandslideWarnings(ctx, countyID, to, to.AddDate(0, 0, 3))
				if err != nil {
					p.fail(err)
					return
				}
				p.summary = fmt.Sprintf("%d warnings", len(w))
			}},
		)
	}

	phases := make([]*phase, 0, len(probes))
	for _, pr := range probes {
		current = &phase{name: pr.name}
		pr.fn(current)
		phases = append(phases, current)
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = "\033[31mFAIL\033[0m"
			allPassed = false
		}
		fmt.Printf("  %-28s %s  %s\n", p.name, status, p.summary)
		for _, a := range p.attempts {
			fmt.Printf("      %s\n", a)
		}
		// A resolution error repeats the attempts above.
		var resErr *domain.ResolutionError
		for _, e := range p.errs {
			if !errors.As(e, &resErr) {
				fmt.Printf("      error: %v\n", e)
			}
		}
	}

	if allPassed {
		fmt.Println("\nAll resolutions succeeded.")
		return 0
	}
	fmt.Println("\nProbe FAILED.")
	return 1
}
