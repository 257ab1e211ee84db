// Package pipeline wires the harvest stages together: trigger the
// search UI and observe its network calls, probe for the listing
// endpoint, paginate it to exhaustion, normalize rows into centers,
// then extract an email per center.
package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"regharvest/internal/artifacts"
	"regharvest/internal/browser"
	"regharvest/internal/centers"
	"regharvest/internal/config"
	"regharvest/internal/detail"
	"regharvest/internal/discovery"
	"regharvest/internal/listing"
	"regharvest/internal/log"
	"regharvest/pkg/model"
)

// missDumps caps how many empty-handed detail pages are kept as
// artifacts.
const missDumps = 3

// Pipeline owns one harvest run.
type Pipeline struct {
	cfg   *config.Config
	runID string
}

// New builds a Pipeline for one run identified by runID.
func New(cfg *config.Config, runID string) *Pipeline {
	return &Pipeline{cfg: cfg, runID: runID}
}

// Run executes the full harvest. Discovery failures are fatal;
// everything after that degrades per unit of work and still produces
// a (possibly partial) result.
func (p *Pipeline) Run(ctx context.Context) ([]model.Center, model.Diagnostics, error) {
	cfg := p.cfg
	art := artifacts.New(cfg.Artifacts.Dir, p.runID, cfg.Artifacts.Enabled)

	b := browser.Connect(cfg.Browser.DevToolsURL, cfg.Browser.UserAgent)
	page, err := b.Attach(ctx)
	if err != nil {
		return nil, model.Diagnostics{}, fmt.Errorf("attach browser: %w", err)
	}
	defer page.Close()

	// Discovery: observe the triggered interaction, then probe.
	captured, err := page.Capture(ctx, cfg.Discovery.ObserveWindow.D(),
		page.TriggerSearch(cfg.Target.SearchURL, cfg.Target.Region))
	if err != nil {
		return nil, model.Diagnostics{}, fmt.Errorf("capture interaction: %w", err)
	}
	art.JSON("requests.json", captured)

	scorer := discovery.NewScorer(hostOf(cfg.Target.BaseURL))
	prober := discovery.NewProber(page, scorer,
		cfg.Discovery.ProbeBudget, cfg.Discovery.ProbeTimeout.D(),
		cfg.Target.SearchURL, cfg.Target.BaseURL)

	disc, err := prober.Probe(ctx, captured)
	if err != nil {
		return nil, model.Diagnostics{}, err
	}
	art.JSON("tested_candidates.json", disc.Attempts)
	art.Text("chosen_endpoint.txt", disc.Endpoint.Method+" "+disc.Endpoint.URL)
	art.Text("chosen_body_snippet.txt", snippet(disc.FirstBody, 2500))

	// Pagination, strictly sequential.
	paginator := listing.New(page,
		cfg.Listing.RequestedLength, cfg.Listing.FingerprintRows,
		cfg.Listing.PageDelay.D(), cfg.Listing.PageTimeout.D())
	rows, diag := paginator.FetchAll(ctx, disc.Endpoint, disc.FirstRows, disc.DeclaredTotal)
	art.JSON("pagination.json", diag)

	parser, err := centers.NewParser(cfg.Target.BaseURL)
	if err != nil {
		return nil, diag, fmt.Errorf("bad base url: %w", err)
	}
	recs := parser.Parse(rows)
	log.L().Info().Int("rows", len(rows)).Int("centers", len(recs)).Msg("listing parsed")

	// Detail extraction over fresh pages, one per task.
	render := func(ctx context.Context, u string) (*model.Rendered, error) {
		dp, err := b.NewPage(ctx)
		if err != nil {
			return nil, err
		}
		defer dp.Close()
		return dp.Render(ctx, u, cfg.Detail.MaxBodyBytes)
	}
	extractor := detail.NewExtractor(render,
		cfg.Detail.Concurrency, cfg.Detail.BatchSize,
		cfg.Detail.BatchDelay.D(), cfg.Detail.Timeout.D(), cfg.Detail.Retries)
	extractor.OnMiss = missDumper(art)

	final := extractor.Run(ctx, recs)
	return final, diag, nil
}

// missDumper keeps the first few no-email pages for inspection.
func missDumper(art *artifacts.Dir) func(string, *model.Rendered) {
	var mu sync.Mutex
	dumped := 0
	return func(code string, r *model.Rendered) {
		mu.Lock()
		defer mu.Unlock()
		if dumped >= missDumps {
			return
		}
		dumped++
		art.Text("no_email_"+code+".html", r.HTML)
	}
}

func snippet(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Host
}
