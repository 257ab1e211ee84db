// Package discovery finds the real listing endpoint among the network
// calls captured while the search UI was triggered: rank candidates
// with a weighted rule table, then replay them until one answers with
// a row-bearing JSON payload.
package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"regharvest/internal/log"
	"regharvest/pkg/model"
	"regharvest/pkg/traffic"
)

// Replayer re-issues a request inside the authenticated browser
// session and returns the raw outcome.
type Replayer interface {
	Replay(ctx context.Context, req *traffic.Request) (*traffic.Response, error)
}

// Prober drives the probe loop.
type Prober struct {
	rep       Replayer
	scorer    *Scorer
	budget    int
	timeout   time.Duration
	searchURL string
	origin    string
}

// NewProber configures a Prober. budget caps how many ranked
// candidates are replayed before giving up.
func NewProber(rep Replayer, scorer *Scorer, budget int, timeout time.Duration, searchURL, origin string) *Prober {
	return &Prober{rep: rep, scorer: scorer, budget: budget, timeout: timeout, searchURL: searchURL, origin: origin}
}

// Result is a successful discovery: the endpoint to paginate plus the
// already-fetched first page.
type Result struct {
	Endpoint      traffic.Request // normalized headers, ready to replay
	FirstRows     []gjson.Result
	FirstBody     []byte // raw first-page payload, kept for diagnostics
	DeclaredTotal int
	Attempts      []model.ProbeAttempt
}

// Probe replays ranked candidates until one returns HTTP 200 with a
// listing-shaped JSON body. Fails with model.ErrNoCandidates when
// nothing was captured and model.ErrEndpointNotFound when the budget
// runs out.
func (p *Prober) Probe(ctx context.Context, captured []traffic.Request) (*Result, error) {
	if len(captured) == 0 {
		return nil, model.ErrNoCandidates
	}

	ranked := p.scorer.Rank(captured)
	if len(ranked) > p.budget {
		ranked = ranked[:p.budget]
	}

	var attempts []model.ProbeAttempt
	for i := range ranked {
		cand := ranked[i]
		cand.Headers = p.normalizeHeaders(cand.Headers)

		callCtx, cancel := context.WithTimeout(ctx, p.timeout)
		resp, err := p.rep.Replay(callCtx, &cand)
		cancel()
		if err != nil {
			log.L().Debug().Err(err).Str("url", cand.URL).Msg("probe replay failed")
			attempts = append(attempts, model.ProbeAttempt{URL: cand.URL})
			continue
		}

		attempts = append(attempts, model.ProbeAttempt{URL: cand.URL, Status: resp.StatusCode})
		if resp.StatusCode != 200 {
			continue
		}
		if !HasRows(resp.Body) {
			continue
		}

		rows := Rows(resp.Body)
		log.L().Info().
			Str("url", cand.URL).
			Int("score", p.scorer.Score(&cand)).
			Int("rows", len(rows)).
			Msg("listing endpoint found")
		return &Result{
			Endpoint:      cand,
			FirstRows:     rows,
			FirstBody:     resp.Body,
			DeclaredTotal: DeclaredTotal(resp.Body),
			Attempts:      attempts,
		}, nil
	}

	return nil, fmt.Errorf("tried %d candidates: %w", len(ranked), model.ErrEndpointNotFound)
}

// normalizeHeaders keeps the captured accept/content-type hints but
// pins the async-request markers and the referer/origin pair the
// backend expects.
func (p *Prober) normalizeHeaders(captured traffic.Header) traffic.Header {
	h := make(traffic.Header, 5)
	h.Set("accept", valueOr(captured.Get("accept"), "application/json, text/plain, */*"))
	h.Set("content-type", valueOr(captured.Get("content-type"), "application/x-www-form-urlencoded; charset=UTF-8"))
	h.Set("x-requested-with", valueOr(captured.Get("x-requested-with"), "XMLHttpRequest"))
	h.Set("referer", p.searchURL)
	h.Set("origin", p.origin)
	return h
}

func valueOr(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
