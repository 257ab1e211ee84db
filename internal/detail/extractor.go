// Package detail attaches a best-effort contact email to each center.
// Records are processed by a small worker pool in bounded batches;
// a record whose page cannot be fetched or yields no address ends up
// with an empty email, never an error.
package detail

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"regharvest/internal/email"
	"regharvest/internal/log"
	"regharvest/pkg/model"
)

// maxMailtoLinks bounds how many mailto anchors of one page are
// consulted.
const maxMailtoLinks = 50

// RenderFunc renders one detail URL inside the browsing session and
// returns the document plus captured async JSON bodies.
type RenderFunc func(ctx context.Context, url string) (*model.Rendered, error)

// Extractor runs detail extraction over a record set.
type Extractor struct {
	render      RenderFunc
	concurrency int
	batchSize   int
	batchDelay  time.Duration
	timeout     time.Duration
	retries     int

	// OnMiss, when set, receives pages that rendered fine but yielded
	// no address. Used for debug artifact dumps.
	OnMiss func(code string, r *model.Rendered)
}

// NewExtractor builds an Extractor. retries is the number of re-renders
// attempted after a failed render; 0 preserves the strict
// fetch-once policy.
func NewExtractor(render RenderFunc, concurrency, batchSize int, batchDelay, timeout time.Duration, retries int) *Extractor {
	if concurrency < 1 {
		concurrency = 1
	}
	if batchSize < 1 {
		batchSize = 1
	}
	return &Extractor{
		render:      render,
		concurrency: concurrency,
		batchSize:   batchSize,
		batchDelay:  batchDelay,
		timeout:     timeout,
		retries:     retries,
	}
}

// Run returns a copy of records with emails attached. Results land in
// the slot of the record that produced them, so output order matches
// input order no matter which worker finished first.
func (e *Extractor) Run(ctx context.Context, records []model.Center) []model.Center {
	out := make([]model.Center, len(records))
	copy(out, records)
	if len(records) == 0 {
		return out
	}

	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < e.concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				out[idx].Email = e.extractOne(ctx, out[idx])
			}
		}()
	}

	// Submit in bounded batches with a breather in between, capping
	// how fast new pages pile onto the session.
	go func() {
		defer close(jobs)
		for i := range records {
			if i > 0 && i%e.batchSize == 0 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(e.batchDelay):
				}
			}
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()

	wg.Wait()
	return out
}

// extractOne never fails: any error on the way degrades to "".
func (e *Extractor) extractOne(ctx context.Context, rec model.Center) string {
	if rec.DetailURL == "" {
		return ""
	}

	var rendered *model.Rendered
	for attempt := 0; ; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, e.timeout)
		r, err := e.render(callCtx, rec.DetailURL)
		cancel()
		if err == nil {
			rendered = r
			break
		}
		if attempt >= e.retries || ctx.Err() != nil {
			log.L().Debug().Err(err).Str("code", rec.Code).Str("url", rec.DetailURL).Msg("detail render failed")
			return ""
		}
		log.L().Debug().Err(err).Str("code", rec.Code).Int("attempt", attempt+1).Msg("detail render retry")
	}

	addr := pickEmail(rendered)
	if addr == "" {
		log.L().Debug().Str("code", rec.Code).Msg("no email on detail page")
		if e.OnMiss != nil {
			e.OnMiss(rec.Code, rendered)
		}
	}
	return addr
}

// pickEmail aggregates candidates from every source, then chooses
// deterministically. Sources, in matching order: mailto links,
// visible text, raw markup (catches addresses hidden from display),
// and the async JSON bodies.
func pickEmail(r *model.Rendered) string {
	seen := make(map[string]struct{})
	add := func(addrs ...string) {
		for _, a := range addrs {
			if a != "" {
				seen[a] = struct{}{}
			}
		}
	}

	add(mailtoAddrs(r.HTML)...)
	add(email.Extract(r.Text)...)
	add(email.Extract(r.HTML)...)
	for _, body := range r.JSONBodies {
		add(email.Extract(body)...)
	}

	candidates := make([]string, 0, len(seen))
	for a := range seen {
		candidates = append(candidates, a)
	}
	return email.Pick(candidates)
}

// mailtoAddrs pulls validated addresses out of mailto anchors.
func mailtoAddrs(html string) []string {
	if !strings.Contains(html, "mailto:") {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	var addrs []string
	doc.Find(`a[href^="mailto:"]`).EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= maxMailtoLinks {
			return false
		}
		if addr := email.FromMailto(s.AttrOr("href", "")); addr != "" {
			addrs = append(addrs, addr)
		}
		return true
	})
	return addrs
}
