// Package listing fetches every page of the discovered endpoint. The
// backend is not trusted to honor the requested page size or even the
// offset: advancement follows what each response actually contained,
// and a page fingerprint set catches backends that repeat themselves.
package listing

import (
	"context"
	"time"

	"github.com/tidwall/gjson"

	"regharvest/internal/discovery"
	"regharvest/internal/log"
	"regharvest/pkg/model"
	"regharvest/pkg/traffic"
)

// Fetcher replays a listing request inside the authenticated session.
type Fetcher interface {
	Replay(ctx context.Context, req *traffic.Request) (*traffic.Response, error)
}

// Paginator walks the listing to exhaustion.
type Paginator struct {
	fetch           Fetcher
	requestedLength int
	fingerprintRows int
	pageDelay       time.Duration
	pageTimeout     time.Duration
}

// New builds a Paginator. requestedLength is deliberately oversized;
// the server may ignore it and keep serving its fixed page size.
func New(fetch Fetcher, requestedLength, fingerprintRows int, pageDelay, pageTimeout time.Duration) *Paginator {
	return &Paginator{
		fetch:           fetch,
		requestedLength: requestedLength,
		fingerprintRows: fingerprintRows,
		pageDelay:       pageDelay,
		pageTimeout:     pageTimeout,
	}
}

// FetchAll returns the first page's rows plus every further page the
// endpoint yields. Pagination is strictly sequential: offsets and the
// fingerprint set are session-ordered state.
//
// Termination, checked in order each iteration: transport failure or
// non-200, empty page, fingerprint repeat (recorded as a stall),
// declared total reached.
func (p *Paginator) FetchAll(ctx context.Context, endpoint traffic.Request, first []gjson.Result, declaredTotal int) ([]gjson.Result, model.Diagnostics) {
	diag := model.Diagnostics{DeclaredTotal: declaredTotal, Pages: 1}
	all := first

	tpl, ok := DetectTemplate(endpoint.Method, endpoint.Body)
	if !ok {
		log.L().Info().Int("rows", len(all)).Msg("endpoint has no pagination parameters, single page listing")
		diag.Fetched = len(all)
		return all, diag
	}

	// Advance by what the server actually returned, never by what was
	// requested.
	pageSize := len(first)
	if pageSize < 1 {
		pageSize = 1
	}

	seen := map[uint64]struct{}{
		fingerprint(first, p.fingerprintRows): {},
	}

	start := 0
	for {
		start += pageSize

		req := endpoint
		req.Body = tpl.Next(start, p.requestedLength)

		callCtx, cancel := context.WithTimeout(ctx, p.pageTimeout)
		resp, err := p.fetch.Replay(callCtx, &req)
		cancel()
		if err != nil {
			log.L().Warn().Err(err).Int("start", start).Msg("page fetch failed, stopping pagination")
			break
		}
		if resp.StatusCode != 200 {
			log.L().Warn().Int("status", resp.StatusCode).Int("start", start).Msg("non-200 page, stopping pagination")
			break
		}
		if !gjson.ValidBytes(resp.Body) {
			log.L().Warn().Int("start", start).Msg("page body is not JSON, stopping pagination")
			break
		}

		rows := discovery.Rows(resp.Body)
		if len(rows) == 0 {
			break
		}

		fp := fingerprint(rows, p.fingerprintRows)
		if _, dup := seen[fp]; dup {
			// The offset parameter is not being honored; keep what we
			// have rather than loop forever.
			diag.Stalled = true
			log.L().Warn().Int("start", start).Int("rows", len(all)).Msg("pagination stall: backend repeated a page")
			break
		}
		seen[fp] = struct{}{}

		all = append(all, rows...)
		diag.Pages++

		if diag.DeclaredTotal < 0 {
			diag.DeclaredTotal = discovery.DeclaredTotal(resp.Body)
		}
		pageSize = len(rows)

		if diag.DeclaredTotal >= 0 && len(all) >= diag.DeclaredTotal {
			break
		}

		select {
		case <-ctx.Done():
			diag.Fetched = len(all)
			return all, diag
		case <-time.After(p.pageDelay):
		}
	}

	diag.Fetched = len(all)
	log.L().Info().
		Int("rows", diag.Fetched).
		Int("pages", diag.Pages).
		Int("declared_total", diag.DeclaredTotal).
		Bool("stalled", diag.Stalled).
		Msg("pagination finished")
	return all, diag
}
