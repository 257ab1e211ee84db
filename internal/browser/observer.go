package browser

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/mafredri/cdp/protocol/fetch"

	"regharvest/internal/log"
	"regharvest/pkg/traffic"
)

// Capture intercepts the page's outgoing requests for the duration of
// one interaction: interception is enabled, interact runs, observation
// continues for the settle window, then interception is torn down and
// an immutable snapshot is returned. Every intercepted request is
// continued untouched; only async-fetch-like calls and POSTs are
// recorded.
func (p *Page) Capture(ctx context.Context, window time.Duration, interact func(context.Context) error) ([]traffic.Request, error) {
	pattern := "*"
	patterns := []fetch.RequestPattern{
		{URLPattern: &pattern, RequestStage: fetch.RequestStageRequest},
	}
	if err := p.client.Fetch.Enable(ctx, &fetch.EnableArgs{Patterns: patterns}); err != nil {
		return nil, err
	}
	defer p.client.Fetch.Disable(context.WithoutCancel(ctx))

	paused, err := p.client.Fetch.RequestPaused(ctx)
	if err != nil {
		return nil, err
	}
	defer paused.Close()

	var (
		mu  sync.Mutex
		buf []traffic.Request
	)
	go func() {
		for {
			ev, err := paused.Recv()
			if err != nil {
				return
			}
			if observable(ev) {
				mu.Lock()
				buf = append(buf, toRequest(ev, len(buf)))
				mu.Unlock()
			}
			cont, cancel := context.WithTimeout(ctx, 3*time.Second)
			p.client.Fetch.ContinueRequest(cont, &fetch.ContinueRequestArgs{RequestID: ev.RequestID})
			cancel()
		}
	}()

	if err := interact(ctx); err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(window):
	}

	mu.Lock()
	snapshot := make([]traffic.Request, len(buf))
	copy(snapshot, buf)
	mu.Unlock()

	log.L().Info().Int("captured", len(snapshot)).Msg("capture window closed")
	return snapshot, nil
}

// observable keeps async-fetch-like calls and any POST; documents,
// images and the rest of the page's own traffic are noise here.
func observable(ev *fetch.RequestPausedReply) bool {
	switch string(ev.ResourceType) {
	case "XHR", "Fetch":
		return true
	}
	return strings.EqualFold(ev.Request.Method, "POST")
}

// toRequest converts a CDP interception event into the neutral request
// model.
func toRequest(ev *fetch.RequestPausedReply, seq int) traffic.Request {
	req := traffic.NewRequest()
	req.URL = ev.Request.URL
	req.Method = strings.ToUpper(ev.Request.Method)
	req.ResourceType = string(ev.ResourceType)
	req.Seq = seq

	var headers map[string]string
	if len(ev.Request.Headers) > 0 {
		if err := json.Unmarshal(ev.Request.Headers, &headers); err == nil {
			for k, v := range headers {
				req.Headers.Set(k, v)
			}
		}
	}
	if ev.Request.PostData != nil {
		req.Body = *ev.Request.PostData
	}
	return *req
}
