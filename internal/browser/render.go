package browser

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"github.com/mafredri/cdp/protocol/fetch"

	"regharvest/internal/log"
	"regharvest/pkg/model"
)

// settleDelay gives a loaded detail page time to finish its async
// contact-data calls before the document is read.
const settleDelay = 1400 * time.Millisecond

// Render opens url in this page and returns the rendered document plus
// every successful JSON-looking async response observed while loading,
// with bodies above maxBody dropped rather than scanned.
func (p *Page) Render(ctx context.Context, url string, maxBody int) (*model.Rendered, error) {
	pattern := "*"
	patterns := []fetch.RequestPattern{
		{URLPattern: &pattern, RequestStage: fetch.RequestStageResponse},
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

	bodies := make(chan string, 64)
	go func() {
		defer close(bodies)
		for {
			ev, err := paused.Recv()
			if err != nil {
				return
			}
			if body, ok := p.siphonBody(ctx, ev, maxBody); ok {
				select {
				case bodies <- body:
				default:
				}
			}
			cont, cancel := context.WithTimeout(ctx, 3*time.Second)
			p.client.Fetch.ContinueResponse(cont, &fetch.ContinueResponseArgs{RequestID: ev.RequestID})
			cancel()
		}
	}()

	if err := p.Navigate(ctx, url); err != nil {
		return nil, err
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(settleDelay):
	}

	rendered := &model.Rendered{}
	if err := p.Evaluate(ctx, `document.body ? document.body.innerText : ''`, &rendered.Text); err != nil {
		log.L().Debug().Err(err).Str("url", url).Msg("inner text read failed")
	}
	if err := p.Evaluate(ctx, `document.documentElement.outerHTML`, &rendered.HTML); err != nil {
		log.L().Debug().Err(err).Str("url", url).Msg("outer html read failed")
	}

	// Tear down interception before draining so the goroutine ends.
	p.client.Fetch.Disable(context.WithoutCancel(ctx))
	paused.Close()
	for body := range bodies {
		rendered.JSONBodies = append(rendered.JSONBodies, body)
	}
	return rendered, nil
}

// siphonBody pulls the body of a successful async response, ignoring
// non-XHR traffic, failures and oversized payloads.
func (p *Page) siphonBody(ctx context.Context, ev *fetch.RequestPausedReply, maxBody int) (string, bool) {
	if ev.ResponseStatusCode == nil || *ev.ResponseStatusCode != 200 {
		return "", false
	}
	switch string(ev.ResourceType) {
	case "XHR", "Fetch":
	default:
		return "", false
	}

	callCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	reply, err := p.client.Fetch.GetResponseBody(callCtx, &fetch.GetResponseBodyArgs{RequestID: ev.RequestID})
	if err != nil {
		return "", false
	}
	body := reply.Body
	if reply.Base64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return "", false
		}
		body = string(decoded)
	}
	if len(body) > maxBody {
		return "", false
	}
	if !strings.HasPrefix(strings.TrimSpace(body), "{") && !strings.HasPrefix(strings.TrimSpace(body), "[") {
		return "", false
	}
	return body, true
}
