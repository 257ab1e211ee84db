// Package browser wraps the Chrome DevTools Protocol session the
// pipeline runs inside: page lifecycle, navigation, script evaluation,
// a scoped capture window for outgoing requests, authenticated request
// replay and detail-page rendering.
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mafredri/cdp"
	"github.com/mafredri/cdp/devtool"
	"github.com/mafredri/cdp/protocol/emulation"
	"github.com/mafredri/cdp/protocol/page"
	"github.com/mafredri/cdp/protocol/runtime"
	"github.com/mafredri/cdp/rpcc"

	"regharvest/internal/log"
)

// Browser is a handle on a running Chrome instance's DevTools
// endpoint. One Browser serves the whole run; pages are opened per
// task.
type Browser struct {
	dt        *devtool.DevTools
	userAgent string
}

// Connect points at a DevTools endpoint, e.g. http://127.0.0.1:9222.
func Connect(devtoolsURL, userAgent string) *Browser {
	return &Browser{dt: devtool.New(devtoolsURL), userAgent: userAgent}
}

// Page is one attached browser tab.
type Page struct {
	b      *Browser
	target *devtool.Target
	conn   *rpcc.Conn
	client *cdp.Client
	owned  bool // created by us, closed on Close
}

// Attach connects to the first existing page target, creating one when
// none exists.
func (b *Browser) Attach(ctx context.Context) (*Page, error) {
	targets, err := b.dt.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}
	for _, t := range targets {
		if t.Type == "page" {
			return b.dial(ctx, t, false)
		}
	}
	return b.NewPage(ctx)
}

// NewPage opens a fresh tab and attaches to it.
func (b *Browser) NewPage(ctx context.Context) (*Page, error) {
	t, err := b.dt.Create(ctx)
	if err != nil {
		return nil, fmt.Errorf("create target: %w", err)
	}
	return b.dial(ctx, t, true)
}

func (b *Browser) dial(ctx context.Context, t *devtool.Target, owned bool) (*Page, error) {
	conn, err := rpcc.DialContext(ctx, t.WebSocketDebuggerURL)
	if err != nil {
		return nil, fmt.Errorf("dial target: %w", err)
	}
	p := &Page{b: b, target: t, conn: conn, client: cdp.NewClient(conn), owned: owned}

	if err := p.client.Page.Enable(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	if err := p.client.Network.Enable(ctx, nil); err != nil {
		conn.Close()
		return nil, err
	}
	if b.userAgent != "" {
		args := emulation.NewSetUserAgentOverrideArgs(b.userAgent)
		if err := p.client.Emulation.SetUserAgentOverride(ctx, args); err != nil {
			log.L().Debug().Err(err).Msg("user agent override rejected")
		}
	}
	return p, nil
}

// Close releases the connection and, for pages we opened, the tab.
func (p *Page) Close() error {
	err := p.conn.Close()
	if p.owned {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if cerr := p.b.dt.Close(ctx, p.target); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// Navigate loads url and waits for the load event.
func (p *Page) Navigate(ctx context.Context, url string) error {
	loaded, err := p.client.Page.LoadEventFired(ctx)
	if err != nil {
		return fmt.Errorf("subscribe load event: %w", err)
	}
	defer loaded.Close()

	if _, err := p.client.Page.Navigate(ctx, page.NewNavigateArgs(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	if _, err := loaded.Recv(); err != nil {
		return fmt.Errorf("wait for load: %w", err)
	}
	return nil
}

// Evaluate runs expr in the page, awaiting promises, and unmarshals
// the by-value result into out. Pass a nil out to ignore the result.
func (p *Page) Evaluate(ctx context.Context, expr string, out any) error {
	args := runtime.NewEvaluateArgs(expr).SetAwaitPromise(true).SetReturnByValue(true)
	reply, err := p.client.Runtime.Evaluate(ctx, args)
	if err != nil {
		return err
	}
	if reply.ExceptionDetails != nil {
		return fmt.Errorf("evaluate: %s", reply.ExceptionDetails.Text)
	}
	if out == nil || len(reply.Result.Value) == 0 {
		return nil
	}
	return json.Unmarshal(reply.Result.Value, out)
}
