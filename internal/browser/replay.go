package browser

import (
	"context"
	"encoding/json"
	"fmt"

	"regharvest/pkg/traffic"
)

// replayExpr issues the request with the page's own fetch, so cookies
// and session state ride along exactly as they would for the real UI.
const replayExpr = `(async () => {
	const p = %s;
	const init = { method: p.method, headers: p.headers, credentials: 'include' };
	if (p.method !== 'GET' && p.method !== 'HEAD' && p.body !== '') {
		init.body = p.body;
	}
	const resp = await fetch(p.url, init);
	const body = await resp.text();
	return { status: resp.status, body: body };
})()`

// Replay re-issues req inside the page's session and returns the
// outcome. Satisfies the prober's and paginator's replay interfaces.
func (p *Page) Replay(ctx context.Context, req *traffic.Request) (*traffic.Response, error) {
	payload, err := json.Marshal(struct {
		URL     string            `json:"url"`
		Method  string            `json:"method"`
		Headers map[string]string `json:"headers"`
		Body    string            `json:"body"`
	}{
		URL:     req.URL,
		Method:  req.Method,
		Headers: req.Headers,
		Body:    req.Body,
	})
	if err != nil {
		return nil, err
	}

	var result struct {
		Status int    `json:"status"`
		Body   string `json:"body"`
	}
	if err := p.Evaluate(ctx, fmt.Sprintf(replayExpr, payload), &result); err != nil {
		return nil, fmt.Errorf("replay %s: %w", req.URL, err)
	}

	resp := traffic.NewResponse()
	resp.StatusCode = result.Status
	resp.Body = []byte(result.Body)
	return resp, nil
}
