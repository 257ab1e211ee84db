package detail

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regharvest/pkg/model"
)

func newTestExtractor(render RenderFunc, retries int) *Extractor {
	return NewExtractor(render, 4, 10, time.Millisecond, time.Second, retries)
}

func centersWithURLs(n int) []model.Center {
	out := make([]model.Center, n)
	for i := range out {
		out[i] = model.Center{
			Code:      fmt.Sprintf("%04d", i),
			Name:      fmt.Sprintf("Centro %d", i),
			DetailURL: fmt.Sprintf("https://example.org/centro/%04d", i),
		}
	}
	return out
}

func TestRunPicksSmallestAcrossSources(t *testing.T) {
	render := func(ctx context.Context, url string) (*model.Rendered, error) {
		return &model.Rendered{
			Text: "secretaría: zeta@example.com",
			HTML: `<a href="mailto:beta@example.com">correo</a>
				<span style="display:none">gamma@example.com</span>`,
			JSONBodies: []string{`{"contacto":{"email":"alfa@example.com"}}`},
		}, nil
	}

	got := newTestExtractor(render, 0).Run(context.Background(), centersWithURLs(1))

	require.Len(t, got, 1)
	assert.Equal(t, "alfa@example.com", got[0].Email)
}

func TestRunObfuscatedTextOnly(t *testing.T) {
	render := func(ctx context.Context, url string) (*model.Rendered, error) {
		return &model.Rendered{Text: "contacto: secretaria (arroba) iescanarias (punto) es"}, nil
	}

	got := newTestExtractor(render, 0).Run(context.Background(), centersWithURLs(1))
	assert.Equal(t, "secretaria@iescanarias.es", got[0].Email)
}

func TestRunOutputOrderMatchesInput(t *testing.T) {
	// Later records render faster than earlier ones; results must still
	// land in their own slots.
	render := func(ctx context.Context, url string) (*model.Rendered, error) {
		code := url[len(url)-4:]
		if code < "0010" {
			time.Sleep(5 * time.Millisecond)
		}
		return &model.Rendered{Text: "c" + code + "@example.com"}, nil
	}

	in := centersWithURLs(20)
	got := newTestExtractor(render, 0).Run(context.Background(), in)

	require.Len(t, got, 20)
	for i, c := range got {
		assert.Equal(t, in[i].Code, c.Code)
		assert.Equal(t, "c"+in[i].Code+"@example.com", c.Email)
	}
	// Input untouched.
	assert.Equal(t, "", in[0].Email)
}

func TestRunRenderFailureYieldsEmptyEmail(t *testing.T) {
	render := func(ctx context.Context, url string) (*model.Rendered, error) {
		return nil, errors.New("net::ERR_TIMED_OUT")
	}

	got := newTestExtractor(render, 0).Run(context.Background(), centersWithURLs(3))

	for _, c := range got {
		assert.Equal(t, "", c.Email)
	}
}

func TestRunRetryRecoversFlakyRender(t *testing.T) {
	var calls atomic.Int32
	render := func(ctx context.Context, url string) (*model.Rendered, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("net::ERR_CONNECTION_RESET")
		}
		return &model.Rendered{Text: "info@example.com"}, nil
	}

	got := newTestExtractor(render, 1).Run(context.Background(), centersWithURLs(1))
	assert.Equal(t, "info@example.com", got[0].Email)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRunNoRetryByDefault(t *testing.T) {
	var calls atomic.Int32
	render := func(ctx context.Context, url string) (*model.Rendered, error) {
		calls.Add(1)
		return nil, errors.New("net::ERR_CONNECTION_RESET")
	}

	got := newTestExtractor(render, 0).Run(context.Background(), centersWithURLs(1))
	assert.Equal(t, "", got[0].Email)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRunSkipsRecordsWithoutDetailURL(t *testing.T) {
	var calls atomic.Int32
	render := func(ctx context.Context, url string) (*model.Rendered, error) {
		calls.Add(1)
		return &model.Rendered{Text: "info@example.com"}, nil
	}

	in := []model.Center{
		{Code: "0001", Name: "Sin ficha"},
		{Code: "0002", Name: "Con ficha", DetailURL: "https://example.org/centro/0002"},
	}
	got := newTestExtractor(render, 0).Run(context.Background(), in)

	assert.Equal(t, "", got[0].Email)
	assert.Equal(t, "info@example.com", got[1].Email)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRunReportsMisses(t *testing.T) {
	render := func(ctx context.Context, url string) (*model.Rendered, error) {
		return &model.Rendered{Text: "horario de atención: 9 a 14"}, nil
	}

	var mu sync.Mutex
	var missed []string
	e := newTestExtractor(render, 0)
	e.OnMiss = func(code string, r *model.Rendered) {
		mu.Lock()
		missed = append(missed, code)
		mu.Unlock()
	}

	got := e.Run(context.Background(), centersWithURLs(3))

	for _, c := range got {
		assert.Equal(t, "", c.Email)
	}
	assert.Len(t, missed, 3)
}

func TestRunEmptyInput(t *testing.T) {
	render := func(ctx context.Context, url string) (*model.Rendered, error) {
		t.Fatal("render must not be called")
		return nil, nil
	}
	got := newTestExtractor(render, 0).Run(context.Background(), nil)
	assert.Empty(t, got)
}

func TestMailtoAddrs(t *testing.T) {
	html := `<div>
		<a href="mailto:dir@example.com?subject=hola">Dirección</a>
		<a href="mailto:">vacío</a>
		<a href="/otra">no mailto</a>
		<a href="mailto:sec@example.com">Secretaría</a>
	</div>`

	assert.Equal(t, []string{"dir@example.com", "sec@example.com"}, mailtoAddrs(html))
	assert.Nil(t, mailtoAddrs("<p>sin enlaces</p>"))
}
