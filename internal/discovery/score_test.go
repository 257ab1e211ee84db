package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"regharvest/pkg/traffic"
)

const testHost = "registrosfp.educacion.gob.es"

func TestScoreRanksListingRequestAboveNoise(t *testing.T) {
	scorer := NewScorer(testHost)

	listing := traffic.Request{
		URL:    "https://registrosfp.educacion.gob.es/registroestatalentidadesformacion/buscarPublico/datos",
		Method: "POST",
		Body:   "draw=1&start=0&length=10&filtro=canarias",
	}
	noise := traffic.Request{
		URL:    "https://cdn.analytics.example.net/collect",
		Method: "GET",
	}

	assert.Greater(t, scorer.Score(&listing), scorer.Score(&noise))
	assert.Equal(t, 0, scorer.Score(&noise))
	// host(3) + keyword(2) + POST(1) + pagination body(3)
	assert.Equal(t, 9, scorer.Score(&listing))
}

func TestScoreJSONPaginationBody(t *testing.T) {
	scorer := NewScorer(testHost)
	req := traffic.Request{
		URL:    "https://registrosfp.educacion.gob.es/api/centros",
		Method: "POST",
		Body:   `{"draw":1,"start":0,"length":10}`,
	}
	assert.Equal(t, 9, scorer.Score(&req))
}

func TestRankIsStableForTies(t *testing.T) {
	scorer := NewScorer(testHost)
	candidates := []traffic.Request{
		{URL: "https://other.example.com/a", Method: "GET", Seq: 0},
		{URL: "https://other.example.com/b", Method: "GET", Seq: 1},
		{URL: "https://registrosfp.educacion.gob.es/buscar", Method: "POST", Seq: 2},
	}

	ranked := scorer.Rank(candidates)

	assert.Equal(t, 2, ranked[0].Seq)
	// Zero-score ties keep observation order.
	assert.Equal(t, 0, ranked[1].Seq)
	assert.Equal(t, 1, ranked[2].Seq)
	// Input order untouched.
	assert.Equal(t, 0, candidates[0].Seq)
}
