package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestDetectTemplate(t *testing.T) {
	tests := []struct {
		name   string
		method string
		body   string
		ok     bool
	}{
		{"form with pagination params", "POST", "draw=1&start=0&length=10&filtro=x", true},
		{"form without length", "POST", "draw=1&start=0&filtro=x", false},
		{"json object with pagination params", "POST", `{"draw":1,"start":0,"length":10}`, true},
		{"json object without start", "POST", `{"length":10,"filtro":"x"}`, false},
		{"json array", "POST", `[1,2,3]`, false},
		{"get request", "GET", "start=0&length=10", false},
		{"empty body", "POST", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := DetectTemplate(tt.method, tt.body)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestNextFormBody(t *testing.T) {
	tpl, ok := DetectTemplate("POST", "draw=1&start=0&length=10&columns[0][data]=codigo&search[value]=")
	require.True(t, ok)

	got := tpl.Next(50, 500)
	assert.Equal(t, "draw=2&start=50&length=500&columns[0][data]=codigo&search[value]=", got)

	// Draw keeps advancing; filter parameters stay untouched.
	got = tpl.Next(100, 500)
	assert.Equal(t, "draw=3&start=100&length=500&columns[0][data]=codigo&search[value]=", got)
}

func TestNextFormBodyWithoutDraw(t *testing.T) {
	tpl, ok := DetectTemplate("POST", "start=0&length=10&filtro=canarias")
	require.True(t, ok)

	got := tpl.Next(10, 500)
	assert.Equal(t, "start=10&length=500&filtro=canarias", got)
	assert.NotContains(t, got, "draw=")
}

func TestNextJSONBody(t *testing.T) {
	tpl, ok := DetectTemplate("POST", `{"draw":3,"start":0,"length":10,"filtro":"canarias"}`)
	require.True(t, ok)

	got := tpl.Next(10, 500)
	require.True(t, gjson.Valid(got))
	assert.Equal(t, int64(10), gjson.Get(got, "start").Int())
	assert.Equal(t, int64(500), gjson.Get(got, "length").Int())
	assert.Equal(t, int64(4), gjson.Get(got, "draw").Int())
	assert.Equal(t, "canarias", gjson.Get(got, "filtro").String())

	got = tpl.Next(510, 500)
	assert.Equal(t, int64(5), gjson.Get(got, "draw").Int())
}

func TestReplaceParam(t *testing.T) {
	assert.Equal(t, "a=1&start=50", replaceParam("a=1&start=0", "start", "50"))
	assert.Equal(t, "a=1&start=50", replaceParam("a=1", "start", "50"))
	assert.Equal(t, "start=50", replaceParam("", "start", "50"))
}
