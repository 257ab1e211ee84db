package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasRows(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{"datatables shape", `{"data":[["1","a"]],"recordsTotal":1}`, true},
		{"empty recognized array still matches", `{"data":[]}`, true},
		{"items field", `{"items":[{"codigo":"1"}]}`, true},
		{"results field", `{"results":[1]}`, true},
		{"content field", `{"content":[1]}`, true},
		{"bare array", `[{"codigo":"1"}]`, true},
		{"empty bare array", `[]`, false},
		{"object without row field", `{"status":"ok"}`, false},
		{"scalar", `42`, false},
		{"html error page", `<html><body>error</body></html>`, false},
		{"truncated json", `{"data":[`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasRows([]byte(tt.body)))
		})
	}
}

func TestRows(t *testing.T) {
	rows := Rows([]byte(`{"data":[["1","a"],["2","b"]]}`))
	assert.Len(t, rows, 2)

	rows = Rows([]byte(`[["1","a"]]`))
	assert.Len(t, rows, 1)

	assert.Nil(t, Rows([]byte(`{"foo":"bar"}`)))
}

func TestDeclaredTotal(t *testing.T) {
	assert.Equal(t, 237, DeclaredTotal([]byte(`{"recordsFiltered":237,"recordsTotal":999}`)))
	assert.Equal(t, 999, DeclaredTotal([]byte(`{"recordsTotal":999}`)))
	assert.Equal(t, -1, DeclaredTotal([]byte(`{"data":[]}`)))
}
