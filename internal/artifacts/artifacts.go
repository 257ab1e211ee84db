// Package artifacts dumps intermediate pipeline state for offline
// debugging: captured requests, probe attempts, the chosen endpoint,
// pagination diagnostics, pages that yielded no email. Dumps are
// best-effort; a failed write is logged and ignored.
package artifacts

import (
	"encoding/json"
	"os"
	"path/filepath"

	"regharvest/internal/log"
)

// Dir is one run's artifact directory. A nil or disabled Dir swallows
// every dump, so call sites never branch.
type Dir struct {
	path    string
	enabled bool
}

// New creates base/<runID> when enabled.
func New(base, runID string, enabled bool) *Dir {
	d := &Dir{path: filepath.Join(base, runID), enabled: enabled}
	if !enabled {
		return d
	}
	if err := os.MkdirAll(d.path, 0o755); err != nil {
		log.L().Warn().Err(err).Str("dir", d.path).Msg("artifact dir not created, dumps disabled")
		d.enabled = false
	}
	return d
}

// Text writes content under name.
func (d *Dir) Text(name, content string) {
	if d == nil || !d.enabled {
		return
	}
	if err := os.WriteFile(filepath.Join(d.path, name), []byte(content), 0o644); err != nil {
		log.L().Warn().Err(err).Str("artifact", name).Msg("artifact write failed")
	}
}

// JSON writes v, indented, under name.
func (d *Dir) JSON(name string, v any) {
	if d == nil || !d.enabled {
		return
	}
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.L().Warn().Err(err).Str("artifact", name).Msg("artifact marshal failed")
		return
	}
	d.Text(name, string(raw))
}
