// Package centers normalizes heterogeneous listing rows into Center
// records.
package centers

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"

	"regharvest/internal/log"
	"regharvest/pkg/model"
)

// detailPath is the registry's per-center page, used when a row carries
// no hyperlink but its code is numeric.
const detailPath = "/registroestatalentidadesformacion/centro/"

var (
	codeKeys = []string{"codigo", "code", "id", "codigoCentro"}
	nameKeys = []string{"nombre", "name", "denominacion", "centro"}
	urlKeys  = []string{"url", "ficha", "enlace", "detalle", "link"}

	spaceRe = regexp.MustCompile(`\s+`)
)

// Parser turns raw rows into Center records.
type Parser struct {
	base *url.URL
}

// NewParser builds a Parser resolving relative links against baseURL.
func NewParser(baseURL string) (*Parser, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	return &Parser{base: base}, nil
}

// Parse converts every usable row into a Center. Rows without a
// non-empty code and name are dropped; duplicate codes keep the first
// occurrence, since overlapping page windows can list a center twice.
func (p *Parser) Parse(rows []gjson.Result) []model.Center {
	out := make([]model.Center, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	dropped := 0

	for _, raw := range rows {
		row, ok := RowFromJSON(raw)
		if !ok {
			dropped++
			continue
		}
		c, ok := p.parseRow(row)
		if !ok {
			dropped++
			continue
		}
		if _, dup := seen[c.Code]; dup {
			continue
		}
		seen[c.Code] = struct{}{}
		out = append(out, c)
	}

	if dropped > 0 {
		log.L().Debug().Int("dropped", dropped).Int("kept", len(out)).Msg("rows without usable code/name")
	}
	return out
}

func (p *Parser) parseRow(row Row) (model.Center, bool) {
	var code, name, detail string

	if row.Positional() {
		code = cleanCell(row.Cell(0))
		name = cleanCell(row.Cell(1))
		// The code cell usually embeds the detail link; the actions
		// column is the fallback.
		if href := firstHref(row.Cell(0)); href != "" {
			detail = p.resolve(href)
		} else if href := firstHref(row.LastCell()); href != "" {
			detail = p.resolve(href)
		}
	} else {
		code = cleanCell(row.Field(codeKeys...))
		name = cleanCell(row.Field(nameKeys...))
		if href := row.Field(urlKeys...); href != "" {
			detail = p.resolve(href)
		}
	}

	if code == "" || name == "" {
		return model.Center{}, false
	}
	if detail == "" && isDigits(code) {
		detail = p.base.JoinPath(detailPath, code).String()
	}
	return model.Center{Code: code, Name: name, DetailURL: detail}, true
}

func (p *Parser) resolve(href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return p.base.ResolveReference(ref).String()
}

// cleanCell strips markup and collapses internal whitespace.
func cleanCell(raw string) string {
	if raw == "" {
		return ""
	}
	text := raw
	if strings.ContainsRune(raw, '<') {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw)); err == nil {
			text = doc.Text()
		}
	}
	return strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
}

// firstHref returns the first anchor href embedded in a cell's markup.
func firstHref(raw string) string {
	if !strings.Contains(raw, "href") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return ""
	}
	return doc.Find("a[href]").First().AttrOr("href", "")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
