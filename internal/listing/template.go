package listing

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var drawRe = regexp.MustCompile(`(?:^|&)draw=([^&]*)`)

type bodyKind int

const (
	formBody bodyKind = iota
	jsonBody
)

// Template is the request body of the chosen endpoint with its
// pagination fields identified, able to produce the body for any
// offset. The rest of the body (filters, column definitions) is kept
// byte-for-byte so the backend sees the query it expects.
type Template struct {
	kind    bodyKind
	body    string
	draw    int64
	hasDraw bool
}

// DetectTemplate inspects a chosen endpoint request for pagination
// parameters. ok=false means the endpoint shape does not paginate and
// the first page is the whole listing.
func DetectTemplate(method, body string) (*Template, bool) {
	if !strings.EqualFold(method, "POST") {
		return nil, false
	}
	if gjson.Valid(body) {
		v := gjson.Parse(body)
		if v.IsObject() && v.Get("start").Exists() && v.Get("length").Exists() {
			t := &Template{kind: jsonBody, body: body}
			if d := v.Get("draw"); d.Exists() {
				t.draw = d.Int()
				t.hasDraw = true
			}
			return t, true
		}
		return nil, false
	}
	if strings.Contains(body, "start=") && strings.Contains(body, "length=") {
		t := &Template{kind: formBody, body: body}
		if m := drawRe.FindStringSubmatch(body); m != nil {
			if n, err := strconv.ParseInt(m[1], 10, 64); err == nil {
				t.draw = n
				t.hasDraw = true
			}
		}
		return t, true
	}
	return nil, false
}

// Next produces the body for the page starting at offset start,
// requesting length rows. The draw counter, when the template has one,
// is advanced on every call because some backends validate it.
func (t *Template) Next(start, length int) string {
	if t.kind == jsonBody {
		b, _ := sjson.Set(t.body, "start", start)
		b, _ = sjson.Set(b, "length", length)
		if t.hasDraw {
			t.draw++
			b, _ = sjson.Set(b, "draw", t.draw)
		}
		return b
	}
	b := replaceParam(t.body, "start", strconv.Itoa(start))
	b = replaceParam(b, "length", strconv.Itoa(length))
	if t.hasDraw {
		t.draw++
		b = replaceParam(b, "draw", strconv.FormatInt(t.draw, 10))
	}
	return b
}

// replaceParam rewrites key=value inside a form-encoded body without
// re-encoding the other parameters, appending the pair when absent.
func replaceParam(postdata, key, value string) string {
	if !strings.Contains(postdata, key+"=") {
		sep := "&"
		if postdata == "" || strings.HasSuffix(postdata, "&") {
			sep = ""
		}
		return postdata + sep + key + "=" + value
	}
	re := regexp.MustCompile(`(` + regexp.QuoteMeta(key) + `=)[^&]*`)
	return re.ReplaceAllString(postdata, "${1}"+value)
}
