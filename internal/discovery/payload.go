package discovery

import "github.com/tidwall/gjson"

// rowFields are the object keys backends conventionally put row arrays
// under.
var rowFields = []string{"data", "items", "results", "content"}

// totalFields are the keys a backend may report its record count under,
// in preference order.
var totalFields = []string{"recordsFiltered", "recordsTotal"}

// Rows extracts the row array from a listing payload: the first
// recognized array-valued field of an object, or the payload itself
// when it is a bare top-level array. Returns nil when neither applies.
func Rows(body []byte) []gjson.Result {
	v := gjson.ParseBytes(body)
	if v.IsArray() {
		return v.Array()
	}
	if v.IsObject() {
		for _, f := range rowFields {
			if arr := v.Get(f); arr.IsArray() {
				return arr.Array()
			}
		}
	}
	return nil
}

// HasRows reports whether body parses as JSON shaped like a paginated
// listing: an object carrying a recognized array field, or a bare
// array. An empty recognized array still counts; the endpoint is right
// even when the current filter matches nothing.
func HasRows(body []byte) bool {
	if !gjson.ValidBytes(body) {
		return false
	}
	v := gjson.ParseBytes(body)
	if v.IsArray() {
		return len(v.Array()) > 0
	}
	if v.IsObject() {
		for _, f := range rowFields {
			if v.Get(f).IsArray() {
				return true
			}
		}
	}
	return false
}

// DeclaredTotal reads the backend-reported record count. Returns -1
// when no total field is present.
func DeclaredTotal(body []byte) int {
	v := gjson.ParseBytes(body)
	for _, f := range totalFields {
		if t := v.Get(f); t.Exists() {
			return int(t.Int())
		}
	}
	return -1
}
