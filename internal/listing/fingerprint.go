package listing

import (
	"hash/fnv"

	"github.com/tidwall/gjson"
)

// fingerprint hashes the identifiers of the first prefix rows of a
// page. Two pages with the same fingerprint are the same page: the
// backend ignored the offset instead of advancing.
func fingerprint(rows []gjson.Result, prefix int) uint64 {
	h := fnv.New64a()
	for i, row := range rows {
		if i >= prefix {
			break
		}
		id := row.Raw
		if row.IsArray() {
			if cells := row.Array(); len(cells) > 0 {
				id = cells[0].String()
			}
		}
		h.Write([]byte(id))
		h.Write([]byte{'|'})
	}
	return h.Sum64()
}
