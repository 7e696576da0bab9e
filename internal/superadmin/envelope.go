package superadmin

import (
	"bytes"
	"errors"

	"github.com/buger/jsonparser"
)

// ErrEnvelope means a list response matched none of the known shapes.
var ErrEnvelope = errors.New("superadmin: unrecognised list envelope")

// listPaths are tried in order; the first array wins.
var listPaths = [][]string{
	{"results"},
	{"results", "data"},
	{"data"},
}

// listItems extracts the item array from any of:
//
//	[ ... ]
//	{"results": [ ... ]}
//	{"results": {"data": [ ... ]}}
//	{"data": [ ... ]}
func listItems(body []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return trimmed, nil
	}
	for _, p := range listPaths {
		v, typ, _, err := jsonparser.Get(body, p...)
		if err == nil && typ == jsonparser.Array {
			return v, nil
		}
	}
	return nil, ErrEnvelope
}

// pageInfo reads DRF pagination fields when present.
func pageInfo(body []byte) (count int, next, prev string) {
	if n, err := jsonparser.GetInt(body, "count"); err == nil {
		count = int(n)
	}
	next, _ = jsonparser.GetString(body, "next")
	prev, _ = jsonparser.GetString(body, "previous")
	return count, next, prev
}
