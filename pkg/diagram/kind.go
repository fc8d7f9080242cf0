package diagram

import (
	"strconv"
	"strings"
)

// Kind classifies a cell by the role it plays in the layout.
type Kind int

const (
	KindBookkeeping Kind = iota
	KindApp
	KindMarker
	KindConnection
	KindLabel
)

func (k Kind) String() string {
	switch k {
	case KindApp:
		return "app"
	case KindMarker:
		return "marker"
	case KindConnection:
		return "connection"
	case KindLabel:
		return "label"
	}
	return "bookkeeping"
}

// Kind derives the role from the cell's style, so it also works on parsed
// documents.
func (c Cell) Kind() Kind {
	switch {
	case c.IsEdge():
		return KindConnection
	case !c.IsVertex():
		return KindBookkeeping
	case strings.HasPrefix(c.Style, "rounded=1;"):
		return KindApp
	case strings.HasPrefix(c.Style, "shape=delay;"):
		return KindMarker
	}
	return KindLabel
}

// StyleValue returns the value of key in the cell's style string.
func (c Cell) StyleValue(key string) (string, bool) {
	for _, part := range strings.Split(c.Style, ";") {
		k, v, ok := strings.Cut(part, "=")
		if ok && k == key {
			return v, true
		}
	}
	return "", false
}

// ParseMarkerID splits a marker id into its direction, application and
// row. Application names may contain underscores.
func ParseMarkerID(id string) (dir, app string, row int, ok bool) {
	dir, rest, found := strings.Cut(id, "_")
	if !found || (dir != "out" && dir != "in") {
		return "", "", 0, false
	}
	i := strings.LastIndexByte(rest, '_')
	if i <= 0 {
		return "", "", 0, false
	}
	row, err := strconv.Atoi(rest[i+1:])
	if err != nil || row < 0 {
		return "", "", 0, false
	}
	return dir, rest[:i], row, true
}
