package model

import "strings"

// AppType is the category of an application within an interface. The
// category decides the column group an application is placed in and which
// protocol markers it receives.
type AppType string

const (
	// AppTypeSource is the system that drives the interface direction.
	AppTypeSource AppType = "source_app"
	// AppTypeMiddleware is the primary integration layer.
	AppTypeMiddleware AppType = "middleware"
	// AppTypeGateway is an API or B2B gateway.
	AppTypeGateway AppType = "gateway"
	// AppTypeOtherMiddleware is any secondary integration layer.
	AppTypeOtherMiddleware AppType = "other_middleware"
	// AppTypeConnected is the far end of the interface.
	AppTypeConnected AppType = "connected_app"
)

// legacySourceType is the spelling used by older input sheets.
const legacySourceType = "sap_app"

// AppTypes lists the categories in column order, left to right.
var AppTypes = []AppType{
	AppTypeSource,
	AppTypeMiddleware,
	AppTypeGateway,
	AppTypeOtherMiddleware,
	AppTypeConnected,
}

// ParseAppType maps an input category to an AppType. Unknown categories are
// returned verbatim with ok=false so callers can decide whether to reject
// them or log and skip them.
func ParseAppType(s string) (t AppType, ok bool) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, legacySourceType) {
		return AppTypeSource, true
	}
	t = AppType(strings.ToLower(s))
	return t, t.Known()
}

// Known reports whether t is one of the five categories.
func (t AppType) Known() bool {
	return t.Rank() >= 0
}

// Rank returns the column group of t, or -1 for unknown categories.
func (t AppType) Rank() int {
	for i, at := range AppTypes {
		if at == t {
			return i
		}
	}
	return -1
}

// HasOutbound reports whether applications of this category get an
// outbound protocol marker.
func (t AppType) HasOutbound() bool {
	return t != AppTypeConnected && t.Known()
}

// HasInbound reports whether applications of this category get an inbound
// protocol marker.
func (t AppType) HasInbound() bool {
	return t != AppTypeSource && t.Known()
}

// Direction is the data-flow direction of an interface.
type Direction string

const (
	Outbound Direction = "Outbound"
	Inbound  Direction = "Inbound"
)

// ParseDirection parses a direction case-insensitively.
func ParseDirection(s string) (Direction, bool) {
	switch {
	case strings.EqualFold(strings.TrimSpace(s), string(Outbound)):
		return Outbound, true
	case strings.EqualFold(strings.TrimSpace(s), string(Inbound)):
		return Inbound, true
	}
	return "", false
}

// InterfaceLink is a reference to the interface specification, rendered as
// a clickable label under the connection.
type InterfaceLink struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Connection links an application to its peer on the same interface.
type Connection struct {
	TargetApp string         `json:"target_app"`
	Detail    string         `json:"detail,omitempty"`
	Link      *InterfaceLink `json:"link,omitempty"`
}

// AppEntry is one application hop within an interface.
type AppEntry struct {
	Type       AppType     `json:"app_type"`
	Name       string      `json:"app_name"`
	Format     string      `json:"format,omitempty"`
	Connection *Connection `json:"connection,omitempty"`
}

// InterfaceRecord groups all application hops sharing a code_id.
type InterfaceRecord struct {
	CodeID    string     `json:"code_id"`
	Direction Direction  `json:"direction"`
	Apps      []AppEntry `json:"apps"`
}
