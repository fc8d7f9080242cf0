package diagram

import (
	"fmt"

	"github.com/matzehuels/interflow/pkg/model"
)

// Geometry constants, in draw.io units.
const (
	AppWidth       = 120 // application column width
	AppMinHeight   = 80  // application height for a single row
	ProtocolWidth  = 60
	ProtocolHeight = 20
	YOffset        = 70 // vertical gap between rows
	YProtocolStart = 40 // y of the first row

	ProtocolOutPosition = 70  // outbound marker x, relative to the column
	ProtocolInPosition  = -10 // inbound marker x, relative to the column

	XDetailInitial   = 120 // label x, relative to the peer column
	DetailSubSpacing = 20  // detail label sits this far above the row
	LinkSpacing      = 10  // link label sits this far below the row
	DetailWidth      = 120
	DetailHeight     = 30
)

// columnStride is the horizontal distance between two application columns.
const columnStride = AppWidth * 2

// rowStride is the vertical distance between two rows.
const rowStride = ProtocolHeight + YOffset

// Colors is a fill/stroke pair.
type Colors struct {
	Fill   string
	Stroke string
}

var (
	defaultColors  = Colors{Fill: "#ffffff", Stroke: "#000000"}
	protocolColors = Colors{Fill: "#eeeeee", Stroke: "#36393d"}

	categoryColors = map[model.AppType]Colors{
		model.AppTypeSource:          {Fill: "#dae8fc", Stroke: "#6c8ebf"},
		model.AppTypeMiddleware:      {Fill: "#d5e8d4", Stroke: "#82b366"},
		model.AppTypeGateway:         {Fill: "#ffe6cc", Stroke: "#d79b00"},
		model.AppTypeOtherMiddleware: {Fill: "#fff2cc", Stroke: "#d6b656"},
		model.AppTypeConnected:       {Fill: "#f5f5f5", Stroke: "#666666"},
	}

	connectionColors = map[model.Direction]Colors{
		model.Outbound: {Fill: "#dae8fc", Stroke: "#7ea6e0"},
		model.Inbound:  {Fill: "#ffcd28", Stroke: "#d79b00"},
	}
)

// CategoryColors returns the colors for an application category. Unknown
// categories get a neutral black-on-white pair.
func CategoryColors(t model.AppType) Colors {
	if c, ok := categoryColors[t]; ok {
		return c
	}
	return defaultColors
}

// ConnectionColors returns the edge colors for a direction. Anything that is
// not outbound is drawn as inbound.
func ConnectionColors(d model.Direction) Colors {
	if d == model.Outbound {
		return connectionColors[model.Outbound]
	}
	return connectionColors[model.Inbound]
}

func appStyle(c Colors) string {
	return fmt.Sprintf("rounded=1;whiteSpace=wrap;html=1;fillColor=%s;strokeColor=%s;verticalAlign=top;",
		c.Fill, c.Stroke)
}

func protocolStyle() string {
	return fmt.Sprintf("shape=delay;whiteSpace=wrap;html=1;fillColor=%s;strokeColor=%s;rotation=0;fontSize=10;",
		protocolColors.Fill, protocolColors.Stroke)
}

func connectionStyle(c Colors) string {
	return fmt.Sprintf("edgeStyle=orthogonalEdgeStyle;rounded=0;fillColor=%s;strokeColor=%s;"+
		"orthogonalLoop=1;jettySize=auto;html=1;strokeWidth=3", c.Fill, c.Stroke)
}

const (
	detailStyle = "text;html=1;strokeColor=none;fillColor=none;align=center;" +
		"verticalAlign=middle;whiteSpace=wrap;rounded=0"
	linkStyle = detailStyle + ";fontSize=9"
)

func linkValue(l model.InterfaceLink) string {
	return fmt.Sprintf(`<a href="%s">%s</a>`, l.URL, l.ID)
}
