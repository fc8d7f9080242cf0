package diagram

import (
	"encoding/xml"
	"fmt"
)

// Viewer identification attributes carried by every document. They are
// literal constants so equal inputs serialize to identical bytes.
const (
	fileHost     = "app.diagrams.net"
	fileModified = "2023-07-25T12:42:08.179Z"
	fileAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/114.0.0.0 Safari/537.36 Edg/114.0.1823.82"
	fileEtag    = "70Szxm5LCrq_Rskbk8Uq"
	fileVersion = "21.6.5"
	fileType    = "device"

	pageName = "Page-1"
	pageID   = "xI1n7PUDQ-lDr-DjmP3Y"
)

// Ids of the two bookkeeping cells every draw.io model starts with.
const (
	RootCellID    = "0"
	DefaultParent = "1"
)

const geometryAs = "geometry"

// Document is the mxfile root of a draw.io diagram.
type Document struct {
	XMLName  xml.Name `xml:"mxfile"`
	Host     string   `xml:"host,attr"`
	Modified string   `xml:"modified,attr"`
	Agent    string   `xml:"agent,attr"`
	Etag     string   `xml:"etag,attr"`
	Version  string   `xml:"version,attr"`
	Type     string   `xml:"type,attr"`
	Page     Page     `xml:"diagram"`

	// Stats summarizes the build that produced the document. It is not
	// serialized and is zero for parsed documents.
	Stats Stats `xml:"-"`
}

// Page is the single diagram page.
type Page struct {
	Name  string     `xml:"name,attr"`
	ID    string     `xml:"id,attr"`
	Model GraphModel `xml:"mxGraphModel"`
}

// GraphModel carries page settings and the cell list.
type GraphModel struct {
	Dx         string `xml:"dx,attr"`
	Dy         string `xml:"dy,attr"`
	Grid       string `xml:"grid,attr"`
	GridSize   string `xml:"gridSize,attr"`
	Guides     string `xml:"guides,attr"`
	Tooltips   string `xml:"tooltips,attr"`
	Connect    string `xml:"connect,attr"`
	Arrows     string `xml:"arrows,attr"`
	Fold       string `xml:"fold,attr"`
	PageOn     string `xml:"page,attr"`
	PageScale  string `xml:"pageScale,attr"`
	PageWidth  int    `xml:"pageWidth,attr"`
	PageHeight int    `xml:"pageHeight,attr"`
	Math       string `xml:"math,attr"`
	Shadow     string `xml:"shadow,attr"`
	Root       Root   `xml:"root"`
}

// Root holds the flat cell list.
type Root struct {
	Cells []Cell `xml:"mxCell"`
}

// Cell is a vertex or an edge.
type Cell struct {
	ID       string    `xml:"id,attr"`
	Value    string    `xml:"value,attr,omitempty"`
	Style    string    `xml:"style,attr,omitempty"`
	Parent   string    `xml:"parent,attr,omitempty"`
	Vertex   string    `xml:"vertex,attr,omitempty"`
	Edge     string    `xml:"edge,attr,omitempty"`
	Invert   string    `xml:"invert,attr,omitempty"`
	Source   string    `xml:"source,attr,omitempty"`
	Target   string    `xml:"target,attr,omitempty"`
	Geometry *Geometry `xml:"mxGeometry,omitempty"`
}

// IsVertex reports whether the cell is a vertex.
func (c Cell) IsVertex() bool { return c.Vertex == "1" }

// IsEdge reports whether the cell is an edge.
func (c Cell) IsEdge() bool { return c.Edge == "1" }

// Geometry positions a cell. Edges only carry Relative.
type Geometry struct {
	X        *int   `xml:"x,attr,omitempty"`
	Y        *int   `xml:"y,attr,omitempty"`
	Width    *int   `xml:"width,attr,omitempty"`
	Height   *int   `xml:"height,attr,omitempty"`
	Relative string `xml:"relative,attr,omitempty"`
	As       string `xml:"as,attr"`
}

func box(x, y, w, h int) *Geometry {
	return &Geometry{X: &x, Y: &y, Width: &w, Height: &h, As: geometryAs}
}

// Stats counts what a build emitted and skipped.
type Stats struct {
	Rows        int
	Apps        int
	Cells       int // all cells, bookkeeping cells included
	Markers     int
	Connections int
	Labels      int
	Skipped     int
}

// newDocument returns the fixed wrapper with the two bookkeeping cells.
func newDocument(size Size) *Document {
	return &Document{
		Host:     fileHost,
		Modified: fileModified,
		Agent:    fileAgent,
		Etag:     fileEtag,
		Version:  fileVersion,
		Type:     fileType,
		Page: Page{
			Name: pageName,
			ID:   pageID,
			Model: GraphModel{
				Dx: "1182", Dy: "916",
				Grid: "1", GridSize: "10",
				Guides: "1", Tooltips: "1", Connect: "1", Arrows: "1", Fold: "1",
				PageOn: "1", PageScale: "1",
				PageWidth:  size.PageWidth,
				PageHeight: size.AppHeight,
				Math:       "0", Shadow: "0",
				Root: Root{Cells: []Cell{
					{ID: RootCellID},
					{ID: DefaultParent, Parent: RootCellID},
				}},
			},
		},
	}
}

// Cells returns the cell list, bookkeeping cells included.
func (d *Document) Cells() []Cell { return d.Page.Model.Root.Cells }

// Cell returns the cell with the given id.
func (d *Document) Cell(id string) (Cell, bool) {
	for _, c := range d.Cells() {
		if c.ID == id {
			return c, true
		}
	}
	return Cell{}, false
}

// Vertices returns all vertex cells in document order.
func (d *Document) Vertices() []Cell {
	var out []Cell
	for _, c := range d.Cells() {
		if c.IsVertex() {
			out = append(out, c)
		}
	}
	return out
}

// Edges returns all edge cells in document order.
func (d *Document) Edges() []Cell {
	var out []Cell
	for _, c := range d.Cells() {
		if c.IsEdge() {
			out = append(out, c)
		}
	}
	return out
}

// Marshal serializes the document without an XML declaration, the form the
// viewer expects inside a URL payload.
func (d *Document) Marshal() ([]byte, error) {
	data, err := xml.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal diagram: %w", err)
	}
	return data, nil
}

// Parse decodes a serialized document.
func Parse(data []byte) (*Document, error) {
	var d Document
	if err := xml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse diagram: %w", err)
	}
	return &d, nil
}
