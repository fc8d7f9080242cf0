// Package preview renders a built diagram as a Graphviz graph.
//
// The preview is a compact left-to-right view of the wiring: one box per
// application in its category colors and one arrow per connection. It is
// meant for a quick look in a terminal workflow or a CI artifact; the
// draw.io document remains the authoritative output.
package preview

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/interflow/pkg/diagram"
)

// Output formats.
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
)

// ValidFormats is the set of supported preview formats.
var ValidFormats = map[string]bool{
	FormatDOT: true,
	FormatSVG: true,
}

// ToDOT converts a document to DOT. Edges connect the applications owning
// the connection's markers and are labelled with those markers' formats.
// Edges whose markers cannot be resolved to an application are left out.
func ToDOT(doc *diagram.Document) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontname=\"Helvetica\", fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("\n")

	apps := make(map[string]bool)
	for _, c := range doc.Vertices() {
		if c.Kind() != diagram.KindApp {
			continue
		}
		apps[c.ID] = true
		fmt.Fprintf(&buf, "  %q [%s];\n", c.ID, strings.Join(nodeAttrs(c), ", "))
	}

	buf.WriteString("\n")
	for _, e := range doc.Edges() {
		_, from, _, okFrom := diagram.ParseMarkerID(e.Source)
		_, to, _, okTo := diagram.ParseMarkerID(e.Target)
		if !okFrom || !okTo || !apps[from] || !apps[to] {
			continue
		}
		attrs := edgeAttrs(doc, e)
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  %q -> %q;\n", from, to)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", from, to, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(c diagram.Cell) []string {
	attrs := []string{fmt.Sprintf("label=%q", c.Value)}
	if fill, ok := c.StyleValue("fillColor"); ok {
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", fill))
	}
	if stroke, ok := c.StyleValue("strokeColor"); ok {
		attrs = append(attrs, fmt.Sprintf("color=%q", stroke))
	}
	return attrs
}

func edgeAttrs(doc *diagram.Document, e diagram.Cell) []string {
	var attrs []string
	if stroke, ok := e.StyleValue("strokeColor"); ok {
		attrs = append(attrs, fmt.Sprintf("color=%q", stroke), "penwidth=2")
	}
	var formats []string
	for _, id := range []string{e.Source, e.Target} {
		if m, ok := doc.Cell(id); ok && m.Value != "" {
			formats = append(formats, m.Value)
		}
	}
	if len(formats) > 0 {
		attrs = append(attrs, fmt.Sprintf("label=%q", strings.Join(formats, " / ")))
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

// Render produces the preview in the given format.
func Render(ctx context.Context, doc *diagram.Document, format string) ([]byte, error) {
	dot := ToDOT(doc)
	switch format {
	case FormatDOT:
		return []byte(dot), nil
	case FormatSVG:
		return RenderSVG(ctx, dot)
	}
	return nil, fmt.Errorf("invalid preview format: %q (must be one of: dot, svg)", format)
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-based svg header with one
// sized in user units so the preview scales in a browser.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}
