// Package diagram builds draw.io wiring diagrams from interface records.
//
// # Layout
//
// Every application occupies one column. Columns are grouped by category in
// the fixed order source, middleware, gateway, other middleware, connected;
// within a category applications keep the order they were first seen in.
// Each column is followed by an empty column of the same width that edges
// route through, so application i starts at x = 2*AppWidth*i.
//
// Every interface record (every distinct code_id) occupies one row. Within a
// row each application shows small protocol markers: an outbound marker on
// its right edge and/or an inbound marker on its left edge, labelled with the
// data format. Connections are orthogonal edges between markers, optionally
// labelled with a detail text above and an interface link below.
//
// # Usage
//
//	doc, err := diagram.Build(records, diagram.Options{Logger: logger})
//	if err != nil {
//	    return err
//	}
//	data, err := doc.Marshal()
//
// Build is a pure function of its input: the column index and the id
// registry live only for the duration of one call, so concurrent builds
// need no coordination.
//
// # Element ids
//
//   - application: the application name
//   - protocol marker: out_<app>_<row>, in_<app>_<row>
//   - connection: conn_<peer>_<app>_<row>
//   - labels: detail_<peer>_<app>_<row>, ricefw_<peer>_<app>_<row>
//
// An id is emitted at most once per build; repeating it is a no-op.
package diagram
