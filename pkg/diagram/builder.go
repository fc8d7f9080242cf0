package diagram

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/interflow/pkg/errors"
	"github.com/matzehuels/interflow/pkg/model"
)

// Build lays out records as a draw.io document.
//
// Build is a pure function of its input: all state lives in a context
// created per call, so independent builds may run concurrently. Elements
// that reference an application without a column are logged and skipped;
// the rest of the diagram is still produced. An empty record list yields a
// valid document with no applications.
func Build(records []model.InterfaceRecord, opts Options) (*Document, error) {
	if opts.StrictAppTypes {
		if err := checkAppTypes(records); err != nil {
			return nil, err
		}
	}

	order := NewAppOrder(records)
	size := ComputeSize(CountRows(records), order.Len())

	b := &buildContext{
		order:    order,
		size:     size,
		registry: NewRegistry(),
		doc:      newDocument(size),
		logger:   opts.logger(),
	}
	b.instances(records)
	b.connections(records)

	b.doc.Stats.Rows = size.Rows
	b.doc.Stats.Apps = size.Apps
	b.doc.Stats.Cells = len(b.doc.Cells())
	return b.doc, nil
}

func checkAppTypes(records []model.InterfaceRecord) error {
	for _, rec := range records {
		for _, app := range rec.Apps {
			if !app.Type.Known() {
				return errors.New(errors.ErrCodeInvalidAppType,
					"interface %s: app %q has unknown type %q", rec.CodeID, app.Name, app.Type)
			}
		}
	}
	return nil
}

// buildContext holds the build-scoped state. It is never shared between
// builds.
type buildContext struct {
	order    AppOrder
	size     Size
	registry *Registry
	doc      *Document
	logger   *log.Logger
}

func (b *buildContext) add(c Cell) {
	c.Parent = DefaultParent
	b.doc.Page.Model.Root.Cells = append(b.doc.Page.Model.Root.Cells, c)
}

func (b *buildContext) skip(msg string, keyvals ...any) {
	b.doc.Stats.Skipped++
	b.logger.Warn(msg, keyvals...)
}

// instances emits application columns and their protocol markers.
func (b *buildContext) instances(records []model.InterfaceRecord) {
	var rows rowCursor
	for _, rec := range records {
		row := rows.advance(rec.CodeID)
		for _, app := range rec.Apps {
			col, ok := b.order.Index(app.Name)
			if !ok {
				b.skip("app has no column, skipping", "app", app.Name, "type", app.Type, "code_id", rec.CodeID)
				continue
			}
			b.app(app, col)
			if app.Type.HasOutbound() {
				b.marker(app, "out", row, col, ProtocolOutPosition)
			}
			if app.Type.HasInbound() {
				b.marker(app, "in", row, col, ProtocolInPosition)
			}
		}
	}
}

func (b *buildContext) app(app model.AppEntry, col int) {
	if !b.registry.Claim(app.Name) {
		return
	}
	b.add(Cell{
		ID:       app.Name,
		Value:    app.Name,
		Style:    appStyle(CategoryColors(app.Type)),
		Vertex:   "1",
		Geometry: box(ColumnX(col), 0, AppWidth, b.size.AppHeight),
	})
}

func (b *buildContext) marker(app model.AppEntry, dir string, row, col, position int) {
	id := MarkerID(dir, app.Name, row)
	if !b.registry.Claim(id) {
		return
	}
	b.add(Cell{
		ID:       id,
		Value:    app.Format,
		Style:    protocolStyle(),
		Vertex:   "1",
		Geometry: box(position+ColumnX(col), RowY(row), ProtocolWidth, ProtocolHeight),
	})
	b.doc.Stats.Markers++
}

// connections emits edges and their labels.
func (b *buildContext) connections(records []model.InterfaceRecord) {
	var rows rowCursor
	for _, rec := range records {
		row := rows.advance(rec.CodeID)
		for _, app := range rec.Apps {
			if app.Connection == nil {
				continue
			}
			if _, ok := b.order.Index(app.Name); !ok {
				b.skip("connection source has no column, skipping connection",
					"app", app.Name, "target", app.Connection.TargetApp, "code_id", rec.CodeID)
				continue
			}
			col, ok := b.order.Index(app.Connection.TargetApp)
			if !ok {
				b.skip("connection target has no column, skipping connection",
					"target", app.Connection.TargetApp, "app", app.Name, "code_id", rec.CodeID)
				continue
			}
			b.edge(rec.Direction, app, row)
			if app.Connection.Detail != "" {
				b.detail(app, row, col)
			}
			if app.Connection.Link != nil {
				b.link(app, row, col)
			}
		}
	}
}

func (b *buildContext) edge(dir model.Direction, app model.AppEntry, row int) {
	target := app.Connection.TargetApp
	id := ConnectionID(target, app.Name, row)
	if !b.registry.Claim(id) {
		return
	}
	src, dst := MarkerID("out", target, row), MarkerID("in", app.Name, row)
	if dir != model.Outbound {
		src, dst = MarkerID("in", app.Name, row), MarkerID("out", target, row)
	}
	for _, end := range []string{src, dst} {
		if !b.registry.Has(end) {
			b.logger.Warn("connection endpoint was never drawn", "connection", id, "endpoint", end)
		}
	}
	b.add(Cell{
		ID:       id,
		Style:    connectionStyle(ConnectionColors(dir)),
		Edge:     "1",
		Invert:   "true",
		Source:   src,
		Target:   dst,
		Geometry: &Geometry{Relative: "1", As: geometryAs},
	})
	b.doc.Stats.Connections++
}

func (b *buildContext) detail(app model.AppEntry, row, col int) {
	id := labelID("detail", app.Connection.TargetApp, app.Name, row)
	if !b.registry.Claim(id) {
		return
	}
	b.add(Cell{
		ID:       id,
		Value:    app.Connection.Detail,
		Style:    detailStyle,
		Vertex:   "1",
		Geometry: box(XDetailInitial+ColumnX(col), RowY(row)-DetailSubSpacing, DetailWidth, DetailHeight),
	})
	b.doc.Stats.Labels++
}

func (b *buildContext) link(app model.AppEntry, row, col int) {
	id := labelID("ricefw", app.Connection.TargetApp, app.Name, row)
	if !b.registry.Claim(id) {
		return
	}
	b.add(Cell{
		ID:       id,
		Value:    linkValue(*app.Connection.Link),
		Style:    linkStyle,
		Vertex:   "1",
		Geometry: box(XDetailInitial+ColumnX(col), RowY(row)+LinkSpacing, DetailWidth, DetailHeight),
	})
	b.doc.Stats.Labels++
}

// MarkerID returns the id of the protocol marker for app in row. dir is
// "out" or "in".
func MarkerID(dir, app string, row int) string {
	return fmt.Sprintf("%s_%s_%d", dir, app, row)
}

// ConnectionID returns the id of the edge drawn for a connection from the
// entry named app to target in row.
func ConnectionID(target, app string, row int) string {
	return fmt.Sprintf("conn_%s_%s_%d", target, app, row)
}

func labelID(kind, target, app string, row int) string {
	return fmt.Sprintf("%s_%s_%s_%d", kind, target, app, row)
}
