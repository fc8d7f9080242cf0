package diagram

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/interflow/pkg/errors"
	"github.com/matzehuels/interflow/pkg/model"
	"github.com/matzehuels/interflow/pkg/payload"
)

func conn(target string) *model.Connection {
	return &model.Connection{TargetApp: target}
}

func app(t model.AppType, name string) model.AppEntry {
	return model.AppEntry{Type: t, Name: name}
}

func record(code string, dir model.Direction, apps ...model.AppEntry) model.InterfaceRecord {
	return model.InterfaceRecord{CodeID: code, Direction: dir, Apps: apps}
}

// chain returns SAP -> MW1 with the connection carried by the middleware.
func chain() []model.InterfaceRecord {
	mw := app(model.AppTypeMiddleware, "MW1")
	mw.Connection = conn("SAP")
	src := app(model.AppTypeSource, "SAP")
	src.Format = "IDoc"
	return []model.InterfaceRecord{record("1", model.Outbound, src, mw)}
}

func mustBuild(t *testing.T, records []model.InterfaceRecord, opts Options) *Document {
	t.Helper()
	doc, err := Build(records, opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return doc
}

func mustCell(t *testing.T, doc *Document, id string) Cell {
	t.Helper()
	c, ok := doc.Cell(id)
	if !ok {
		t.Fatalf("cell %q not found", id)
	}
	return c
}

func ids(cells []Cell) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = c.ID
	}
	return out
}

func TestBuildChain(t *testing.T) {
	doc := mustBuild(t, chain(), Options{})

	want := []string{"0", "1", "SAP", "out_SAP_0", "MW1", "out_MW1_0", "in_MW1_0", "conn_SAP_MW1_0"}
	if got := ids(doc.Cells()); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("cells = %v, want %v", got, want)
	}

	edge := mustCell(t, doc, "conn_SAP_MW1_0")
	if edge.Source != "out_SAP_0" || edge.Target != "in_MW1_0" {
		t.Errorf("edge = %s -> %s, want out_SAP_0 -> in_MW1_0", edge.Source, edge.Target)
	}
	if !edge.IsEdge() || edge.Invert != "true" {
		t.Errorf("edge flags = edge %q invert %q", edge.Edge, edge.Invert)
	}
	if !strings.Contains(edge.Style, "fillColor=#dae8fc;strokeColor=#7ea6e0") {
		t.Errorf("edge style = %q, want outbound colors", edge.Style)
	}
	if edge.Geometry == nil || edge.Geometry.Relative != "1" || edge.Geometry.X != nil {
		t.Errorf("edge geometry = %+v, want relative only", edge.Geometry)
	}

	if v := mustCell(t, doc, "out_SAP_0").Value; v != "IDoc" {
		t.Errorf("source marker value = %q, want IDoc", v)
	}
	if v := mustCell(t, doc, "in_MW1_0").Value; v != "" {
		t.Errorf("middleware marker value = %q, want empty format", v)
	}
}

func TestBuildMarkerFormats(t *testing.T) {
	records := chain()
	records[0].Apps[1].Format = "JSON"
	doc := mustBuild(t, records, Options{})

	for id, want := range map[string]string{
		"out_SAP_0": "IDoc",
		"out_MW1_0": "JSON",
		"in_MW1_0":  "JSON",
	} {
		if v := mustCell(t, doc, id).Value; v != want {
			t.Errorf("%s value = %q, want %q", id, v, want)
		}
	}
}

// The connection formula is applied literally when the source entry
// carries the connection: the edge lands on markers the source never gets.
func TestBuildConnectionOnSource(t *testing.T) {
	src := app(model.AppTypeSource, "SAP")
	src.Format = "IDoc"
	src.Connection = conn("MW1")
	records := []model.InterfaceRecord{record("1", model.Outbound, src, app(model.AppTypeMiddleware, "MW1"))}

	var buf bytes.Buffer
	doc := mustBuild(t, records, Options{Logger: log.New(&buf)})

	for _, id := range []string{"SAP", "MW1", "out_SAP_0", "out_MW1_0", "in_MW1_0"} {
		mustCell(t, doc, id)
	}
	if _, ok := doc.Cell("in_SAP_0"); ok {
		t.Error("source app got an inbound marker")
	}
	edge := mustCell(t, doc, "conn_MW1_SAP_0")
	if edge.Source != "out_MW1_0" || edge.Target != "in_SAP_0" {
		t.Errorf("edge = %s -> %s, want out_MW1_0 -> in_SAP_0", edge.Source, edge.Target)
	}
	if !strings.Contains(buf.String(), "in_SAP_0") {
		t.Errorf("log = %q, want dangling endpoint warning", buf.String())
	}
}

func TestBuildInbound(t *testing.T) {
	mw := app(model.AppTypeMiddleware, "MW1")
	mw.Connection = conn("SAP")
	doc := mustBuild(t, []model.InterfaceRecord{
		record("7", model.Inbound, app(model.AppTypeSource, "SAP"), mw),
	}, Options{})

	edge := mustCell(t, doc, "conn_SAP_MW1_0")
	if edge.Source != "in_MW1_0" || edge.Target != "out_SAP_0" {
		t.Errorf("edge = %s -> %s, want in_MW1_0 -> out_SAP_0", edge.Source, edge.Target)
	}
	if !strings.Contains(edge.Style, "fillColor=#ffcd28;strokeColor=#d79b00") {
		t.Errorf("edge style = %q, want inbound colors", edge.Style)
	}
}

func TestBuildEmpty(t *testing.T) {
	doc := mustBuild(t, nil, Options{})

	m := doc.Page.Model
	if m.PageHeight != AppMinHeight {
		t.Errorf("pageHeight = %d, want %d", m.PageHeight, AppMinHeight)
	}
	if m.PageWidth != AppWidth {
		t.Errorf("pageWidth = %d, want %d", m.PageWidth, AppWidth)
	}
	if got := ids(doc.Cells()); len(got) != 2 || got[0] != "0" || got[1] != "1" {
		t.Errorf("cells = %v, want [0 1]", got)
	}
	if doc.Stats.Rows != 0 || doc.Stats.Apps != 0 {
		t.Errorf("stats = %+v, want zero rows and apps", doc.Stats)
	}
}

func TestBuildGeometry(t *testing.T) {
	gw := app(model.AppTypeGateway, "GW")
	gw.Connection = conn("SAP")
	gw.Connection.Detail = "orders"
	gw.Connection.Link = &model.InterfaceLink{ID: "R-1", URL: "https://example.com/r1"}

	records := []model.InterfaceRecord{
		record("1", model.Outbound, app(model.AppTypeSource, "SAP"), gw),
		record("2", model.Outbound, app(model.AppTypeSource, "SAP"), app(model.AppTypeConnected, "CRM")),
	}
	doc := mustBuild(t, records, Options{})

	m := doc.Page.Model
	if want := (3*2 - 1) * AppWidth; m.PageWidth != want {
		t.Errorf("pageWidth = %d, want %d", m.PageWidth, want)
	}
	if want := AppMinHeight + (ProtocolHeight+YOffset)*1; m.PageHeight != want {
		t.Errorf("pageHeight = %d, want %d", m.PageHeight, want)
	}

	tests := []struct {
		id         string
		x, y, w, h int
	}{
		{"SAP", 0, 0, AppWidth, 170},
		{"GW", 240, 0, AppWidth, 170},
		{"CRM", 480, 0, AppWidth, 170},
		{"out_SAP_0", 70, 40, ProtocolWidth, ProtocolHeight},
		{"out_SAP_1", 70, 130, ProtocolWidth, ProtocolHeight},
		{"in_GW_0", 230, 40, ProtocolWidth, ProtocolHeight},
		{"out_GW_0", 310, 40, ProtocolWidth, ProtocolHeight},
		{"in_CRM_1", 470, 130, ProtocolWidth, ProtocolHeight},
		{"detail_SAP_GW_0", 120, 20, DetailWidth, DetailHeight},
		{"ricefw_SAP_GW_0", 120, 50, DetailWidth, DetailHeight},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			g := mustCell(t, doc, tt.id).Geometry
			if g == nil || g.X == nil || g.Y == nil || g.Width == nil || g.Height == nil {
				t.Fatalf("geometry = %+v, want a full box", g)
			}
			if *g.X != tt.x || *g.Y != tt.y || *g.Width != tt.w || *g.Height != tt.h {
				t.Errorf("geometry = (%d,%d,%d,%d), want (%d,%d,%d,%d)",
					*g.X, *g.Y, *g.Width, *g.Height, tt.x, tt.y, tt.w, tt.h)
			}
		})
	}

	if _, ok := doc.Cell("out_CRM_1"); ok {
		t.Error("connected app got an outbound marker")
	}
	if v := mustCell(t, doc, "ricefw_SAP_GW_0").Value; v != `<a href="https://example.com/r1">R-1</a>` {
		t.Errorf("link value = %q", v)
	}
	if s := mustCell(t, doc, "ricefw_SAP_GW_0").Style; !strings.HasSuffix(s, ";fontSize=9") {
		t.Errorf("link style = %q, want fontSize=9", s)
	}
	if v := mustCell(t, doc, "detail_SAP_GW_0").Value; v != "orders" {
		t.Errorf("detail value = %q, want orders", v)
	}

	want := Stats{Rows: 2, Apps: 3, Cells: 13, Markers: 5, Connections: 1, Labels: 2}
	if doc.Stats != want {
		t.Errorf("stats = %+v, want %+v", doc.Stats, want)
	}
}

func TestBuildRepeatedApp(t *testing.T) {
	doc := mustBuild(t, []model.InterfaceRecord{
		record("1", model.Outbound, app(model.AppTypeSource, "SAP"), app(model.AppTypeMiddleware, "MW1")),
		record("2", model.Outbound, app(model.AppTypeSource, "SAP"), app(model.AppTypeMiddleware, "MW1")),
	}, Options{})

	var apps int
	for _, c := range doc.Vertices() {
		if c.ID == "SAP" {
			apps++
		}
	}
	if apps != 1 {
		t.Errorf("SAP nodes = %d, want 1", apps)
	}
	for _, id := range []string{"out_SAP_0", "out_SAP_1", "in_MW1_0", "out_MW1_0", "in_MW1_1", "out_MW1_1"} {
		mustCell(t, doc, id)
	}
}

func TestBuildUniqueIDs(t *testing.T) {
	mw := app(model.AppTypeMiddleware, "MW1")
	mw.Connection = &model.Connection{TargetApp: "SAP", Detail: "d"}
	// The same record twice under one code_id stays in one row.
	records := []model.InterfaceRecord{
		record("1", model.Outbound, app(model.AppTypeSource, "SAP"), mw, mw),
		record("1", model.Outbound, app(model.AppTypeSource, "SAP"), mw),
	}
	doc := mustBuild(t, records, Options{})

	seen := make(map[string]bool)
	for _, c := range doc.Cells() {
		if seen[c.ID] {
			t.Errorf("duplicate id %q", c.ID)
		}
		seen[c.ID] = true
	}
	if len(doc.Edges()) != 1 {
		t.Errorf("edges = %d, want 1", len(doc.Edges()))
	}
	if doc.Stats.Rows != 1 {
		t.Errorf("rows = %d, want 1", doc.Stats.Rows)
	}
}

func TestBuildCategoryOrder(t *testing.T) {
	doc := mustBuild(t, []model.InterfaceRecord{
		record("1", model.Outbound,
			app(model.AppTypeConnected, "CRM"),
			app(model.AppTypeOtherMiddleware, "OM"),
			app(model.AppTypeGateway, "GW"),
			app(model.AppTypeMiddleware, "MW"),
			app(model.AppTypeSource, "S2"),
			app(model.AppTypeSource, "S1"),
		),
	}, Options{})

	want := map[string]int{"S2": 0, "S1": 240, "MW": 480, "GW": 720, "OM": 960, "CRM": 1200}
	for id, x := range want {
		if got := *mustCell(t, doc, id).Geometry.X; got != x {
			t.Errorf("%s x = %d, want %d", id, got, x)
		}
	}
}

func TestBuildUnknownType(t *testing.T) {
	records := []model.InterfaceRecord{
		record("1", model.Outbound, app(model.AppTypeSource, "SAP"), app("mainframe", "HOST")),
	}

	var buf bytes.Buffer
	doc := mustBuild(t, records, Options{Logger: log.New(&buf)})
	if _, ok := doc.Cell("HOST"); ok {
		t.Error("unknown type got a column")
	}
	if doc.Stats.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", doc.Stats.Skipped)
	}
	if !strings.Contains(buf.String(), "HOST") {
		t.Errorf("log = %q, want skip message naming HOST", buf.String())
	}

	_, err := Build(records, Options{StrictAppTypes: true})
	if errors.GetCode(err) != errors.ErrCodeInvalidAppType {
		t.Errorf("strict error = %v, want %s", err, errors.ErrCodeInvalidAppType)
	}
}

func TestBuildConnectionWithoutColumn(t *testing.T) {
	ghost := app(model.AppTypeMiddleware, "MW1")
	ghost.Connection = &model.Connection{TargetApp: "GHOST", Detail: "d", Link: &model.InterfaceLink{ID: "R1", URL: "https://example.com"}}

	unknown := app("mainframe", "HOST")
	unknown.Connection = conn("SAP")

	tests := []struct {
		name    string
		records []model.InterfaceRecord
		absent  []string
		skipped int
	}{
		{
			name:    "target",
			records: []model.InterfaceRecord{record("1", model.Outbound, ghost)},
			absent:  []string{"conn_GHOST_MW1_0", "detail_GHOST_MW1_0", "ricefw_GHOST_MW1_0"},
			skipped: 1,
		},
		{
			name:    "source",
			records: []model.InterfaceRecord{record("1", model.Outbound, app(model.AppTypeSource, "SAP"), unknown)},
			absent:  []string{"HOST", "conn_SAP_HOST_0"},
			skipped: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			doc := mustBuild(t, tt.records, Options{Logger: log.New(&buf)})
			for _, id := range tt.absent {
				if _, ok := doc.Cell(id); ok {
					t.Errorf("cell %q drawn", id)
				}
			}
			if len(doc.Edges()) != 0 || doc.Stats.Connections != 0 {
				t.Errorf("edges = %v, connections = %d, want none", ids(doc.Edges()), doc.Stats.Connections)
			}
			if doc.Stats.Skipped != tt.skipped {
				t.Errorf("skipped = %d, want %d", doc.Stats.Skipped, tt.skipped)
			}
			if !strings.Contains(buf.String(), "has no column") {
				t.Errorf("log = %q, want skip message", buf.String())
			}
		})
	}
}

func TestBuildDeterministic(t *testing.T) {
	first, err := mustBuild(t, chain(), Options{}).Marshal()
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := mustBuild(t, chain(), Options{}).Marshal()
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("build %d differs:\n%s\n%s", i, first, again)
		}
	}
}

func TestBuildConcurrent(t *testing.T) {
	gw := app(model.AppTypeGateway, "GW")
	gw.Connection = &model.Connection{TargetApp: "SAP", Detail: "orders",
		Link: &model.InterfaceLink{ID: "R-1", URL: "https://example.com/r1?a=1&b=2"}}
	records := append(chain(),
		record("2", model.Inbound, app(model.AppTypeSource, "SAP"), gw),
		record("3", model.Outbound, app(model.AppTypeSource, "SAP"), app(model.AppTypeConnected, "CRM")),
	)

	encode := func() ([]byte, string, error) {
		doc, err := Build(records, Options{})
		if err != nil {
			return nil, "", err
		}
		out, err := doc.Marshal()
		if err != nil {
			return nil, "", err
		}
		return out, payload.Encode(out), nil
	}
	wantXML, wantPayload, err := encode()
	if err != nil {
		t.Fatal(err)
	}

	const workers = 8
	var wg sync.WaitGroup
	xmls := make([][]byte, workers)
	payloads := make([]string, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			xmls[i], payloads[i], errs[i] = encode()
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Errorf("worker %d: %v", i, errs[i])
			continue
		}
		if !bytes.Equal(xmls[i], wantXML) {
			t.Errorf("worker %d xml differs:\n%s\nwant\n%s", i, xmls[i], wantXML)
		}
		if payloads[i] != wantPayload {
			t.Errorf("worker %d payload = %q, want %q", i, payloads[i], wantPayload)
		}
	}
}
