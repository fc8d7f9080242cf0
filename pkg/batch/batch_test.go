package batch

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/xuri/excelize/v2"

	"github.com/matzehuels/interflow/pkg/errors"
	"github.com/matzehuels/interflow/pkg/payload"
	"github.com/matzehuels/interflow/pkg/sheet"
	"github.com/matzehuels/interflow/pkg/storage"
)

const goodRows = `[
  {"code_id": "1", "direction": "Outbound", "app_type": "source_app", "app_name": "SAP", "format": "IDoc"},
  {"code_id": "1", "direction": "Outbound", "app_type": "middleware", "app_name": "MW1", "connection_app": "SAP"},
  {"code_id": "1", "direction": "Outbound", "app_type": "connected_app", "app_name": "CRM", "connection_app": "MW1"}
]`

const otherRows = `[{"code_id": "9", "direction": "Inbound", "app_type": "connected_app", "app_name": "ERP"}]`

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func exists(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, filepath.FromSlash(name)))
	return err == nil
}

func newDriver(t *testing.T, dir string) *Driver {
	t.Helper()
	src, err := storage.NewLocal(dir)
	if err != nil {
		t.Fatal(err)
	}
	return &Driver{Source: src, Logger: log.New(&bytes.Buffer{})}
}

func readSheet(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open sheet: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(sheet.SheetName)
	if err != nil {
		t.Fatal(err)
	}
	return rows
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"good.json":           goodRows,
		"changed.json":        otherRows,
		"backup/changed.json": goodRows,
		"dup.json":            goodRows,
		"backup/dup.json":     strings.Join(strings.Fields(goodRows), " "),
		"bad.json":            `[{"code_id": "1", "direction": "Outbound", "app_type": "source_app"}]`,
		"notes.txt":           "not an input",
	})

	report, err := newDriver(t, dir).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.Processed != 2 || report.Duplicates != 1 || len(report.Failed) != 1 {
		t.Errorf("report = %+v, want 2 processed, 1 duplicate, 1 failed", report)
	}
	if report.Failed[0].Name != "bad.json" || errors.GetCode(report.Failed[0].Err) != errors.ErrCodeMissingField {
		t.Errorf("failure = %+v", report.Failed[0])
	}

	for name, want := range map[string]bool{
		"good.json":           false,
		"backup/good.json":    true,
		"changed.json":        false,
		"backup/changed.json": true,
		"dup.json":            false,
		"bad.json":            false,
		"error/bad.json":      true,
		"notes.txt":           true,
		DefaultSheetName:      true,
	} {
		if got := exists(dir, name); got != want {
			t.Errorf("exists(%s) = %v, want %v", name, got, want)
		}
	}

	data, _ := os.ReadFile(filepath.Join(dir, "backup", "changed.json"))
	if string(data) != otherRows {
		t.Error("backup/changed.json was not replaced by the new input")
	}

	rows := readSheet(t, filepath.Join(dir, DefaultSheetName))
	if len(rows) != 3 {
		t.Fatalf("sheet rows = %d, want header + 2", len(rows))
	}
	if rows[1][0] != "ERP" || rows[1][2] != "changed.json" {
		t.Errorf("row 1 = %q", rows[1])
	}
	if rows[2][0] != "CRM" || rows[2][2] != "good.json" {
		t.Errorf("row 2 = %q", rows[2])
	}
	if strings.ContainsAny(rows[2][1], "\n") || !strings.HasPrefix(rows[2][1], `[{"code_id":"1"`) {
		t.Errorf("body = %q, want compact JSON", rows[2][1])
	}
	if _, err := payload.Decode(rows[2][3]); err != nil {
		t.Errorf("sheet url does not decode: %v", err)
	}
}

func TestRunEmpty(t *testing.T) {
	dir := t.TempDir()
	d := newDriver(t, dir)
	d.SheetName = "summary.xlsx"

	report, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Processed != 0 || report.Sheet != "summary.xlsx" {
		t.Errorf("report = %+v", report)
	}
	if rows := readSheet(t, filepath.Join(dir, "summary.xlsx")); len(rows) < 1 || rows[0][0] != "connected_app" {
		t.Errorf("sheet rows = %q", rows)
	}
}

func TestRunSeparateOutput(t *testing.T) {
	srcDir, outDir := t.TempDir(), t.TempDir()
	writeFiles(t, srcDir, map[string]string{"good.json": goodRows})

	d := newDriver(t, srcDir)
	out, _ := storage.NewLocal(outDir)
	d.Output = out
	if _, err := d.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if exists(srcDir, DefaultSheetName) || !exists(outDir, DefaultSheetName) {
		t.Error("sheet not written to the output store")
	}
}

func TestRunCanceled(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"good.json": goodRows})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newDriver(t, dir).Run(ctx); err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if !exists(dir, "good.json") || exists(dir, DefaultSheetName) {
		t.Error("canceled run touched inputs or wrote a sheet")
	}
}

func TestJSONEqual(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{`[{"a":1,"b":"x"}]`, `[ { "b": "x", "a": 1.0 } ]`, true},
		{`[1,2]`, `[2,1]`, false},
		{`{"a":1}`, `not json`, false},
	}
	for _, tt := range tests {
		if got := jsonEqual([]byte(tt.a), []byte(tt.b)); got != tt.want {
			t.Errorf("jsonEqual(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
