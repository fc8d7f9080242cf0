package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/interflow/pkg/payload"
)

const sampleRows = `[
 {"code_id":"1","direction":"Outbound","app_type":"source_app","app_name":"SAP","format":"IDoc"},
 {"code_id":"1","direction":"Outbound","app_type":"middleware","app_name":"MW1","connection_app":"SAP"},
 {"code_id":"1","direction":"Outbound","app_type":"connected_app","app_name":"CRM","format":"REST",
  "connection_app":"MW1","connection_detail":"orders","interface_id":"R-1","interface_url":"https://example.com/r1"}
]`

func newTestServer(t *testing.T, cfg Config) (*Server, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	cfg.Logger = log.New(&logs)
	return New(cfg), &logs
}

func do(s http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("error body %q: %v", w.Body.String(), err)
	}
	return resp
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	w := do(s, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["ok"] != true || body["service"] != "interflow" {
		t.Errorf("body = %v, want ok interflow", body)
	}
}

func TestDiagramsJSON(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	w := do(s, httptest.NewRequest(http.MethodPost, "/v1/diagrams", strings.NewReader(sampleRows)))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	var resp DiagramResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(resp.URL, payload.ViewerOrigin) {
		t.Errorf("url = %q, want prefix %q", resp.URL, payload.ViewerOrigin)
	}
	if resp.Apps != 3 {
		t.Errorf("apps = %d, want 3", resp.Apps)
	}
	if resp.Rows != 1 {
		t.Errorf("rows = %d, want 1", resp.Rows)
	}
	if resp.Cells == 0 {
		t.Error("cells = 0, want > 0")
	}
}

func TestDiagramsXMLRoundTrip(t *testing.T) {
	s, _ := newTestServer(t, Config{})

	w := do(s, httptest.NewRequest(http.MethodPost, "/v1/diagrams?format=xml", strings.NewReader(sampleRows)))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/xml") {
		t.Errorf("Content-Type = %q, want application/xml", ct)
	}
	xml := w.Body.String()
	if !strings.HasPrefix(xml, "<mxfile") {
		t.Fatalf("body = %.40q, want <mxfile document", xml)
	}

	w = do(s, httptest.NewRequest(http.MethodPost, "/v1/diagrams", strings.NewReader(sampleRows)))
	var resp DiagramResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{"json url", "application/json", `{"payload":"` + resp.URL + `"}`},
		{"raw payload", "text/plain", strings.TrimPrefix(resp.URL, payload.ViewerOrigin)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/decode", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			w := do(s, req)
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
			}
			if w.Body.String() != xml {
				t.Errorf("decoded document differs from built document")
			}
		})
	}
}

func TestBadRequests(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		body     string
		wantCode string
	}{
		{"malformed json", "/v1/diagrams", `[{`, "INVALID_INPUT"},
		{"missing field", "/v1/diagrams", `[{"code_id":"1","direction":"Outbound","app_type":"source_app"}]`, "MISSING_FIELD"},
		{"bad direction", "/v1/diagrams", `[{"code_id":"1","direction":"Sideways","app_type":"source_app","app_name":"A"}]`, "INVALID_DIRECTION"},
		{"bad format", "/v1/diagrams?format=png", sampleRows, "INVALID_INPUT"},
		{"bad strict", "/v1/diagrams?strict=maybe", sampleRows, "INVALID_INPUT"},
		{"strict unknown type", "/v1/diagrams?strict=true",
			`[{"code_id":"1","direction":"Outbound","app_type":"robot","app_name":"R2"}]`, "INVALID_APP_TYPE"},
		{"bad payload", "/v1/decode", `!!!not-base64`, "INVALID_PAYLOAD"},
		{"empty payload", "/v1/decode", ``, "INVALID_PAYLOAD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, Config{})
			w := do(s, httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body)))
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusBadRequest, w.Body.String())
			}
			resp := decodeError(t, w)
			if resp.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", resp.Code, tt.wantCode)
			}
			if resp.Error == "" {
				t.Error("error message is empty")
			}
		})
	}
}

func TestBodyTooLarge(t *testing.T) {
	s, _ := newTestServer(t, Config{MaxBodyBytes: 16})
	w := do(s, httptest.NewRequest(http.MethodPost, "/v1/diagrams", strings.NewReader(sampleRows)))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want %d", w.Code, http.StatusRequestEntityTooLarge)
	}
}

func TestInternalError(t *testing.T) {
	s, logs := newTestServer(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := httptest.NewRequest(http.MethodPost, "/v1/diagrams", strings.NewReader(sampleRows)).WithContext(ctx)
	w := do(s, req)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	resp := decodeError(t, w)
	if resp.Code != "INTERNAL_ERROR" {
		t.Errorf("code = %q, want INTERNAL_ERROR", resp.Code)
	}
	if strings.Contains(resp.Error, "context") {
		t.Errorf("error = %q, want internal details hidden", resp.Error)
	}
	if !strings.Contains(logs.String(), "request failed") {
		t.Error("internal error was not logged")
	}
}

func TestRequestID(t *testing.T) {
	s, logs := newTestServer(t, Config{})

	w := do(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	generated := w.Header().Get(RequestIDHeader)
	if len(generated) != 36 {
		t.Errorf("generated id = %q, want a uuid", generated)
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = do(s, req)
	if got := w.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("%s = %q, want abc-123", RequestIDHeader, got)
	}
	if !strings.Contains(logs.String(), "abc-123") {
		t.Error("access log is missing the request id")
	}
}

func TestMetricsAndRecovery(t *testing.T) {
	s, logs := newTestServer(t, Config{
		Metrics: http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }),
	})

	w := do(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if !strings.Contains(logs.String(), "status=500") {
		t.Errorf("access log = %q, want status=500", logs.String())
	}
}

func TestMetricsDefault(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	w := do(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestNotFound(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	w := do(s, httptest.NewRequest(http.MethodGet, "/v1/unknown", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
