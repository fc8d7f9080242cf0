package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/matzehuels/interflow/pkg/buildinfo"
	ierrors "github.com/matzehuels/interflow/pkg/errors"
	"github.com/matzehuels/interflow/pkg/model"
	"github.com/matzehuels/interflow/pkg/payload"
)

// Response formats for /v1/diagrams.
const (
	formatJSON = "json"
	formatXML  = "xml"
)

const contentTypeXML = "application/xml; charset=utf-8"

// DiagramResponse is the JSON body returned by POST /v1/diagrams.
type DiagramResponse struct {
	URL   string `json:"url"`
	Apps  int    `json:"apps"`
	Rows  int    `json:"rows"`
	Cells int    `json:"cells"`
}

// DecodeRequest is the JSON body accepted by POST /v1/decode.
type DecodeRequest struct {
	Payload string `json:"payload"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"service": "interflow",
		"version": buildinfo.Version,
	})
}

func (s *Server) handleDiagrams(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = formatJSON
	}
	if format != formatJSON && format != formatXML {
		s.writeError(w, r, ierrors.New(ierrors.ErrCodeInvalidInput, "format %q (must be one of: json, xml)", format))
		return
	}

	opts := s.opts
	if v := r.URL.Query().Get("strict"); v != "" {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			s.writeError(w, r, ierrors.Wrap(ierrors.ErrCodeInvalidInput, err, "strict"))
			return
		}
		opts.StrictAppTypes = strict
	}
	opts.Logger = s.logger.With("request_id", RequestID(r.Context()))

	rows, err := model.DecodeRows(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.runner.Execute(r.Context(), rows, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if format == formatXML {
		w.Header().Set("Content-Type", contentTypeXML)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(res.XML)
		return
	}
	writeJSON(w, http.StatusOK, DiagramResponse{
		URL:   res.URL,
		Apps:  res.Stats.Apps,
		Rows:  res.Stats.Rows,
		Cells: res.Stats.Cells,
	})
}

// handleDecode accepts a JSON DecodeRequest or, for any other content
// type, the payload or viewer URL as the raw body.
func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		s.writeError(w, r, ierrors.Wrap(ierrors.ErrCodeInvalidInput, err, "read body"))
		return
	}

	in := string(body)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req DecodeRequest
		if err := json.Unmarshal(body, &req); err != nil {
			s.writeError(w, r, ierrors.Wrap(ierrors.ErrCodeInvalidInput, err, "decode request"))
			return
		}
		in = req.Payload
	}

	doc, err := payload.Decode(in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentTypeXML)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

// writeError maps input problems to 400 and everything else to 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	code := ierrors.GetCode(err)
	msg := "internal error"

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		status = http.StatusRequestEntityTooLarge
		code = ierrors.ErrCodeInvalidInput
		msg = "request body too large"
	case ierrors.IsInputError(err):
		status = http.StatusBadRequest
		msg = ierrors.UserMessage(err)
	default:
		if code == "" {
			code = ierrors.ErrCodeInternal
		}
		s.logger.Error("request failed", "error", err, "request_id", RequestID(r.Context()))
	}
	writeJSON(w, status, ErrorResponse{Error: msg, Code: string(code)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
