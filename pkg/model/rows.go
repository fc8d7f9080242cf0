package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/matzehuels/interflow/pkg/errors"
)

// Row is one flat input row. The last four fields are empty when the
// application has no connection.
type Row struct {
	CodeID           string `json:"code_id"`
	Direction        string `json:"direction"`
	AppType          string `json:"app_type"`
	AppName          string `json:"app_name"`
	Format           string `json:"format"`
	ConnectionApp    string `json:"connection_app"`
	ConnectionDetail string `json:"connection_detail"`
	InterfaceID      string `json:"interface_id"`
	InterfaceURL     string `json:"interface_url"`
}

// field captures a JSON scalar and whether the key was present at all.
// Spreadsheet exports frequently turn ids into numbers, so numbers and
// booleans are kept as their literal text.
type field struct {
	set bool
	val string
}

func (f *field) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || string(b) == "null":
		return nil
	case b[0] == '"':
		if err := json.Unmarshal(b, &f.val); err != nil {
			return err
		}
	case b[0] == '{' || b[0] == '[':
		return fmt.Errorf("expected scalar, got %s", b[:1])
	default:
		f.val = string(b)
	}
	f.set = true
	return nil
}

type rawRow struct {
	CodeID           field `json:"code_id"`
	Direction        field `json:"direction"`
	AppType          field `json:"app_type"`
	AppName          field `json:"app_name"`
	Format           field `json:"format"`
	ConnectionApp    field `json:"connection_app"`
	ConnectionDetail field `json:"connection_detail"`
	InterfaceID      field `json:"interface_id"`
	InterfaceURL     field `json:"interface_url"`
}

// DecodeRows reads a JSON array of rows from r.
//
// code_id, direction, app_type and app_name are required; a missing (or
// null) key fails the whole input with [errors.ErrCodeMissingField]. Other
// keys default to the empty string. Malformed JSON is reported as
// [errors.ErrCodeInvalidInput].
func DecodeRows(r io.Reader) ([]Row, error) {
	var raw []rawRow
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode rows")
	}

	rows := make([]Row, 0, len(raw))
	for i, rr := range raw {
		required := []struct {
			key string
			f   field
		}{
			{"code_id", rr.CodeID},
			{"direction", rr.Direction},
			{"app_type", rr.AppType},
			{"app_name", rr.AppName},
		}
		for _, req := range required {
			if !req.f.set {
				return nil, errors.New(errors.ErrCodeMissingField, "row %d: missing required field %q", i, req.key)
			}
		}
		rows = append(rows, Row{
			CodeID:           rr.CodeID.val,
			Direction:        rr.Direction.val,
			AppType:          rr.AppType.val,
			AppName:          rr.AppName.val,
			Format:           rr.Format.val,
			ConnectionApp:    rr.ConnectionApp.val,
			ConnectionDetail: rr.ConnectionDetail.val,
			InterfaceID:      rr.InterfaceID.val,
			InterfaceURL:     rr.InterfaceURL.val,
		})
	}
	return rows, nil
}

// DecodeRowsBytes is [DecodeRows] over an in-memory document.
func DecodeRowsBytes(data []byte) ([]Row, error) {
	return DecodeRows(bytes.NewReader(data))
}

// Group merges rows into interface records, one per code_id.
//
// Records appear in the order their code_id is first seen. A code_id that
// reappears later is merged into its first record, so the records handed
// to the diagram builder always keep rows with the same code_id together.
// The direction of a record is taken from its first row.
//
// Unknown app types are kept verbatim; the diagram builder decides how to
// treat them.
func Group(rows []Row) ([]InterfaceRecord, error) {
	var records []InterfaceRecord
	index := make(map[string]int)

	for i, row := range rows {
		codeID := strings.TrimSpace(row.CodeID)
		if codeID == "" {
			return nil, errors.New(errors.ErrCodeMissingField, "row %d: code_id is empty", i)
		}
		if err := errors.ValidateAppName(row.AppName); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidName, err, "row %d", i)
		}

		pos, seen := index[codeID]
		if !seen {
			dir, ok := ParseDirection(row.Direction)
			if !ok {
				return nil, errors.New(errors.ErrCodeInvalidDirection,
					"row %d: direction %q must be Outbound or Inbound", i, row.Direction)
			}
			pos = len(records)
			index[codeID] = pos
			records = append(records, InterfaceRecord{CodeID: codeID, Direction: dir})
		}

		appType, _ := ParseAppType(row.AppType)
		records[pos].Apps = append(records[pos].Apps, AppEntry{
			Type:       appType,
			Name:       row.AppName,
			Format:     row.Format,
			Connection: rowConnection(row),
		})
	}
	return records, nil
}

func rowConnection(row Row) *Connection {
	if row.ConnectionApp == "" {
		return nil
	}
	conn := &Connection{
		TargetApp: row.ConnectionApp,
		Detail:    row.ConnectionDetail,
	}
	if row.InterfaceID != "" {
		conn.Link = &InterfaceLink{ID: row.InterfaceID, URL: row.InterfaceURL}
	}
	return conn
}

// ConnectedApp returns the name of the first connected application in rows,
// or "" when there is none. It labels batch results.
func ConnectedApp(rows []Row) string {
	for _, row := range rows {
		if t, _ := ParseAppType(row.AppType); t == AppTypeConnected {
			return row.AppName
		}
	}
	return ""
}

// Canonical returns the rows re-encoded as compact JSON. Equal row sets
// produce identical bytes, which makes the output usable as a cache key.
func Canonical(rows []Row) ([]byte, error) {
	if rows == nil {
		rows = []Row{}
	}
	return json.Marshal(rows)
}
