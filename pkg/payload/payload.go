package payload

import (
	"bytes"
	"encoding/base64"
	"io"
	"strings"

	"github.com/klauspost/compress/flate"

	"github.com/matzehuels/interflow/pkg/errors"
)

// ViewerOrigin is the URL prefix a payload is appended to.
const ViewerOrigin = "https://viewer.diagrams.net/?#R"

// MaxDecodedSize bounds the inflated size accepted by Decode.
const MaxDecodedSize = 32 << 20

// Encode returns the URL fragment payload for a serialized document. It is
// deterministic: equal input yields an equal payload.
func Encode(doc []byte) string {
	escaped := quote(doc, documentSafe)

	var buf bytes.Buffer
	// NewWriter only fails for an invalid level.
	w, _ := flate.NewWriter(&buf, flate.DefaultCompression)
	_, _ = io.WriteString(w, escaped)
	_ = w.Close()

	return quote([]byte(base64.StdEncoding.EncodeToString(buf.Bytes())), fragmentSafe)
}

// URL returns the viewer link for an encoded payload.
func URL(payload string) string {
	return ViewerOrigin + payload
}

// EncodeURL is shorthand for URL(Encode(doc)).
func EncodeURL(doc []byte) string {
	return URL(Encode(doc))
}

// Decode reverses Encode. s may be a bare payload or a full viewer URL.
func Decode(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "#R"); i >= 0 {
		s = s[i+2:]
	}
	if s == "" {
		return nil, errors.New(errors.ErrCodeInvalidPayload, "empty payload")
	}

	compressed, err := base64.StdEncoding.DecodeString(string(unquote(s)))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPayload, err, "decode base64")
	}

	r := flate.NewReader(bytes.NewReader(compressed))
	defer r.Close()
	escaped, err := io.ReadAll(io.LimitReader(r, MaxDecodedSize+1))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPayload, err, "inflate")
	}
	if len(escaped) > MaxDecodedSize {
		return nil, errors.New(errors.ErrCodeInvalidPayload, "payload inflates beyond %d bytes", MaxDecodedSize)
	}
	return unquote(string(escaped)), nil
}
