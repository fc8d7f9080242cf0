// Package payload turns serialized diagrams into viewer URLs and back.
//
// The viewer reads a diagram from the URL fragment after "#R". The fragment
// is produced in four stages:
//
//  1. percent-encode the document, leaving ~ ( ) * ! . ' unescaped
//  2. compress the result as a raw DEFLATE stream (no zlib framing)
//  3. base64-encode the compressed bytes
//  4. percent-encode the base64 text, leaving / unescaped
//
// The escaping sets are what the viewer's decoder expects; changing either
// of them, or the compression framing, yields links that open an empty page.
//
//	u := payload.URL(payload.Encode(xmlBytes))
//	data, err := payload.Decode(u) // bare payloads are accepted too
package payload
