// Package pkg provides the core libraries for Interflow interface diagrams.
//
// # Overview
//
// Interflow turns an interface inventory (flat rows naming a source
// application, the middleware hops and the connected application of each
// interface) into a draw.io wiring diagram and a viewer link that opens it
// without uploading a file.
//
// # Architecture
//
// The typical data flow through Interflow:
//
//	rows.json (local folder, S3 prefix or HTTP body)
//	         ↓
//	    [model] package (decode and group rows into interface records)
//	         ↓
//	    [diagram] package (column layout + mxfile document)
//	         ↓
//	    [payload] package (deflate + base64 viewer fragment)
//	         ↓
//	    viewer URL, XML document, summary sheet
//
// # Quick Start
//
//	rows, _ := model.DecodeRowsBytes(data)
//	records, _ := model.Group(rows)
//	doc, _ := diagram.Build(records, diagram.Options{})
//	xml, _ := doc.Marshal()
//	fmt.Println(payload.EncodeURL(xml))
//
// # Main Packages
//
// ## Domain Logic
//
// [model] - Input rows, app types, directions and grouping by code_id.
//
// [diagram] - Column ordering, page sizing and the cell graph: application
// boxes, direction markers, connection edges and per-row labels.
//
// [payload] - The reversible encoding that turns a document into a viewer
// URL fragment.
//
// [preview] - A Graphviz rendering of the application chain for quick checks.
//
// ## Orchestration
//
// [pipeline] - Group → build → encode with caching, used by the CLI, the
// batch driver and the HTTP server so all entry points behave the same.
//
// [batch] - Folder processing with backup, error and duplicate handling and
// a summary spreadsheet.
//
// ## Infrastructure
//
// [cache] - File, Redis and no-op caches behind one interface, plus keyers.
//
// [storage] - Local directory and S3 prefix stores.
//
// [sheet] - The xlsx summary written by batch runs.
//
// [config] - TOML, .env and environment settings.
//
// [observability] - Hook interfaces with a Prometheus implementation.
//
// [errors] - Coded errors that separate bad input from failed infrastructure.
//
// # Testing
//
// Run tests:
//
//	go test ./...                 # All tests
//	go test ./pkg/diagram/...     # Specific package
//	go test -run Example ./pkg/... # Examples only
//
// [model]: https://pkg.go.dev/github.com/matzehuels/interflow/pkg/model
// [diagram]: https://pkg.go.dev/github.com/matzehuels/interflow/pkg/diagram
// [payload]: https://pkg.go.dev/github.com/matzehuels/interflow/pkg/payload
// [preview]: https://pkg.go.dev/github.com/matzehuels/interflow/pkg/preview
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/interflow/pkg/pipeline
// [batch]: https://pkg.go.dev/github.com/matzehuels/interflow/pkg/batch
// [cache]: https://pkg.go.dev/github.com/matzehuels/interflow/pkg/cache
// [storage]: https://pkg.go.dev/github.com/matzehuels/interflow/pkg/storage
// [sheet]: https://pkg.go.dev/github.com/matzehuels/interflow/pkg/sheet
// [config]: https://pkg.go.dev/github.com/matzehuels/interflow/pkg/config
// [observability]: https://pkg.go.dev/github.com/matzehuels/interflow/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/interflow/pkg/errors
package pkg
