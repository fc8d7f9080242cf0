// Package model defines the interface records consumed by the diagram
// builder and the grouping step that produces them from flat rows.
//
// # Records
//
// An [InterfaceRecord] describes one interface (one code_id): its
// [Direction] and the ordered list of applications it passes through. Each
// [AppEntry] belongs to exactly one [AppType] category and may carry a
// [Connection] to the peer application on the same interface.
//
// # Rows
//
// Inputs arrive as flat JSON rows, one per application hop:
//
//	[
//	  {"code_id": "1", "direction": "Outbound", "app_type": "source_app",
//	   "app_name": "SAP", "format": "IDoc"},
//	  {"code_id": "1", "direction": "Outbound", "app_type": "middleware",
//	   "app_name": "MW1", "format": "XML", "connection_app": "SAP"}
//	]
//
// [DecodeRows] parses and validates them, [Group] merges rows sharing a
// code_id into records. Structural problems are reported as coded errors
// from [github.com/matzehuels/interflow/pkg/errors].
package model
