// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldService = "service"
	FieldVersion = "version"
	FieldRunID   = "run_id"
	FieldTraceID = "trace_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Check fields
	FieldProvider = "provider"
	FieldURL      = "url"
	FieldName     = "name"
	FieldIndex    = "index"
	FieldBatch    = "batch"
	FieldBatches  = "batches"
	FieldStatus   = "status"
	FieldHTTPCode = "http_status"

	// Path fields
	FieldPath = "path"
)
