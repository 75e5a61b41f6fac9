// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys used on run, batch and check spans.
const (
	RunIDKey      = "statuscheck.run_id"
	RunEntriesKey = "statuscheck.entries"
	RunOnlineKey  = "statuscheck.online"
	RunOfflineKey = "statuscheck.offline"

	BatchIndexKey = "statuscheck.batch.index"
	BatchSizeKey  = "statuscheck.batch.size"

	CheckIndexKey    = "statuscheck.check.index"
	CheckProviderKey = "statuscheck.check.provider"
	CheckHostKey     = "statuscheck.check.host"
	CheckStatusKey   = "statuscheck.check.status"

	HTTPStatusCodeKey = "http.status_code"

	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// RunAttributes describes a whole run.
func RunAttributes(runID string, entries int) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 2)
	if runID != "" {
		attrs = append(attrs, attribute.String(RunIDKey, runID))
	}
	return append(attrs, attribute.Int(RunEntriesKey, entries))
}

// SummaryAttributes records the final counts of a run.
func SummaryAttributes(online, offline int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(RunOnlineKey, online),
		attribute.Int(RunOfflineKey, offline),
	}
}

// BatchAttributes describes one batch. index is 1-based.
func BatchAttributes(index, size int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(BatchIndexKey, index),
		attribute.Int(BatchSizeKey, size),
	}
}

// CheckAttributes describes one entry check. Empty host is omitted.
func CheckAttributes(index int, provider, host string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.Int(CheckIndexKey, index),
		attribute.String(CheckProviderKey, provider),
	}
	if host != "" {
		attrs = append(attrs, attribute.String(CheckHostKey, host))
	}
	return attrs
}

// ResultAttributes records the outcome of a check. A zero code is omitted.
func ResultAttributes(status string, httpStatus int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String(CheckStatusKey, status)}
	if httpStatus > 0 {
		attrs = append(attrs, attribute.Int(HTTPStatusCodeKey, httpStatus))
	}
	return attrs
}

// ErrorAttributes marks a span as failed with a classified error type.
// The error message itself is not recorded.
func ErrorAttributes(_ error, errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
