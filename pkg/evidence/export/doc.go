// Package export writes run records as JSON or CSV, either from a slice or
// streamed from a storage query.
package export
