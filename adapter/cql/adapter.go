// Package cql provides driver-agnostic connection interfaces for scan queries.
package cql

import "context"

// Row is a single result row as column name → value pairs.
type Row map[string]any

// Connection is the low-level query capability used by the scan runner.
//
// Implementations wrap a concrete driver session (see adapter/cql/v1 for
// gocql). Test doubles implement this interface directly with canned
// success, timeout, and failure behaviors.
//
// Driver-reported timeouts must surface as errors matching
// types.ErrOperationTimedOut via errors.Is, so the runner can classify
// outcomes without importing the driver.
type Connection interface {
	// Execute runs stmt synchronously and returns all consumed rows.
	//
	// Parameters:
	//   - ctx: Context for the query lifetime
	//   - stmt: CQL statement with ? placeholders
	//   - values: Values to bind to placeholders
	//
	// Returns:
	//   - []Row: The consumed result rows
	//   - error: nil on success; a timeout-class error matches
	//     types.ErrOperationTimedOut
	Execute(ctx context.Context, stmt string, values ...any) ([]Row, error)

	// ExecuteAsync runs stmt with paging and returns a Future.
	//
	// The query does not start until AddCallbacks is invoked on the
	// returned Future. Cancelling ctx releases a drain parked between
	// pages.
	//
	// Parameters:
	//   - ctx: Context for the query lifetime
	//   - stmt: CQL statement with ? placeholders
	//   - pageSize: Rows per page; <= 0 uses the connection's default
	//   - values: Values to bind to placeholders
	//
	// Returns:
	//   - Future: Handle delivering pages via callbacks
	ExecuteAsync(ctx context.Context, stmt string, pageSize int, values ...any) Future

	// Close releases the underlying session. Close is idempotent.
	Close() error
}

// Future is an asynchronous paged query in flight.
type Future interface {
	// AddCallbacks registers the page and error callbacks and starts
	// the query.
	//
	// onPage is invoked once per fetched page. When the delivered page
	// reports HasMorePages, the consumer requests the next page with
	// Page.FetchNextPage, which triggers another onPage invocation.
	// Any error on the query or paging path is delivered to onErr
	// exactly once, after which no further callbacks fire.
	//
	// Parameters:
	//   - onPage: Called with each fetched page
	//   - onErr: Called once on failure
	AddCallbacks(onPage func(Page), onErr func(error))
}

// Page is a single page of an asynchronous paged query.
type Page interface {
	// Rows returns the rows in this page.
	Rows() []Row

	// HasMorePages reports whether more pages remain after this one.
	HasMorePages() bool

	// FetchNextPage requests delivery of the next page via the
	// Future's onPage callback. Only valid when HasMorePages is true.
	FetchNextPage()
}
