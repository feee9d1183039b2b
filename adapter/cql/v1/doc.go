// Package v1 adapts github.com/gocql/gocql to the cql.Connection
// interface used by the scan runner.
//
// The adapter maps gocql's timeout errors (ErrTimeoutNoResponse,
// RequestErrReadTimeout, RequestErrWriteTimeout) and context deadline
// expiry to types.ErrOperationTimedOut, and implements callback-driven
// paging on top of gocql's page-state mechanism.
package v1
