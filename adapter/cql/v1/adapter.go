// Package v1 provides an adapter for gocql (github.com/gocql/gocql).
package v1

import (
	"context"
	"errors"
	"time"

	"github.com/gocql/gocql"

	"github.com/dawmd/scylla-cluster-tests/adapter/cql"
	"github.com/dawmd/scylla-cluster-tests/types"
)

// DefaultPageSize is the page size used for asynchronous paged queries
// when none is configured.
const DefaultPageSize = 1000

// Connection wraps a gocql session as a cql.Connection.
type Connection struct {
	session  *gocql.Session
	pageSize int
}

// Compile-time assertion that Connection implements cql.Connection.
var _ cql.Connection = (*Connection)(nil)

// Option configures a Connection.
type Option func(*Connection)

// WithPageSize sets the page size for asynchronous paged queries.
//
// Parameters:
//   - n: Rows per page (default: DefaultPageSize)
//
// Returns:
//   - Option: Configuration option
func WithPageSize(n int) Option {
	return func(c *Connection) {
		c.pageSize = n
	}
}

// NewConnection creates a new adapter from a gocql session.
//
// Parameters:
//   - session: A gocql.Session instance
//   - opts: Optional configuration options
//
// Returns:
//   - *Connection: An adapter implementing cql.Connection
func NewConnection(session *gocql.Session, opts ...Option) *Connection {
	c := &Connection{
		session:  session,
		pageSize: DefaultPageSize,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Execute runs stmt synchronously and returns all consumed rows.
//
// Driver timeouts are wrapped in *types.TimedOutError so callers can
// classify via errors.Is(err, types.ErrOperationTimedOut).
func (c *Connection) Execute(ctx context.Context, stmt string, values ...any) ([]cql.Row, error) {
	start := time.Now()
	iter := c.session.Query(stmt, values...).WithContext(ctx).Iter()

	var rows []cql.Row
	for {
		row := make(cql.Row)
		if !iter.MapScan(row) {
			break
		}
		rows = append(rows, row)
	}

	if err := iter.Close(); err != nil {
		return nil, wrapQueryError("execute", time.Since(start), err)
	}

	return rows, nil
}

// ExecuteAsync runs stmt with manual paging and returns a Future.
//
// The query starts when AddCallbacks is invoked. Each page is fetched
// with the per-query page size, falling back to the connection's
// configured size; the consumer drives the drain through
// Page.FetchNextPage.
func (c *Connection) ExecuteAsync(ctx context.Context, stmt string, pageSize int, values ...any) cql.Future {
	if pageSize <= 0 {
		pageSize = c.pageSize
	}

	return &future{
		conn:     c,
		ctx:      ctx,
		stmt:     stmt,
		values:   values,
		pageSize: pageSize,
		next:     make(chan struct{}, 1),
	}
}

// Close closes the underlying gocql session. Safe to call more than once.
func (c *Connection) Close() error {
	c.session.Close()
	return nil
}

// future implements cql.Future on top of gocql's page-state paging.
type future struct {
	conn     *Connection
	ctx      context.Context
	stmt     string
	values   []any
	pageSize int
	next     chan struct{}
}

// AddCallbacks starts the paged query on a background goroutine.
func (f *future) AddCallbacks(onPage func(cql.Page), onErr func(error)) {
	go f.run(onPage, onErr)
}

func (f *future) run(onPage func(cql.Page), onErr func(error)) {
	var state []byte
	start := time.Now()

	for {
		rows, nextState, err := f.fetchPage(state)
		if err != nil {
			onErr(wrapQueryError("page fetch", time.Since(start), err))
			return
		}

		more := len(nextState) > 0
		onPage(&page{rows: rows, more: more, next: f.next})

		if !more {
			return
		}

		// Wait for the consumer to request the next page.
		select {
		case <-f.next:
			state = nextState
		case <-f.ctx.Done():
			onErr(wrapQueryError("page fetch", time.Since(start), f.ctx.Err()))
			return
		}
	}
}

// fetchPage reads exactly one page of results.
func (f *future) fetchPage(state []byte) ([]cql.Row, []byte, error) {
	q := f.conn.session.Query(f.stmt, f.values...).
		WithContext(f.ctx).
		PageSize(f.pageSize).
		PageState(state)

	iter := q.Iter()
	nextState := iter.PageState()

	rows := make([]cql.Row, 0, iter.NumRows())
	for range iter.NumRows() {
		row := make(cql.Row)
		if !iter.MapScan(row) {
			break
		}
		rows = append(rows, row)
	}

	if err := iter.Close(); err != nil {
		return nil, nil, err
	}

	return rows, nextState, nil
}

// page implements cql.Page.
type page struct {
	rows []cql.Row
	more bool
	next chan struct{}
}

func (p *page) Rows() []cql.Row {
	return p.rows
}

func (p *page) HasMorePages() bool {
	return p.more
}

func (p *page) FetchNextPage() {
	select {
	case p.next <- struct{}{}:
	default:
	}
}

// wrapQueryError maps driver timeouts to *types.TimedOutError and passes
// everything else through unchanged.
func wrapQueryError(op string, elapsed time.Duration, err error) error {
	if isTimeout(err) {
		return &types.TimedOutError{Op: op, Elapsed: elapsed, Cause: err}
	}

	return err
}

// isTimeout reports whether err is a driver- or context-level timeout.
func isTimeout(err error) bool {
	var readTimeout *gocql.RequestErrReadTimeout
	var writeTimeout *gocql.RequestErrWriteTimeout

	return errors.Is(err, gocql.ErrTimeoutNoResponse) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.As(err, &readTimeout) ||
		errors.As(err, &writeTimeout)
}
