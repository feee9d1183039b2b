package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/dawmd/scylla-cluster-tests/adapter/cql"
	"github.com/dawmd/scylla-cluster-tests/cluster"
)

// MockConnection is a configurable cql.Connection double.
//
// Behavior is canned per connection: SetRows controls what Execute
// returns, SetPages controls what ExecuteAsync delivers, and SetError
// makes both paths fail. Statements records everything executed.
type MockConnection struct {
	mu         sync.Mutex
	rows       []cql.Row
	pages      [][]cql.Row
	err        error
	rules      []stmtRule
	statements []string
	pageSizes  []int
	closed     bool
}

// stmtRule is a per-statement response, matched by prefix in
// registration order before the connection-wide defaults apply.
type stmtRule struct {
	prefix string
	rows   []cql.Row
	err    error
}

// Compile-time assertion that MockConnection implements cql.Connection.
var _ cql.Connection = (*MockConnection)(nil)

// NewMockConnection creates a mock connection that succeeds with no rows.
func NewMockConnection() *MockConnection {
	return &MockConnection{}
}

// SetRows sets the rows Execute returns.
func (m *MockConnection) SetRows(rows []cql.Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = rows
}

// SetPages sets the pages ExecuteAsync delivers, one onPage call each.
func (m *MockConnection) SetPages(pages [][]cql.Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages = pages
}

// SetRowsFor sets the rows Execute returns for statements starting with
// prefix. Rules are matched in registration order before the
// connection-wide defaults.
func (m *MockConnection) SetRowsFor(prefix string, rows []cql.Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, stmtRule{prefix: prefix, rows: rows})
}

// SetErrorFor makes Execute fail for statements starting with prefix.
func (m *MockConnection) SetErrorFor(prefix string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, stmtRule{prefix: prefix, err: err})
}

// SetError makes Execute and ExecuteAsync fail with err.
func (m *MockConnection) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Statements returns a copy of all executed statements, in order.
func (m *MockConnection) Statements() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, len(m.statements))
	copy(out, m.statements)

	return out
}

// PageSizes returns the page size hints passed to ExecuteAsync, in order.
func (m *MockConnection) PageSizes() []int {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]int, len(m.pageSizes))
	copy(out, m.pageSizes)

	return out
}

// Closed reports whether Close has been called.
func (m *MockConnection) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.closed
}

// Execute records stmt and returns the canned rows or error.
func (m *MockConnection) Execute(_ context.Context, stmt string, _ ...any) ([]cql.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.statements = append(m.statements, stmt)

	for _, rule := range m.rules {
		if strings.HasPrefix(stmt, rule.prefix) {
			return rule.rows, rule.err
		}
	}
	if m.err != nil {
		return nil, m.err
	}

	return m.rows, nil
}

// ExecuteAsync records stmt and the page size hint, and returns a
// future delivering the canned pages or error.
func (m *MockConnection) ExecuteAsync(ctx context.Context, stmt string, pageSize int, _ ...any) cql.Future {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.statements = append(m.statements, stmt)
	m.pageSizes = append(m.pageSizes, pageSize)

	return &mockFuture{
		conn: m,
		ctx:  ctx,
		next: make(chan struct{}, 1),
	}
}

// Close marks the connection closed.
func (m *MockConnection) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true

	return nil
}

// mockFuture delivers the connection's canned pages through callbacks.
type mockFuture struct {
	conn *MockConnection
	ctx  context.Context
	next chan struct{}
}

func (f *mockFuture) AddCallbacks(onPage func(cql.Page), onErr func(error)) {
	go f.run(onPage, onErr)
}

func (f *mockFuture) run(onPage func(cql.Page), onErr func(error)) {
	f.conn.mu.Lock()
	err := f.conn.err
	pages := f.conn.pages
	f.conn.mu.Unlock()

	if err != nil {
		onErr(err)
		return
	}

	// An unconfigured mock still delivers one empty page so the drain
	// completes.
	if len(pages) == 0 {
		pages = [][]cql.Row{nil}
	}

	for i, rows := range pages {
		more := i < len(pages)-1
		onPage(&mockPage{rows: rows, more: more, next: f.next})

		if !more {
			return
		}

		// Wait for the consumer; an abandoned drain is released by
		// context cancellation, like the real adapter.
		select {
		case <-f.next:
		case <-f.ctx.Done():
			onErr(f.ctx.Err())
			return
		}
	}
}

// mockPage implements cql.Page over a canned row slice.
type mockPage struct {
	rows []cql.Row
	more bool
	next chan struct{}
}

func (p *mockPage) Rows() []cql.Row {
	return p.rows
}

func (p *mockPage) HasMorePages() bool {
	return p.more
}

func (p *mockPage) FetchNextPage() {
	select {
	case p.next <- struct{}{}:
	default:
	}
}

// MockCluster is a cluster.Cluster double with canned responses.
type MockCluster struct {
	// Conn is returned by Connection when ConnErr is nil.
	Conn cql.Connection

	// ConnErr, when set, makes Connection fail.
	ConnErr error

	// TableList is returned by Tables when TablesErr is nil.
	TableList []string

	// TablesErr, when set, makes Tables fail.
	TablesErr error

	// NodeList is returned by Nodes.
	NodeList []*cluster.Node
}

// Compile-time assertion that MockCluster implements cluster.Cluster.
var _ cluster.Cluster = (*MockCluster)(nil)

func (c *MockCluster) Connection(_ context.Context) (cql.Connection, error) {
	if c.ConnErr != nil {
		return nil, c.ConnErr
	}

	return c.Conn, nil
}

func (c *MockCluster) Tables(_ context.Context) ([]string, error) {
	if c.TablesErr != nil {
		return nil, c.TablesErr
	}

	return c.TableList, nil
}

func (c *MockCluster) Nodes() []*cluster.Node {
	return c.NodeList
}

// MockKeyProvider is a cluster.PartitionKeyProvider double.
type MockKeyProvider struct {
	// Keys is returned by PartitionKeys when Err is nil.
	Keys cluster.PartitionKeys

	// Err, when set, makes PartitionKeys fail.
	Err error
}

// Compile-time assertion that MockKeyProvider implements
// cluster.PartitionKeyProvider.
var _ cluster.PartitionKeyProvider = (*MockKeyProvider)(nil)

func (p *MockKeyProvider) PartitionKeys(_ context.Context, _ string) (cluster.PartitionKeys, error) {
	if p.Err != nil {
		return cluster.PartitionKeys{}, p.Err
	}

	return p.Keys, nil
}
