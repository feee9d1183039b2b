// Package simulation provides a fault-injection harness for the scan
// runner: it drives a scan loop against a chaos-wrapped connection while
// scheduled scenarios flip faults and node disruption flags, then checks
// the emitted event stream for structural invariants.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	sct "github.com/dawmd/scylla-cluster-tests"
	"github.com/dawmd/scylla-cluster-tests/adapter/cql"
	"github.com/dawmd/scylla-cluster-tests/cluster"
	"github.com/dawmd/scylla-cluster-tests/events"
	"github.com/dawmd/scylla-cluster-tests/internal/logging"
	"github.com/dawmd/scylla-cluster-tests/types"
)

// Config holds simulation configuration.
type Config struct {
	// Params are the scan parameters for the runner under test.
	// Params.Duration must be positive; it bounds the simulation.
	Params sct.ScanParams

	// NodeNames are the simulated node names. Defaults to one node.
	NodeNames []string
}

// Environment is handed to scenarios to mutate mid-run.
type Environment struct {
	// Chaos is the fault-injection wrapper all scans go through.
	Chaos *ChaosConnection

	// Nodes are the simulated nodes; scenarios flip their disruption flags.
	Nodes []*cluster.Node
}

// Scenario is a scheduled mutation of the simulation environment.
type Scenario struct {
	// Name identifies the scenario in logs.
	Name string

	// After is when the scenario fires, relative to simulation start.
	After time.Duration

	// Apply mutates the environment (set chaos config, disrupt a node).
	Apply func(env *Environment)
}

// Report summarizes a completed simulation.
type Report struct {
	// Attempts is the number of begin/end pairs observed.
	Attempts int

	// BySeverity counts end events per severity.
	BySeverity map[types.Severity]int

	// Records is the full ordered event stream.
	Records []events.Event
}

// Simulation orchestrates the scan loop and the scenario timeline.
type Simulation struct {
	config    Config
	logger    types.Logger
	env       *Environment
	runner    *sct.Runner
	scenarios []Scenario
}

// New creates a simulation over the given real connection.
//
// The connection is wrapped in a ChaosConnection and shared across all
// scan attempts; runner options (key providers, metrics) pass through.
func New(conn cql.Connection, cfg Config, logger types.Logger, opts ...sct.Option) (*Simulation, error) {
	if cfg.Params.Duration <= 0 {
		return nil, fmt.Errorf("simulation: params duration must be positive")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	chaosConn := NewChaosConnection(conn)

	names := cfg.NodeNames
	if len(names) == 0 {
		names = []string{"sim-node-1"}
	}
	nodes := make([]*cluster.Node, 0, len(names))
	for _, name := range names {
		nodes = append(nodes, cluster.NewNode(name))
	}

	runner, err := sct.NewRunner(
		&simCluster{conn: chaosConn, nodes: nodes},
		cfg.Params,
		append([]sct.Option{sct.WithLogger(logger)}, opts...)...,
	)
	if err != nil {
		return nil, err
	}

	return &Simulation{
		config: cfg,
		logger: logger,
		env:    &Environment{Chaos: chaosConn, Nodes: nodes},
		runner: runner,
	}, nil
}

// RegisterScenario adds a scenario to the simulation timeline.
func (s *Simulation) RegisterScenario(scenario Scenario) {
	s.scenarios = append(s.scenarios, scenario)
}

// Run executes the scan loop for the configured duration while firing
// scenarios on schedule, then verifies and summarizes the event stream.
func (s *Simulation) Run(ctx context.Context) (*Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for _, scenario := range s.scenarios {
		wg.Add(1)
		go func(sc Scenario) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				return
			case <-time.After(sc.After):
			}

			s.logger.Info("applying scenario", "name", sc.Name, "after", sc.After)
			sc.Apply(s.env)
		}(scenario)
	}

	err := s.runner.Run(ctx)

	cancel()
	wg.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		return nil, err
	}

	return s.verify()
}

// verify checks the event stream invariants and builds the report:
// events come in begin/end pairs, every begin is NORMAL, and each pair
// shares an operation ID.
func (s *Simulation) verify() (*Report, error) {
	records, err := s.runner.Emitter().Sink().Records(context.Background())
	if err != nil {
		return nil, fmt.Errorf("simulation: read event records: %w", err)
	}

	if len(records)%2 != 0 {
		return nil, fmt.Errorf("simulation: odd event count %d, begin without end", len(records))
	}

	report := &Report{
		Attempts:   len(records) / 2,
		BySeverity: make(map[types.Severity]int),
		Records:    records,
	}

	for i := 0; i < len(records); i += 2 {
		begin, end := records[i], records[i+1]

		if begin.Period != events.PeriodBegin || end.Period != events.PeriodEnd {
			return nil, fmt.Errorf("simulation: pair %d out of order", i/2)
		}
		if begin.ID != end.ID {
			return nil, fmt.Errorf("simulation: pair %d has mismatched operation IDs", i/2)
		}
		if begin.Severity != types.SeverityNormal {
			return nil, fmt.Errorf("simulation: pair %d begin severity %s, want NORMAL", i/2, begin.Severity)
		}

		report.BySeverity[end.Severity]++
	}

	s.logger.Info("simulation verified",
		"attempts", report.Attempts,
		"by_severity", report.BySeverity,
	)

	return report, nil
}

// simCluster serves the shared chaos connection to every scan attempt.
type simCluster struct {
	conn  *ChaosConnection
	nodes []*cluster.Node
}

var _ cluster.Cluster = (*simCluster)(nil)

func (c *simCluster) Connection(_ context.Context) (cql.Connection, error) {
	// The runner closes connections per attempt; the shared chaos
	// connection must survive, so hand out a non-owning view.
	return nopCloser{c.conn}, nil
}

func (c *simCluster) Tables(ctx context.Context) ([]string, error) {
	rows, err := c.conn.Execute(ctx, "SELECT keyspace_name, table_name FROM system_schema.tables")
	if err != nil {
		return nil, err
	}

	var tables []string
	for _, row := range rows {
		ks, _ := row["keyspace_name"].(string)
		table, _ := row["table_name"].(string)
		if ks != "" && table != "" {
			tables = append(tables, ks+"."+table)
		}
	}

	return tables, nil
}

func (c *simCluster) Nodes() []*cluster.Node {
	return c.nodes
}

// nopCloser shields a shared connection from per-attempt Close calls.
type nopCloser struct {
	cql.Connection
}

func (nopCloser) Close() error {
	return nil
}
