package simulation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sct "github.com/dawmd/scylla-cluster-tests"
	"github.com/dawmd/scylla-cluster-tests/adapter/cql"
	"github.com/dawmd/scylla-cluster-tests/test/testutil"
	"github.com/dawmd/scylla-cluster-tests/types"
)

func TestSimulationCleanRun(t *testing.T) {
	conn := testutil.NewMockConnection()
	conn.SetRows([]cql.Row{{"id": 1}})

	sim, err := New(conn, Config{
		Params: sct.ScanParams{
			Mode:          types.ModeTable,
			KeyspaceTable: "ks.tbl",
			Duration:      500 * time.Millisecond,
			Interval:      50 * time.Millisecond,
		},
	}, nil)
	require.NoError(t, err)

	report, err := sim.Run(context.Background())
	require.NoError(t, err)

	assert.Positive(t, report.Attempts)
	assert.Equal(t, report.Attempts, report.BySeverity[types.SeverityNormal])
}

func TestSimulationDisruptionWindow(t *testing.T) {
	conn := testutil.NewMockConnection()
	conn.SetRows([]cql.Row{{"id": 1}})

	sim, err := New(conn, Config{
		Params: sct.ScanParams{
			Mode:          types.ModeTable,
			KeyspaceTable: "ks.tbl",
			Duration:      1500 * time.Millisecond,
			Interval:      50 * time.Millisecond,
		},
	}, nil)
	require.NoError(t, err)

	// Failures start only after the disruption flag is up, so every
	// injected failure is attributable to the disruption.
	sim.RegisterScenario(Scenario{
		Name:  "disrupt node and fail all queries",
		After: 400 * time.Millisecond,
		Apply: func(env *Environment) {
			env.Nodes[0].SetDisrupted(true)
			env.Chaos.SetConfig(ChaosConfig{FailRate: 1.0})
		},
	})
	sim.RegisterScenario(Scenario{
		Name:  "heal queries",
		After: 900 * time.Millisecond,
		Apply: func(env *Environment) {
			env.Chaos.Reset()
		},
	})

	report, err := sim.Run(context.Background())
	require.NoError(t, err)

	assert.Positive(t, report.BySeverity[types.SeverityNormal])
	assert.Positive(t, report.BySeverity[types.SeverityWarning])
	assert.Zero(t, report.BySeverity[types.SeverityError],
		"failures under an active disruption must not escalate to ERROR")
}

func TestSimulationTimeoutsIgnoreDisruption(t *testing.T) {
	conn := testutil.NewMockConnection()
	conn.SetRows([]cql.Row{{"id": 1}})

	sim, err := New(conn, Config{
		Params: sct.ScanParams{
			Mode:          types.ModeTable,
			KeyspaceTable: "ks.tbl",
			Duration:      600 * time.Millisecond,
			Interval:      50 * time.Millisecond,
		},
	}, nil)
	require.NoError(t, err)

	sim.RegisterScenario(Scenario{
		Name:  "timeout all queries",
		After: 200 * time.Millisecond,
		Apply: func(env *Environment) {
			env.Nodes[0].SetDisrupted(true)
			env.Chaos.SetConfig(ChaosConfig{TimeoutRate: 1.0})
		},
	})

	report, err := sim.Run(context.Background())
	require.NoError(t, err)

	// Table scan timeouts classify WARNING on their own rule; the
	// disruption flag plays no part.
	assert.Positive(t, report.BySeverity[types.SeverityWarning])
	assert.Zero(t, report.BySeverity[types.SeverityError])
}
