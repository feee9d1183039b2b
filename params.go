package sct

import (
	"fmt"
	"time"

	"github.com/dawmd/scylla-cluster-tests/types"
)

// RandomTable requests a random non-system table to be picked per attempt.
const RandomTable = "random"

// ScanParams is the immutable configuration bundle for one scan runner.
//
// A ScanParams value is owned by exactly one Runner and never mutated
// after NewRunner.
type ScanParams struct {
	// Mode selects the scan shape: table, partition, or aggregate.
	Mode types.Mode

	// KeyspaceTable is the "keyspace.table" target, or RandomTable to
	// pick a random non-system table per attempt.
	KeyspaceTable string

	// User and Password are the credentials the cluster's connection
	// factory authenticates with when the cluster is built from these
	// parameters (see NewCQLRunner and adapter/cql/v1.Factory).
	User     string
	Password string

	// Duration bounds the total run time of the Run loop. Zero means
	// unbounded (run until Stop or context cancellation).
	Duration time.Duration

	// Interval is the pause between consecutive scan attempts.
	Interval time.Duration

	// ValidateData enables row content validation while draining scans.
	ValidateData bool

	// AggregateTimeout is the server-side timeout bound for aggregate
	// queries. Zero means "expect fast completion": an aggregate
	// timeout is then classified as unexpected (ERROR).
	AggregateTimeout time.Duration

	// PageSize is the page size hint for partition-mode scans.
	// Zero uses the adapter default.
	PageSize int
}

// Validate checks the parameters for structural problems.
func (p ScanParams) Validate() error {
	if !p.Mode.Valid() {
		return fmt.Errorf("sct: invalid scan mode %q", p.Mode)
	}
	if p.KeyspaceTable == "" {
		return fmt.Errorf("sct: keyspace table cannot be empty")
	}
	if p.AggregateTimeout < 0 {
		return fmt.Errorf("sct: aggregate timeout cannot be negative")
	}
	if p.PageSize < 0 {
		return fmt.Errorf("sct: page size cannot be negative")
	}

	return nil
}
