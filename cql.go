package sct

import (
	v1 "github.com/dawmd/scylla-cluster-tests/adapter/cql/v1"
	"github.com/dawmd/scylla-cluster-tests/cluster"
)

// NewCQLRunner builds a runner over a fresh CQLCluster dialing the given
// hosts.
//
// The connection factory authenticates with params.User and
// params.Password and produces connections with params.PageSize as their
// default page size. For finer session control (consistency, timeouts,
// keyspace), build a v1.Factory and cluster.NewCQLCluster directly and
// use NewRunner.
//
// Parameters:
//   - hosts: Contact points
//   - nodes: The cluster's node handles (disruption flags live here)
//   - params: The scan parameters
//   - opts: Optional runner configuration options
//
// Returns:
//   - *Runner: The runner
//   - error: Error if params or the node list are invalid
func NewCQLRunner(hosts []string, nodes []*cluster.Node, params ScanParams, opts ...Option) (*Runner, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	var factoryOpts []v1.FactoryOption
	if params.PageSize > 0 {
		factoryOpts = append(factoryOpts, v1.WithFactoryPageSize(params.PageSize))
	}

	factory := v1.Factory(hosts, params.User, params.Password, factoryOpts...)

	c, err := cluster.NewCQLCluster(factory, nodes)
	if err != nil {
		return nil, err
	}

	return NewRunner(c, params, opts...)
}
