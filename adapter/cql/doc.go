// Package cql defines the connection abstraction between the scan runner
// and a CQL driver.
//
// The runner only needs two query shapes: a blocking Execute that returns
// consumed rows, and a paged ExecuteAsync driven by success/error callbacks
// mirroring the DataStax-style driver future API. Keeping the interfaces
// this narrow lets tests substitute connection doubles with canned timeout
// and failure behaviors, and keeps driver specifics (including timeout
// error mapping) inside the adapter subpackages.
package cql
