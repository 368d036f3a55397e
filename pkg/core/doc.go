// Package core defines the shared language of the sqlbatch system.
//
// This package contains:
//   - Connection configuration (ConnectionConfig, PoolOptions)
//   - Execution options and result envelopes (Options, Envelope, Message)
//   - Result sets returned by adapters (ResultSet, ColumnDescriptor, Row)
//   - The error taxonomy shared by the pipeline and its callers
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
