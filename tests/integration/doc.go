// Package integration verifies the record stores, hot cache and HTTP surface against real
// PostgreSQL, MongoDB and Redis instances started with testcontainers.
//
// Run with: go test -tags=integration ./tests/integration/...
package integration
