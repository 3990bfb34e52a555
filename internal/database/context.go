package database

import (
	"context"
	"time"
)

// Timeout classes for ledger access
const (
	// DefaultQueryTimeout bounds archive lookups: flight history, date
	// range pages, daily stats.
	DefaultQueryTimeout = 5 * time.Second

	// DefaultWriteTimeout bounds single-record inserts on the consume
	// path. Generous relative to queries so a slow insert NAKs rather
	// than racing the broker's ack wait.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultBulkTimeout bounds the retention sweep, which may delete
	// a full day of expired records in one statement.
	DefaultBulkTimeout = 30 * time.Second
)

// QueryContext bounds an archive read with DefaultQueryTimeout.
func QueryContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, DefaultQueryTimeout)
}

// WriteContext bounds an archive insert with DefaultWriteTimeout.
func WriteContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, DefaultWriteTimeout)
}

// BulkContext bounds a retention sweep with DefaultBulkTimeout.
func BulkContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, DefaultBulkTimeout)
}
