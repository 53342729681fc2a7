package metrics

import (
	"context"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// NewRelicContextKey is the context key for the *newrelic.Application
type NewRelicContextKey struct{}

// NewContext returns a context carrying the New Relic application used by
// RecordCount, RecordDuration and RecordEvent.
func NewContext(ctx context.Context, app *newrelic.Application) context.Context {
	if app == nil {
		return ctx
	}
	return context.WithValue(ctx, NewRelicContextKey{}, app)
}

// StartTransaction starts a New Relic transaction that TraceMethodCall
// segments attach to. The returned function ends the transaction.
func StartTransaction(ctx context.Context, name string) (context.Context, func()) {
	nr := application(ctx)
	if nr == nil {
		return ctx, func() {}
	}

	txn := nr.StartTransaction(name)
	return newrelic.NewContext(ctx, txn), txn.End
}
