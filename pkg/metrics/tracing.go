package metrics

import (
	"context"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// MethodTracer times a method call as a segment of the New Relic transaction
// carried by the context. A nil *MethodTracer is valid and records nothing,
// so callers never need to check whether tracing is enabled.
type MethodTracer struct {
	txn *newrelic.Transaction
	seg *newrelic.Segment
}

// TraceMethodCall starts a segment named after the struct or package and the
// method. Without a transaction in ctx it returns nil.
func TraceMethodCall(ctx context.Context, structOrPackageName, methodName string) *MethodTracer {
	txn := newrelic.FromContext(ctx)
	if txn == nil {
		return nil
	}

	return &MethodTracer{
		txn: txn,
		seg: txn.StartSegment(structOrPackageName + " " + methodName),
	}
}

// AddAttributes attaches key-value metadata to the segment
func (t *MethodTracer) AddAttributes(attributes map[string]interface{}) {
	if t == nil {
		return
	}

	for key, value := range attributes {
		t.seg.AddAttribute(key, value)
	}
}

// OnError notices err on the transaction. A nil err is ignored.
func (t *MethodTracer) OnError(err error) {
	if t == nil || err == nil {
		return
	}

	t.txn.NoticeError(err)
}

// End completes the segment
func (t *MethodTracer) End() {
	if t == nil {
		return
	}

	t.seg.End()
}
