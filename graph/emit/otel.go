package emit

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTelEmitter turns each event into an OpenTelemetry span.
//
// Span name is the event message; runID, step, nodeID, and all Meta fields
// become attributes. If the event carries an "error" meta field the span
// status is set to Error. A "duration_ms" meta field backdates the span start
// so span duration reflects the actual node execution time.
//
// Wire it up with a tracer from your configured provider:
//
//	tracer := otel.Tracer("draftloop")
//	emitter := emit.NewOTelEmitter(tracer)
type OTelEmitter struct {
	tracer trace.Tracer
}

// NewOTelEmitter creates an emitter producing a span per event.
func NewOTelEmitter(tracer trace.Tracer) *OTelEmitter {
	return &OTelEmitter{tracer: tracer}
}

// Emit creates and immediately ends a span for the event.
func (o *OTelEmitter) Emit(event Event) {
	opts := []trace.SpanStartOption{}
	if ms, ok := durationMS(event.Meta); ok {
		opts = append(opts, trace.WithTimestamp(time.Now().Add(-time.Duration(ms)*time.Millisecond)))
	}

	_, span := o.tracer.Start(context.Background(), event.Msg, opts...)
	defer span.End()

	span.SetAttributes(
		attribute.String("workflow.run_id", event.RunID),
		attribute.Int("workflow.step", event.Step),
		attribute.String("workflow.node_id", event.NodeID),
	)
	for key, value := range event.Meta {
		span.SetAttributes(metaAttribute("workflow.meta."+key, value))
	}

	if errVal, ok := event.Meta["error"]; ok {
		span.SetStatus(codes.Error, fmt.Sprintf("%v", errVal))
	}
}

// metaAttribute converts an arbitrary meta value to a typed span attribute.
func metaAttribute(key string, value interface{}) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case bool:
		return attribute.Bool(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}

func durationMS(meta map[string]interface{}) (int64, bool) {
	raw, ok := meta["duration_ms"]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	}
	return 0, false
}
