package statemachine

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "statemachine"

// startInvokeSpan creates the span covering one action dispatch.
// Uses the global tracer initialized by the telemetry package.
// The caller is responsible for calling span.End().
//
//nolint:spancheck // Span lifecycle managed by caller (factory pattern)
func startInvokeSpan(ctx context.Context, m *Machine, state, action string) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "statemachine.invoke")
	addMachineAttributes(span, m)
	span.SetAttributes(
		attribute.String("state", state),
		attribute.String("action", action),
	)

	return ctx, span
}

// startTransitionSpan creates the span covering SetState until the
// completion signal resolves.
// The caller is responsible for calling span.End().
//
//nolint:spancheck // Span lifecycle managed by caller (factory pattern)
func startTransitionSpan(ctx context.Context, m *Machine, from, to string) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "statemachine.transition")
	addMachineAttributes(span, m)
	span.SetAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	)

	return ctx, span
}

func addMachineAttributes(span trace.Span, m *Machine) {
	span.SetAttributes(
		attribute.String("machine", m.name),
		attribute.String("machine_id", m.id.String()),
	)
}
