// Package observability exposes the delegation core's sole external
// surface of runtime state: a structured event per state transition.
//
// Sinks receive events; implementations log them (zap), count them
// (Prometheus), persist them (persistence stores), or fan out to
// several at once. Sinks must never fail the control loop, so Emit has
// no error return.
package observability
