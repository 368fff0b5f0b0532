/*
Package observability provides Prometheus collectors and OpenTelemetry tracing for the bridge.

A nil *Metrics is valid and records nothing, so components can take it as an optional
dependency without guarding every call.
*/
package observability
