// Package otel binds a Manager's counters to OpenTelemetry observable
// instruments.
//
// Each counter family from internaldefs becomes one Int64ObservableCounter
// whose series differ by attributes (operation, outcome). The latency
// histogram is published as an le-attributed bucket gauge plus _count and
// _sum gauges, since OTel histograms cannot be fed pre-bucketed data. All
// values are read in a single callback per collection.
//
// The exporter never installs a global MeterProvider.
package otel
