// Package internaldefs maps the Manager's counters onto exported metric
// families, and holds the latency bucket bounds, so the Prometheus and OTel
// exporters publish the same series with the same labels.
package internaldefs
