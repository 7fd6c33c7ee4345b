// Package prometheus renders a Manager's counters in Prometheus text
// exposition format.
//
// [NewPrometheusExporter] accepts a [goAuthClient.Manager] and exposes an
// [http.Handler]. Login and register attempts share
// goauthclient_auth_attempts_total, split by operation and outcome labels;
// restores are goauthclient_restores_total{outcome}. Request latency is the
// goauthclient_request_duration_seconds histogram, present only when latency
// histograms are enabled.
//
// Nothing is registered globally; callers mount the Handler where they like.
package prometheus
