package internaldefs

import (
	"math"
	"strconv"

	goAuthClient "github.com/MrEthical07/goAuthClient"
)

// Label is one name="value" pair on a series.
type Label struct {
	Name  string
	Value string
}

// Series binds one in-process counter to a labelled sample of a family.
type Series struct {
	ID     goAuthClient.MetricID
	Labels []Label
}

// Family is one exported counter name and the series published under it.
type Family struct {
	Name   string
	Help   string
	Series []Series
}

func attempt(op, outcome string) []Label {
	return []Label{{Name: "operation", Value: op}, {Name: "outcome", Value: outcome}}
}

func outcome(v string) []Label {
	return []Label{{Name: "outcome", Value: v}}
}

// CounterFamilies lists every exported counter in export order. Each
// MetricID except MetricRequestLatency appears exactly once.
var CounterFamilies = []Family{
	{
		Name: "goauthclient_auth_attempts_total",
		Help: "Login and register attempts by operation and outcome.",
		Series: []Series{
			{ID: goAuthClient.MetricLoginSuccess, Labels: attempt("login", "success")},
			{ID: goAuthClient.MetricLoginFailure, Labels: attempt("login", "failure")},
			{ID: goAuthClient.MetricRegisterSuccess, Labels: attempt("register", "success")},
			{ID: goAuthClient.MetricRegisterFailure, Labels: attempt("register", "failure")},
		},
	},
	{
		Name: "goauthclient_restores_total",
		Help: "Startup restores by outcome. Expired and unreadable storage count as miss.",
		Series: []Series{
			{ID: goAuthClient.MetricSessionRestored, Labels: outcome("hit")},
			{ID: goAuthClient.MetricRestoreMiss, Labels: outcome("miss")},
			{ID: goAuthClient.MetricRestoreCorrupt, Labels: outcome("corrupt")},
		},
	},
	{
		Name:   "goauthclient_logouts_total",
		Help:   "Logout operations.",
		Series: []Series{{ID: goAuthClient.MetricLogout}},
	},
	{
		Name:   "goauthclient_sessions_invalidated_total",
		Help:   "Sessions cleared after the service answered 401.",
		Series: []Series{{ID: goAuthClient.MetricSessionInvalidated}},
	},
	{
		Name:   "goauthclient_storage_warnings_total",
		Help:   "Credential store operations that failed and were absorbed.",
		Series: []Series{{ID: goAuthClient.MetricStorageWarning}},
	},
	{
		Name:   "goauthclient_transport_failures_total",
		Help:   "Requests that could not reach the service or decode its answer.",
		Series: []Series{{ID: goAuthClient.MetricTransportFailure}},
	},
}

// Latency describes the request duration histogram.
var Latency = struct {
	ID   goAuthClient.MetricID
	Name string
	Help string
}{
	ID:   goAuthClient.MetricRequestLatency,
	Name: "goauthclient_request_duration_seconds",
	Help: "Auth service round-trip duration.",
}

// Extra series that are not backed by a MetricID.
const (
	EventsDroppedName = "goauthclient_events_dropped_total"
	EventsDroppedHelp = "Session events lost to a full dispatcher queue."

	AuthenticatedName = "goauthclient_session_authenticated"
	AuthenticatedHelp = "1 while a token and user are held, else 0."
)

// UpperBounds are the latency bucket bounds in seconds; the last is +Inf.
var UpperBounds = [goAuthClient.HistBucketCount]float64{
	0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, math.Inf(1),
}

// BoundLabel formats an upper bound as a Prometheus "le" value.
func BoundLabel(bound float64) string {
	if math.IsInf(bound, 1) {
		return "+Inf"
	}
	return strconv.FormatFloat(bound, 'g', -1, 64)
}

// Cumulative turns raw per-bucket counts into running totals. Short input is
// zero-filled.
func Cumulative(raw []uint64) [goAuthClient.HistBucketCount]uint64 {
	var out [goAuthClient.HistBucketCount]uint64
	var running uint64
	for i := range out {
		if i < len(raw) {
			running += raw[i]
		}
		out[i] = running
	}
	return out
}
