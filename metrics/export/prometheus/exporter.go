package prometheus

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	goAuthClient "github.com/MrEthical07/goAuthClient"
	"github.com/MrEthical07/goAuthClient/metrics/export/internaldefs"
)

const contentType = "text/plain; version=0.0.4; charset=utf-8"

// MetricsSource is satisfied by *goAuthClient.Manager.
type MetricsSource interface {
	MetricsSnapshot() goAuthClient.MetricsSnapshot
	EventsDropped() uint64
	IsAuthenticated() bool
}

// PrometheusExporter renders session metrics in Prometheus text exposition format.
type PrometheusExporter struct {
	source MetricsSource
}

// NewPrometheusExporter reads from m on every scrape.
func NewPrometheusExporter(m *goAuthClient.Manager) *PrometheusExporter {
	if m == nil {
		return &PrometheusExporter{}
	}
	return &PrometheusExporter{source: m}
}

// NewPrometheusExporterFromSource reads from a custom [MetricsSource].
func NewPrometheusExporterFromSource(source MetricsSource) *PrometheusExporter {
	return &PrometheusExporter{source: source}
}

// Handler serves the current metrics over HTTP.
func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = p.WriteTo(w)
	})
}

// Render returns the current metrics as a string.
func (p *PrometheusExporter) Render() string {
	var buf bytes.Buffer
	_, _ = p.WriteTo(&buf)
	return buf.String()
}

// WriteTo writes the current metrics to w. Nothing is written while metrics
// are disabled and no event has been dropped.
func (p *PrometheusExporter) WriteTo(w io.Writer) (int64, error) {
	if p == nil || p.source == nil {
		return 0, nil
	}

	snap := p.source.MetricsSnapshot()
	dropped := p.source.EventsDropped()
	if len(snap.Counters) == 0 && len(snap.Histograms) == 0 && dropped == 0 {
		return 0, nil
	}

	cw := &countingWriter{w: bufio.NewWriter(w)}

	for _, fam := range internaldefs.CounterFamilies {
		header(cw, fam.Name, fam.Help, "counter")
		for _, s := range fam.Series {
			sample(cw, fam.Name, labels(s.Labels), strconv.FormatUint(snap.Counters[s.ID], 10))
		}
	}

	if raw, ok := snap.Histograms[internaldefs.Latency.ID]; ok {
		name := internaldefs.Latency.Name
		cum := internaldefs.Cumulative(raw)
		header(cw, name, internaldefs.Latency.Help, "histogram")
		for i, bound := range internaldefs.UpperBounds {
			le := labels([]internaldefs.Label{{Name: "le", Value: internaldefs.BoundLabel(bound)}})
			sample(cw, name+"_bucket", le, strconv.FormatUint(cum[i], 10))
		}
		sample(cw, name+"_sum", "", strconv.FormatFloat(snap.LatencySum.Seconds(), 'g', -1, 64))
		sample(cw, name+"_count", "", strconv.FormatUint(cum[len(cum)-1], 10))
	}

	header(cw, internaldefs.EventsDroppedName, internaldefs.EventsDroppedHelp, "counter")
	sample(cw, internaldefs.EventsDroppedName, "", strconv.FormatUint(dropped, 10))

	authenticated := "0"
	if p.source.IsAuthenticated() {
		authenticated = "1"
	}
	header(cw, internaldefs.AuthenticatedName, internaldefs.AuthenticatedHelp, "gauge")
	sample(cw, internaldefs.AuthenticatedName, "", authenticated)

	if cw.err == nil {
		cw.err = cw.w.Flush()
	}
	return cw.n, cw.err
}

func header(w *countingWriter, name, help, kind string) {
	w.printf("# HELP %s %s\n# TYPE %s %s\n", name, escapeHelp(help), name, kind)
}

func sample(w *countingWriter, name, labelSet, value string) {
	w.printf("%s%s %s\n", name, labelSet, value)
}

func labels(ls []internaldefs.Label) string {
	if len(ls) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteByte('{')
	for i, l := range ls {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(l.Name)
		b.WriteString(`="`)
		b.WriteString(escapeLabel(l.Value))
		b.WriteByte('"')
	}
	b.WriteByte('}')
	return b.String()
}

var (
	helpEscaper  = strings.NewReplacer(`\`, `\\`, "\n", `\n`)
	labelEscaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`, `"`, `\"`)
)

func escapeHelp(s string) string  { return helpEscaper.Replace(s) }
func escapeLabel(s string) string { return labelEscaper.Replace(s) }

// countingWriter keeps the first write error and the byte count.
type countingWriter struct {
	w   *bufio.Writer
	n   int64
	err error
}

func (c *countingWriter) printf(format string, args ...any) {
	if c.err != nil {
		return
	}
	n, err := fmt.Fprintf(c.w, format, args...)
	c.n += int64(n)
	c.err = err
}
