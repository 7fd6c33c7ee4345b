package goAuthClient

import (
	"context"
	"testing"
	"time"

	"github.com/MrEthical07/goAuthClient/authtest"
	"github.com/MrEthical07/goAuthClient/store"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestEventsEmittedForLifecycle(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-7")
	svc, url := authtest.Start(t)
	_, _ = svc.SeedUser("Ann", "ann@example.com", "pw-123456")

	sink := NewChannelSink(16)
	m := newTestManager(t, url, store.NewMemory(), func(b *Builder) { b.WithEventSink(sink) })

	m.Restore(ctx)
	_, _ = m.Login(ctx, "ann@example.com", "pw-123456")
	m.Logout(ctx)

	want := []string{EventSessionRestored, EventSessionLogin, EventSessionLogout}
	for i, name := range want {
		select {
		case ev := <-sink.Events():
			if ev.EventType != name {
				t.Fatalf("event %d: got %q want %q", i, ev.EventType, name)
			}
			if ev.RequestID != "req-7" {
				t.Fatalf("event %d: request id %q", i, ev.RequestID)
			}
			if name == EventSessionLogin && (!ev.Success || ev.UserID == "") {
				t.Fatalf("login event incomplete: %+v", ev)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %s", name)
		}
	}
}

func TestStorageWarningEvent(t *testing.T) {
	st := &flakyStore{}
	st.failGet.Store(true)
	sink := NewChannelSink(16)
	m := newTestManager(t, "http://127.0.0.1:1", st, func(b *Builder) { b.WithEventSink(sink) })

	m.Restore(context.Background())

	select {
	case ev := <-sink.Events():
		if ev.EventType != EventStorageWarning || ev.Success || ev.Metadata["op"] != "restore" {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for storage warning")
	}
}

func TestSpansRecorded(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	svc, url := authtest.Start(t)
	_, _ = svc.SeedUser("Ann", "ann@example.com", "pw-123456")
	m := newTestManager(t, url, store.NewMemory(), func(b *Builder) { b.WithTracerProvider(tp) })

	ctx := context.Background()
	m.Restore(ctx)
	_, _ = m.Login(ctx, "ann@example.com", "bad")
	_, _ = m.Login(ctx, "ann@example.com", "pw-123456")
	_, _ = m.Me(ctx)
	m.Logout(ctx)

	spans := sr.Ended()
	want := []string{"goAuthClient.Restore", "goAuthClient.Login", "goAuthClient.Login", "goAuthClient.Me", "goAuthClient.Logout"}
	if len(spans) != len(want) {
		t.Fatalf("expected %d spans, got %d", len(want), len(spans))
	}
	for i, name := range want {
		if spans[i].Name() != name {
			t.Fatalf("span %d: got %q want %q", i, spans[i].Name(), name)
		}
	}
	if spans[1].Status().Description != authtest.MessageInvalidCredential {
		t.Fatalf("failed login span status %q", spans[1].Status().Description)
	}
}

func TestLatencyHistogram(t *testing.T) {
	svc, url := authtest.Start(t)
	_, _ = svc.SeedUser("Ann", "ann@example.com", "pw-123456")
	m := newTestManager(t, url, store.NewMemory(), func(b *Builder) { b.WithLatencyHistograms(true) })

	_, _ = m.Login(context.Background(), "ann@example.com", "pw-123456")

	buckets := m.MetricsSnapshot().Histograms[MetricRequestLatency]
	if len(buckets) != HistBucketCount {
		t.Fatalf("expected %d buckets, got %d", HistBucketCount, len(buckets))
	}
	var total uint64
	for _, n := range buckets {
		total += n
	}
	if total != 1 {
		t.Fatalf("expected one observation, got %d", total)
	}
}

func TestMetricsDisabled(t *testing.T) {
	m := newTestManager(t, "http://127.0.0.1:1", store.NewMemory(), func(b *Builder) { b.WithMetricsEnabled(false) })
	m.Restore(context.Background())
	if len(m.MetricsSnapshot().Counters) != 0 {
		t.Fatal("disabled metrics must report nothing")
	}
}
