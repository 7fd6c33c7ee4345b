package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, Event) {
	s.count.Add(1)
}

type gateSink struct {
	gate chan struct{}
}

func (s *gateSink) Emit(context.Context, Event) {
	<-s.gate
}

func TestDisabledDispatcherIsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, &countingSink{})
	if d != nil {
		t.Fatal("expected nil dispatcher when disabled")
	}
	d.Emit(context.Background(), Event{EventType: "x"})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher must report zero drops")
	}
}

func TestCloseDrainsBufferedEvents(t *testing.T) {
	sink := &countingSink{}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 16}, sink)

	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), Event{EventType: "session.login"})
	}
	d.Close()
	d.Close()

	if got := sink.count.Load(); got != 10 {
		t.Fatalf("expected 10 delivered events, got %d", got)
	}
}

func TestDropIfFullCountsDrops(t *testing.T) {
	sink := &gateSink{gate: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	// worker blocks on the first event; the second fills the buffer.
	d.Emit(context.Background(), Event{EventType: "a"})
	time.Sleep(20 * time.Millisecond)
	d.Emit(context.Background(), Event{EventType: "b"})
	d.Emit(context.Background(), Event{EventType: "c"})

	if got := d.Dropped(); got == 0 {
		t.Fatal("expected at least one dropped event")
	}
	close(sink.gate)
	d.Close()
}

func TestEmitAfterCloseIgnored(t *testing.T) {
	sink := &countingSink{}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 4}, sink)
	d.Close()
	d.Emit(context.Background(), Event{EventType: "late"})
	if sink.count.Load() != 0 {
		t.Fatal("events after close must be ignored")
	}
}

func TestJSONWriterSinkWritesLines(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)
	sink.Emit(context.Background(), Event{EventType: "session.logout", Success: true})

	var decoded Event
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &decoded); err != nil {
		t.Fatalf("decode line: %v", err)
	}
	if decoded.EventType != "session.logout" || !decoded.Success {
		t.Fatalf("unexpected event %+v", decoded)
	}
	if sink.Err() != nil || sink.Written() != 1 {
		t.Fatalf("err=%v written=%d", sink.Err(), sink.Written())
	}
}

type brokenWriter struct{ writes int }

func (w *brokenWriter) Write(p []byte) (int, error) {
	w.writes++
	return 0, errors.New("disk full")
}

func TestJSONWriterSinkStopsAfterWriteError(t *testing.T) {
	w := &brokenWriter{}
	sink := NewJSONWriterSink(w)
	sink.Emit(context.Background(), Event{Seq: 4, EventType: "session.login"})
	sink.Emit(context.Background(), Event{Seq: 5, EventType: "session.logout"})

	err := sink.Err()
	if err == nil || !strings.Contains(err.Error(), "event 4 (session.login)") {
		t.Fatalf("expected first write error, got %v", err)
	}
	if w.writes != 1 || sink.Written() != 0 {
		t.Fatalf("sink must stop after a failure: writes=%d written=%d", w.writes, sink.Written())
	}
}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) Emit(_ context.Context, ev Event) {
	if ev.EventType == "boom" {
		panic("sink failure")
	}
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
}

func TestSequenceAndPanicIsolation(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 8}, sink)

	d.Emit(context.Background(), Event{EventType: "session.login"})
	d.Emit(context.Background(), Event{EventType: "boom"})
	d.Emit(context.Background(), Event{EventType: "session.logout"})
	d.Close()

	if d.SinkPanics() != 1 {
		t.Fatalf("expected one sink panic, got %d", d.SinkPanics())
	}
	if len(sink.events) != 2 {
		t.Fatalf("expected 2 delivered events, got %d", len(sink.events))
	}
	if sink.events[0].Seq != 1 || sink.events[1].Seq != 3 {
		t.Fatalf("unexpected sequence numbers %d, %d", sink.events[0].Seq, sink.events[1].Seq)
	}
}

func TestBlockingEmitGivesUpOnCancel(t *testing.T) {
	sink := &gateSink{gate: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1}, sink)

	d.Emit(context.Background(), Event{EventType: "a"})
	time.Sleep(20 * time.Millisecond)
	d.Emit(context.Background(), Event{EventType: "b"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Emit(ctx, Event{EventType: "c"})

	if d.Dropped() != 1 {
		t.Fatalf("expected cancelled emit to count as dropped, got %d", d.Dropped())
	}
	close(sink.gate)
	d.Close()
}

func TestConcurrentEmitDeliversInSeqOrder(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 4}, sink)

	const workers, each = 8, 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < each; j++ {
				d.Emit(context.Background(), Event{EventType: "session.login"})
			}
		}()
	}
	wg.Wait()
	d.Close()

	if len(sink.events) != workers*each {
		t.Fatalf("expected %d events, got %d", workers*each, len(sink.events))
	}
	for i, ev := range sink.events {
		if ev.Seq != uint64(i+1) {
			t.Fatalf("event %d carries seq %d", i, ev.Seq)
		}
	}
}
