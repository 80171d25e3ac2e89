package tyadmin

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, AuditEvent) {
	s.count.Add(1)
}

func (s *countingSink) Count() int64 {
	return s.count.Load()
}

type gateSink struct {
	gate chan struct{}
}

func newGateSink() *gateSink {
	return &gateSink{
		gate: make(chan struct{}),
	}
}

func (s *gateSink) Emit(context.Context, AuditEvent) {
	<-s.gate
}

type panicSink struct {
	after countingSink
}

func (s *panicSink) Emit(ctx context.Context, ev AuditEvent) {
	if ev.EventType == "boom" {
		panic("sink failure")
	}
	s.after.Emit(ctx, ev)
}

func auditConfig(buffer int, dropIfFull bool) Config {
	cfg := DefaultConfig()
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = buffer
	cfg.Audit.DropIfFull = dropIfFull
	return cfg
}

func collectEvents(t *testing.T, sink *ChannelSink, n int) []AuditEvent {
	t.Helper()

	events := make([]AuditEvent, 0, n)
	timeout := time.After(2 * time.Second)
	for len(events) < n {
		select {
		case ev := <-sink.Events():
			events = append(events, ev)
		case <-timeout:
			t.Fatalf("expected %d audit events, got %d", n, len(events))
		}
	}
	return events
}

func TestAuditDisabledNoSinkCalls(t *testing.T) {
	sink := &countingSink{}
	h := newHarness(t, DefaultConfig(), func(b *Builder) { b.WithAuditSink(sink) })

	token := h.issue(t, operator)
	_ = h.engine.Logout(context.Background(), token)
	h.engine.Close()

	if sink.Count() != 0 {
		t.Fatalf("expected no audit sink calls when disabled, got %d", sink.Count())
	}
}

func TestAuditIssueEventCarriesRequestContext(t *testing.T) {
	sink := NewChannelSink(8)
	h := newHarness(t, auditConfig(16, false), func(b *Builder) { b.WithAuditSink(sink) })

	ctx := WithRequestID(WithClientIP(context.Background(), "198.51.100.33"), "req-7")
	res, err := h.engine.Issue(ctx, operator)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	ev := collectEvents(t, sink, 1)[0]
	if ev.EventType != auditEventSessionIssued || !ev.Success {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.IP != "198.51.100.33" || ev.RequestID != "req-7" {
		t.Fatalf("request context not recorded: %+v", ev)
	}
	if ev.SubjectID != 42 || ev.Account != "operator" {
		t.Fatalf("unexpected subject: %+v", ev)
	}
	if !ev.Timestamp.Equal(h.clock.Now().UTC()) {
		t.Fatalf("expected engine clock timestamp, got %v", ev.Timestamp)
	}
	for _, v := range ev.Metadata {
		if strings.Contains(v, res.Token) {
			t.Fatal("session token leaked in audit metadata")
		}
	}
}

func TestAuditDeniedAuthorization(t *testing.T) {
	sink := NewChannelSink(8)
	h := newHarness(t, auditConfig(16, false), func(b *Builder) { b.WithAuditSink(sink) })

	token := h.issue(t, operator)
	if _, err := h.engine.Authorize(context.Background(), token, "order:refund"); err == nil {
		t.Fatal("expected denial")
	}

	events := collectEvents(t, sink, 2)
	ev := events[1]
	if ev.EventType != auditEventAuthorizationDenied || ev.Success {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.Error != string(auditErrForbidden) {
		t.Fatalf("expected forbidden code, got %q", ev.Error)
	}
	if ev.Metadata["permission"] != "order:refund" || ev.Metadata["reason"] != "missing" {
		t.Fatalf("unexpected metadata %v", ev.Metadata)
	}
}

func TestAuditCredentialEvents(t *testing.T) {
	sink := NewChannelSink(8)
	h := newHarness(t, auditConfig(16, false), func(b *Builder) { b.WithAuditSink(sink) })
	ctx := context.Background()

	tok, err := h.engine.UpstreamToken(ctx)
	if err != nil {
		t.Fatalf("UpstreamToken failed: %v", err)
	}
	if _, err := h.engine.InvalidateUpstreamToken(ctx, tok); err != nil {
		t.Fatalf("InvalidateUpstreamToken failed: %v", err)
	}

	events := collectEvents(t, sink, 3)
	want := []string{auditEventCredentialRefreshed, auditEventCredentialInvalid, auditEventCredentialRefreshed}
	for i, ev := range events {
		if ev.EventType != want[i] {
			t.Fatalf("event %d: expected %q, got %q", i, want[i], ev.EventType)
		}
		for k, v := range ev.Metadata {
			if strings.Contains(v, "upstream-") || strings.Contains(v, "secret") {
				t.Fatalf("credential leaked in metadata %s=%q", k, v)
			}
		}
	}
	if events[0].Metadata["stored_ttl"] != (7200*time.Second - 300*time.Second).String() {
		t.Fatalf("unexpected stored ttl %q", events[0].Metadata["stored_ttl"])
	}
	if events[1].Metadata["deleted"] != "true" {
		t.Fatalf("expected deleted=true, got %v", events[1].Metadata)
	}
}

func TestAuditBufferFullDropIfFullTrueDoesNotBlock(t *testing.T) {
	sink := newGateSink()
	dispatcher := newAuditDispatcher(AuditConfig{
		Enabled:    true,
		BufferSize: 1,
		DropIfFull: true,
	}, sink)
	defer func() {
		close(sink.gate)
		dispatcher.Close()
	}()

	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e1"})
	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e2"})

	start := time.Now()
	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e3"})
	if time.Since(start) > 100*time.Millisecond {
		t.Fatal("expected non-blocking emit when DropIfFull is true")
	}
	if dispatcher.Dropped() == 0 {
		t.Fatal("expected dropped counter to increment when queue is full")
	}
}

func TestAuditBufferFullDropIfFullFalseBlocksUntilSpace(t *testing.T) {
	sink := newGateSink()
	dispatcher := newAuditDispatcher(AuditConfig{
		Enabled:    true,
		BufferSize: 1,
		DropIfFull: false,
	}, sink)
	defer func() {
		close(sink.gate)
		dispatcher.Close()
	}()

	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e1"})
	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e2"})

	done := make(chan struct{})
	go func() {
		dispatcher.Emit(context.Background(), AuditEvent{EventType: "e3"})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("expected emit to block while buffer is full")
	case <-time.After(150 * time.Millisecond):
	}

	sink.gate <- struct{}{}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected blocked emit to proceed after space is available")
	}
}

func TestAuditDispatcherSurvivesSinkPanic(t *testing.T) {
	sink := &panicSink{}
	dispatcher := newAuditDispatcher(AuditConfig{
		Enabled:    true,
		BufferSize: 4,
	}, sink)

	dispatcher.Emit(context.Background(), AuditEvent{EventType: "boom"})
	dispatcher.Emit(context.Background(), AuditEvent{EventType: "after"})
	dispatcher.Close()

	if dispatcher.SinkPanics() != 1 {
		t.Fatalf("expected 1 recovered panic, got %d", dispatcher.SinkPanics())
	}
	if sink.after.Count() != 1 {
		t.Fatalf("expected event after panic to be delivered, got %d", sink.after.Count())
	}
}

func TestEngineReportsAuditSinkPanics(t *testing.T) {
	sink := &panicSink{}
	h := newHarness(t, auditConfig(16, false), func(b *Builder) { b.WithAuditSink(sink) })

	h.engine.emitAudit(context.Background(), "boom", false, 0, "", nil, nil)
	token := h.issue(t, operator)
	_ = h.engine.Logout(context.Background(), token)
	h.engine.Close()

	if got := h.engine.AuditSinkPanics(); got != 1 {
		t.Fatalf("expected 1 sink panic reported by the engine, got %d", got)
	}
	if sink.after.Count() != 2 {
		t.Fatalf("expected issue and logout delivered after the panic, got %d", sink.after.Count())
	}
	var nilEngine *Engine
	if nilEngine.AuditSinkPanics() != 0 {
		t.Fatal("nil engine must report zero")
	}
}

func TestAuditJSONWriterSinkWritesJSONLines(t *testing.T) {
	var buf syncBuffer
	sink := NewJSONWriterSink(&buf)
	sink.Emit(context.Background(), AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: auditEventSessionIssued,
		SubjectID: 42,
		Account:   "operator",
		IP:        "127.0.0.1",
		Success:   true,
	})

	if !buf.Contains("session_issued") {
		t.Fatal("expected JSON log line to contain event type")
	}
	if !buf.Contains(`"subject_id":42`) {
		t.Fatal("expected JSON log line to contain subject id")
	}
	if !buf.Contains("}\n") {
		t.Fatal("expected newline-terminated record")
	}
}

func TestAuditSlogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSlogSink(slog.New(slog.NewJSONHandler(&buf, nil)))

	sink.Emit(context.Background(), AuditEvent{
		EventType: auditEventLogout,
		Success:   false,
		Error:     string(auditErrUnavailable),
	})

	out := buf.String()
	if !strings.Contains(out, `"level":"WARN"`) {
		t.Fatalf("expected warn level for failure, got %s", out)
	}
	if !strings.Contains(out, `"event":"logout"`) || !strings.Contains(out, `"error":"backend_unavailable"`) {
		t.Fatalf("missing audit fields: %s", out)
	}
}

func TestAuditDispatcherCloseIdempotentAndEmitAfterCloseSafe(t *testing.T) {
	dispatcher := newAuditDispatcher(AuditConfig{
		Enabled:    true,
		BufferSize: 4,
		DropIfFull: true,
	}, &countingSink{})

	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e1"})
	dispatcher.Close()
	dispatcher.Close()
	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e2"})
}

type syncBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *syncBuffer) Contains(v string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Contains(string(b.buf), v)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
