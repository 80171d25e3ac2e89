package tyadmin

import (
	"context"
	"sync/atomic"
)

// auditDispatcher moves audit events off the request path onto a single worker that feeds
// the configured sink. A nil *auditDispatcher is valid and discards everything.
type auditDispatcher struct {
	sink       AuditSink
	dropIfFull bool
	queue      chan AuditEvent

	stop     context.Context
	cancel   context.CancelFunc
	finished chan struct{}

	dropped  atomic.Uint64
	panicked atomic.Uint64
}

func newAuditDispatcher(cfg AuditConfig, sink AuditSink) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &auditDispatcher{
		sink:       sink,
		dropIfFull: cfg.DropIfFull,
		queue:      make(chan AuditEvent, max(cfg.BufferSize, 1)),
		finished:   make(chan struct{}),
	}
	d.stop, d.cancel = context.WithCancel(context.Background())

	go d.run()
	return d
}

func (d *auditDispatcher) run() {
	defer close(d.finished)
	for {
		select {
		case event := <-d.queue:
			d.deliver(event)
		case <-d.stop.Done():
			d.drain()
			return
		}
	}
}

// drain hands whatever is still buffered to the sink once the dispatcher is stopping.
func (d *auditDispatcher) drain() {
	for {
		select {
		case event := <-d.queue:
			d.deliver(event)
		default:
			return
		}
	}
}

func (d *auditDispatcher) deliver(event AuditEvent) {
	defer func() {
		if recover() != nil {
			d.panicked.Add(1)
		}
	}()
	d.sink.Emit(context.Background(), event)
}

// Emit queues event for the sink. With DropIfFull a full buffer drops the event and
// counts it; otherwise Emit waits for room until ctx ends or the dispatcher closes.
func (d *auditDispatcher) Emit(ctx context.Context, event AuditEvent) {
	if d == nil || d.stop.Err() != nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.dropIfFull {
		select {
		case d.queue <- event:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.queue <- event:
	case <-ctx.Done():
	case <-d.stop.Done():
	}
}

// Close stops accepting events, flushes the buffer into the sink and waits for the worker.
// It is safe to call more than once.
func (d *auditDispatcher) Close() {
	if d == nil {
		return
	}
	d.cancel()
	<-d.finished
}

func (d *auditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

func (d *auditDispatcher) SinkPanics() uint64 {
	if d == nil {
		return 0
	}
	return d.panicked.Load()
}
