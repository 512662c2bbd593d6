package adapter

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/mmcdole/albumsync/internal/domain"
)

const defaultReportQueue = 64

// Report is one diagnostic delivered to a Sink
type Report struct {
	ID    string
	Time  time.Time
	Kind  domain.ErrorKind
	Error error
}

// Sink receives reports on the reporter's drain goroutine
type Sink func(Report)

// Reporter queues fetch failures and hands them to a sink off the caller's
// goroutine. Report never blocks; reports arriving while the queue is full
// are dropped and counted.
type Reporter struct {
	queue   chan Report
	sink    Sink
	logger  *slog.Logger
	dropped atomic.Int64

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewReporter starts a reporter. A nil sink logs each report at Warn.
func NewReporter(size int, sink Sink, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	if size <= 0 {
		size = defaultReportQueue
	}
	r := &Reporter{
		queue:  make(chan Report, size),
		sink:   sink,
		logger: logger,
		done:   make(chan struct{}),
	}
	if r.sink == nil {
		r.sink = r.logReport
	}
	go r.drain()
	return r
}

var _ domain.Reporter = (*Reporter)(nil)

func (r *Reporter) Report(err error) {
	if err == nil {
		return
	}
	rep := Report{
		ID:    uuid.NewString(),
		Time:  time.Now(),
		Kind:  domain.Classify(err),
		Error: err,
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.dropped.Add(1)
		return
	}
	select {
	case r.queue <- rep:
	default:
		r.dropped.Add(1)
	}
}

// Dropped returns how many reports were discarded
func (r *Reporter) Dropped() int64 {
	return r.dropped.Load()
}

// Close stops accepting reports and waits until queued ones are delivered.
func (r *Reporter) Close() error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	<-r.done
	if n := r.Dropped(); n > 0 {
		r.logger.Warn("diagnostic reports dropped", "count", n)
	}
	return nil
}

func (r *Reporter) drain() {
	defer close(r.done)
	for rep := range r.queue {
		r.sink(rep)
	}
}

func (r *Reporter) logReport(rep Report) {
	r.logger.Warn("album fetch failure",
		"reportID", rep.ID,
		"kind", rep.Kind.String(),
		"error", rep.Error,
	)
}
