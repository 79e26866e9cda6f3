package audit

import (
    "context"
    "sync"
    "time"

    "go.uber.org/zap"

    "quotebot/internal/httpx"
)

// Entry is one append-only audit record for a user contact.
type Entry struct {
    Time        time.Time `json:"time"`
    DisplayName string    `json:"display_name"`
    UserID      int64     `json:"user_id"`
    Username    string    `json:"username"`
}

// Sink accepts audit entries. Implementations are best-effort; a failed
// Record is logged by the recorder and otherwise forgotten.
type Sink interface {
    Record(ctx context.Context, e Entry) error
}

// Webhook posts entries as JSON to a collector endpoint.
type Webhook struct {
    URL        string
    TimeoutSec int
    Client     *httpx.Client
}

func (w *Webhook) Record(ctx context.Context, e Entry) error {
    timeout := w.TimeoutSec
    if timeout <= 0 { timeout = 5 }
    ctx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
    defer cancel()
    return w.Client.PostJSON(ctx, w.URL, e, nil)
}

// Recorder decouples audit writes from the request/response path: Enqueue
// never blocks and the in-flight reply never waits on the sink. Entries are
// dropped when the queue is full.
type Recorder struct {
    sink Sink
    ch   chan Entry
    log  *zap.Logger

    once sync.Once
    done chan struct{}
    wg   sync.WaitGroup
}

func NewRecorder(sink Sink, queueSize int, log *zap.Logger) *Recorder {
    if queueSize <= 0 { queueSize = 64 }
    if log == nil { log = zap.NewNop() }
    r := &Recorder{
        sink: sink,
        ch:   make(chan Entry, queueSize),
        log:  log,
        done: make(chan struct{}),
    }
    r.wg.Add(1)
    go r.run()
    return r
}

func (r *Recorder) run() {
    defer r.wg.Done()
    for {
        select {
        case e := <-r.ch:
            r.record(e)
        case <-r.done:
            // drain what is already queued, then stop
            for {
                select {
                case e := <-r.ch:
                    r.record(e)
                default:
                    return
                }
            }
        }
    }
}

func (r *Recorder) record(e Entry) {
    if err := r.sink.Record(context.Background(), e); err != nil {
        r.log.Warn("audit sink failed", zap.Int64("user_id", e.UserID), zap.Error(err))
    }
}

// Enqueue hands an entry to the background worker. It returns immediately;
// a full queue drops the entry.
func (r *Recorder) Enqueue(e Entry) {
    select {
    case r.ch <- e:
    default:
        r.log.Warn("audit queue full, entry dropped", zap.Int64("user_id", e.UserID))
    }
}

// Close drains queued entries and stops the worker.
func (r *Recorder) Close() {
    r.once.Do(func() { close(r.done) })
    r.wg.Wait()
}
