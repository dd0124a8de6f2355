package archive

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Sink receives archived records. *Store satisfies it.
type Sink interface {
	InsertInterview(iv Interview, turns []ArchivedTurn, responses []ArchivedResponse) error
	InsertReport(r ArchivedReport) error
}

type recordMsg struct {
	kind string // "interview", "report"

	interview Interview
	turns     []ArchivedTurn
	responses []ArchivedResponse

	report ArchivedReport
}

// Recorder writes archive data asynchronously via a buffered channel so
// the interview path never blocks on the database. All methods are
// nil-safe (no-op on nil receiver).
type Recorder struct {
	sink Sink
	log  *zap.Logger
	ch   chan recordMsg
	done chan struct{}
}

// NewRecorder starts a recorder draining into sink. Must call Close when done.
func NewRecorder(sink Sink, log *zap.Logger) *Recorder {
	r := &Recorder{
		sink: sink,
		log:  log,
		ch:   make(chan recordMsg, 64),
		done: make(chan struct{}),
	}
	go r.drain()
	return r
}

func (r *Recorder) drain() {
	defer close(r.done)
	for msg := range r.ch {
		r.handle(msg)
	}
}

func (r *Recorder) handle(m recordMsg) {
	var err error
	switch m.kind {
	case "interview":
		err = r.sink.InsertInterview(m.interview, m.turns, m.responses)
	case "report":
		err = r.sink.InsertReport(m.report)
	default:
		return
	}
	if err != nil {
		r.log.Warn("archive write failed", zap.String("kind", m.kind), zap.Error(err))
	}
}

// RecordInterview queues one completed interview for archival.
func (r *Recorder) RecordInterview(iv Interview, turns []ArchivedTurn, responses []ArchivedResponse) {
	if r == nil {
		return
	}
	r.ch <- recordMsg{kind: "interview", interview: iv, turns: turns, responses: responses}
}

// RecordReport queues one evaluation report for archival and returns the
// report ID assigned to it.
func (r *Recorder) RecordReport(rep ArchivedReport) string {
	if r == nil {
		return ""
	}
	if rep.ID == "" {
		rep.ID = uuid.NewString()
	}
	r.ch <- recordMsg{kind: "report", report: rep}
	return rep.ID
}

// Close drains pending writes and shuts down the background goroutine.
func (r *Recorder) Close() {
	if r == nil {
		return
	}
	close(r.ch)
	<-r.done
}
