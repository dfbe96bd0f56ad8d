package audio

import (
	"container/heap"
	"context"
	"log/slog"
	"sync"
)

// Synthesizer renders one utterance and blocks until it finishes
// playing or ctx is canceled.
type Synthesizer interface {
	Speak(ctx context.Context, text string) error
}

// Speaker is the enqueue surface handed to components that emit
// speech. Enqueue never blocks.
type Speaker interface {
	Enqueue(text string, priority Priority, interrupt bool)
}

// Scheduler owns a bounded priority queue and a single playback
// worker, so at most one utterance is in flight at a time. Sustained
// high-priority traffic starves lower priorities; urgency wins over
// fairness here.
type Scheduler struct {
	synth Synthesizer
	log   *slog.Logger

	mu            sync.Mutex
	queue         messageHeap
	seq           uint64
	playing       bool
	cancelCurrent context.CancelFunc

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

func NewScheduler(synth Synthesizer, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		synth: synth,
		log:   log.With("component", "audio-scheduler"),
		wake:  make(chan struct{}, 1),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Start launches the playback worker. Call once.
func (s *Scheduler) Start() {
	go s.worker()
}

// Stop cancels any in-flight utterance and waits for the worker to
// exit. Queued messages are discarded.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.queue = nil
	if s.cancelCurrent != nil {
		s.cancelCurrent()
	}
	s.mu.Unlock()

	close(s.stop)
	<-s.done
}

// Enqueue adds an utterance in priority order. Emergency messages
// always interrupt. An interrupting enqueue made while the worker is
// speaking drains every queued message and cancels the in-flight one,
// so the new message plays next.
func (s *Scheduler) Enqueue(text string, priority Priority, interrupt bool) {
	if priority == PriorityEmergency {
		interrupt = true
	}

	s.mu.Lock()
	if interrupt && s.playing {
		s.queue = s.queue[:0]
		if s.cancelCurrent != nil {
			s.cancelCurrent()
		}
	}

	msg := &Message{Text: text, Priority: priority, Interrupt: interrupt, seq: s.seq}
	s.seq++
	heap.Push(&s.queue, msg)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// IsBusy reports whether an utterance is playing or queued.
func (s *Scheduler) IsBusy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing || len(s.queue) > 0
}

// PendingCount returns the number of queued, not-yet-playing messages.
func (s *Scheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

func (s *Scheduler) worker() {
	defer close(s.done)

	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			select {
			case <-s.wake:
				continue
			case <-s.stop:
				return
			}
		}

		msg := heap.Pop(&s.queue).(*Message)
		ctx, cancel := context.WithCancel(context.Background())
		s.playing = true
		s.cancelCurrent = cancel
		s.mu.Unlock()

		err := s.synth.Speak(ctx, msg.Text)

		s.mu.Lock()
		s.playing = false
		s.cancelCurrent = nil
		s.mu.Unlock()
		cancel()

		if err != nil && ctx.Err() == nil {
			// A failed synthesis never blocks the next message.
			s.log.Error("synthesis failed, skipping message",
				"priority", msg.Priority.String(),
				"error", err)
		}

		select {
		case <-s.stop:
			return
		default:
		}
	}
}
