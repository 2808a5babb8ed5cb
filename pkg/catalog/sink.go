package catalog

import "sync"

// Sink receives progress notifications from ParseLocales. Parsed may be
// called from several goroutines at once.
type Sink interface {
	// Start is called once with every discovered path before any file is extracted.
	Start(paths []string)
	// Parsed is called once per file after its extraction succeeded, in completion order.
	Parsed(path string)
}

// NopSink discards all notifications.
type NopSink struct{}

// Start implements Sink.
func (NopSink) Start([]string) {}

// Parsed implements Sink.
func (NopSink) Parsed(string) {}

// SinkFuncs adapts plain functions to a Sink. Nil fields are skipped.
type SinkFuncs struct {
	OnStart  func(paths []string)
	OnParsed func(path string)
}

// Start implements Sink.
func (s SinkFuncs) Start(paths []string) {
	if s.OnStart != nil {
		s.OnStart(paths)
	}
}

// Parsed implements Sink.
func (s SinkFuncs) Parsed(path string) {
	if s.OnParsed != nil {
		s.OnParsed(path)
	}
}

// EventKind tells the two progress notifications apart.
type EventKind int

const (
	// EventStart carries the full list of discovered paths.
	EventStart EventKind = iota
	// EventParsed carries one extracted path.
	EventParsed
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "START"
	case EventParsed:
		return "PARSED"
	default:
		return "UNKNOWN"
	}
}

// Event is one progress notification.
type Event struct {
	Kind  EventKind
	Paths []string
	Path  string
}

// ChannelSink turns notifications into a stream of Events. Producers never
// block: events are queued until the consumer reads them.
type ChannelSink struct {
	mu     sync.Mutex
	queue  []Event
	closed bool
	wake   chan struct{}
	out    chan Event
}

// NewChannelSink creates a ChannelSink and starts delivering its events.
// Close must be called once no more notifications will be sent.
func NewChannelSink() *ChannelSink {
	s := &ChannelSink{
		wake: make(chan struct{}, 1),
		out:  make(chan Event),
	}

	go s.pump()

	return s
}

// Events returns the stream. It is closed after Close once every queued
// event has been delivered.
func (s *ChannelSink) Events() <-chan Event {
	return s.out
}

// Start implements Sink.
func (s *ChannelSink) Start(paths []string) {
	s.push(Event{Kind: EventStart, Paths: paths})
}

// Parsed implements Sink.
func (s *ChannelSink) Parsed(path string) {
	s.push(Event{Kind: EventParsed, Path: path})
}

// Close ends the stream. Notifications after Close are dropped.
func (s *ChannelSink) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.signal()
}

func (s *ChannelSink) push(ev Event) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()

		return
	}

	s.queue = append(s.queue, ev)
	s.mu.Unlock()

	s.signal()
}

func (s *ChannelSink) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *ChannelSink) pump() {
	defer close(s.out)

	for {
		s.mu.Lock()
		pending := s.queue
		s.queue = nil
		closed := s.closed
		s.mu.Unlock()

		for _, ev := range pending {
			s.out <- ev
		}

		if closed && len(pending) == 0 {
			return
		}

		if len(pending) == 0 {
			<-s.wake
		}
	}
}
