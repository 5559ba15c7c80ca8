package stream

import (
	"errors"
	"slices"
	"sync"
)

// ErrReleased is delivered to a subscriber of a cursor that was already
// taken over or released.
var ErrReleased = errors.New("stream: replay buffer released")

// Replay is a buffered multicast log of one upstream.
//
// Readers never see the log directly: they subscribe to a Cursor, a
// position in it. A cursor is linear or pinned. The first subscriber of a
// linear cursor takes it over and the cursor cannot be subscribed again. A
// pinned cursor can be subscribed any number of times, each subscriber
// starting at the same position, until it is released.
//
// A value is kept only while an open cursor or a subscriber still catching
// up needs it; a subscriber reading live values holds nothing. Once no open
// cursor and no subscriber remain, the log drops its buffer and cancels its
// upstream subscription.
//
// The parse engine hands out cursors as match suffixes. Committing a match
// on a cursor yields a new cursor into the same log, so any chain of
// matches over one input shares a single buffer.
//
// Thread-safety: Next/Error/Complete must come from one producer goroutine;
// Subscribe, Cancel and Release may be called from any goroutine.
type Replay[T any] struct {
	mu      sync.Mutex
	base    int // log position of buf[0]
	buf     []T
	done    bool
	err     error
	dead    bool
	cursors []*Cursor[T]
	readers []*Reader[T]

	// connect subscribes the upstream on the first reader. teardown cancels
	// that subscription.
	connect  func()
	teardown func()

	origin *Cursor[T]
}

// NewReplay creates an empty, open log fed through Next, Error and
// Complete. Subscribing to the Replay subscribes to its origin, a linear
// cursor at position zero.
func NewReplay[T any]() *Replay[T] {
	r := &Replay[T]{}
	r.origin = r.newCursor(0, nil, false)
	return r
}

// feed creates a log that subscribes to s on its first reader.
func feed[T any](s Stream[T]) *Replay[T] {
	r := &Replay[T]{}
	r.connect = func() {
		sink := NewSink(r.Observer())
		r.mu.Lock()
		if r.dead {
			r.mu.Unlock()
			return
		}
		r.teardown = sink.Cancel
		r.mu.Unlock()
		s.Subscribe(sink)
	}
	return r
}

// Observer returns the producer side of the log as an Observer, for
// feeding it from another stream.
func (r *Replay[T]) Observer() Observer[T] {
	return Observer[T]{
		Next:     r.Next,
		Error:    r.Error,
		Complete: r.Complete,
	}
}

// Next appends v and forwards it to live readers.
func (r *Replay[T]) Next(v T) {
	r.mu.Lock()
	if r.done || r.dead {
		r.mu.Unlock()
		return
	}
	r.buf = append(r.buf, v)
	head := r.base + len(r.buf)
	var live []*Reader[T]
	for _, rd := range r.readers {
		if rd.live {
			rd.pos = head
			live = append(live, rd)
		}
	}
	r.trim()
	r.mu.Unlock()

	for _, rd := range live {
		rd.sink.Next(v)
	}
}

// Error records a terminal error and forwards it to live readers.
func (r *Replay[T]) Error(err error) {
	r.terminate(err)
}

// Complete records completion and forwards it to live readers.
func (r *Replay[T]) Complete() {
	r.terminate(nil)
}

func (r *Replay[T]) terminate(err error) {
	r.mu.Lock()
	if r.done || r.dead {
		r.mu.Unlock()
		return
	}
	r.done = true
	r.err = err
	r.teardown = nil
	var live []*Reader[T]
	for _, rd := range r.readers {
		if rd.live {
			live = append(live, rd)
		}
	}
	r.mu.Unlock()

	for _, rd := range live {
		deliverTerminal(rd.sink, err)
	}
}

// Subscribe subscribes sink to the origin cursor.
func (r *Replay[T]) Subscribe(sink *Sink[T]) {
	r.origin.Subscribe(sink)
}

// Release releases the origin cursor. Live readers keep receiving values.
func (r *Replay[T]) Release() {
	r.origin.Release()
}

// Buffered returns the number of retained values.
func (r *Replay[T]) Buffered() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buf)
}

// newCursor registers an open cursor. Callers hold r.mu unless r is not
// shared yet.
func (r *Replay[T]) newCursor(pos int, front []T, pinned bool) *Cursor[T] {
	c := &Cursor[T]{r: r, pos: pos, front: front, pinned: pinned}
	if r.dead {
		c.state = cursorReleased
		return c
	}
	r.cursors = append(r.cursors, c)
	return c
}

func (r *Replay[T]) dropCursor(c *Cursor[T]) {
	r.cursors = slices.DeleteFunc(r.cursors, func(x *Cursor[T]) bool { return x == c })
}

// trim drops the values no open cursor and no catching-up reader needs.
func (r *Replay[T]) trim() {
	lo := r.base + len(r.buf)
	for _, c := range r.cursors {
		lo = min(lo, c.pos)
	}
	for _, rd := range r.readers {
		if !rd.live {
			lo = min(lo, rd.pos)
		}
	}
	n := lo - r.base
	if n <= 0 {
		return
	}
	clear(r.buf[:n])
	r.buf = r.buf[n:]
	r.base = lo
	if len(r.buf) == 0 {
		r.buf = nil
	}
}

// idle marks the log dead once nothing can read it and returns the
// upstream teardown for the caller to run outside the lock.
func (r *Replay[T]) idle() func() {
	if r.dead || len(r.cursors) > 0 || len(r.readers) > 0 {
		return nil
	}
	r.dead = true
	r.buf = nil
	r.connect = nil
	teardown := r.teardown
	r.teardown = nil
	return teardown
}

func (r *Replay[T]) detach(rd *Reader[T]) {
	r.mu.Lock()
	r.readers = slices.DeleteFunc(r.readers, func(x *Reader[T]) bool { return x == rd })
	r.trim()
	teardown := r.idle()
	r.mu.Unlock()

	if teardown != nil {
		teardown()
	}
}

// catchUp delivers the values rd has not seen yet, then the terminal event
// if one was recorded, otherwise it switches rd to live delivery. Values
// are delivered outside the lock: the reader may re-enter the engine.
func (r *Replay[T]) catchUp(rd *Reader[T]) {
	for {
		r.mu.Lock()
		if rd.sink.Closed() {
			r.mu.Unlock()
			return
		}
		var v T
		switch {
		case len(rd.front) > 0:
			v = rd.front[0]
			rd.front = rd.front[1:]
		case rd.pos < r.base+len(r.buf):
			v = r.buf[rd.pos-r.base]
			rd.pos++
			r.trim()
		case r.done:
			err := r.err
			r.mu.Unlock()
			deliverTerminal(rd.sink, err)
			return
		default:
			rd.live = true
			r.mu.Unlock()
			return
		}
		r.mu.Unlock()
		rd.sink.Next(v)
	}
}

type cursorState int

const (
	cursorOpen cursorState = iota
	cursorTaken
	cursorReleased
)

// Cursor is a position in a Replay. It is a Stream of the log's values
// from that position on, optionally preceded by front values that were
// pushed back onto it.
type Cursor[T any] struct {
	r      *Replay[T]
	pos    int
	front  []T
	pinned bool
	state  cursorState // guarded by r.mu
}

// Subscribe starts delivery from the cursor's position. A linear cursor is
// taken over by its first subscriber; later subscribers, like subscribers
// of a released cursor, fail with ErrReleased.
func (c *Cursor[T]) Subscribe(sink *Sink[T]) {
	c.subscribe(&Reader[T]{c: c, sink: sink})
}

func (c *Cursor[T]) subscribe(rd *Reader[T]) {
	r := c.r
	r.mu.Lock()
	if c.state != cursorOpen || r.dead {
		r.mu.Unlock()
		rd.sink.Error(ErrReleased)
		return
	}
	rd.pos, rd.front = c.pos, c.front
	r.readers = append(r.readers, rd)
	if !c.pinned {
		c.state = cursorTaken
		r.dropCursor(c)
	}
	connect := r.connect
	r.connect = nil
	r.mu.Unlock()

	rd.sink.OnClose(func() { r.detach(rd) })
	r.catchUp(rd)

	if connect != nil {
		connect()
	}
}

// Release gives up an open cursor: its position no longer retains values.
// Releasing a cursor that was taken over is a no-op.
func (c *Cursor[T]) Release() {
	r := c.r
	r.mu.Lock()
	if c.state != cursorOpen {
		r.mu.Unlock()
		return
	}
	c.state = cursorReleased
	r.dropCursor(c)
	r.trim()
	teardown := r.idle()
	r.mu.Unlock()

	if teardown != nil {
		teardown()
	}
}

// Buffered returns the number of values retained by the cursor's log.
func (c *Cursor[T]) Buffered() int {
	return c.r.Buffered()
}

// fork registers a cursor at c's position and, when take is set, hands c's
// claim over to it. A cursor that is no longer open forks into a released
// one.
func (c *Cursor[T]) fork(pinned, take bool) *Cursor[T] {
	r := c.r
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.state != cursorOpen {
		return &Cursor[T]{r: r, state: cursorReleased}
	}
	forked := r.newCursor(c.pos, c.front, pinned)
	if take {
		c.state = cursorTaken
		r.dropCursor(c)
	}
	return forked
}

// CursorOf returns s as a cursor: s itself when it is one, the origin of s
// when it is a Replay, otherwise a linear cursor at the start of a new log
// that subscribes to s on its first reader.
func CursorOf[T any](s Stream[T]) *Cursor[T] {
	switch s := s.(type) {
	case *Cursor[T]:
		return s
	case *Replay[T]:
		return s.origin
	}
	r := feed(s)
	return r.newCursor(0, nil, false)
}

// Share returns a pinned cursor over s. Every subscriber reads from the
// same start, which makes a single-consumer hot source usable with
// backtracking combinators. When s is a cursor the new one marks the same
// position in the same log, and a linear s is taken over by it. Otherwise
// a new log subscribes to s once, on the first subscriber.
//
// History is retained until the cursor is released.
func Share[T any](s Stream[T]) *Cursor[T] {
	switch s := s.(type) {
	case *Cursor[T]:
		return s.fork(true, !s.pinned)
	case *Replay[T]:
		return s.origin.fork(true, !s.origin.pinned)
	}
	return feed(s).newCursor(0, nil, true)
}

// Pin returns a stream that can be subscribed repeatedly from the current
// position of s. Cursors and Replays are pinned with Share; any other
// stream is returned as is, cold streams being re-readable already. Finish
// with Settle or Release.
func Pin[T any](s Stream[T]) Stream[T] {
	switch s.(type) {
	case *Cursor[T], *Replay[T]:
		return Share(s)
	}
	return s
}

// Settle ends a pin taken with Pin once its reader committed to suffix.
// When suffix is the pinned cursor itself, it is returned as a linear
// cursor at the same position; otherwise the pin is released and suffix
// is returned unchanged.
func Settle[T any](pin, suffix Stream[T]) Stream[T] {
	p, ok := pin.(*Cursor[T])
	if !ok {
		return suffix
	}
	if s, ok := suffix.(*Cursor[T]); ok && s == p {
		linear := p.fork(false, false)
		p.Release()
		return linear
	}
	p.Release()
	return suffix
}

// Reader is one subscription to a cursor. A recognizer reads its input
// through a Reader so that, on commit, it can pass the unread rest of the
// input on as a new cursor instead of forwarding it.
type Reader[T any] struct {
	c    *Cursor[T]
	sink *Sink[T]

	// Guarded by c.r.mu.
	pos   int
	front []T
	live  bool
}

// NewReader prepares a subscription of obs to s; Start begins delivery. A
// stream that is not a cursor is read through a new log.
func NewReader[T any](s Stream[T], obs Observer[T]) *Reader[T] {
	return &Reader[T]{c: CursorOf(s), sink: NewSink(obs)}
}

// Start subscribes the reader.
func (rd *Reader[T]) Start() {
	rd.c.subscribe(rd)
}

// Cancel ends the subscription.
func (rd *Reader[T]) Cancel() {
	rd.sink.Cancel()
}

// Split ends the subscription and returns a linear cursor at the first
// value not yet delivered to the reader, preceded by rest. It must be
// called from the reader's own Next callback.
func (rd *Reader[T]) Split(rest ...T) *Cursor[T] {
	r := rd.c.r
	r.mu.Lock()
	var front []T
	if len(rest)+len(rd.front) > 0 {
		front = make([]T, 0, len(rest)+len(rd.front))
		front = append(front, rest...)
		front = append(front, rd.front...)
	}
	c := r.newCursor(rd.pos, front, false)
	r.mu.Unlock()

	rd.sink.Cancel()
	return c
}

// Releaser is implemented by streams that retain buffered values.
type Releaser interface {
	Release()
}

// Release releases the buffer claim behind s if it holds one.
func Release[T any](s Stream[T]) {
	if r, ok := s.(Releaser); ok {
		r.Release()
	}
}

func deliverTerminal[T any](s *Sink[T], err error) {
	if err != nil {
		s.Error(err)
		return
	}
	s.Complete()
}
