package radio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"i4.energy/across/radiocfg/at"
)

// State is the lifecycle phase of a Session.
type State int

const (
	StateClosed      State = iota // no transport
	StateOpening                  // transport up, waiting for maintenance mode
	StateDiscovering              // querying pending facts one at a time
	StateIdle                     // everything known, accepts saves
	StateWriting                  // emitting the writes of a save
	StateClosing                  // leaving maintenance mode, closing the transport
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpening:
		return "opening"
	case StateDiscovering:
		return "discovering"
	case StateIdle:
		return "idle"
	case StateWriting:
		return "writing"
	case StateClosing:
		return "closing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Session synchronizes the configuration of one radio over one transport
// at a time.
//
// A Session is event driven. Operator calls (Open, Refresh, Save, SendRaw,
// Close) and transport deliveries are serialized by a mutex; none of them
// waits for the radio. Discovery keeps exactly one query outstanding and
// moves on only when a reply for a fact is parsed. A query that is never
// answered leaves its fact pending until the next Refresh.
//
// Facts learned in one session stay cached after Close so that desired
// settings can still be compared against them, but every Open marks all
// facts pending again and discovery re-reads them.
type Session struct {
	config Config
	logger *slog.Logger

	mu        sync.Mutex
	state     State
	gen       uint64
	transport Transport
	framer    *at.Framer
	pending   PendingSet
	current   Snapshot
	desired   Snapshot
	// asked is the fact of the outstanding query, valid while inflight.
	asked    at.Fact
	inflight bool
	// notes are observer calls collected under mu and run by unlock.
	notes []func(Observer)
}

// NewSession returns a closed Session.
func NewSession(config Config) *Session {
	config.setDefaults()
	return &Session{
		config: config,
		logger: config.Logger.With("component", "session"),
	}
}

// sessionSink ties transport deliveries to the session generation they
// were dialed for. Deliveries from an older generation are ignored.
type sessionSink struct {
	s   *Session
	gen uint64
}

func (k sessionSink) Receive(chunk []byte) { k.s.receive(k.gen, chunk) }
func (k sessionSink) Fail(err error)       { k.s.fail(k.gen, err) }

// Open dials a transport and starts discovery. With radio control enabled
// the radio is first put into maintenance mode and discovery starts on its
// OK or ERROR reply; otherwise the first query is sent immediately.
//
// Open fails with ErrSessionOpen while another transport is open; Close
// first to switch between serial and network.
func (s *Session) Open(ctx context.Context, d Dialer) error {
	if d == nil {
		return ErrNoDialer
	}

	s.mu.Lock()
	defer s.unlock()

	if s.state != StateClosed {
		return ErrSessionOpen
	}

	s.state = StateOpening
	s.gen++
	s.pending.MarkAll()
	s.inflight = false

	t, err := d.Dial(ctx, sessionSink{s: s, gen: s.gen})
	if err == nil && t == nil {
		err = errors.New("dialer returned no transport")
	}
	if err != nil {
		if !errors.Is(err, ErrTransportOpen) {
			err = fmt.Errorf("%w: %w", ErrTransportOpen, err)
		}
		s.state = StateClosed
		s.pending = 0
		s.gen++
		s.logger.Error("Failed to open transport", "error", err)
		s.status(err.Error())
		return err
	}

	s.transport = t
	limit := 0
	if ll, ok := t.(lineLimiter); ok {
		limit = ll.LineLimit()
	}
	s.framer = at.NewFramer(limit)
	s.logger.Info("Session opened", "radio_control", s.config.RadioControl, "line_limit", limit)

	if s.config.RadioControl {
		return s.send(at.CmdRadioOff)
	}
	s.state = StateDiscovering
	return s.advance()
}

// Close leaves maintenance mode (best effort), closes the transport and
// drops the pending set. Replies still in flight are ignored.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.unlock()

	if s.state == StateClosed {
		return ErrSessionClosed
	}
	return s.closeLocked(true)
}

// Refresh marks every fact pending and restarts discovery. It is also the
// way to retry after a query went unanswered or a reply was malformed.
func (s *Session) Refresh() error {
	s.mu.Lock()
	defer s.unlock()

	switch s.state {
	case StateClosed:
		return ErrSessionClosed
	case StateOpening, StateDiscovering, StateIdle:
	default:
		return ErrNotIdle
	}

	s.logger.Info("Refreshing configuration")
	s.pending.MarkAll()
	s.inflight = false
	s.state = StateDiscovering
	return s.advance()
}

// Save writes every setting of desired that differs from the current
// configuration and re-reads only the facts it wrote. It is accepted in
// StateIdle only. Invalid settings are rejected with ErrValidation before
// anything is sent. A desired snapshot equal to the current one is a no-op.
func (s *Session) Save(desired Snapshot) error {
	s.mu.Lock()
	defer s.unlock()

	switch s.state {
	case StateClosed:
		return ErrSessionClosed
	case StateIdle:
	default:
		return ErrNotIdle
	}

	writes, err := Plan(s.current, desired)
	if err != nil {
		s.status(err.Error())
		return err
	}
	s.desired = desired.Clone()

	if len(writes) == 0 {
		s.logger.Info("Configuration already in sync")
		return nil
	}

	s.state = StateWriting
	var sendErr error
	for _, w := range writes {
		s.logger.Info("Writing setting", "fact", w.Fact, "command", w.Command)
		s.pending.Set(w.Fact)
		if sendErr = s.send(w.Command); sendErr != nil {
			break
		}
	}
	if s.state == StateClosed {
		return sendErr
	}

	s.state = StateDiscovering
	if err := s.advance(); sendErr == nil {
		sendErr = err
	}
	return sendErr
}

// SendRaw passes an operator command to the radio unchanged. Commands that
// do not start with "AT" are rejected with ErrValidation. Replies are
// parsed like any other and may update facts, but the command itself does
// not change the pending set.
func (s *Session) SendRaw(cmd string) error {
	if err := ValidateRaw(cmd); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.unlock()

	if s.state == StateClosed {
		return ErrSessionClosed
	}
	return s.send(cmd)
}

// State returns the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Current returns the last known configuration of the radio.
func (s *Session) Current() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// Desired returns the configuration of the last accepted save.
func (s *Session) Desired() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.desired.Clone()
}

// Pending returns the facts not yet known to be in sync.
func (s *Session) Pending() PendingSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

func (s *Session) receive(gen uint64, chunk []byte) {
	s.mu.Lock()
	defer s.unlock()

	if gen != s.gen || s.framer == nil {
		return
	}
	s.framer.Feed(chunk, s.handleLine)
}

func (s *Session) fail(gen uint64, err error) {
	s.mu.Lock()
	defer s.unlock()

	if gen != s.gen || s.transport == nil {
		return
	}
	s.transportFailed(err)
}

func (s *Session) handleLine(line string) {
	if s.transport == nil {
		return
	}
	s.transcribe("<", line)

	r := at.Parse(line)
	switch r.Outcome {
	case at.OutcomeFact:
		s.current.Apply(r.Fact)
		s.pending.Clear(r.Fact.Kind)
		s.logger.Debug("Fact received", "fact", r.Fact.Kind, "line", line)

		fact := r.Fact
		s.notify(func(o Observer) { o.FactUpdated(fact) })

		if fact.Kind == at.FactNetworkIP {
			if rt, ok := s.transport.(retargeter); ok {
				rt.Retarget(fact.IP)
			}
		}

		if s.state == StateDiscovering && (!s.inflight || s.asked == fact.Kind) {
			s.inflight = false
			_ = s.advance()
		}

	case at.OutcomeMalformed:
		s.logger.Warn("Malformed reply", "line", line, "error", r.Err)
		s.status(r.Err.Error())

	case at.OutcomeOK, at.OutcomeError:
		text := at.OK
		if r.Outcome == at.OutcomeError {
			text = line
		}
		s.status(text)

		if s.state == StateOpening {
			s.state = StateDiscovering
			_ = s.advance()
		}

	default:
		s.logger.Debug("Unrecognized reply", "line", line)
	}
}

// advance asks for the next pending fact or goes idle when none is left.
func (s *Session) advance() error {
	cmd, fact, ok := NextQuery(s.pending)
	if !ok {
		s.state = StateIdle
		s.inflight = false
		s.logger.Info("Configuration discovered")
		s.notify(func(o Observer) { o.SequenceIdle() })
		return nil
	}

	s.asked, s.inflight = fact, true
	return s.send(cmd)
}

func (s *Session) send(cmd string) error {
	s.transcribe(">", cmd)
	s.logger.Debug("Sending command", "command", cmd)

	if err := s.transport.Send(cmd); err != nil {
		s.transportFailed(err)
		return err
	}
	return nil
}

func (s *Session) transportFailed(err error) {
	s.logger.Error("Transport failure", "error", err, "state", s.state)
	s.status(err.Error())

	var ioErr *IOError
	if errors.As(err, &ioErr) && ioErr.Fatal {
		if cerr := s.closeLocked(false); cerr != nil {
			s.logger.Warn("Failed to close transport", "error", cerr)
		}
	}
}

func (s *Session) closeLocked(radioOn bool) error {
	s.state = StateClosing

	if radioOn && s.config.RadioControl {
		s.transcribe(">", at.CmdRadioOn)
		if err := s.transport.Send(at.CmdRadioOn); err != nil {
			s.logger.Warn("Failed to leave maintenance mode", "error", err)
		}
	}

	err := s.transport.Close()

	s.transport = nil
	s.framer = nil
	s.pending = 0
	s.inflight = false
	s.gen++
	s.state = StateClosed

	s.logger.Info("Session closed")
	s.status("closed")
	return err
}

func (s *Session) transcribe(dir, text string) {
	if s.config.Transcript == nil {
		return
	}
	if _, err := fmt.Fprintf(s.config.Transcript, "%s %s\n", dir, text); err != nil {
		s.logger.Debug("Failed to write transcript", "error", err)
	}
}

func (s *Session) status(text string) {
	s.notify(func(o Observer) { o.Status(text) })
}

func (s *Session) notify(n func(Observer)) {
	s.notes = append(s.notes, n)
}

// unlock releases mu and then runs the observer calls collected while it
// was held.
func (s *Session) unlock() {
	notes := s.notes
	s.notes = nil
	s.mu.Unlock()

	for _, n := range notes {
		n(s.config.Observer)
	}
}
