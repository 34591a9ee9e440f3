package transport

import (
	"fmt"
	"sync"
	"time"

	proto "github.com/ystepanoff/e012tx/protocol"
)

// Capabilities is what the host learns when it queries the protocol.
type Capabilities struct {
	NumChannels        int
	DefaultNumChannels int
	Autobind           bool
	Telemetry          proto.TelemetryState
	Options            []string
}

// Transmitter is the host-facing control surface of the E012 link. It owns
// the session and the scheduler that drives it.
type Transmitter struct {
	mu       sync.Mutex
	driver   Transceiver
	channels ChannelSource
	power    PowerSource
	cfg      Config
	session  *Session
	sched    Scheduler

	bindRemaining time.Duration
	observer      BindStateFunc
}

func NewTransmitterWithDriver(d Transceiver, ch ChannelSource, pw PowerSource, cfg Config) *Transmitter {
	return &Transmitter{
		driver:   d,
		channels: ch,
		power:    pw,
		cfg:      cfg,
	}
}

// OnBindState registers an observer for bind progress. It runs on the
// scheduler goroutine and must not call back into the Transmitter.
func (t *Transmitter) OnBindState(fn BindStateFunc) {
	t.mu.Lock()
	t.observer = fn
	t.mu.Unlock()
}

// Init starts a new session from the binding phase. Calling it on a running
// transmitter restarts binding.
func (t *Transmitter) Init() error {
	t.sched.Stop()

	t.mu.Lock()
	s := NewSession(t.driver, t.channels, t.power, t.cfg, t.bindStateChanged)
	err := s.Start()
	if err == nil {
		t.session = s
	}
	t.mu.Unlock()

	if err != nil {
		log.WithError(err).Error("session start failed")
		return err
	}
	t.sched.Start(proto.InitialWait, t.tick)
	return nil
}

// Bind restarts the session from the binding phase.
func (t *Transmitter) Bind() error { return t.Init() }

// Reset stops scheduling and resets the transceiver. A failed reset is not
// retried.
func (t *Transmitter) Reset() error {
	t.sched.Stop()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.session = nil
	t.bindRemaining = 0

	if err := t.driver.Reset(); err != nil {
		log.WithError(err).Error("transceiver reset failed")
		return fmt.Errorf("%w: %v", ErrResetFailed, err)
	}
	log.Info("transceiver reset")
	return nil
}

// Deinit is Reset under the name the host uses when switching protocols.
func (t *Transmitter) Deinit() error { return t.Reset() }

func (t *Transmitter) tick() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return proto.PacketPeriod
	}
	return t.session.Tick()
}

// bindStateChanged runs inside Session calls, with t.mu already held.
func (t *Transmitter) bindStateChanged(remaining time.Duration) {
	t.bindRemaining = remaining
	if t.observer != nil {
		t.observer(remaining)
	}
}

func (t *Transmitter) Capabilities() Capabilities {
	return Capabilities{
		NumChannels:        proto.NumChannels,
		DefaultNumChannels: proto.DefaultNumChannels,
		Autobind:           true,
		Telemetry:          proto.TelemetryUnsupported,
	}
}

// CurrentID returns the configured fixed id, 0 when none is set.
func (t *Transmitter) CurrentID() uint32 { return t.cfg.FixedID }

func (t *Transmitter) Running() bool { return t.sched.Running() }

// BindRemaining is the last bind time announced by the session.
func (t *Transmitter) BindRemaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.bindRemaining
}

func (t *Transmitter) Status() (Status, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return Status{}, ErrNotStarted
	}
	return t.session.Status(), nil
}
