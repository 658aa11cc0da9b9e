// Package engine drives the multi-pattern scheduled publication loop:
// per-pattern timers multiplexed onto one serial dispatcher, a global
// publication cap, artificial publish delays, and one idempotent
// shutdown path shared by the signal, cap-reached and
// total-registration-failure routes.
package engine

import (
	"io"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"

	"github.com/ndntg/namepush/cfg"
	"github.com/ndntg/namepush/face"
	"github.com/ndntg/namepush/ndn"
	"github.com/ndntg/namepush/telemetry"
)

// Run results, surfaced as the process exit status
const (
	ExitOK    = 0
	ExitFault = 1
)

// Options configures one run
type Options struct {
	MaxCount uint64        // Total publication cap; 0 selects report-only mode
	Delay    time.Duration // Global per-publication delay, stacks on pattern delays
	Quiet    bool          // Drop per-pattern ids from publish logs
	Rand     *rand.Rand    // Payload filler source; nil = time-seeded
	ReportTo io.Writer     // Final report destination; nil = os.Stdout
}

// patternState is the mutable runtime counterpart of one pattern
type patternState struct {
	clock  *Clock
	handle face.RegisteredPrefix
	failed bool
}

// Engine owns the patterns, the face, the counters and the event loop.
// All timer firings, registration-failure callbacks and the signal
// reaction execute strictly serially on the loop goroutine, so none of
// the engine's state needs locking.
type Engine struct {
	opts     Options
	patterns []cfg.Pattern
	face     face.Face
	keychain *ndn.KeyChain
	stats    *Stats
	log      zerolog.Logger
	rng      *rand.Rand

	tasks  chan func()
	sigCh  chan os.Signal
	states []patternState

	stopped  bool
	hadError bool
}

// New creates an engine for the loaded patterns
func New(patterns []cfg.Pattern, f face.Face, opts Options, logger zerolog.Logger) *Engine {
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	out := opts.ReportTo
	if out == nil {
		out = os.Stdout
	}
	return &Engine{
		opts:     opts,
		patterns: patterns,
		face:     f,
		keychain: ndn.NewKeyChain(),
		stats:    NewStats(patterns, out),
		log:      logger,
		rng:      rng,
		// One in-flight firing per pattern plus one failure callback per
		// pattern bounds the posts that can be outstanding, so sends
		// below never block.
		tasks:  make(chan func(), 2*len(patterns)+2),
		sigCh:  make(chan os.Signal, 1),
		states: make([]patternState, len(patterns)),
	}
}

// Stats exposes the run's counters, e.g. for the admin surface
func (e *Engine) Stats() *Stats {
	return e.stats
}

// Run executes the publication loop until shutdown and returns the exit
// status. Report-only mode (no cap) prints zero statistics and returns
// without registering anything or entering the loop.
func (e *Engine) Run() int {
	for i := range e.patterns {
		e.patterns[i].LogConfiguration(e.log, i+1)
	}

	if e.opts.MaxCount == 0 {
		e.stats.Report()
		return ExitOK
	}

	e.log.Info().Int("patterns", len(e.patterns)).Msg("Starting data push")

	signal.Notify(e.sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(e.sigCh)

	for id := range e.patterns {
		e.register(id)
		if e.stopped {
			break
		}
	}

	if !e.stopped {
		for id := range e.patterns {
			if e.states[id].handle == nil {
				continue
			}
			id := id
			clock := NewClock(e.patterns[id].GenerationInterval)
			e.states[id].clock = clock
			clock.Start(func() { e.post(func() { e.publish(id) }) })
			telemetry.ActivePatterns.Inc()
		}
	}

	for !e.stopped {
		select {
		case task := <-e.tasks:
			task()
		case <-e.sigCh:
			e.onSignal()
		}
	}

	if e.hadError {
		return ExitFault
	}
	return ExitOK
}

// Interrupt is the programmatic equivalent of a termination signal
func (e *Engine) Interrupt() {
	e.post(func() { e.onSignal() })
}

// post hands a task to the serial loop
func (e *Engine) post(task func()) {
	select {
	case e.tasks <- task:
	default:
		// Only reachable once the loop has stopped draining
	}
}

// register requests one prefix registration. A synchronous error and an
// asynchronous rejection both land in onRegisterFailed.
func (e *Engine) register(id int) {
	p := &e.patterns[id]
	e.log.Info().Int("pattern", id+1).Str("name", p.Name).Msg("Registering prefix")

	handle, err := e.face.Register(p.Name, func(reason error) {
		e.post(func() { e.onRegisterFailed(id, reason) })
	})
	if err != nil {
		e.onRegisterFailed(id, err)
		return
	}
	e.states[id].handle = handle
}

// onRegisterFailed excludes the pattern from publishing and, once every
// pattern has failed, flags the run and stops.
func (e *Engine) onRegisterFailed(id int, reason error) {
	if e.stopped || e.states[id].failed {
		return
	}
	st := &e.states[id]
	st.failed = true

	p := &e.patterns[id]
	e.log.Error().Int("pattern", id+1).Str("name", p.Name).Err(reason).Msg("Prefix registration failed")
	telemetry.RegistrationFailuresTotal.Inc()

	if st.clock != nil {
		st.clock.Stop()
		telemetry.ActivePatterns.Dec()
	}
	if st.handle != nil {
		st.handle.Withdraw()
		st.handle = nil
	}

	if e.stats.RecordRegistrationFailure() == uint64(len(e.patterns)) {
		e.log.Error().Msg("All prefix registrations failed")
		e.hadError = true
		e.stop()
	}
}

// publish is one pattern's firing: build, sign, count, delay, emit,
// re-arm, then check the global cap. The counters move after signing and
// before emission, so a publication that fails to emit has already been
// counted; preserved, known behavior.
func (e *Engine) publish(id int) {
	if e.stopped || e.states[id].failed {
		return
	}
	p := &e.patterns[id]
	st := &e.states[id]

	data := &ndn.Data{Name: p.Name}
	if p.FreshnessPeriod != nil {
		data.FreshnessPeriod = *p.FreshnessPeriod
	}
	if p.ContentType != nil {
		data.ContentType = *p.ContentType
	}

	payload, err := GeneratePayload(p, e.stats.Published(id), e.rng)
	if err != nil {
		e.fault(err)
		return
	}
	data.Content = payload

	if err := e.keychain.Sign(data, p.SigningInfo); err != nil {
		e.fault(err)
		return
	}

	local, global := e.stats.RecordPublish(id)
	telemetry.PublishedTotal.With(p.Name).Inc()
	telemetry.PublishedBytesTotal.Add(float64(len(payload)))

	if !e.opts.Quiet {
		e.log.Info().Int("pattern", id+1).
			Uint64("global_seq", global).Uint64("local_seq", local).
			Str("name", p.Name).Msg("Send data")
	}
	e.log.Debug().Str("name", p.Name).Int("bytes", len(payload)).
		Uint64("checksum", xxhash.Sum64(payload)).Msg("Payload built")

	// Delays stack and run right before emission; the loop is serial, so
	// a sleeping publication stalls every pattern for its duration.
	if p.ContentDelay > 0 {
		time.Sleep(p.ContentDelay)
	}
	if e.opts.Delay > 0 {
		time.Sleep(e.opts.Delay)
	}

	emitStart := time.Now()
	if err := e.face.Put(data); err != nil {
		e.fault(err)
		return
	}
	telemetry.PublishSeconds.Observe(time.Since(emitStart).Seconds())

	ev := e.log.Info()
	if !e.opts.Quiet {
		ev = ev.Int("pattern", id+1)
	}
	ev.Uint64("global_seq", global).Uint64("local_seq", local).
		Str("name", p.Name).Msg("Successfully sent data")

	st.clock.Rearm()

	if global >= e.opts.MaxCount {
		e.log.Info().Uint64("count", global).Msg("Finished data sending")
		e.withdrawAll()
		signal.Stop(e.sigCh)
		e.stop()
	}
}

// onSignal reacts to external termination. A signal before the cap is
// reached makes the run an error outcome even though shutdown completes
// cleanly.
func (e *Engine) onSignal() {
	if e.stats.Total() < e.opts.MaxCount {
		e.hadError = true
		e.log.Warn().Uint64("published", e.stats.Total()).Uint64("cap", e.opts.MaxCount).
			Msg("Terminated before reaching the publication cap")
	}
	e.log.Info().Msg("Termination signal received")
	e.stop()
}

// fault records an unrecoverable runtime error and stops
func (e *Engine) fault(err error) {
	e.log.Error().Err(err).Msg("Unrecoverable fault in publish path")
	e.hadError = true
	e.stop()
}

// stop is the single termination path. Every shutdown route funnels here;
// repeat calls are no-ops, and the withdrawals it performs are safe on
// handles already released.
func (e *Engine) stop() {
	if e.stopped {
		return
	}
	e.stopped = true

	for i := range e.states {
		if c := e.states[i].clock; c != nil {
			c.Stop()
		}
	}
	telemetry.ActivePatterns.Set(0)

	e.stats.Report()
	e.withdrawAll()
	if err := e.face.Close(); err != nil {
		e.log.Warn().Err(err).Msg("Failed to close face")
	}
}

func (e *Engine) withdrawAll() {
	for i := range e.states {
		if h := e.states[i].handle; h != nil {
			h.Withdraw()
		}
	}
}
