// Package playback implements the Playback Controller: the
// transport state machine that owns current_time, drives the read-ahead
// loop against a Timeline Engine on every tick, and publishes its state as
// Signals. Like an enum-state circuit breaker, state lives behind a mutex and
// every transition funnels through one guarded method; unlike it, the
// Controller is driven by an external tick rather than by request outcomes.
package playback

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/timelineio/tlplay/internal/rationaltime"
	"github.com/timelineio/tlplay/internal/signal"
	"github.com/timelineio/tlplay/internal/timelineengine"
)

// State is the transport state.
type State int

const (
	Stop State = iota
	Forward
	Reverse
)

func (s State) String() string {
	switch s {
	case Forward:
		return "forward"
	case Reverse:
		return "reverse"
	default:
		return "stop"
	}
}

// direction returns the signed playback direction implied by the state:
// +1 for Forward, -1 for Reverse, 0 while stopped.
func (s State) direction() float64 {
	switch s {
	case Forward:
		return 1
	case Reverse:
		return -1
	default:
		return 0
	}
}

// LoopMode controls what happens when current_time reaches an in/out bound.
type LoopMode int

const (
	// Loop wraps current_time back to the in-point.
	Loop LoopMode = iota
	// Once clamps to the out-point and stops.
	Once
	// PingPong reverses direction at either bound.
	PingPong
)

func (m LoopMode) String() string {
	switch m {
	case Once:
		return "once"
	case PingPong:
		return "ping-pong"
	default:
		return "loop"
	}
}

// Prefetch bounds the read-ahead window a tick issues requests for.
type Prefetch struct {
	VideoFrames  int
	AudioSeconds int
}

// DefaultPrefetch is the read-ahead window a Controller starts with.
func DefaultPrefetch() Prefetch {
	return Prefetch{VideoFrames: 8, AudioSeconds: 2}
}

// pendingVideo tracks one outstanding get_video request issued during
// read-ahead, polled (never blocked on) by subsequent ticks.
type pendingVideo struct {
	time   rationaltime.Time
	future interface{ Ready() bool }
}

// Controller is the Playback Controller. All methods are meant to be
// called from the engine's single owner thread; Tick is
// the only method expected to run on a timer.
type Controller struct {
	engine *timelineengine.Engine
	rate   float64
	log    *slog.Logger

	mu       sync.Mutex
	state    State
	loopMode LoopMode
	current  rationaltime.Time
	inOut    rationaltime.Range
	lastTick time.Time
	speed    float64
	prefetch Prefetch
	pending  []pendingVideo

	CurrentTime *signal.Signal[rationaltime.Time]
	Playback    *signal.Signal[State]
	LoopSignal  *signal.Signal[LoopMode]
	InOutRange  *signal.Signal[rationaltime.Range]
	Speed       *signal.Signal[float64]
}

// New constructs a Controller bound to engine, with current_time and the
// in/out range both starting at [0, duration).
func New(engine *timelineengine.Engine, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	rate := engine.GetDuration().Rate
	if rate <= 0 {
		rate = 24
	}
	start := rationaltime.New(0, rate)
	inOut := rationaltime.NewRange(start, engine.GetDuration())

	return &Controller{
		engine:      engine,
		rate:        rate,
		log:         log,
		state:       Stop,
		loopMode:    Loop,
		current:     start,
		inOut:       inOut,
		speed:       1,
		prefetch:    DefaultPrefetch(),
		CurrentTime: signal.New(start),
		Playback:    signal.New(Stop),
		LoopSignal:  signal.New(Loop),
		InOutRange:  signal.New(inOut),
		Speed:       signal.New(1.0),
	}
}

// Play transitions to dir (Forward or Reverse) and records lastTick so the
// next Tick computes a sane delta instead of one spanning however long
// playback had been stopped.
func (c *Controller) Play(dir State) {
	c.mu.Lock()
	c.state = dir
	c.lastTick = time.Time{}
	c.mu.Unlock()
	c.Playback.Set(dir)
}

// Stop halts playback; current_time is unchanged.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.state = Stop
	c.mu.Unlock()
	c.Playback.Set(Stop)
}

// Toggle implements the Stop↔Forward transition: any non-stopped
// state goes to Stop; Stop goes to Forward.
func (c *Controller) Toggle() {
	c.mu.Lock()
	next := Forward
	if c.state != Stop {
		next = Stop
	}
	c.state = next
	c.lastTick = time.Time{}
	c.mu.Unlock()
	c.Playback.Set(next)
}

// Seek moves current_time to t, clamped to the in/out range.
func (c *Controller) Seek(t rationaltime.Time) {
	c.mu.Lock()
	c.current = c.inOut.ClampTime(t)
	cur := c.current
	c.mu.Unlock()
	c.CurrentTime.Set(cur)
}

// StartFrame seeks to the in-point.
func (c *Controller) StartFrame() { c.Seek(c.InOutRangeValue().Start) }

// EndFrame seeks to the out-point.
func (c *Controller) EndFrame() {
	r := c.InOutRangeValue()
	c.Seek(r.EndInclusive())
}

// PrevFrame steps current_time back by one frame, clamped to the in-point.
func (c *Controller) PrevFrame() {
	c.mu.Lock()
	c.current = c.inOut.ClampTime(c.current.Sub(rationaltime.OneTick(c.rate)))
	cur := c.current
	c.mu.Unlock()
	c.CurrentTime.Set(cur)
}

// NextFrame steps current_time forward by one frame, clamped to the out-point.
func (c *Controller) NextFrame() {
	c.mu.Lock()
	c.current = c.inOut.ClampTime(c.current.Add(rationaltime.OneTick(c.rate)))
	cur := c.current
	c.mu.Unlock()
	c.CurrentTime.Set(cur)
}

// SetInOut replaces the in/out range. If current_time now falls outside
// it, it is clamped into range.
func (c *Controller) SetInOut(r rationaltime.Range) {
	c.mu.Lock()
	c.inOut = r
	c.current = r.ClampTime(c.current)
	cur := c.current
	c.mu.Unlock()
	c.InOutRange.Set(r)
	c.CurrentTime.Set(cur)
}

// SetLoop replaces the loop mode.
func (c *Controller) SetLoop(mode LoopMode) {
	c.mu.Lock()
	c.loopMode = mode
	c.mu.Unlock()
	c.LoopSignal.Set(mode)
}

// SetSpeed scales the rate at which current_time advances per tick.
func (c *Controller) SetSpeed(speed float64) {
	c.mu.Lock()
	c.speed = speed
	c.mu.Unlock()
	c.Speed.Set(speed)
}

// CurrentTimeValue returns the present current_time.
func (c *Controller) CurrentTimeValue() rationaltime.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// StateValue returns the present transport state.
func (c *Controller) StateValue() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// InOutRangeValue returns the present in/out range.
func (c *Controller) InOutRangeValue() rationaltime.Range {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inOut
}

// Tick advances current_time by the elapsed wall-clock time since the
// previous tick (at rate * direction * speed), handles in/out boundary
// crossing per the active loop mode, then issues read-ahead get_video and
// get_audio requests up to the configured Prefetch window. It never
// blocks: outstanding requests are polled with Ready() on later ticks, and
// a request that's fallen behind the playhead is dropped rather than
// awaited. now is the caller's monotonic clock reading for this tick.
func (c *Controller) Tick(ctx context.Context, now time.Time) {
	c.mu.Lock()
	state := c.state
	if state == Stop {
		c.lastTick = now
		c.mu.Unlock()
		c.reapPending()
		return
	}

	if c.lastTick.IsZero() {
		c.lastTick = now
	}
	elapsed := now.Sub(c.lastTick).Seconds()
	c.lastTick = now

	dir := state.direction()
	delta := rationaltime.FromSeconds(elapsed*c.speed*dir, c.rate).Round()
	next := c.current.Add(delta)
	next, newState := applyBoundary(next, c.inOut, state, c.loopMode)
	c.current = next
	c.state = newState

	cur := c.current
	inOut := c.inOut
	loopMode := c.loopMode
	stateChanged := newState != state
	c.mu.Unlock()

	c.CurrentTime.Set(cur)
	if stateChanged {
		c.log.Debug("transport state changed on boundary", "from", state, "to", newState, "loop", loopMode, "time", cur)
		c.Playback.Set(newState)
	}

	c.issueReadAhead(ctx, cur, inOut, loopMode)
}

// applyBoundary resolves an in/out crossing: Loop wraps,
// Once clamps and stops, PingPong reflects and reverses.
func applyBoundary(next rationaltime.Time, inOut rationaltime.Range, state State, mode LoopMode) (rationaltime.Time, State) {
	end := inOut.EndInclusive()
	start := inOut.Start

	switch {
	case next.Compare(end) > 0:
		switch mode {
		case Once:
			return end, Stop
		case PingPong:
			over := next.Sub(end)
			return end.Sub(over), Reverse
		default:
			over := next.Sub(end)
			return start.Add(over), state
		}
	case next.Compare(start) < 0:
		switch mode {
		case Once:
			return start, Stop
		case PingPong:
			under := start.Sub(next)
			return start.Add(under), Forward
		default:
			under := start.Sub(next)
			return end.Sub(under), state
		}
	default:
		return next, state
	}
}

// issueReadAhead requests get_video(current_time) plus get_video for the
// next Prefetch.VideoFrames frames, and get_audio for the next
// Prefetch.AudioSeconds one-second buckets, then stops tracking any
// previously pending video request that has fallen strictly behind the
// playhead and is no longer inside inOut. Dropped requests are not
// cancelled; their reads run to completion.
func (c *Controller) issueReadAhead(ctx context.Context, cur rationaltime.Time, inOut rationaltime.Range, loopMode LoopMode) {
	c.mu.Lock()
	prefetch := c.prefetch
	dir := c.state.direction()
	c.mu.Unlock()

	step := rationaltime.OneTick(c.rate)
	t := cur
	var fresh []pendingVideo
	for i := 0; i <= prefetch.VideoFrames; i++ {
		f := c.engine.GetVideo(ctx, t)
		fresh = append(fresh, pendingVideo{time: t, future: f})
		if dir >= 0 {
			t = t.Add(step)
		} else {
			t = t.Sub(step)
		}
		if !inOut.Contains(t) && loopMode != Loop {
			break
		}
	}

	startSecond := int(cur.Seconds())
	for i := 0; i <= prefetch.AudioSeconds; i++ {
		c.engine.GetAudio(ctx, float64(startSecond+i))
	}

	c.mu.Lock()
	kept := c.pending[:0]
	for _, p := range c.pending {
		behind := (dir >= 0 && p.time.Before(cur)) || (dir < 0 && p.time.After(cur))
		if behind && !inOut.Contains(p.time) {
			continue
		}
		kept = append(kept, p)
	}
	c.pending = append(kept, fresh...)
	c.mu.Unlock()
	c.reapPending()
}

// reapPending drops resolved pending video requests. Safe to call whether
// or not new work was just queued, including from Tick's Stop branch to
// keep the queue from growing unboundedly while stopped.
func (c *Controller) reapPending() {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.pending[:0]
	for _, p := range c.pending {
		if p.future.Ready() {
			continue
		}
		kept = append(kept, p)
	}
	c.pending = kept
}
