// Package engine implements the dual-path audio engine: a real-time
// caller always gets a block back immediately, either fully processed by
// a background guard worker running ahead of the callback on a lookahead
// ring, or, when the worker cannot keep up, passed through a cheaper
// inline fallback path.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cwbudde/algo-daw/audio/block"
)

// Mode selects how Process routes each block.
type Mode int

const (
	// ModeRealTime processes every block inline on the caller's goroutine
	// using the fallback processor. No guard worker is involved. If no
	// fallback was configured, the block passes through unchanged.
	ModeRealTime Mode = iota
	// ModeHybrid attempts to hand the block to the guard worker; if the
	// worker's result queue is empty (it fell behind), the block is run
	// through the fallback processor instead, without counting an
	// underrun — the whole point of Hybrid mode is to hide an occasional
	// slow guard cycle from the caller.
	ModeHybrid
	// ModeGuard requires every block to be processed by the guard worker.
	// If the worker has not produced a result in time, Process returns
	// ErrUnderrun rather than silently falling back.
	ModeGuard
)

// ErrUnderrun is returned by Process in ModeGuard when the guard worker
// did not deliver a processed block in time.
var ErrUnderrun = errors.New("engine: guard worker underrun")

// ErrStopTimeout is returned by StopGuard when the worker goroutine does
// not exit within the bound.
var ErrStopTimeout = errors.New("engine: guard worker did not stop in time")

// guardStopBound is the maximum time StopGuard waits for the worker
// goroutine to exit before giving up.
const guardStopBound = 500 * time.Millisecond

// Processor is the contract for both the fallback and guard processing
// paths: it mutates blk in place and must not allocate on the hot path.
type Processor interface {
	Process(blk *block.Block)
}

// Stats holds atomic counters describing how blocks have been routed.
// Safe to read concurrently with Process.
type Stats struct {
	GuardBlocks    atomic.Int64
	FallbackBlocks atomic.Int64
	Underruns      atomic.Int64
}

// Snapshot is a point-in-time copy of Stats suitable for logging or
// display.
type Snapshot struct {
	GuardBlocks    int64
	FallbackBlocks int64
	Underruns      int64
}

// Snapshot reads all counters atomically, each independently; this is
// not a single consistent transaction.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		GuardBlocks:    s.GuardBlocks.Load(),
		FallbackBlocks: s.FallbackBlocks.Load(),
		Underruns:      s.Underruns.Load(),
	}
}

// slotState tracks a ring slot's lifecycle: a single audio-callback
// thread advances it Empty -> Filled (submit) and Done -> Empty
// (consume); the guard goroutine advances it Filled -> Done. Both sides
// only ever read and CAS-free-store this field, never the position
// counters, which is why no mutex is needed.
type slotState int32

const (
	slotEmpty slotState = iota
	slotFilled
	slotDone
)

// ringSlot holds one pre-allocated lookahead block and its handoff
// state.
type ringSlot struct {
	blk   *block.Block
	state atomic.Int32
}

// Engine is the dual-path audio engine described by the real-time
// concurrency model: exactly one audio-callback thread ever calls
// Process, and at most one guard-worker goroutine runs at a time. The
// callback thread owns submitPos/consumePos outright; it never needs to
// synchronize them because nothing else ever touches them.
type Engine struct {
	mode     atomic.Int32
	fallback Processor
	guard    Processor
	stats    Stats

	lookahead  int
	ring       []ringSlot
	submitPos  int
	consumePos int

	expectedSeq     uint64
	haveExpectedSeq bool

	wake   chan struct{}
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates an Engine using fallback for inline processing. fallback
// may be nil, in which case ModeRealTime (and any fallback-routed block
// in ModeHybrid) passes the block through unchanged. lookaheadBlocks
// sets how many blocks the guard worker is allowed to run ahead of the
// callback thread once StartGuard is called; it must be at least 1.
func New(fallback Processor, lookaheadBlocks int) (*Engine, error) {
	if lookaheadBlocks < 1 {
		return nil, fmt.Errorf("engine: lookahead must be >= 1, got %d", lookaheadBlocks)
	}
	e := &Engine{
		fallback:  fallback,
		lookahead: lookaheadBlocks,
	}
	e.mode.Store(int32(ModeRealTime))
	return e, nil
}

// SetMode changes the routing mode. Safe to call concurrently with
// Process; takes effect on the next call.
func (e *Engine) SetMode(m Mode) {
	e.mode.Store(int32(m))
}

// ModeValue returns the current routing mode.
func (e *Engine) ModeValue() Mode {
	return Mode(e.mode.Load())
}

// Stats returns the engine's live counters.
func (e *Engine) Stats() *Stats {
	return &e.stats
}

// StartGuard launches the guard worker goroutine and allocates its
// lookahead ring: lookaheadBlocks+1 pre-allocated blocks of blockSize
// frames each, so the worker can run up to lookaheadBlocks ahead of the
// callback thread before it has to wait. It is an error to call
// StartGuard twice without an intervening StopGuard.
func (e *Engine) StartGuard(guard Processor, blockSize int) error {
	if guard == nil {
		return fmt.Errorf("engine: guard processor must not be nil")
	}
	if blockSize <= 0 {
		return fmt.Errorf("engine: block size must be > 0, got %d", blockSize)
	}
	if e.cancel != nil {
		return fmt.Errorf("engine: guard worker already running")
	}

	ring := make([]ringSlot, e.lookahead+1)
	for i := range ring {
		blk, err := block.New(blockSize)
		if err != nil {
			return fmt.Errorf("engine: allocating lookahead ring: %w", err)
		}
		ring[i].blk = blk
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.guard = guard
	e.ring = ring
	e.submitPos = 0
	e.consumePos = 0
	e.haveExpectedSeq = false
	e.wake = make(chan struct{}, 1)
	e.done = make(chan struct{})

	go e.runGuard(ctx)
	return nil
}

// runGuard walks the ring in submission order, processing each slot in
// place as soon as it is filled and marking it done. It owns a private
// walk index and never touches submitPos/consumePos, so it needs no
// synchronization with the callback thread beyond the per-slot atomic
// state.
func (e *Engine) runGuard(ctx context.Context) {
	defer close(e.done)
	size := len(e.ring)
	idx := 0
	for {
		slot := &e.ring[idx]
		for slotState(slot.state.Load()) != slotFilled {
			select {
			case <-ctx.Done():
				return
			case <-e.wake:
			}
		}
		e.guard.Process(slot.blk)
		slot.state.Store(int32(slotDone))
		idx = (idx + 1) % size
	}
}

// StopGuard signals the guard worker to exit and waits up to the 500ms
// bound for it to do so. It is safe to call even if no guard is
// running.
func (e *Engine) StopGuard() error {
	if e.cancel == nil {
		return nil
	}
	e.cancel()
	select {
	case <-e.done:
	case <-time.After(guardStopBound):
		return ErrStopTimeout
	}
	e.cancel = nil
	e.guard = nil
	e.ring = nil
	e.submitPos = 0
	e.consumePos = 0
	e.haveExpectedSeq = false
	e.wake = nil
	e.done = nil
	return nil
}

// Process routes blk according to the current mode, mutating it in place,
// and returns any routing error (ErrUnderrun in ModeGuard only; Hybrid
// never errors by design).
func (e *Engine) Process(blk *block.Block) error {
	switch e.ModeValue() {
	case ModeRealTime:
		e.runFallback(blk)
		e.stats.FallbackBlocks.Add(1)
		return nil

	case ModeHybrid:
		if e.tryGuard(blk) {
			e.stats.GuardBlocks.Add(1)
			return nil
		}
		e.runFallback(blk)
		e.stats.FallbackBlocks.Add(1)
		return nil

	case ModeGuard:
		if e.tryGuard(blk) {
			e.stats.GuardBlocks.Add(1)
			return nil
		}
		e.stats.Underruns.Add(1)
		return ErrUnderrun

	default:
		e.runFallback(blk)
		e.stats.FallbackBlocks.Add(1)
		return nil
	}
}

// runFallback runs blk through the fallback processor if one is
// configured; with none set, blk passes through unchanged.
func (e *Engine) runFallback(blk *block.Block) {
	if e.fallback != nil {
		e.fallback.Process(blk)
	}
}

// tryGuard is wait-free: it never blocks the callback thread. It first
// makes a non-blocking attempt to submit blk's current (unprocessed)
// content into the ring slot the guard worker will next pick up, then
// makes a non-blocking attempt to pop the oldest outstanding processed
// block into blk. Submission is attempted unconditionally, independent
// of whether the pop below succeeds, so the pipeline keeps being fed
// even while it is still filling (the "warm-up" period right after
// StartGuard, during which pop fails because nothing is done yet).
func (e *Engine) tryGuard(blk *block.Block) bool {
	if e.cancel == nil {
		return false
	}
	size := len(e.ring)

	submitSlot := &e.ring[e.submitPos%size]
	if slotState(submitSlot.state.Load()) == slotEmpty {
		if err := submitSlot.blk.CopyFrom(blk); err == nil {
			submitSlot.state.Store(int32(slotFilled))
			e.submitPos++
			select {
			case e.wake <- struct{}{}:
			default:
			}
		}
	}

	consumeSlot := &e.ring[e.consumePos%size]
	if slotState(consumeSlot.state.Load()) != slotDone {
		return false
	}
	if err := blk.CopyFrom(consumeSlot.blk); err != nil {
		return false
	}
	consumeSlot.state.Store(int32(slotEmpty))
	e.consumePos++

	if e.haveExpectedSeq && blk.Sequence != e.expectedSeq {
		e.stats.Underruns.Add(1)
	}
	e.expectedSeq = blk.Sequence + 1
	e.haveExpectedSeq = true
	return true
}
