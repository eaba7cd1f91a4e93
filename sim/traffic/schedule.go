// Package traffic decides how many packets enter the network each tick and
// between which nodes.
package traffic

import (
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/routing-sim/routing-sim/sim"
)

// Schedule returns how many packets to inject at the current tick.
// Implementations may draw from the context RNG and emit LoadLevelUpdatedEvent.
type Schedule interface {
	Count(ctx *sim.RuntimeContext) int
}

// levelToCount turns a fractional load level into a packet count:
// floor(level) always, plus one with probability level - floor(level).
// The RNG is only drawn from when the fraction is non-zero.
func levelToCount(rng *sim.RNG, level float64) int {
	whole := math.Floor(level)
	n := int(whole)
	if frac := level - whole; frac > 0 && rng.Bernoulli(frac) {
		n++
	}
	return n
}

func checkLevel(name string, level float64) error {
	if math.IsNaN(level) || math.IsInf(level, 0) || level < 0 {
		return fmt.Errorf("%s: load level must be a non-negative finite number, got %v", name, level)
	}
	return nil
}

// === LoadLevel ===

// LoadLevel injects a constant fractional load every tick.
type LoadLevel struct {
	Level float64
}

// NewLoadLevel creates a LoadLevel schedule.
func NewLoadLevel(level float64) (*LoadLevel, error) {
	if err := checkLevel("load-level", level); err != nil {
		return nil, err
	}
	return &LoadLevel{Level: level}, nil
}

// Count implements Schedule. The level is announced once, at tick 0.
func (l *LoadLevel) Count(ctx *sim.RuntimeContext) int {
	if ctx.Tick == 0 {
		ctx.Emit(sim.LoadLevelUpdatedEvent{Tick: ctx.Tick, LoadLevel: l.Level, Trend: sim.TrendStable, Algorithm: ctx.Algorithm})
	}
	return levelToCount(ctx.Rand(), l.Level)
}

// === ProbPerTick ===

// ProbPerTick injects one packet with probability P each tick.
type ProbPerTick struct {
	P float64
}

// NewProbPerTick creates a ProbPerTick schedule. p must be in [0, 1].
func NewProbPerTick(p float64) (*ProbPerTick, error) {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return nil, fmt.Errorf("prob-per-tick: probability must be in [0, 1], got %v", p)
	}
	return &ProbPerTick{P: p}, nil
}

// Count implements Schedule.
func (s *ProbPerTick) Count(ctx *sim.RuntimeContext) int {
	if ctx.Rand().Bernoulli(s.P) {
		return 1
	}
	return 0
}

// === Gap ===

// Gap injects BatchSize packets every EveryNTicks ticks, starting at tick 0.
type Gap struct {
	EveryNTicks int64
	BatchSize   int
}

// NewGap creates a Gap schedule.
func NewGap(everyNTicks int64, batchSize int) (*Gap, error) {
	if everyNTicks <= 0 {
		return nil, fmt.Errorf("gap: every_n_ticks must be positive, got %d", everyNTicks)
	}
	if batchSize < 0 {
		return nil, fmt.Errorf("gap: batch_size must be non-negative, got %d", batchSize)
	}
	return &Gap{EveryNTicks: everyNTicks, BatchSize: batchSize}, nil
}

// Count implements Schedule.
func (g *Gap) Count(ctx *sim.RuntimeContext) int {
	if ctx.Tick%g.EveryNTicks == 0 {
		return g.BatchSize
	}
	return 0
}

// === Load-varying schedules ===

// levelFunc maps a tick to a load level.
type levelFunc func(tick int64) float64

// trendAt compares the level at tick with the level at the next tick.
func trendAt(level levelFunc, tick int64) sim.LoadTrend {
	const eps = 1e-12
	now, next := level(tick), level(tick+1)
	switch {
	case next > now+eps:
		return sim.TrendRising
	case next < now-eps:
		return sim.TrendFalling
	default:
		return sim.TrendPlateau
	}
}

// countVarying emits the current level and converts it to a count.
func countVarying(ctx *sim.RuntimeContext, level levelFunc) int {
	l := level(ctx.Tick)
	ctx.Emit(sim.LoadLevelUpdatedEvent{
		Tick:      ctx.Tick,
		LoadLevel: l,
		Trend:     trendAt(level, ctx.Tick),
		Algorithm: ctx.Algorithm,
	})
	return levelToCount(ctx.Rand(), l)
}

// Linear ramps the load level from Start to End over DurationTicks, then holds End.
type Linear struct {
	Start         float64
	End           float64
	DurationTicks int64
}

// NewLinear creates a Linear schedule.
func NewLinear(start, end float64, durationTicks int64) (*Linear, error) {
	if err := checkLevel("linear", start); err != nil {
		return nil, err
	}
	if err := checkLevel("linear", end); err != nil {
		return nil, err
	}
	if durationTicks <= 0 {
		return nil, fmt.Errorf("linear: duration_ticks must be positive, got %d", durationTicks)
	}
	return &Linear{Start: start, End: end, DurationTicks: durationTicks}, nil
}

// LevelAt returns the load level at tick.
func (l *Linear) LevelAt(tick int64) float64 {
	if tick >= l.DurationTicks {
		return l.End
	}
	if tick <= 0 {
		return l.Start
	}
	return l.Start + (l.End-l.Start)*float64(tick)/float64(l.DurationTicks)
}

// Count implements Schedule.
func (l *Linear) Count(ctx *sim.RuntimeContext) int {
	return countVarying(ctx, l.LevelAt)
}

// Triangular oscillates between Min and Max: rising over the first half of
// each period, falling over the second.
type Triangular struct {
	Min         float64
	Max         float64
	PeriodTicks int64
}

// NewTriangular creates a Triangular schedule. period_ticks must be at least 2.
func NewTriangular(minLevel, maxLevel float64, periodTicks int64) (*Triangular, error) {
	if err := checkLevel("triangular", minLevel); err != nil {
		return nil, err
	}
	if err := checkLevel("triangular", maxLevel); err != nil {
		return nil, err
	}
	if minLevel > maxLevel {
		return nil, fmt.Errorf("triangular: min %v exceeds max %v", minLevel, maxLevel)
	}
	if periodTicks < 2 {
		return nil, fmt.Errorf("triangular: period_ticks must be at least 2, got %d", periodTicks)
	}
	return &Triangular{Min: minLevel, Max: maxLevel, PeriodTicks: periodTicks}, nil
}

// LevelAt returns the load level at tick.
func (t *Triangular) LevelAt(tick int64) float64 {
	phase := tick % t.PeriodTicks
	if phase < 0 {
		phase += t.PeriodTicks
	}
	half := t.PeriodTicks / 2
	span := t.Max - t.Min
	if phase < half {
		return t.Min + span*float64(phase)/float64(half)
	}
	return t.Max - span*float64(phase-half)/float64(t.PeriodTicks-half)
}

// Count implements Schedule.
func (t *Triangular) Count(ctx *sim.RuntimeContext) int {
	return countVarying(ctx, t.LevelAt)
}

// Segment is one piece of a Segmentwise schedule: the level moves linearly
// from From to To over DurationTicks. From == To is a plateau.
type Segment struct {
	DurationTicks int64   `yaml:"duration_ticks"`
	From          float64 `yaml:"from"`
	To            float64 `yaml:"to"`
}

// Plateau returns a constant-level segment.
func Plateau(durationTicks int64, level float64) Segment {
	return Segment{DurationTicks: durationTicks, From: level, To: level}
}

// Ramp returns a linearly changing segment.
func Ramp(durationTicks int64, from, to float64) Segment {
	return Segment{DurationTicks: durationTicks, From: from, To: to}
}

// Segmentwise chains plateau and ramp segments. Past the total duration the
// final segment's end level holds.
type Segmentwise struct {
	Segments []Segment
	total    int64
}

// NewSegmentwise creates a Segmentwise schedule.
func NewSegmentwise(segments []Segment) (*Segmentwise, error) {
	if len(segments) == 0 {
		return nil, errors.New("segmentwise: at least one segment is required")
	}
	var total int64
	for i, seg := range segments {
		if seg.DurationTicks <= 0 {
			return nil, fmt.Errorf("segmentwise: segment %d: duration_ticks must be positive, got %d", i, seg.DurationTicks)
		}
		if err := checkLevel(fmt.Sprintf("segmentwise: segment %d", i), seg.From); err != nil {
			return nil, err
		}
		if err := checkLevel(fmt.Sprintf("segmentwise: segment %d", i), seg.To); err != nil {
			return nil, err
		}
		total += seg.DurationTicks
	}
	return &Segmentwise{Segments: append([]Segment(nil), segments...), total: total}, nil
}

// TotalDuration returns the summed duration of all segments.
func (s *Segmentwise) TotalDuration() int64 {
	return s.total
}

// LevelAt returns the load level at tick.
func (s *Segmentwise) LevelAt(tick int64) float64 {
	if tick >= s.total {
		return s.Segments[len(s.Segments)-1].To
	}
	start := int64(0)
	for _, seg := range s.Segments {
		if tick < start+seg.DurationTicks {
			offset := max(tick-start, 0)
			return seg.From + (seg.To-seg.From)*float64(offset)/float64(seg.DurationTicks)
		}
		start += seg.DurationTicks
	}
	return s.Segments[len(s.Segments)-1].To
}

// Count implements Schedule.
func (s *Segmentwise) Count(ctx *sim.RuntimeContext) int {
	return countVarying(ctx, s.LevelAt)
}

// === Unimplemented shapes ===

// Unimplemented is a declared schedule shape with no load curve yet.
// It injects nothing.
type Unimplemented struct {
	Name string
}

// Names of the declared but unimplemented schedule shapes.
const (
	WindowedLoad       = "windowed-load"
	PlateauThenLinear  = "plateau-then-linear"
	PlateauRampPlateau = "plateau-ramp-plateau"
	FixedLoadStep      = "fixed-load-step"
)

// NewUnimplemented creates a schedule that never injects and warns once.
func NewUnimplemented(name string) *Unimplemented {
	logrus.Warnf("traffic schedule %q has no load curve and will inject no packets", name)
	return &Unimplemented{Name: name}
}

// Count implements Schedule.
func (u *Unimplemented) Count(*sim.RuntimeContext) int {
	return 0
}
