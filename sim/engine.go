package sim

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// TrafficInjector creates new packets at the start of each tick.
// Implementations live in sim/traffic.
type TrafficInjector interface {
	Inject(ctx *RuntimeContext, net *Network) error
}

// EngineConfig is the validated, immutable input to an Engine.
type EngineConfig struct {
	Network     *Network
	Algorithms  []Algorithm
	Seed        SimulationKey
	Termination TerminationPolicy
	Injector    TrafficInjector
	Dynamics    NetworkDynamics // nil means NoDynamics
	Sink        EventSink       // nil means NopSink
}

// RunSummary describes one finished algorithm run.
type RunSummary struct {
	Algorithm        Algorithm
	Ticks            int64
	Injected         int
	Delivered        int
	InFlight         int
	MeanDeliveryTime float64
	MeanHops         float64
}

// Engine runs every configured algorithm in order over the same network.
type Engine struct {
	cfg EngineConfig
	ctx *RuntimeContext
}

// NewEngine validates cfg and creates an Engine.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Network == nil {
		return nil, errors.New("engine: network is required")
	}
	if cfg.Network.Len() == 0 {
		return nil, errors.New("engine: network has no nodes")
	}
	if len(cfg.Algorithms) == 0 {
		return nil, errors.New("engine: at least one algorithm is required")
	}
	for _, a := range cfg.Algorithms {
		if !IsValidAlgorithm(string(a)) {
			return nil, fmt.Errorf("engine: unknown routing algorithm %q", a)
		}
	}
	if cfg.Termination == nil {
		return nil, errors.New("engine: termination policy is required")
	}
	if cfg.Injector == nil {
		return nil, errors.New("engine: traffic injector is required")
	}
	if cfg.Dynamics == nil {
		cfg.Dynamics = NoDynamics{}
	}
	if cfg.Sink == nil {
		cfg.Sink = NopSink{}
	}
	cfg.Algorithms = append([]Algorithm(nil), cfg.Algorithms...)
	return &Engine{
		cfg: cfg,
		ctx: NewRuntimeContext(cfg.Seed, cfg.Sink),
	}, nil
}

// Context returns the engine's runtime context.
func (e *Engine) Context() *RuntimeContext {
	return e.ctx
}

// Network returns the simulated network.
func (e *Engine) Network() *Network {
	return e.cfg.Network
}

// Run executes every algorithm to termination, in configuration order.
func (e *Engine) Run() ([]RunSummary, error) {
	summaries := make([]RunSummary, 0, len(e.cfg.Algorithms))
	for _, alg := range e.cfg.Algorithms {
		summary, err := e.RunAlgorithm(alg)
		if err != nil {
			return summaries, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// RunAlgorithm executes a single algorithm run from a fresh context.
func (e *Engine) RunAlgorithm(alg Algorithm) (RunSummary, error) {
	net := e.cfg.Network
	e.ctx.Reset(alg)
	e.cfg.Dynamics.Reset()

	factory := NewRoutingFactory(alg, net)
	for _, node := range net.Nodes() {
		node.Install(factory(node.ID))
	}
	logrus.Infof("[tick %07d] %s: starting run over %d nodes", e.ctx.Tick, alg, net.Len())

	for !e.cfg.Termination.ShouldStop(e.ctx) {
		if err := e.step(); err != nil {
			if restoreErr := e.cfg.Dynamics.OnAlgorithmEnd(e.ctx, net); restoreErr != nil {
				err = errors.Join(err, restoreErr)
			}
			return RunSummary{}, fmt.Errorf("%s: %w", alg, err)
		}
	}

	if err := e.cfg.Dynamics.OnAlgorithmEnd(e.ctx, net); err != nil {
		return RunSummary{}, fmt.Errorf("%s: %w", alg, err)
	}
	summary := e.summarize()
	logrus.Infof("[tick %07d] %s: run ended, injected=%d delivered=%d in-flight=%d",
		e.ctx.Tick, alg, summary.Injected, summary.Delivered, summary.InFlight)
	return summary, nil
}

// step executes one tick.
func (e *Engine) step() error {
	ctx, net := e.ctx, e.cfg.Network

	if err := e.cfg.Dynamics.BeforeTick(ctx, net); err != nil {
		return err
	}
	if err := e.cfg.Injector.Inject(ctx, net); err != nil {
		return err
	}
	for _, node := range net.Nodes() {
		node.App().OnTick(ctx, net)
	}
	net.ageQueuedPackets()
	sent, err := ctx.Flush(net)
	if err != nil {
		return err
	}
	ctx.Emit(TickEvent{
		Tick:            ctx.Tick,
		Algorithm:       ctx.Algorithm,
		PacketsInFlight: net.PacketsInFlight(),
		DeliveredCount:  ctx.DeliveredCount(),
		SentThisTick:    sent,
	})
	logrus.Debugf("[tick %07d] %s: sent=%d in-flight=%d delivered=%d",
		ctx.Tick, ctx.Algorithm, sent, net.PacketsInFlight(), ctx.DeliveredCount())
	ctx.Advance()
	return e.cfg.Dynamics.AfterTick(ctx, net)
}

func (e *Engine) summarize() RunSummary {
	s := RunSummary{
		Algorithm: e.ctx.Algorithm,
		Ticks:     e.ctx.Tick,
		Injected:  e.ctx.InjectedCount(),
		Delivered: e.ctx.DeliveredCount(),
		InFlight:  e.cfg.Network.PacketsInFlight(),
	}
	if s.Delivered > 0 {
		var totalTime, totalHops int64
		for _, p := range e.ctx.Delivered() {
			totalTime += p.DeliveryTime()
			totalHops += int64(p.Hops)
		}
		s.MeanDeliveryTime = float64(totalTime) / float64(s.Delivered)
		s.MeanHops = float64(totalHops) / float64(s.Delivered)
	}
	return s
}
