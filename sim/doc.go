// Package sim provides the tick-driven packet routing simulation kernel.
//
// # Reading Guide
//
// Start with these files to understand the kernel:
//   - network.go: the node arena, adjacency, BFS distances and SendPacket
//   - context.go: RuntimeContext, the per-run state (tick, RNG, pending sends)
//   - engine.go: the per-algorithm loop and the per-tick ordering
//
// # Tick Ordering
//
// Each tick runs: dynamics BeforeTick, traffic injection, OnTick for every
// node in id order, queue-time aging, flush of buffered sends, TickEvent,
// tick advance, dynamics AfterTick. Sends scheduled during the OnTick pass are
// applied only at flush, so every node decides against start-of-tick state.
//
// # Architecture
//
// The sim package defines the data model and the extension interfaces; some
// implementations live in sub-packages:
//   - sim/traffic/: injection schedules, pair selectors, pair constraints
//   - sim/topology/: topology builders and connectivity analysis
//   - sim/trace/: event recording, JSON-lines export, run summaries
//   - sim/observe/: Prometheus event sink
//   - sim/config/: YAML scenarios built into an EngineConfig
//
// # Key Interfaces
//
//   - RoutingApplication: per-node next-hop decision (QRouting, FullEchoQRouting, ShortestPath)
//   - TerminationPolicy: when a run ends (FixedTicks, TotalPacketsDelivered, Composite)
//   - NetworkDynamics: topology changes between ticks (NoDynamics, ScheduledLinkFailures)
//   - TrafficInjector: packet creation per tick
//   - EventSink: the only output boundary
package sim
