// Package sim provides the discrete-event scenario driver for the multipath
// path selectors in sim/multipath.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - flow.go: a sender with a fixed window that asks its selector for an entropy per packet
//   - event.go: Event types that drive the simulation (Send, Feedback, FailPath, RecoverPath)
//   - simulator.go: The event loop and the send/feedback plumbing between flows and fabric
//
// # Architecture
//
// The sim package wires selectors to a simple fabric model; the selectors
// themselves live in sub-packages:
//   - sim/multipath/: PathSelector and the oblivious, bitmap, reps, reps-legacy, mixed and ecmp policies
//   - sim/trace/: Decision trace recording
//   - sim/telemetry/: Prometheus counters
//
// # Fabric Model
//
// The fabric has N equal-cost paths; entropy mod N picks the path. Each path
// reports a queue level 0-7 that rises with the packets in flight on it. At or
// above the ECN level packets are marked; at level 7 they are trimmed (NACK)
// or, without trimming, dropped. Failed paths drop everything and the sender
// sees a timeout after the RTO.
//
// # Determinism
//
// All randomness flows through PartitionedRNG: every flow's selector owns the
// RNG of subsystem "flow_N" and the fabric owns "fabric". The same seed and
// bundle always produce the same run.
package sim
