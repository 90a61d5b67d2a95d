// Package multipath implements per-flow entropy (path) selection for a
// multi-path fabric of equal-cost paths.
//
// Every flow owns one PathSelector. The transport calls NextEntropy before
// each send and ProcessEv (and, where telemetry exists, ProcessMql) for each
// feedback event. Policies:
//   - Oblivious: XOR-permuted round robin, ignores feedback.
//   - Bitmap: round robin that skips penalized paths, decaying the penalty on each skip.
//   - RepsLegacy: probe every path in the first window, then recycle GOOD paths FIFO.
//   - Reps: buffer-backed recycling with a timeout-triggered frozen mode and
//     optional MQL strict-priority grouping.
//   - Mixed: RepsLegacy recycling first, Bitmap otherwise.
//   - Ecmp: one random path for the whole flow.
//
// Selectors draw all randomness from the *rand.Rand passed at construction,
// so a seeded run is reproducible.
package multipath
