// sim/simulator.go
package sim

import (
	"container/heap"
	"fmt"

	"github.com/google/uuid"
	"github.com/netsim-lab/uec-mp/sim/multipath"
	"github.com/netsim-lab/uec-mp/sim/telemetry"
	"github.com/netsim-lab/uec-mp/sim/trace"
	"github.com/sirupsen/logrus"
)

// queuedEvent pairs an event with its scheduling sequence number.
type queuedEvent struct {
	ev  Event
	seq uint64
}

// EventQueue implements heap.Interface and orders events by timestamp, then by
// scheduling order, so equal-time events run in the order they were scheduled.
// See canonical Golang example here: https://pkg.go.dev/container/heap#example-package-IntHeap
type EventQueue []queuedEvent

func (eq EventQueue) Len() int { return len(eq) }
func (eq EventQueue) Less(i, j int) bool {
	if eq[i].ev.Timestamp() != eq[j].ev.Timestamp() {
		return eq[i].ev.Timestamp() < eq[j].ev.Timestamp()
	}
	return eq[i].seq < eq[j].seq
}
func (eq EventQueue) Swap(i, j int) { eq[i], eq[j] = eq[j], eq[i] }

func (eq *EventQueue) Push(x any) {
	*eq = append(*eq, x.(queuedEvent))
}

func (eq *EventQueue) Pop() any {
	old := *eq
	n := len(old)
	item := old[n-1]
	*eq = old[0 : n-1]
	return item
}

// Simulator is the core object that holds simulation time, fabric and flow
// state, and the event loop. It is the clock every REPS selector reads.
type Simulator struct {
	// RunID identifies this run in logs and exported traces. It is not
	// derived from the seed.
	RunID   string
	Clock   int64
	Horizon int64
	// EventQueue has all the simulator events, like send and feedback events
	EventQueue EventQueue
	Fabric     *Fabric
	Flows      []*Flow
	Metrics    *Metrics
	// Trace is nil unless the bundle enables decision tracing.
	Trace *trace.SimulationTrace
	// Telemetry is optional; a nil collector records nothing.
	Telemetry *telemetry.Collector

	policy      string
	nextSeq     uint64
	flowsDone   int
	frozenFlows int
}

// NewSimulator validates bundle, then builds the fabric and every flow's
// selector. All randomness derives from bundle.Seed.
func NewSimulator(bundle *ScenarioBundle, collector *telemetry.Collector) (*Simulator, error) {
	if err := bundle.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	rng := NewPartitionedRNG(NewSimulationKey(bundle.Seed))
	selectorCfg := bundle.Multipath.SelectorConfig()

	sim := &Simulator{
		RunID:     uuid.New().String(),
		Horizon:   bundle.Horizon,
		Fabric:    NewFabric(selectorCfg.NoOfPaths, selectorCfg.Trimming, bundle.Fabric, rng.ForSubsystem(SubsystemFabric)),
		Metrics:   NewMetrics(),
		Telemetry: collector,
		policy:    selectorCfg.Policy,
	}
	logrus.Debugf("run %s: seed=%d policy=%s", sim.RunID, bundle.Seed, selectorCfg.Policy)
	if sim.policy == "" {
		sim.policy = multipath.PolicyOblivious
	}
	if trace.TraceLevel(bundle.Trace) == trace.TraceLevelDecisions {
		sim.Trace = trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelDecisions})
		sim.Trace.RunID = sim.RunID
	}

	for i := 0; i < bundle.Flows.Count; i++ {
		selector, err := multipath.NewPathSelector(selectorCfg, rng.ForFlow(i), sim)
		if err != nil {
			return nil, fmt.Errorf("flow %d: %w", i, err)
		}
		selector.SetDebugTag(SubsystemFlow(i))
		flow := NewFlow(i, selector, uint64(bundle.Flows.Cwnd), uint64(bundle.Flows.Packets), int64(i)*bundle.Flows.StartGap)
		sim.Flows = append(sim.Flows, flow)
		sim.Schedule(&SendEvent{time: flow.StartTime, Flow: flow})
	}
	sim.Metrics.FlowsTotal = len(sim.Flows)

	for _, f := range bundle.Fabric.Failures {
		sim.Schedule(&FailPathEvent{time: f.At, Path: f.Path})
		if f.Recover > f.At {
			sim.Schedule(&RecoverPathEvent{time: f.Recover, Path: f.Path})
		}
	}
	return sim, nil
}

// Now implements multipath.Clock.
func (sim *Simulator) Now() int64 { return sim.Clock }

// Policy returns the selector policy name every flow uses.
func (sim *Simulator) Policy() string { return sim.policy }

// Schedule pushes an event into the simulator's EventQueue.
func (sim *Simulator) Schedule(ev Event) {
	heap.Push(&sim.EventQueue, queuedEvent{ev: ev, seq: sim.nextSeq})
	sim.nextSeq++
}

// Run executes events until every flow completes, the queue drains, or the
// clock passes the horizon.
func (sim *Simulator) Run() {
	for len(sim.EventQueue) > 0 && sim.flowsDone < len(sim.Flows) {
		// get the next event to be simulated
		ev := heap.Pop(&sim.EventQueue).(queuedEvent).ev
		// advance the clock
		sim.Clock = ev.Timestamp()
		if sim.Clock > sim.Horizon {
			break
		}
		logrus.Debugf("[tick %07d] Executing %T", sim.Clock, ev)
		ev.Execute(sim)
	}
	sim.Metrics.SimEndedTime = min(sim.Clock, sim.Horizon)
	logrus.Infof("[tick %07d] Simulation ended, %d/%d flows completed", sim.Clock, sim.flowsDone, len(sim.Flows))
}

// transmit sends one packet of flow and schedules its feedback.
func (sim *Simulator) transmit(flow *Flow) {
	seq := flow.SeqSent()
	entropy := flow.NextEntropy()
	d := sim.Fabric.Transmit(entropy)

	sim.Metrics.Sends++
	sim.Metrics.PathPackets[d.Path]++
	sim.Telemetry.RecordSelection(sim.policy)
	sim.Telemetry.RecordPathPacket(d.Path)
	if sim.Trace != nil {
		sim.Trace.RecordSelection(trace.SelectionRecord{
			FlowID:  flow.ID,
			Clock:   sim.Clock,
			Seq:     seq,
			Entropy: entropy,
			Path:    d.Path,
			Source:  selectionSource(flow.Selector),
		})
	}

	sim.Schedule(&FeedbackEvent{
		time:     sim.Clock + d.Delay,
		Flow:     flow,
		Entropy:  entropy,
		Path:     d.Path,
		Feedback: d.Feedback,
		Mql:      d.Mql,
		HasMql:   d.HasMql,
	})
}

// deliverFeedback hands feedback to the selector first, then the MQL level,
// so a GOOD entropy is buffered before it is grouped by level.
func (sim *Simulator) deliverFeedback(e *FeedbackEvent) {
	if e.Feedback != multipath.PathTimeout {
		sim.Fabric.Release(e.Path)
	}

	wasFrozen := isFrozen(e.Flow.Selector)
	e.Flow.Selector.ProcessEv(e.Entropy, e.Feedback)
	if e.HasMql {
		e.Flow.Selector.ProcessMql(e.Entropy, e.Mql)
		sim.Telemetry.RecordMql(e.Mql)
	}
	if frozen := isFrozen(e.Flow.Selector); frozen != wasFrozen {
		if frozen {
			sim.frozenFlows++
		} else {
			sim.frozenFlows--
		}
		sim.Telemetry.SetFrozenFlows(sim.frozenFlows)
	}

	sim.Metrics.Feedback[e.Feedback]++
	sim.Telemetry.RecordFeedback(sim.policy, e.Feedback.String())
	if e.Feedback == multipath.PathNACK || e.Feedback == multipath.PathTimeout {
		sim.Metrics.Retransmits++
	}
	if sim.Trace != nil {
		sim.Trace.RecordFeedback(trace.FeedbackRecord{
			FlowID:   e.Flow.ID,
			Clock:    sim.Clock,
			Entropy:  e.Entropy,
			Path:     e.Path,
			Feedback: e.Feedback.String(),
			Mql:      e.Mql,
			HasMql:   e.HasMql,
		})
	}

	if e.Flow.OnFeedback(e.Feedback, sim.Clock) {
		sim.flowsDone++
		sim.Metrics.FlowCompletion[e.Flow.ID] = e.Flow.CompletionTime()
		sim.Telemetry.RecordFlowCompletion(e.Flow.CompletionTime())
		logrus.Infof("[tick %07d] flow %d completed in %d ticks", sim.Clock, e.Flow.ID, e.Flow.CompletionTime())
	}
}

// RepsSelectors returns the REPS selectors of all flows, in flow order.
// Empty for other policies.
func (sim *Simulator) RepsSelectors() []*multipath.Reps {
	var out []*multipath.Reps
	for _, f := range sim.Flows {
		if r, ok := f.Selector.(*multipath.Reps); ok {
			out = append(out, r)
		}
	}
	return out
}

func isFrozen(s multipath.PathSelector) bool {
	r, ok := s.(*multipath.Reps)
	return ok && r.IsFrozen()
}

func selectionSource(s multipath.PathSelector) string {
	if r, ok := s.(*multipath.Reps); ok {
		return string(r.LastSource())
	}
	return ""
}
