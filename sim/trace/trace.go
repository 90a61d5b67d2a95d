package trace

// TraceLevel controls the verbosity of decision tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelDecisions captures every selection and feedback event.
	TraceLevelDecisions TraceLevel = "decisions"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelDecisions: true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// SimulationTrace collects decision records during a scenario run.
type SimulationTrace struct {
	RunID      string // identifies the simulator run that produced the trace
	Config     TraceConfig
	Selections []SelectionRecord
	Feedbacks  []FeedbackRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:     config,
		Selections: make([]SelectionRecord, 0),
		Feedbacks:  make([]FeedbackRecord, 0),
	}
}

// RecordSelection appends a selection record.
func (st *SimulationTrace) RecordSelection(record SelectionRecord) {
	st.Selections = append(st.Selections, record)
}

// RecordFeedback appends a feedback record.
func (st *SimulationTrace) RecordFeedback(record FeedbackRecord) {
	st.Feedbacks = append(st.Feedbacks, record)
}
