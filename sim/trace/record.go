// Package trace provides decision-trace recording for path-selection analysis.
// It stores pure data types and does not import sim/ or sim/multipath/.
package trace

// SelectionRecord captures one entropy handed out by a flow's selector.
type SelectionRecord struct {
	FlowID  int
	Clock   int64
	Seq     uint64 // flow-local transmission number, retransmits included
	Entropy uint16
	Path    int    // fabric path the entropy mapped to
	Source  string // REPS selection branch; empty for other policies
}

// FeedbackRecord captures one feedback event delivered to a flow's selector.
type FeedbackRecord struct {
	FlowID   int
	Clock    int64
	Entropy  uint16
	Path     int
	Feedback string
	Mql      uint8
	HasMql   bool // false for timeouts, which carry no queue level
}
