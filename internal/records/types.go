// Package records translates between typed lifecycle records and the
// column-keyed rows of the Record Store. Lifecycle code never sees column
// names; this package is the only place they appear.
package records

import "time"

// Table names in the Record Store.
const (
	TableSubmissions = "Submissions"
	TableTraces      = "Traces"
	TableModules     = "Modules"
	TableAssignments = "Assignments"
	TableLLMRequests = "LLMRequests"
)

// Status is the kind of a persisted submission.
type Status string

const (
	StatusInitial   Status = "INITIAL"
	StatusMastery   Status = "MASTERY"
	StatusCorrected Status = "CORRECTED"
)

// Submission is one student's response to one topic's diagnostic. It is
// never edited; a revision is a new Submission for the same user and topic.
type Submission struct {
	ID      string
	UserID  string
	Group   string
	TopicID string

	Tier1Answer     string
	Tier2Confidence string
	Tier3Reasoning  string
	Tier4Confidence string

	// Tier5Answer and Tier6Confidence are set on MASTERY and CORRECTED
	// submissions only.
	Tier5Answer     string
	Tier6Confidence string

	Status    Status
	Timestamp time.Time
}

// EventType classifies a trace.
type EventType string

const (
	EventHintRequested   EventType = "HINT_REQUESTED"
	EventModuleSubmit    EventType = "MODULE_SUBMIT"
	EventChatTurn        EventType = "CHAT_TURN"
	EventMasteryDetected EventType = "MASTERY_DETECTED"
	EventTopicLeft       EventType = "TOPIC_LEFT"
)

// Trace is an append-only research event.
type Trace struct {
	UserID    string
	EventType EventType
	Details   string
	Timestamp time.Time
}

// Module is a teacher-authored diagnostic item for one topic.
type Module struct {
	TopicID       string
	Title         string
	Question      string
	Options       []string
	CorrectAnswer string
	ScaffoldGoal  string
}

// Assignment makes a topic available to a cohort.
type Assignment struct {
	Group      string
	TopicID    string
	AssignedAt time.Time
}

// LLMRequest captures a single Dialogue Service call.
type LLMRequest struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	Timestamp    time.Time
}
