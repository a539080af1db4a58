// Package tutor is the Dialogue Service: it turns a student's diagnostic
// answers and the conversation so far into the next tutor turn, and
// recognises the mastery marker in what the model says.
package tutor

// Role identifies who spoke a turn.
type Role string

const (
	RoleStudent Role = "student"
	RoleTutor   Role = "tutor"
)

// Turn is one utterance in a tutoring dialogue.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Seed is the fixed context of a dialogue, taken from the student's initial
// submission and the topic's module.
type Seed struct {
	TopicID      string
	TopicTitle   string
	Question     string
	Choice       string
	Reasoning    string
	ScaffoldGoal string
}
