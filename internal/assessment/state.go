// Package assessment tracks each student's progress through a topic: the
// four-tier initial submission, the tutoring dialogue, mastery detection and
// the revised submission.
package assessment

import (
	"time"

	"github.com/abhisek/tierlab/internal/tutor"
)

// State is the lifecycle position of one (user, topic) pair.
type State string

const (
	StateNotStarted       State = "NOT_STARTED"
	StateInitialSubmitted State = "INITIAL_SUBMITTED"
	StateTutoringActive   State = "TUTORING_ACTIVE"
	StateMasteryDetected  State = "MASTERY_DETECTED"
	StateRevisedSubmitted State = "REVISED_SUBMITTED"
)

// InitialTiers is the student's four-tier diagnostic response.
type InitialTiers struct {
	Answer           string `json:"tier1_answer"`
	AnswerConfidence string `json:"tier2_confidence"`
	Reasoning        string `json:"tier3_reasoning"`
	ReasonConfidence string `json:"tier4_confidence"`
}

func (t InitialTiers) validate() error {
	switch {
	case isBlank(t.Answer):
		return blank("tier1_answer")
	case isBlank(t.AnswerConfidence):
		return blank("tier2_confidence")
	case isBlank(t.Reasoning):
		return blank("tier3_reasoning")
	case isBlank(t.ReasonConfidence):
		return blank("tier4_confidence")
	}
	return nil
}

// RevisedTiers is the post-tutoring answer and confidence.
type RevisedTiers struct {
	Answer     string `json:"tier5_answer"`
	Confidence string `json:"tier6_confidence"`
}

func (t RevisedTiers) validate() error {
	switch {
	case isBlank(t.Answer):
		return blank("tier5_answer")
	case isBlank(t.Confidence):
		return blank("tier6_confidence")
	}
	return nil
}

// Progress is a snapshot of one (user, topic) pair for the presentation
// layer.
type Progress struct {
	UserID      string       `json:"user_id"`
	TopicID     string       `json:"topic_id"`
	Group       string       `json:"group,omitempty"`
	State       State        `json:"state"`
	MasteryFlag bool         `json:"mastery_flag"`
	HasSession  bool         `json:"has_session"`
	Turns       []tutor.Turn `json:"turns,omitempty"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// DialogueResult is the outcome of one dialogue turn.
type DialogueResult struct {
	// Reply is the tutor's turn with the mastery marker removed.
	Reply string `json:"reply"`

	// MasteryDetected is true only on the turn that set the mastery flag.
	MasteryDetected bool  `json:"mastery_detected"`
	State           State `json:"state"`
}
