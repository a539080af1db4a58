package assessment

import (
	"slices"
	"sync"
	"time"

	"github.com/abhisek/tierlab/internal/records"
	"github.com/abhisek/tierlab/internal/tutor"
)

// dialogueSession is the live conversation for one topic. It exists only
// while the student is working on the topic.
type dialogueSession struct {
	seed      tutor.Seed
	turns     []tutor.Turn
	startedAt time.Time
}

func newSession(seed tutor.Seed, now time.Time) *dialogueSession {
	return &dialogueSession{seed: seed, startedAt: now}
}

// withTurn returns the history extended by t, leaving the session untouched.
func (s *dialogueSession) withTurn(t tutor.Turn) []tutor.Turn {
	return append(slices.Clip(s.turns), t)
}

// progress is the tracker's record for one (user, topic) pair. Its mutex
// serialises operations on the pair, including the blocking tutor call.
type progress struct {
	mu sync.Mutex

	userID  string
	topicID string
	group   string
	loaded  bool

	state   State
	mastery bool
	initial *records.Submission
	session *dialogueSession
	updated time.Time
}

func (p *progress) snapshot() *Progress {
	out := &Progress{
		UserID:      p.userID,
		TopicID:     p.topicID,
		Group:       p.group,
		State:       p.state,
		MasteryFlag: p.mastery,
		HasSession:  p.session != nil,
		UpdatedAt:   p.updated,
	}
	if p.session != nil {
		out.Turns = slices.Clone(p.session.turns)
	}
	return out
}
