package assessment

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/tierlab/internal/logging"
	"github.com/abhisek/tierlab/internal/records"
	"github.com/abhisek/tierlab/internal/tutor"
)

// Dialogue generates tutor turns. *tutor.Service implements it.
type Dialogue interface {
	Reply(ctx context.Context, seed tutor.Seed, turns []tutor.Turn) (string, error)
	Hint(ctx context.Context, seed tutor.Seed, turns []tutor.Turn) (string, error)
}

type progressKey struct {
	userID  string
	topicID string
}

// Tracker owns the lifecycle of every (user, topic) pair it has seen.
// Operations on different pairs run concurrently; operations on the same
// pair are serialised.
type Tracker struct {
	tables   *records.Tables
	dialogue Dialogue
	cfg      Config
	log      *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	progress map[progressKey]*progress
	traces   *traceBuffer
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the tracker's logger.
func WithLogger(log *zap.Logger) Option {
	return func(t *Tracker) { t.log = log }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// NewTracker creates a tracker persisting to tables and tutoring through
// dialogue.
func NewTracker(tables *records.Tables, dialogue Dialogue, cfg Config, opts ...Option) *Tracker {
	t := &Tracker{
		tables:   tables,
		dialogue: dialogue,
		cfg:      cfg,
		log:      zap.NewNop(),
		now:      time.Now,
		progress: make(map[progressKey]*progress),
		traces:   newTraceBuffer(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SubmitInitial records the four-tier response for a topic the student has
// not started and opens a tutoring dialogue seeded with it.
func (t *Tracker) SubmitInitial(ctx context.Context, userID, group, topicID string, tiers InitialTiers) (*Progress, error) {
	if err := validateKey(userID, topicID); err != nil {
		return nil, err
	}
	if err := tiers.validate(); err != nil {
		return nil, err
	}

	p, err := t.lockLoaded(ctx, userID, topicID)
	if err != nil {
		return nil, err
	}
	defer p.mu.Unlock()

	if p.state != StateNotStarted {
		return nil, ErrDuplicateSubmission
	}

	module, err := t.tables.Modules.Get(ctx, topicID)
	if err != nil {
		StoreFailures.WithLabelValues("read").Inc()
		return nil, storeErr(err)
	}
	if module == nil && t.cfg.RequireModule {
		return nil, &ValidationError{Field: "topic_id", Reason: "no module for topic " + topicID}
	}

	now := t.now().UTC()
	sub := records.Submission{
		ID:              uuid.NewString(),
		UserID:          userID,
		Group:           strings.TrimSpace(group),
		TopicID:         topicID,
		Tier1Answer:     strings.TrimSpace(tiers.Answer),
		Tier2Confidence: strings.TrimSpace(tiers.AnswerConfidence),
		Tier3Reasoning:  strings.TrimSpace(tiers.Reasoning),
		Tier4Confidence: strings.TrimSpace(tiers.ReasonConfidence),
		Status:          records.StatusInitial,
		Timestamp:       now,
	}
	if err := t.persist(ctx, sub); err != nil {
		return nil, err
	}

	p.group = sub.Group
	p.initial = &sub
	p.mastery = false
	p.session = newSession(seedFrom(sub, module), now)
	t.transition(p, StateInitialSubmitted, now)
	t.flushTraces(ctx, sub)

	return p.snapshot(), nil
}

// AdvanceDialogue sends one student utterance to the tutor and returns the
// tutor's reply. The mastery flag is set the first time a reply carries the
// marker; later markers change nothing.
func (t *Tracker) AdvanceDialogue(ctx context.Context, userID, topicID, utterance string) (*DialogueResult, error) {
	if err := validateKey(userID, topicID); err != nil {
		return nil, err
	}
	if isBlank(utterance) {
		return nil, blank("utterance")
	}

	p, err := t.lockLoaded(ctx, userID, topicID)
	if err != nil {
		return nil, err
	}
	defer p.mu.Unlock()

	if p.session == nil {
		return nil, ErrNoActiveSession
	}
	if !t.cfg.tutoringEnabled(p.group) {
		return nil, ErrTutoringDisabled
	}

	student := tutor.Turn{Role: tutor.RoleStudent, Text: strings.TrimSpace(utterance)}
	history := p.session.withTurn(student)

	raw, err := t.dialogue.Reply(ctx, p.session.seed, history)
	if err != nil {
		DialogueFailures.Inc()
		t.log.Warn("tutor reply failed",
			logging.UserID(userID), zap.String("topic_id", topicID), zap.Error(err))
		return nil, serviceErr(err)
	}

	shown, marked := tutor.DetectMastery(raw)
	p.session.turns = append(history, tutor.Turn{Role: tutor.RoleTutor, Text: shown})

	now := t.now().UTC()
	if p.state == StateInitialSubmitted {
		t.transition(p, StateTutoringActive, now)
	}
	t.traces.add(userID, records.EventChatTurn, map[string]string{
		"topic_id": topicID,
		"student":  student.Text,
		"tutor":    shown,
	}, now)

	detected := false
	if marked && !p.mastery {
		p.mastery = true
		detected = true
		t.transition(p, StateMasteryDetected, now)
		t.traces.add(userID, records.EventMasteryDetected, map[string]string{"topic_id": topicID}, now)
	}
	p.updated = now

	return &DialogueResult{Reply: shown, MasteryDetected: detected, State: p.state}, nil
}

// SubmitRevision records the Tier 5/6 answer once mastery has been
// detected. It clears the flag and closes the dialogue.
func (t *Tracker) SubmitRevision(ctx context.Context, userID, topicID string, tiers RevisedTiers) (*Progress, error) {
	if err := validateKey(userID, topicID); err != nil {
		return nil, err
	}
	if err := tiers.validate(); err != nil {
		return nil, err
	}

	p, err := t.lockLoaded(ctx, userID, topicID)
	if err != nil {
		return nil, err
	}
	defer p.mu.Unlock()

	if !p.mastery {
		return nil, ErrMasteryNotDetected
	}

	now := t.now().UTC()
	sub := revisionOf(p, tiers, records.StatusMastery, now)
	if err := t.persist(ctx, sub); err != nil {
		return nil, err
	}

	p.mastery = false
	p.session = nil
	t.transition(p, StateRevisedSubmitted, now)
	t.flushTraces(ctx, sub)

	return p.snapshot(), nil
}

// SubmitCorrection appends a CORRECTED submission to a topic that already
// has its revision. The lifecycle state does not change.
func (t *Tracker) SubmitCorrection(ctx context.Context, userID, topicID string, tiers RevisedTiers) (*Progress, error) {
	if err := validateKey(userID, topicID); err != nil {
		return nil, err
	}
	if err := tiers.validate(); err != nil {
		return nil, err
	}

	p, err := t.lockLoaded(ctx, userID, topicID)
	if err != nil {
		return nil, err
	}
	defer p.mu.Unlock()

	if p.state != StateRevisedSubmitted {
		return nil, ErrNotRevised
	}

	now := t.now().UTC()
	sub := revisionOf(p, tiers, records.StatusCorrected, now)
	if err := t.persist(ctx, sub); err != nil {
		return nil, err
	}
	p.updated = now
	t.flushTraces(ctx, sub)

	return p.snapshot(), nil
}

// RequestHint records that the student asked for help and returns a hint
// from the tutor.
func (t *Tracker) RequestHint(ctx context.Context, userID, topicID string) (string, error) {
	if err := validateKey(userID, topicID); err != nil {
		return "", err
	}

	p, err := t.lockLoaded(ctx, userID, topicID)
	if err != nil {
		return "", err
	}
	defer p.mu.Unlock()

	if p.session == nil {
		return "", ErrNoActiveSession
	}
	if !t.cfg.tutoringEnabled(p.group) {
		return "", ErrTutoringDisabled
	}

	t.traces.add(userID, records.EventHintRequested, map[string]string{"topic_id": topicID}, t.now().UTC())

	hint, err := t.dialogue.Hint(ctx, p.session.seed, p.session.turns)
	if err != nil {
		DialogueFailures.Inc()
		t.log.Warn("tutor hint failed",
			logging.UserID(userID), zap.String("topic_id", topicID), zap.Error(err))
		return "", serviceErr(err)
	}
	return hint, nil
}

// Resume opens a fresh dialogue for a submitted topic that has none, for
// example after Leave or a restart. An existing dialogue is kept.
func (t *Tracker) Resume(ctx context.Context, userID, topicID string) (*Progress, error) {
	if err := validateKey(userID, topicID); err != nil {
		return nil, err
	}

	p, err := t.lockLoaded(ctx, userID, topicID)
	if err != nil {
		return nil, err
	}
	defer p.mu.Unlock()

	if p.session != nil {
		return p.snapshot(), nil
	}
	if p.initial == nil || p.state == StateNotStarted || p.state == StateRevisedSubmitted {
		return nil, ErrNoActiveSession
	}

	module, err := t.tables.Modules.Get(ctx, topicID)
	if err != nil {
		StoreFailures.WithLabelValues("read").Inc()
		return nil, storeErr(err)
	}
	now := t.now().UTC()
	p.session = newSession(seedFrom(*p.initial, module), now)
	p.updated = now
	return p.snapshot(), nil
}

// Leave discards the dialogue for a topic. A detected mastery survives, so
// the student can still submit the revision.
func (t *Tracker) Leave(userID, topicID string) {
	t.mu.Lock()
	p, ok := t.progress[progressKey{userID, topicID}]
	t.mu.Unlock()
	if !ok {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return
	}

	now := t.now().UTC()
	p.session = nil
	if p.state == StateTutoringActive {
		t.transition(p, StateInitialSubmitted, now)
	}
	p.updated = now
	t.traces.add(userID, records.EventTopicLeft, map[string]string{"topic_id": topicID}, now)
}

// State returns the current progress for a pair, loading it from the
// Record Store the first time it is asked for.
func (t *Tracker) State(ctx context.Context, userID, topicID string) (*Progress, error) {
	if err := validateKey(userID, topicID); err != nil {
		return nil, err
	}
	p, err := t.lockLoaded(ctx, userID, topicID)
	if err != nil {
		return nil, err
	}
	defer p.mu.Unlock()
	return p.snapshot(), nil
}

// Restore forgets everything held in memory for a pair and rebuilds it from
// the Record Store. The mastery flag is never persisted, so a pair that had
// detected mastery comes back as INITIAL_SUBMITTED without a dialogue.
func (t *Tracker) Restore(ctx context.Context, userID, topicID string) (*Progress, error) {
	if err := validateKey(userID, topicID); err != nil {
		return nil, err
	}

	p := t.entry(userID, topicID)
	p.mu.Lock()
	defer p.mu.Unlock()

	p.loaded = false
	p.session = nil
	p.mastery = false
	if err := t.load(ctx, p); err != nil {
		return nil, err
	}
	return p.snapshot(), nil
}

// PendingTraces is the number of traces buffered for userID.
func (t *Tracker) PendingTraces(userID string) int {
	return t.traces.pendingCount(userID)
}

func (t *Tracker) entry(userID, topicID string) *progress {
	key := progressKey{userID, topicID}

	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.progress[key]
	if !ok {
		p = &progress{userID: userID, topicID: topicID, state: StateNotStarted}
		t.progress[key] = p
	}
	return p
}

// lockLoaded returns the pair's progress locked and loaded. The caller
// unlocks it.
func (t *Tracker) lockLoaded(ctx context.Context, userID, topicID string) (*progress, error) {
	p := t.entry(userID, topicID)
	p.mu.Lock()
	if err := t.load(ctx, p); err != nil {
		p.mu.Unlock()
		return nil, err
	}
	return p, nil
}

// load derives the pair's state from its persisted submissions.
func (t *Tracker) load(ctx context.Context, p *progress) error {
	if p.loaded {
		return nil
	}

	subs, err := t.tables.Submissions.ForTopic(ctx, p.userID, p.topicID)
	if err != nil {
		StoreFailures.WithLabelValues("read").Inc()
		return storeErr(err)
	}

	p.state = StateNotStarted
	p.initial = nil
	for i := range subs {
		s := subs[i]
		switch s.Status {
		case records.StatusInitial:
			if p.initial == nil {
				p.initial = &s
				p.group = s.Group
			}
			if p.state == StateNotStarted {
				p.state = StateInitialSubmitted
			}
		case records.StatusMastery, records.StatusCorrected:
			p.state = StateRevisedSubmitted
		}
		if s.Timestamp.After(p.updated) {
			p.updated = s.Timestamp
		}
	}
	p.loaded = true
	return nil
}

func (t *Tracker) persist(ctx context.Context, sub records.Submission) error {
	if err := t.tables.Submissions.Append(ctx, sub); err != nil {
		StoreFailures.WithLabelValues("write").Inc()
		t.log.Error("submission write failed",
			logging.UserID(sub.UserID),
			zap.String("topic_id", sub.TopicID),
			zap.String("status", string(sub.Status)),
			zap.Error(err))
		return storeErr(err)
	}
	return nil
}

// flushTraces writes the user's buffered traces plus a MODULE_SUBMIT trace
// for sub. A failed write drops them.
func (t *Tracker) flushTraces(ctx context.Context, sub records.Submission) {
	t.traces.add(sub.UserID, records.EventModuleSubmit, map[string]string{
		"topic_id":      sub.TopicID,
		"status":        string(sub.Status),
		"submission_id": sub.ID,
	}, sub.Timestamp)

	batch := t.traces.take(sub.UserID)
	if err := t.tables.Traces.Append(ctx, batch...); err != nil {
		StoreFailures.WithLabelValues("write").Inc()
		TracesDropped.Add(float64(len(batch)))
		t.log.Warn("dropped traces after failed flush",
			logging.UserID(sub.UserID), zap.Int("dropped", len(batch)), zap.Error(err))
	}
}

func (t *Tracker) transition(p *progress, to State, now time.Time) {
	from := p.state
	p.state = to
	p.updated = now
	TransitionsTotal.WithLabelValues(string(to)).Inc()
	t.log.Info("lifecycle transition",
		logging.UserID(p.userID),
		zap.String("topic_id", p.topicID),
		zap.String("from", string(from)),
		zap.String("to", string(to)))
}

func revisionOf(p *progress, tiers RevisedTiers, status records.Status, now time.Time) records.Submission {
	sub := records.Submission{
		ID:              uuid.NewString(),
		UserID:          p.userID,
		Group:           p.group,
		TopicID:         p.topicID,
		Tier5Answer:     strings.TrimSpace(tiers.Answer),
		Tier6Confidence: strings.TrimSpace(tiers.Confidence),
		Status:          status,
		Timestamp:       now,
	}
	if p.initial != nil {
		sub.Tier1Answer = p.initial.Tier1Answer
		sub.Tier2Confidence = p.initial.Tier2Confidence
		sub.Tier3Reasoning = p.initial.Tier3Reasoning
		sub.Tier4Confidence = p.initial.Tier4Confidence
	}
	return sub
}

func seedFrom(sub records.Submission, module *records.Module) tutor.Seed {
	seed := tutor.Seed{
		TopicID:   sub.TopicID,
		Choice:    sub.Tier1Answer,
		Reasoning: sub.Tier3Reasoning,
	}
	if module != nil {
		seed.TopicTitle = module.Title
		seed.Question = module.Question
		seed.ScaffoldGoal = module.ScaffoldGoal
	}
	return seed
}

func validateKey(userID, topicID string) error {
	if isBlank(userID) {
		return blank("user_id")
	}
	if isBlank(topicID) {
		return blank("topic_id")
	}
	return nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
