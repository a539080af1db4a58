// Package analytics builds the researcher's view of the Record Store: per
// topic submission counts, mastery rates, confidence summaries and the
// four-tier classification of initial answers.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/tierlab/internal/records"
)

// Options tune report building.
type Options struct {
	// ConfidentAt is the lowest confidence ordinal counted as confident.
	ConfidentAt int
	Classifiers []Classifier
}

// DefaultOptions counts only High confidence as confident.
func DefaultOptions() Options {
	return Options{ConfidentAt: ConfidenceHigh, Classifiers: DefaultClassifiers()}
}

// ConfidenceSummary describes the ordinals of one confidence tier.
type ConfidenceSummary struct {
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
}

// GroupReport is the mastery breakdown of one cohort within a topic.
type GroupReport struct {
	Group       string  `json:"group"`
	Students    int     `json:"students"`
	Mastered    int     `json:"mastered"`
	MasteryRate float64 `json:"mastery_rate"`
}

// TopicReport summarises one topic.
type TopicReport struct {
	TopicID string `json:"topic_id"`
	Title   string `json:"title,omitempty"`

	Initial   int `json:"initial"`
	Mastery   int `json:"mastery"`
	Corrected int `json:"corrected"`

	// Students counts distinct users with an initial submission; Mastered
	// counts those of them with a MASTERY or CORRECTED one.
	Students    int     `json:"students"`
	Mastered    int     `json:"mastered"`
	MasteryRate float64 `json:"mastery_rate"`

	// InitialCorrect and RevisedCorrect count answers matching the key.
	// Both stay zero for topics without one.
	InitialCorrect int `json:"initial_correct"`
	RevisedCorrect int `json:"revised_correct"`

	AnswerConfidence  ConfidenceSummary `json:"tier2_confidence"`
	ReasonConfidence  ConfidenceSummary `json:"tier4_confidence"`
	RevisedConfidence ConfidenceSummary `json:"tier6_confidence"`

	Categories map[Category]int `json:"categories"`
	Groups     []GroupReport    `json:"groups"`
}

// Build reads Submissions and Modules and summarises every topic that has
// at least one submission.
func Build(ctx context.Context, tables *records.Tables, opts Options) ([]TopicReport, error) {
	var subs []records.Submission
	var mods []records.Module

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		subs, err = tables.Submissions.All(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		mods, err = tables.Modules.All(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load analytics inputs: %w", err)
	}

	return Summarize(subs, mods, opts), nil
}

// Summarize is Build over already-loaded rows.
func Summarize(subs []records.Submission, mods []records.Module, opts Options) []TopicReport {
	if len(opts.Classifiers) == 0 {
		opts.Classifiers = DefaultClassifiers()
	}
	if opts.ConfidentAt == 0 {
		opts.ConfidentAt = ConfidenceHigh
	}

	modules := make(map[string]*records.Module, len(mods))
	for i := range mods {
		modules[mods[i].TopicID] = &mods[i]
	}

	byTopic := make(map[string][]records.Submission)
	for _, s := range subs {
		if s.TopicID == "" {
			continue
		}
		byTopic[s.TopicID] = append(byTopic[s.TopicID], s)
	}

	out := make([]TopicReport, 0, len(byTopic))
	for topicID, topicSubs := range byTopic {
		out = append(out, summarizeTopic(topicID, topicSubs, modules[topicID], opts))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TopicID < out[j].TopicID })
	return out
}

type studentTally struct {
	group    string
	initial  bool
	mastered bool
}

func summarizeTopic(topicID string, subs []records.Submission, module *records.Module, opts Options) TopicReport {
	r := TopicReport{TopicID: topicID, Categories: make(map[Category]int)}
	if module != nil {
		r.Title = module.Title
	}
	hasKey := module != nil && strings.TrimSpace(module.CorrectAnswer) != ""
	matchesKey := func(answer string) bool {
		return hasKey && strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(module.CorrectAnswer))
	}

	var tier2, tier4, tier6 []float64
	students := make(map[string]*studentTally)
	tally := func(s records.Submission) *studentTally {
		st, ok := students[s.UserID]
		if !ok {
			st = &studentTally{}
			students[s.UserID] = st
		}
		if st.group == "" {
			st.group = s.Group
		}
		return st
	}

	for _, s := range subs {
		st := tally(s)
		switch s.Status {
		case records.StatusInitial:
			r.Initial++
			st.initial = true
			tier2 = appendOrdinal(tier2, s.Tier2Confidence)
			tier4 = appendOrdinal(tier4, s.Tier4Confidence)
			if matchesKey(s.Tier1Answer) {
				r.InitialCorrect++
			}
			cat, _ := RunClassifiers(opts.Classifiers, &ClassifyInput{Submission: s, Module: module, ConfidentAt: opts.ConfidentAt})
			r.Categories[cat]++
		case records.StatusMastery, records.StatusCorrected:
			if s.Status == records.StatusMastery {
				r.Mastery++
			} else {
				r.Corrected++
			}
			st.mastered = true
			tier6 = appendOrdinal(tier6, s.Tier6Confidence)
			if matchesKey(s.Tier5Answer) {
				r.RevisedCorrect++
			}
		}
	}

	groups := make(map[string]*GroupReport)
	for _, st := range students {
		if !st.initial {
			continue
		}
		r.Students++
		name := strings.ToLower(strings.TrimSpace(st.group))
		if name == "" {
			name = "unassigned"
		}
		g, ok := groups[name]
		if !ok {
			g = &GroupReport{Group: name}
			groups[name] = g
		}
		g.Students++
		if st.mastered {
			r.Mastered++
			g.Mastered++
		}
	}
	r.MasteryRate = rate(r.Mastered, r.Students)
	for _, g := range groups {
		g.MasteryRate = rate(g.Mastered, g.Students)
		r.Groups = append(r.Groups, *g)
	}
	sort.Slice(r.Groups, func(i, j int) bool { return r.Groups[i].Group < r.Groups[j].Group })

	r.AnswerConfidence = summarize(tier2)
	r.ReasonConfidence = summarize(tier4)
	r.RevisedConfidence = summarize(tier6)
	return r
}

func appendOrdinal(data []float64, label string) []float64 {
	if n := ConfidenceOrdinal(label); n != ConfidenceUnknown {
		return append(data, float64(n))
	}
	return data
}

func summarize(data []float64) ConfidenceSummary {
	if len(data) == 0 {
		return ConfidenceSummary{}
	}
	s := ConfidenceSummary{N: len(data)}
	s.Mean, _ = stats.Mean(data)
	s.Median, _ = stats.Median(data)
	s.StdDev, _ = stats.StandardDeviation(data)
	return s
}

func rate(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}
