package analytics

import (
	"strings"

	"github.com/abhisek/tierlab/internal/records"
)

// Category is the four-tier diagnostic classification of an initial
// submission.
type Category string

const (
	CategoryScientific      Category = "scientific"
	CategoryLuckyGuess      Category = "lucky_guess"
	CategoryMisconception   Category = "misconception"
	CategoryLackOfKnowledge Category = "lack_of_knowledge"
	CategoryUnknown         Category = "unknown"
)

// ClassifyInput is what the classifiers look at.
type ClassifyInput struct {
	Submission records.Submission
	Module     *records.Module

	// ConfidentAt is the lowest ordinal counted as confident.
	ConfidentAt int
}

func (in *ClassifyInput) correct() bool {
	return strings.EqualFold(strings.TrimSpace(in.Submission.Tier1Answer), strings.TrimSpace(in.Module.CorrectAnswer))
}

// confident is true when both the answer and the reasoning were given with
// confidence.
func (in *ClassifyInput) confident() bool {
	return ConfidenceOrdinal(in.Submission.Tier2Confidence) >= in.ConfidentAt &&
		ConfidenceOrdinal(in.Submission.Tier4Confidence) >= in.ConfidentAt
}

// Classifier is one classification rule. It returns "" when it does not
// apply.
type Classifier interface {
	Name() string
	Classify(in *ClassifyInput) Category
}

// DefaultClassifiers returns the rules in priority order. A topic without an
// answer key cannot be graded, so that rule runs first.
func DefaultClassifiers() []Classifier {
	return []Classifier{
		noKeyClassifier{},
		scientificClassifier{},
		luckyGuessClassifier{},
		misconceptionClassifier{},
		lackOfKnowledgeClassifier{},
	}
}

// RunClassifiers returns the first matching category and the rule that
// produced it, or CategoryUnknown if no rule applies.
func RunClassifiers(classifiers []Classifier, in *ClassifyInput) (Category, string) {
	for _, c := range classifiers {
		if cat := c.Classify(in); cat != "" {
			return cat, c.Name()
		}
	}
	return CategoryUnknown, ""
}

type noKeyClassifier struct{}

func (noKeyClassifier) Name() string { return "no-key" }

func (noKeyClassifier) Classify(in *ClassifyInput) Category {
	if in.Module == nil || strings.TrimSpace(in.Module.CorrectAnswer) == "" {
		return CategoryUnknown
	}
	return ""
}

type scientificClassifier struct{}

func (scientificClassifier) Name() string { return "scientific" }

func (scientificClassifier) Classify(in *ClassifyInput) Category {
	if in.correct() && in.confident() {
		return CategoryScientific
	}
	return ""
}

type luckyGuessClassifier struct{}

func (luckyGuessClassifier) Name() string { return "lucky-guess" }

func (luckyGuessClassifier) Classify(in *ClassifyInput) Category {
	if in.correct() {
		return CategoryLuckyGuess
	}
	return ""
}

type misconceptionClassifier struct{}

func (misconceptionClassifier) Name() string { return "misconception" }

func (misconceptionClassifier) Classify(in *ClassifyInput) Category {
	if in.confident() {
		return CategoryMisconception
	}
	return ""
}

type lackOfKnowledgeClassifier struct{}

func (lackOfKnowledgeClassifier) Name() string { return "lack-of-knowledge" }

func (lackOfKnowledgeClassifier) Classify(*ClassifyInput) Category {
	return CategoryLackOfKnowledge
}
