package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/tierlab/internal/assessment"
	"github.com/abhisek/tierlab/internal/records"
)

var tutorCmd = &cobra.Command{
	Use:   "tutor",
	Short: "Work through one topic in the terminal",
	Long: "Answer the four-tier question for a topic, talk it through with the " +
		"tutor and submit the revised answer once mastery is detected.\n\n" +
		"Commands during the dialogue: /hint, /state, /leave.",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		group, _ := cmd.Flags().GetString("group")
		topic, _ := cmd.Flags().GetString("topic")

		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		ctx := cmd.Context()
		tracker, err := d.tracker(ctx)
		if err != nil {
			return err
		}

		s := &tutorSession{
			tracker: tracker,
			tables:  d.tables,
			in:      bufio.NewScanner(cmd.InOrStdin()),
			out:     cmd.OutOrStdout(),
			user:    user,
			group:   group,
			topic:   topic,
		}
		return s.run(ctx)
	},
}

func init() {
	tutorCmd.Flags().StringP("user", "u", "", "Student identifier")
	tutorCmd.Flags().StringP("group", "g", "", "Student cohort (e.g. experimental, control)")
	tutorCmd.Flags().StringP("topic", "t", "", "Topic identifier")
	_ = tutorCmd.MarkFlagRequired("user")
	_ = tutorCmd.MarkFlagRequired("topic")
}

// errQuit ends the session without an error.
var errQuit = errors.New("quit")

type tutorSession struct {
	tracker *assessment.Tracker
	tables  *records.Tables
	in      *bufio.Scanner
	out     io.Writer

	user, group, topic string
}

func (s *tutorSession) run(ctx context.Context) error {
	p, err := s.tracker.State(ctx, s.user, s.topic)
	if err != nil {
		return err
	}

	switch p.State {
	case assessment.StateRevisedSubmitted:
		fmt.Fprintln(s.out, "This topic is complete.")
		return nil
	case assessment.StateNotStarted:
		if p, err = s.submitInitial(ctx); err != nil {
			return quiet(err)
		}
	}

	if !p.HasSession {
		if p, err = s.tracker.Resume(ctx, s.user, s.topic); err != nil {
			return err
		}
	}
	for _, t := range p.Turns {
		fmt.Fprintf(s.out, "%s> %s\n", t.Role, t.Text)
	}

	fmt.Fprintln(s.out, "\nExplain your thinking to the tutor.")
	return quiet(s.dialogue(ctx))
}

func (s *tutorSession) submitInitial(ctx context.Context) (*assessment.Progress, error) {
	module, err := s.tables.Modules.Get(ctx, s.topic)
	if err != nil {
		return nil, fmt.Errorf("load module: %w", err)
	}
	if module != nil {
		fmt.Fprintf(s.out, "%s\n\n%s\n", module.Title, module.Question)
		for i, o := range module.Options {
			fmt.Fprintf(s.out, "  %d. %s\n", i+1, o)
		}
		fmt.Fprintln(s.out)
	}

	var tiers assessment.InitialTiers
	prompts := []struct {
		label string
		dst   *string
	}{
		{"Your answer", &tiers.Answer},
		{"How confident are you in that answer? (low/medium/high)", &tiers.AnswerConfidence},
		{"Why?", &tiers.Reasoning},
		{"How confident are you in your reason? (low/medium/high)", &tiers.ReasonConfidence},
	}
	for _, pr := range prompts {
		v, err := s.ask(pr.label)
		if err != nil {
			return nil, err
		}
		*pr.dst = v
	}
	if module != nil {
		tiers.Answer = optionByNumber(module.Options, tiers.Answer)
	}

	return s.tracker.SubmitInitial(ctx, s.user, s.group, s.topic, tiers)
}

func (s *tutorSession) dialogue(ctx context.Context) error {
	for {
		line, err := s.ask("you")
		if err != nil {
			return err
		}

		switch strings.ToLower(line) {
		case "":
			continue
		case "/leave", "/quit":
			s.tracker.Leave(s.user, s.topic)
			fmt.Fprintln(s.out, "Left the topic. Run tutor again to pick it up.")
			return nil
		case "/state":
			p, err := s.tracker.State(ctx, s.user, s.topic)
			if err != nil {
				return err
			}
			fmt.Fprintf(s.out, "state: %s, turns: %d\n", p.State, len(p.Turns))
			continue
		case "/hint":
			hint, err := s.tracker.RequestHint(ctx, s.user, s.topic)
			if err != nil {
				fmt.Fprintln(s.out, "No hint right now:", err)
				continue
			}
			fmt.Fprintln(s.out, "hint>", hint)
			continue
		}

		res, err := s.tracker.AdvanceDialogue(ctx, s.user, s.topic, line)
		if err != nil {
			if errors.Is(err, assessment.ErrServiceUnavailable) {
				fmt.Fprintln(s.out, "The tutor is unavailable, try again.")
				continue
			}
			return err
		}
		fmt.Fprintln(s.out, "tutor>", res.Reply)

		if res.State == assessment.StateMasteryDetected {
			return s.submitRevision(ctx)
		}
	}
}

func (s *tutorSession) submitRevision(ctx context.Context) error {
	fmt.Fprintln(s.out, "\nYou've got it. Answer the question again.")
	var tiers assessment.RevisedTiers
	var err error
	if tiers.Answer, err = s.ask("Your answer"); err != nil {
		return err
	}
	if tiers.Confidence, err = s.ask("How confident are you now? (low/medium/high)"); err != nil {
		return err
	}

	module, err := s.tables.Modules.Get(ctx, s.topic)
	if err != nil {
		return fmt.Errorf("load module: %w", err)
	}
	if module != nil {
		tiers.Answer = optionByNumber(module.Options, tiers.Answer)
	}

	if _, err := s.tracker.SubmitRevision(ctx, s.user, s.topic, tiers); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Revised answer saved.")
	return nil
}

func (s *tutorSession) ask(label string) (string, error) {
	fmt.Fprintf(s.out, "%s> ", label)
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return "", err
		}
		return "", errQuit
	}
	return strings.TrimSpace(s.in.Text()), nil
}

// optionByNumber lets students type the option number instead of its text.
func optionByNumber(options []string, answer string) string {
	var n int
	if _, err := fmt.Sscanf(answer, "%d", &n); err == nil && n >= 1 && n <= len(options) && fmt.Sprint(n) == answer {
		return options[n-1]
	}
	return answer
}

func quiet(err error) error {
	if errors.Is(err, errQuit) {
		return nil
	}
	return err
}
