package tutor

import (
	"fmt"
	"strings"
)

const tutorRole = `You are a Socratic science tutor talking with a secondary school student about one diagnostic question they just answered. Never give the correct answer outright. Ask one short guiding question at a time, build on what the student says, and keep replies under 80 words.`

// buildPreamble renders the system prompt for a dialogue.
func buildPreamble(seed Seed) string {
	var b strings.Builder

	b.WriteString(tutorRole)
	b.WriteString("\n\n")

	topic := seed.TopicTitle
	if topic == "" {
		topic = seed.TopicID
	}
	fmt.Fprintf(&b, "Topic: %s\n", topic)
	if seed.Question != "" {
		fmt.Fprintf(&b, "Question: %s\n", seed.Question)
	}
	fmt.Fprintf(&b, "Student's answer: %s\n", seed.Choice)
	fmt.Fprintf(&b, "Student's reasoning: %s\n", seed.Reasoning)
	if seed.ScaffoldGoal != "" {
		fmt.Fprintf(&b, "Learning goal: %s\n", seed.ScaffoldGoal)
	}

	fmt.Fprintf(&b, `
Mastery:
When the student explains the idea correctly in their own words and the learning goal is met, congratulate them briefly and end your reply with the exact text %s. Do not write that text at any other time, and never explain it to the student.`, MasteryMarker)

	return b.String()
}

const hintRole = `You write a single short hint for a secondary school student who is stuck on a science question. The hint nudges their thinking toward the learning goal without revealing the answer.`

func buildHintMessage(seed Seed, turns []Turn) string {
	var b strings.Builder

	topic := seed.TopicTitle
	if topic == "" {
		topic = seed.TopicID
	}
	fmt.Fprintf(&b, "Topic: %s\n", topic)
	if seed.Question != "" {
		fmt.Fprintf(&b, "Question: %s\n", seed.Question)
	}
	fmt.Fprintf(&b, "Student's answer: %s\n", seed.Choice)
	fmt.Fprintf(&b, "Student's reasoning: %s\n", seed.Reasoning)
	if seed.ScaffoldGoal != "" {
		fmt.Fprintf(&b, "Learning goal: %s\n", seed.ScaffoldGoal)
	}

	if len(turns) > 0 {
		b.WriteString("\nConversation so far:\n")
		for _, t := range turns {
			fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Text)
		}
	}

	b.WriteString("\nWrite one hint of at most two sentences. Plain text, no lists.")
	return b.String()
}
