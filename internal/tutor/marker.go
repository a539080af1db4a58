package tutor

import "strings"

// MasteryMarker is the token the model emits once the student has shown
// mastery. Matching is exact and case-sensitive.
const MasteryMarker = "[MASTERY_DETECTED]"

// MasteryAcknowledgement is shown in place of a reply that carried nothing
// but the marker.
const MasteryAcknowledgement = "That's it, you've explained it correctly. You can now submit your revised answer."

// DetectMastery reports whether reply carries the mastery marker and returns
// the reply as it should be shown to the student, with every occurrence of
// the marker removed and surrounding whitespace trimmed. A marked reply is
// never shown empty.
func DetectMastery(reply string) (shown string, mastered bool) {
	if !strings.Contains(reply, MasteryMarker) {
		return strings.TrimSpace(reply), false
	}
	shown = strings.TrimSpace(strings.ReplaceAll(reply, MasteryMarker, ""))
	if shown == "" {
		shown = MasteryAcknowledgement
	}
	return shown, true
}
