// Package grounding packages retrieved documents and epistemic reminders
// into the context block given to the generation call.
package grounding

import (
	"fmt"
	"strings"

	"github.com/ziadkadry99/interlingua/internal/intent"
	"github.com/ziadkadry99/interlingua/internal/knowledge"
)

const divider = "────────────────────────────────────────"

// Reminder texts. Kept as constants so callers and tests can look for them.
const (
	ReminderPerspective     = "Treat each source as a perspective, not as fact."
	ReminderVariation       = "Acknowledge variation within every culture; no group speaks or behaves uniformly."
	ReminderNoHierarchy     = "Avoid hierarchical judgment when comparing: no culture's norms are the baseline or the better way."
	ReminderTendencies      = "Linguistic patterns are tendencies, not rules."
	ReminderDynamicPractice = "Cultural practices are dynamic and internally diverse."
	ReminderReadings        = "Literary readings are interpretations; present them as one reading among several."
	ReminderHistory         = "Mark historical claims with their period and avoid projecting them onto the present."
)

// NoGroundingMessage is returned when retrieval found nothing.
const NoGroundingMessage = `NO GROUNDING FOUND
No interpretive sources matched this question. Reason from general principles of linguistics and cultural analysis, say that no specific sources were available, and use hedging language ("often", "in many contexts", "some speakers") throughout.`

// Assemble formats docs, in the given order, with intent-sensitive
// epistemic reminders. It is pure: the same inputs always produce the same
// output.
func Assemble(docs []knowledge.Document, in intent.Intent) string {
	if len(docs) == 0 {
		return NoGroundingMessage
	}

	var b strings.Builder
	b.WriteString("## Interpretive Context\n")
	fmt.Fprintf(&b, "Discipline: %s", in.PrimaryDiscipline)
	if len(in.SecondaryDisciplines) > 0 {
		fmt.Fprintf(&b, " (also %s)", joinDisciplines(in.SecondaryDisciplines))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Cultures: %s\n", strings.Join(in.CulturesInvolved, ", "))
	if in.InterpretiveFrame != "" {
		fmt.Fprintf(&b, "Frame: %s\n", in.InterpretiveFrame)
	}
	fmt.Fprintf(&b, "Sources: %d\n", len(docs))

	for i, d := range docs {
		fmt.Fprintf(&b, "\n%s\n", divider)
		fmt.Fprintf(&b, "[%d] %s\n", i+1, d.Source)
		fmt.Fprintf(&b, "Discipline: %s", joinDisciplines(d.Discipline))
		if len(d.Subfield) > 0 {
			fmt.Fprintf(&b, " / %s", strings.Join(d.Subfield, ", "))
		}
		b.WriteString("\n")
		if len(d.Culture) > 0 {
			fmt.Fprintf(&b, "Culture: %s\n", strings.Join(d.Culture, ", "))
		}
		fmt.Fprintf(&b, "Era: %s | Stance: %s | Confidence: %s\n", d.Era, d.Stance, d.Confidence)
		fmt.Fprintf(&b, "\n%s\n", strings.TrimSpace(d.Text))
	}
	fmt.Fprintf(&b, "%s\n", divider)

	b.WriteString("\n## Epistemic Reminders\n")
	for _, r := range Reminders(in) {
		fmt.Fprintf(&b, "- %s\n", r)
	}
	return b.String()
}

// Reminders returns the reminders that apply to in, in a fixed order.
func Reminders(in intent.Intent) []string {
	out := []string{ReminderPerspective, ReminderVariation}
	if in.RequiresComparison {
		out = append(out, ReminderNoHierarchy)
	}
	switch in.PrimaryDiscipline {
	case knowledge.Linguistics:
		out = append(out, ReminderTendencies)
	case knowledge.CulturalStudies:
		out = append(out, ReminderDynamicPractice)
	case knowledge.Literature:
		out = append(out, ReminderReadings)
	}
	if in.RequiresHistoricalContext {
		out = append(out, ReminderHistory)
	}
	return out
}

func joinDisciplines(ds []knowledge.Discipline) string {
	parts := make([]string, len(ds))
	for i, d := range ds {
		parts[i] = string(d)
	}
	return strings.Join(parts, ", ")
}
