package pipeline

import (
	"fmt"
	"strings"

	"github.com/ziadkadry99/interlingua/internal/intent"
)

const structuredSystemPrompt = `You are a careful scholar of linguistics, literature and cultural studies answering questions about language across cultures. Ground your answer in the interpretive sources provided. Present cultural patterns as tendencies with internal variation, never as fixed traits, and never rank one culture's norms above another's.

Respond with a JSON object with exactly this shape:

{
  "intro": {"text": "one or two sentences framing the answer"},
  "sections": [
    {"title": "short heading", "paragraph": "explanatory prose", "bullets": ["optional supporting points"]}
  ],
  "conclusion": {"text": "a hedged closing synthesis"}
}

Every field is a string or a list of strings. "bullets" must always be present, even when empty.`

const legacySystemPrompt = `You are a careful scholar of language and culture. Answer the question in well-structured Markdown: a short introduction, two to four sections with "##" headings, and a brief conclusion. Ground your answer in the sources provided, use hedging language, and acknowledge variation within each culture.`

const auditSystemPrompt = `You are an editor reviewing a draft answer about language and culture. Revise the draft so that it satisfies every rule of the rubric, changing as little as possible. If the draft already complies, return it unchanged.

Rubric:
1. Cultural claims are framed as tendencies or perspectives, not facts about every member of a group.
2. Variation within each culture is acknowledged.
3. Comparisons do not rank cultures or treat one as the norm.
4. Claims not supported by the sources are hedged.
5. The structure is {"intro": {"text"}, "sections": [{"title", "paragraph", "bullets"}], "conclusion": {"text"}}.

Return only the revised JSON object.`

const (
	draftOpen  = "<draft>"
	draftClose = "</draft>"
)

func buildGenerationPrompt(question, conversation, grounding string, in intent.Intent) string {
	var b strings.Builder
	b.WriteString(grounding)
	b.WriteString("\n\n## Question Analysis\n")
	fmt.Fprintf(&b, "Query type: %s\n", in.QueryType)
	if in.SocialDomain != "" {
		fmt.Fprintf(&b, "Social domain: %s\n", in.SocialDomain)
	}
	if len(in.KeyConcepts) > 0 {
		fmt.Fprintf(&b, "Key concepts: %s\n", strings.Join(in.KeyConcepts, ", "))
	}
	if c := strings.TrimSpace(conversation); c != "" {
		fmt.Fprintf(&b, "\n## Earlier Conversation\n%s\n", c)
	}
	fmt.Fprintf(&b, "\n## Question\n%s\n", question)
	return b.String()
}

func buildAuditPrompt(draft, grounding string) string {
	var b strings.Builder
	b.WriteString(grounding)
	fmt.Fprintf(&b, "\n\n## Draft\n%s\n%s\n%s\n", draftOpen, draft, draftClose)
	return b.String()
}
