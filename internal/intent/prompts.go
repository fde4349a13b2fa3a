package intent

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are a linguist and cultural analyst. Classify the user's question about language and culture into a structured intent. Identify the cultures involved, the academic discipline best suited to answer it, and the concepts at stake. Do not answer the question itself.`

const classifyPromptTemplate = `Return a JSON object with exactly these fields:

{
  "cultures_involved": ["culture or region labels, most relevant first; use \"General\" if none apply"],
  "primary_discipline": "linguistics|literature|cultural_studies",
  "secondary_disciplines": ["linguistics|literature|cultural_studies"],
  "subfields": ["pragmatics|sociolinguistics|semantics|syntax|phonology|discourse_analysis|translation_studies|literary_criticism|poetics|narratology|comparative_literature|anthropology|intercultural_communication|ritual_studies|media_studies"],
  "social_domain": "setting such as family, workplace, education",
  "key_concepts": ["up to five short concepts"],
  "interpretive_frame": "one phrase naming the lens for the answer",
  "query_type": "translation|error_analysis|cultural_explanation|comparative|interpretive|general",
  "requires_comparison": false,
  "requires_historical_context": false,
  "analysis_confidence": "high|medium|low"
}
%s
Question: %s`

func buildMessages(question, conversation string) (system, user string) {
	var context string
	if c := strings.TrimSpace(conversation); c != "" {
		context = fmt.Sprintf("\nEarlier conversation, for reference only:\n%s\n", c)
	}
	return systemPrompt, fmt.Sprintf(classifyPromptTemplate, context, question)
}
