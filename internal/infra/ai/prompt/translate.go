package prompt

import (
	"encoding/json"
	"fmt"
)

// Translate builds the medical-translation instruction. The payload keys
// must survive translation unchanged so the frontend can render the result
// in place of the original.
func Translate(payload json.RawMessage, targetLanguage, reportContext string) string {
	if reportContext == "" {
		reportContext = "General Medical Report"
	}
	return fmt.Sprintf(`You are an expert medical translator. Translate the following medical report content into %s.

Content to translate:
%s

Context (Analysis type): %s

Rules:
1. Maintain medical accuracy.
2. Use professional medical terminology in the target language.
3. Return ONLY the translated JSON structure, matching the input keys.
4. Do not translate proper nouns or medication names if they are standard globally, unless there is a specific local equivalent.`,
		targetLanguage, payload, reportContext)
}
