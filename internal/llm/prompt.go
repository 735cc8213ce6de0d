package llm

import "fmt"

const promptTemplate = `You are an expert web accessibility auditor. Analyze the following HTML code for accessibility issues according to WCAG 2.1 standards.
Focus on issues like:
- Missing or uninformative 'alt' text for images.
- Improper heading structure (e.g., skipping levels).
- Vague link text like "click here".
- Missing 'lang' attribute on <html> tag.
- Missing form labels or incorrect 'for' attributes.
- Potential color contrast issues (describe why they might occur).
- Lack of ARIA attributes for complex widgets where necessary.

HTML to analyze:
` + "```html" + `
%s
` + "```" + `

Based on your analysis, generate a detailed accessibility report. Provide the response as a JSON object following this exact schema:
{
  "type": "OBJECT",
  "properties": {
    "score": { "type": "NUMBER", "description": "An overall accessibility score from 0 to 100, based on the severity and number of issues found in the provided HTML." },
    "issues": {
      "type": "ARRAY",
      "items": {
        "type": "OBJECT",
        "properties": {
          "id": { "type": "STRING" },
          "title": { "type": "STRING" },
          "description": { "type": "STRING", "description": "Explain the issue from the perspective of a user with a disability." },
          "suggestion": { "type": "STRING", "description": "Provide a concrete, actionable code-level suggestion." },
          "severity": { "type": "STRING", "enum": ["Critical", "Serious", "Moderate", "Minor"] }
        },
        "required": ["id", "title", "description", "suggestion", "severity"]
      }
    }
  },
  "required": ["score", "issues"]
}`

// BuildPrompt returns the audit prompt for markup.
func BuildPrompt(markup string) string {
	return fmt.Sprintf(promptTemplate, markup)
}
