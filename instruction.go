package codecraft

import (
	"regexp"
	"strings"

	"github.com/xostack/codecraft/validate"
)

// BuildInstruction wraps a validated prompt in the fixed framing sent to
// the model. The prompt and framework identifier are embedded verbatim.
func BuildInstruction(prompt string, framework validate.Framework) string {
	var sb strings.Builder

	sb.WriteString("You are an experienced web developer and UI/UX designer. ")
	sb.WriteString("You build modern, animated and fully responsive UI components ")
	sb.WriteString("with HTML, CSS, Tailwind CSS, Bootstrap and JavaScript.\n\n")

	sb.WriteString("Produce a single self-contained HTML file implementing the requested UI, ")
	sb.WriteString("using the specified framework, and return only code.\n\n")

	sb.WriteString("Component: ")
	sb.WriteString(prompt)
	sb.WriteString("\nFramework: ")
	sb.WriteString(string(framework))
	sb.WriteString("\n\n")

	sb.WriteString("Requirements:\n")
	sb.WriteString("- Clean, well-structured code that is easy to follow.\n")
	sb.WriteString("- Optimize for SEO where applicable.\n")
	sb.WriteString("- Modern, animated, responsive design with polished hover effects, shadows, colors and typography.\n")
	sb.WriteString("- Accessible markup that follows current best practices.\n")
	sb.WriteString("- Put the whole component in one HTML file.\n")
	sb.WriteString("- Return ONLY the code inside a single Markdown fenced code block.\n")
	sb.WriteString("- No explanations or any text outside the code block.\n")

	return sb.String()
}

// fencePattern matches the first ``` block. The opening fence may carry a
// language tag; the newline after it is optional.
var fencePattern = regexp.MustCompile("(?s)```[\\w+-]*[ \\t]*\\r?\\n?(.*?)```")

// ExtractCode returns the trimmed body of the first fenced code block in
// reply. When reply has no fenced block the whole reply is returned
// trimmed.
func ExtractCode(reply string) string {
	code, _ := extractCode(reply)
	return code
}

// extractCode also reports whether a fence was found.
func extractCode(reply string) (string, bool) {
	m := fencePattern.FindStringSubmatch(reply)
	if m == nil {
		return strings.TrimSpace(reply), false
	}
	return strings.TrimSpace(m[1]), true
}
