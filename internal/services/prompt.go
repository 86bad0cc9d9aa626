package services

import (
	"fmt"
	"strings"

	"github.com/takrit/linerelay/internal/models"
)

const promptHeader = `ROLE / OBJECTIVE:
You are a helpful assistant that answers questions based only on documents the user is allowed to access.

Use only the accessible docs listed below.
If the user asks about restricted content, deny politely.

If the answer cannot be found in the documents, reply with:
"` + NotFoundReply + `"

Answer in the same language as the question.
Keep replies short and clear.`

// BuildPrompt assembles the single prompt sent to the model: grounding
// passages, the bounded recent-history window, and the current question.
func BuildPrompt(passages []string, history []models.Message, question string) string {
	var b strings.Builder
	b.WriteString(promptHeader)

	b.WriteString("\n\nHistory:\n")
	if len(history) == 0 {
		b.WriteString("(no previous messages)\n")
	}
	for _, m := range history {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}

	b.WriteString("\nContext:\n")
	b.WriteString(strings.Join(passages, "\n\n---\n\n"))

	fmt.Fprintf(&b, "\n\nQuestion: %s\n", question)
	return b.String()
}
