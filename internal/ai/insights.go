package ai

import (
	"context"
	"fmt"
	"strings"
)

// Insight is the summary and draft reply offered to support staff.
type Insight struct {
	Summary    string
	DraftReply string
	UsedAI     bool
}

const draftReplyStub = "Merhaba, bildiriminiz icin tesekkurler. Problemi incelemeye basladik. " +
	"Gerekli kontrolleri yapip size kisa surede donus yapacagiz."

// SummaryStub truncates the description to its first 30 words.
func SummaryStub(text string) string {
	words := strings.Fields(text)
	if len(words) <= 30 {
		return text
	}
	return strings.Join(words[:30], " ") + " ..."
}

// Insights asks the oracle for a summary and reply draft; its answer is
// split on the first newline. Without an oracle (or on failure) both fields
// come from the local stubs.
func (c *Classifier) Insights(ctx context.Context, description string) Insight {
	prompt := fmt.Sprintf("Bu ticket metnini ozetle ve destek personeli icin cevap taslagi oner: %s", description)
	if text, err := c.oracle.Complete(ctx, prompt, "summary"); err == nil && strings.TrimSpace(text) != "" {
		parts := strings.SplitN(text, "\n", 2)
		insight := Insight{Summary: strings.TrimSpace(parts[0]), DraftReply: draftReplyStub, UsedAI: true}
		if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
			insight.DraftReply = strings.TrimSpace(parts[1])
		}
		return insight
	}
	return Insight{Summary: SummaryStub(description), DraftReply: draftReplyStub}
}
