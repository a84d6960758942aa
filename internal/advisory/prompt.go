package advisory

import (
	"fmt"
	"strings"

	"github.com/xiaot623/gogo/alertlink/internal/adapter/llm"
	"github.com/xiaot623/gogo/alertlink/internal/domain"
	"github.com/xiaot623/gogo/alertlink/internal/policy"
)

func buildPrompt(g *policy.Guidance, c domain.Conditions) []llm.ChatMessage {
	var system strings.Builder
	system.WriteString("You write short air quality advisories that are delivered as chat messages.\n")
	fmt.Fprintf(&system, "The reader is a %s. Use a %s tone.\n", g.Audience, g.Tone)
	fmt.Fprintf(&system, "Focus on %s.\n", g.Focus)
	if g.MaxWords > 0 {
		fmt.Fprintf(&system, "Keep it under %d words.\n", g.MaxWords)
	}
	system.WriteString("Reply with plain text only, without headings or markdown.")

	user := fmt.Sprintf(
		"Zone: %s\nRisk level: %s\nContaminants: %s\n\nWrite the advisory with concrete recommended actions.",
		c.Zone, c.RiskLevel, c.Contaminants)

	return []llm.ChatMessage{
		{Role: "system", Content: system.String()},
		{Role: "user", Content: user},
	}
}
