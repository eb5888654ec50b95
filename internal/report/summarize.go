package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// summaryModel is deliberately a small model; a briefing summary is a
// few hundred tokens.
const summaryModel = anthropic.Model("claude-3-5-haiku-latest")

const summaryMaxTokens = 1024

// Summarize condenses a rendered report into a short morning-briefing
// paragraph. With an empty apiKey the client falls back to the
// ANTHROPIC_API_KEY environment variable.
func Summarize(ctx context.Context, apiKey, reportText string) (string, error) {
	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	client := anthropic.NewClient(opts...)

	message, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     summaryModel,
		MaxTokens: summaryMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(summaryPrompt(reportText))),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to summarize report: %w", err)
	}

	var b strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	summary := strings.TrimSpace(b.String())
	if summary == "" {
		return "", fmt.Errorf("summarization returned no text")
	}
	return summary, nil
}

func summaryPrompt(reportText string) string {
	return "Summarize this wildfire response unit operations report in 3 to 5 sentences " +
		"for a morning briefing. Keep every number exact and mention uncontrolled " +
		"incidents first if there are any.\n\n" + reportText
}
