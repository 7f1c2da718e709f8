package provider

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"autofix-api/internal/matching"
)

const localUnavailableNote = "\n\nNote: this response was generated locally because external AI services are currently unavailable."

// KeywordRetrieval answers chat questions without any model: it prefers the
// caller's structured report context, then falls back to the sentences of
// the retrieved documents that best overlap the question words. It is the
// terminal candidate of the chat chain and always produces an answer.
type KeywordRetrieval struct {
	topK   int
	logger *slog.Logger
}

// NewKeywordRetrieval creates the terminal chat provider
func NewKeywordRetrieval(topK int, logger *slog.Logger) *KeywordRetrieval {
	if topK <= 0 {
		topK = 4
	}
	return &KeywordRetrieval{topK: topK, logger: logger}
}

func (k *KeywordRetrieval) Name() string { return "local" }

func (k *KeywordRetrieval) Attempt(_ context.Context, req Request) (*Response, error) {
	if answer := structuredAnswer(req); answer != "" {
		k.logger.Info("keyword retrieval answered from structured context")
		return &Response{Text: answer + localUnavailableNote, Model: "local-structured", Local: true}, nil
	}

	if answer := k.keywordAnswer(req); answer != "" {
		k.logger.Info("keyword retrieval answered from document sentences")
		return &Response{Text: answer + localUnavailableNote, Model: "local-keywords", Local: true}, nil
	}

	return &Response{
		Text: "I cannot provide a detailed answer at the moment: external AI services are " +
			"unavailable and no relevant information was found in the knowledge base. " +
			"Please verify your API keys or try again later.",
		Model: "local-fallback",
		Local: true,
	}, nil
}

// structuredAnswer summarizes the report context attached to the request
func structuredAnswer(req Request) string {
	ctx := req.Context
	if ctx == nil {
		return ""
	}
	if len(ctx.DetectedParts) == 0 && len(ctx.CostBreakdown) == 0 && ctx.TotalCost == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Based on the current analysis:\n\n")

	if ctx.CarInfo != nil {
		fmt.Fprintf(&b, "Vehicle: %d %s %s\n", ctx.CarInfo.Year, ctx.CarInfo.Name, ctx.CarInfo.Model)
	}
	if len(ctx.DetectedParts) > 0 {
		fmt.Fprintf(&b, "Detected damaged parts: %s\n", strings.Join(ctx.DetectedParts, ", "))
	}
	if len(ctx.CostBreakdown) > 0 {
		b.WriteString("\nCost breakdown:\n")
		for _, entry := range ctx.CostBreakdown {
			fmt.Fprintf(&b, "- %s: %.0f\n", entry.Part, entry.Cost)
		}
	}
	if ctx.TotalCost > 0 {
		fmt.Fprintf(&b, "\nTotal estimated cost: %.0f", ctx.TotalCost)
	}

	return b.String()
}

type scoredSentence struct {
	sentence string
	score    int
}

// keywordAnswer extracts the top sentences from the retrieved documents that
// contain the most question words.
func (k *KeywordRetrieval) keywordAnswer(req Request) string {
	words := matching.Tokenize(req.Question)
	if len(words) == 0 || len(req.Docs) == 0 {
		return ""
	}

	var candidates []scoredSentence
	for _, doc := range req.Docs {
		for _, sentence := range matching.SplitSentences(doc.Text) {
			low := matching.Normalize(sentence)
			score := 0
			for _, w := range words {
				if strings.Contains(low, w) {
					score++
				}
			}
			if score > 0 {
				candidates = append(candidates, scoredSentence{sentence: sentence, score: score})
			}
		}
	}
	if len(candidates) == 0 {
		return ""
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	n := k.topK
	if n > len(candidates) {
		n = len(candidates)
	}
	parts := make([]string, 0, n)
	for _, c := range candidates[:n] {
		parts = append(parts, c.sentence)
	}
	return strings.Join(parts, "\n")
}
