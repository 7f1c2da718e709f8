package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"autofix-api/internal/corpus"
	"autofix-api/internal/model"
	"autofix-api/internal/provider"
)

const chatSystemPrompt = "You are a helpful vehicle damage and repair assistant. " +
	"Answer questions about damage assessments, repair costs and insurance claims. " +
	"Ground your answers in the provided report context and reference documents. " +
	"If the context does not cover the question, say so instead of guessing. " +
	"Keep answers short and practical."

const chatTopK = 4

// ChatService answers assistant questions over the provider fallback chain,
// grounding prompts in the report context and the retrieval corpus.
type ChatService struct {
	orch   Estimator
	docs   *corpus.Store
	logger *slog.Logger
}

// NewChatService wires the chat use case
func NewChatService(orch Estimator, docs *corpus.Store, logger *slog.Logger) *ChatService {
	return &ChatService{orch: orch, docs: docs, logger: logger}
}

// Chat answers one question. The response always carries an answer because
// the chain ends in a local retrieval provider.
func (s *ChatService) Chat(ctx context.Context, req model.ChatRequest) (*model.ChatResponse, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		question = strings.TrimSpace(req.Message)
	}
	if question == "" {
		return nil, fmt.Errorf("question is required")
	}

	var docs []model.RetrievedDoc
	if s.docs != nil {
		docs = s.docs.TopK(question, chatTopK)
	}

	result, err := s.orch.Do(ctx, provider.Request{
		Prompt:   buildChatPrompt(question, req.Context, docs),
		System:   chatSystemPrompt,
		Question: question,
		Context:  req.Context,
		Docs:     docs,
	})
	if err != nil {
		return nil, fmt.Errorf("chat failed: %w", err)
	}

	sources := make([]model.ChatSource, 0, len(docs))
	for _, d := range docs {
		sources = append(sources, model.ChatSource{ID: d.ID, Source: d.Source, Score: d.Score})
	}

	s.logger.Info("chat completed",
		"provider", result.Provider,
		"attempts", len(result.Attempts),
		"sources", len(sources),
		"local", result.Response.Local,
	)

	return &model.ChatResponse{
		Answer:   result.Response.Text,
		Sources:  sources,
		Provider: result.Provider,
		Local:    result.Response.Local,
	}, nil
}

// buildChatPrompt assembles the user prompt: structured report context
// first, then the retrieved reference snippets, then the question.
func buildChatPrompt(question string, reportCtx *model.ReportContext, docs []model.RetrievedDoc) string {
	var b strings.Builder

	if reportCtx != nil {
		b.WriteString("Current damage report:\n")
		if reportCtx.CarInfo != nil {
			fmt.Fprintf(&b, "Vehicle: %d %s %s\n", reportCtx.CarInfo.Year, reportCtx.CarInfo.Name, reportCtx.CarInfo.Model)
		}
		if len(reportCtx.DetectedParts) > 0 {
			fmt.Fprintf(&b, "Damaged parts: %s\n", strings.Join(reportCtx.DetectedParts, ", "))
		}
		for _, entry := range reportCtx.CostBreakdown {
			fmt.Fprintf(&b, "- %s: %.0f\n", entry.Part, entry.Cost)
		}
		if reportCtx.TotalCost > 0 {
			fmt.Fprintf(&b, "Total estimated cost: %.0f\n", reportCtx.TotalCost)
		}
		b.WriteString("\n")
	}

	if len(docs) > 0 {
		b.WriteString("Reference documents:\n")
		for _, d := range docs {
			text := d.Text
			if len(text) > 1200 {
				text = text[:1200]
			}
			fmt.Fprintf(&b, "[%s] %s\n", d.Source, text)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Question: %s", question)
	return b.String()
}
