package chat

import (
	"context"
	"log/slog"
	"strings"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/54b3r/catalogai-go/internal/budget"
	"github.com/54b3r/catalogai-go/internal/logging"
	"github.com/54b3r/catalogai-go/internal/rag"
)

// generate builds the prompt from the leading MaxContextSources items and
// calls the model exactly once. A model error yields GenerationFailedMessage;
// an empty completion yields "".
func (s *Service) generate(ctx context.Context, query string, items []rag.ContentItem) string {
	log := logging.FromContext(ctx)

	used := contextPrefix(items, s.cfg.MaxContextSources)
	msgs := []*schema.Message{schema.UserMessage(BuildPrompt(query, used, len(used)))}

	tokens, over := budget.Check(msgs, s.cfg.MaxPromptTokens)
	s.metrics.promptTokens.Observe(float64(tokens))
	s.metrics.contextSources.Observe(float64(len(used)))
	if over {
		log.Warn("chat: prompt exceeds token budget",
			slog.Int("estimated_tokens", tokens),
			slog.Int("budget", s.cfg.MaxPromptTokens),
		)
	}

	resp, err := s.callModel(ctx, msgs)
	if err != nil {
		s.metrics.generationsTotal.WithLabelValues(generationError).Inc()
		log.Warn("chat: generation failed",
			slog.String("failure", "generation_error"),
			slog.Any("error", err),
		)
		return GenerationFailedMessage
	}

	var text string
	if resp != nil {
		text = strings.TrimSpace(resp.Content)
	}
	if text == "" {
		s.metrics.generationsTotal.WithLabelValues(generationEmpty).Inc()
		log.Warn("chat: model returned an empty answer")
		return ""
	}

	s.metrics.generationsTotal.WithLabelValues(generationOK).Inc()
	return text
}

// answerRunName labels the model call in callback handlers such as Langfuse.
const answerRunName = "catalog_answer"

// callModel runs Generate inside a callback run so globally registered
// handlers observe it. Models that report their own callbacks get only the
// run context; for the rest the start, end and error events are emitted here.
func (s *Service) callModel(ctx context.Context, msgs []*schema.Message) (*schema.Message, error) {
	typ, _ := components.GetType(s.model)
	ctx = callbacks.InitCallbacks(ctx, &callbacks.RunInfo{
		Name:      answerRunName,
		Type:      typ,
		Component: components.ComponentOfChatModel,
	})

	if components.IsCallbacksEnabled(s.model) {
		return s.model.Generate(ctx, msgs)
	}

	ctx = callbacks.OnStart(ctx, &model.CallbackInput{Messages: msgs})
	resp, err := s.model.Generate(ctx, msgs)
	if err != nil {
		callbacks.OnError(ctx, err)
		return nil, err
	}
	callbacks.OnEnd(ctx, &model.CallbackOutput{Message: resp})
	return resp, nil
}
