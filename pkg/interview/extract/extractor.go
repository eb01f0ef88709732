// Package extract turns one free-text manager answer into a partial
// BANT patch using a model call with layered recovery: strict JSON
// mode first, then a brace scan over the raw completion, then up to
// two plain-mode repair rounds against the schema validator. Only
// transport failures surface; an unparseable completion degrades to
// an empty patch.
package extract

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"bant-agent-be/pkg/bant"
	"bant-agent-be/pkg/llm"
)

const repairRounds = 2

type Extractor struct {
	provider llm.LLMProvider
	log      *zap.Logger
	now      func() time.Time
	prompt   func(time.Time) string
	repair   func(string) string
}

func NewExtractor(provider llm.LLMProvider, log *zap.Logger, promptFn func(time.Time) string, repairFn func(string) string) *Extractor {
	return &Extractor{
		provider: provider,
		log:      log,
		now:      time.Now,
		prompt:   promptFn,
		repair:   repairFn,
	}
}

// Extract asks the model to pull slot values out of the answer. The
// question that prompted the answer is passed along so the model knows
// which slot the manager was talking about.
func (e *Extractor) Extract(ctx context.Context, question, answer string) (*bant.Patch, error) {
	history := []llm.Message{
		{Role: "system", Content: e.prompt(e.now())},
		{Role: "user", Content: "Вопрос: " + question + "\nОтвет менеджера: " + answer},
	}

	raw, err := e.provider.Chat(ctx, history,
		llm.WithJSONMode(),
		llm.WithTemperature(0.1),
		llm.WithMaxTokens(1024),
	)
	if err != nil {
		return nil, err
	}

	patch, parseErr := parsePatch(raw)
	for round := 0; parseErr != nil && round < repairRounds; round++ {
		e.log.Warn("extraction JSON invalid, asking model to repair",
			zap.Int("round", round+1),
			zap.Error(parseErr))

		history = append(history,
			llm.Message{Role: "assistant", Content: raw},
			llm.Message{Role: "user", Content: e.repair(parseErr.Error())},
		)
		// Repair rounds run without strict JSON mode: when the backend's
		// json_object enforcement is what broke the first completion, a
		// strict retry just fails the same way.
		raw, err = e.provider.Chat(ctx, history, llm.WithTemperature(0.0))
		if err != nil {
			return nil, err
		}
		patch, parseErr = parsePatch(raw)
	}

	if parseErr != nil {
		e.log.Warn("extraction failed after repair rounds, treating answer as uninformative",
			zap.Error(parseErr))
		return &bant.Patch{}, nil
	}
	return patch, nil
}

// parsePatch decodes the model output into a patch and checks it
// against the record schema. Models often wrap JSON in prose or code
// fences, so the decode works on the outermost brace span.
func parsePatch(raw string) (*bant.Patch, error) {
	jsonStr, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}

	var patch bant.Patch
	if err := json.Unmarshal([]byte(jsonStr), &patch); err != nil {
		return nil, &bant.SchemaViolationError{Field: "patch", Reason: "invalid JSON: " + err.Error()}
	}

	// A throwaway merge runs the patch values through the full enum
	// and format validation of the record.
	probe := bant.NewRecord("probe").Merge(&patch)
	if err := probe.Validate(); err != nil {
		return nil, err
	}
	return &patch, nil
}

// extractJSON locates the outermost JSON object in the model output.
func extractJSON(raw string) (string, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return "", &bant.SchemaViolationError{Field: "patch", Reason: "no JSON object in model output"}
	}
	return raw[start : end+1], nil
}
