package composer

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Zeyadelgabbas/Video-Audio-RAG/core/pipeline"
	"github.com/Zeyadelgabbas/Video-Audio-RAG/model"
)

// Composer turns a question and retrieved chunks into a cited answer
type Composer struct {
	generate        pipeline.GenerateFunc
	retry           *pipeline.RetryPolicy
	maxContextChars int
	log             *slog.Logger
}

// NewComposer creates a composer around a generation function.
// maxContextChars bounds the total chunk text placed into one prompt,
// 0 leaves it unbounded.
func NewComposer(generate pipeline.GenerateFunc, retry *pipeline.RetryPolicy, maxContextChars int, logger *slog.Logger) *Composer {
	if retry == nil {
		retry = pipeline.DefaultRetryPolicy()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Composer{
		generate:        generate,
		retry:           retry,
		maxContextChars: maxContextChars,
		log:             logger,
	}
}

// SetGenerator swaps the generation function
func (c *Composer) SetGenerator(generate pipeline.GenerateFunc) {
	c.generate = generate
}

// Compose answers the query from the retrieved chunks. It never returns an
// error: when generation is unavailable or produces nothing, the degraded
// answer comes back without citations, so one failed provider call cannot
// take down a whole chat exchange.
func (c *Composer) Compose(ctx context.Context, query string, results []*model.RetrievalResult, history []model.Turn) *model.Answer {
	results = c.fitContext(results)

	prompt := BuildPrompt(query, results, history)

	if c.generate == nil {
		c.log.Warn("No generator set, returning degraded answer")
		return &model.Answer{Text: model.DegradedAnswerText, Degraded: true}
	}

	var text string
	err := c.retry.Do(ctx, func(ctx context.Context) error {
		generated, err := c.generate(ctx, prompt)
		if err != nil {
			return err
		}
		text = generated
		return nil
	})
	if err != nil {
		c.log.Warn("Generation failed, returning degraded answer",
			slog.String("error", err.Error()))
		return &model.Answer{Text: model.DegradedAnswerText, Degraded: true}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		c.log.Warn("Generation returned no content, returning degraded answer")
		return &model.Answer{Text: model.DegradedAnswerText, Degraded: true}
	}

	answer := &model.Answer{Text: text}
	answer.Citations, answer.Warnings = ExtractCitations(text, results)

	return answer
}

// fitContext drops the lowest scored results until the total chunk text fits
// the configured limit. The surviving results keep their order, and the best
// result survives even when it is oversized on its own.
func (c *Composer) fitContext(results []*model.RetrievalResult) []*model.RetrievalResult {
	if c.maxContextChars <= 0 || len(results) == 0 {
		return results
	}

	total := 0
	for _, result := range results {
		total += len(result.Chunk.Content)
	}
	if total <= c.maxContextChars {
		return results
	}

	kept := append([]*model.RetrievalResult(nil), results...)
	dropped := 0
	for total > c.maxContextChars && len(kept) > 1 {
		lowest := 0
		for i := 1; i < len(kept); i++ {
			if kept[i].Score <= kept[lowest].Score {
				lowest = i
			}
		}
		total -= len(kept[lowest].Chunk.Content)
		kept = append(kept[:lowest], kept[lowest+1:]...)
		dropped++
	}

	c.log.Info("Dropped results to fit the context limit",
		slog.Int("dropped", dropped),
		slog.Int("kept", len(kept)))

	return kept
}
