package pipeline

import (
	"context"
	"fmt"

	"github.com/Zeyadelgabbas/Video-Audio-RAG/model"
)

// ChunkFunc is a function that groups timed transcript segments into chunks
// Segments are never split, so every chunk covers a contiguous time range
type ChunkFunc func(segments []*model.Segment) ([]*model.Chunk, error)

// EmbedFunc is a function that generates an embedding for text
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

// GenerateFunc is a function that generates an answer for a prompt
type GenerateFunc func(ctx context.Context, prompt string) (string, error)

// TranscribeFunc is a function that transcribes an audio file into timed segments
type TranscribeFunc func(ctx context.Context, audioPath string) ([]*model.Segment, error)

// Pipeline combines chunking and embedding functions
type Pipeline struct {
	Chunker  ChunkFunc
	Embedder EmbedFunc
	Retry    *RetryPolicy
}

// NewPipeline creates a new processing pipeline with the default retry policy
func NewPipeline(chunker ChunkFunc, embedder EmbedFunc) *Pipeline {
	return &Pipeline{
		Chunker:  chunker,
		Embedder: embedder,
		Retry:    DefaultRetryPolicy(),
	}
}

// SetRetryPolicy sets the retry policy used for embedding calls
func (p *Pipeline) SetRetryPolicy(policy *RetryPolicy) {
	p.Retry = policy
}

// SkippedChunk reports a chunk whose embedding failed after all retries
type SkippedChunk struct {
	Index int
	Err   error
}

// ProcessingResult contains the embedded chunks and the chunks that were
// skipped because their embedding kept failing
type ProcessingResult struct {
	Chunks  []*model.Chunk
	Skipped []SkippedChunk
}

// Process splits the segments into chunks and embeds each chunk.
// Embedding failures are retried per the pipeline's retry policy; a chunk
// that still fails is skipped and reported, it never aborts the whole run.
// Context cancellation aborts processing between chunks.
func (p *Pipeline) Process(ctx context.Context, segments []*model.Segment) (*ProcessingResult, error) {
	if p.Chunker == nil {
		return nil, fmt.Errorf("pipeline has no chunker")
	}
	if p.Embedder == nil {
		return nil, fmt.Errorf("pipeline has no embedder")
	}
	retry := p.Retry
	if retry == nil {
		retry = DefaultRetryPolicy()
	}

	// Split into chunks
	chunks, err := p.Chunker(segments)
	if err != nil {
		return nil, err
	}

	// Generate embeddings
	result := &ProcessingResult{
		Chunks: make([]*model.Chunk, 0, len(chunks)),
	}
	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		chunk := chunk
		err := retry.Do(ctx, func(ctx context.Context) error {
			embedding, err := p.Embedder(ctx, chunk.Content)
			if err != nil {
				return err
			}
			chunk.Embedding = embedding
			return nil
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			result.Skipped = append(result.Skipped, SkippedChunk{Index: chunk.ChunkIndex, Err: err})
			continue
		}

		result.Chunks = append(result.Chunks, chunk)
	}

	return result, nil
}
