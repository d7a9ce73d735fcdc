package index

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Zeyadelgabbas/Video-Audio-RAG/core/pipeline"
	"github.com/Zeyadelgabbas/Video-Audio-RAG/model"
)

// Report summarizes one indexing run of a single video
type Report struct {
	ChunksIndexed int
	ChunksSkipped []pipeline.SkippedChunk
}

// Indexer turns validated transcript segments into embedded chunks and
// swaps them into the chunk store per video. Provider calls run before any
// store mutation, so a failed or cancelled run leaves the previously
// indexed chunks untouched.
type Indexer struct {
	store          ChunkStore
	pipeline       *pipeline.Pipeline
	embeddingModel string
	log            *slog.Logger
}

// NewIndexer creates an indexer writing to the given chunk store. The
// embedding model name is stamped onto every chunk so a later search can
// verify it queries with the same model.
func NewIndexer(store ChunkStore, pipe *pipeline.Pipeline, embeddingModel string, logger *slog.Logger) (*Indexer, error) {
	if store == nil {
		return nil, fmt.Errorf("chunk store is nil")
	}
	if pipe == nil {
		return nil, fmt.Errorf("pipeline is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		store:          store,
		pipeline:       pipe,
		embeddingModel: embeddingModel,
		log:            logger,
	}, nil
}

// IndexVideo chunks and embeds the segments and replaces the video's chunk
// set with the result. Chunks whose embedding failed after retries are
// reported, not fatal. Re-indexing never leaves stale chunks behind because
// the previous set is removed in the same swap.
func (i *Indexer) IndexVideo(ctx context.Context, video *model.Video, segments []*model.Segment) (*Report, error) {
	if video == nil {
		return nil, fmt.Errorf("video is nil")
	}
	if err := model.ValidateSegments(segments); err != nil {
		return nil, fmt.Errorf("invalid segments for video %s: %w", video.RID, err)
	}

	result, err := i.pipeline.Process(ctx, segments)
	if err != nil {
		return nil, err
	}
	// An empty transcript legitimately clears the index, but losing every
	// chunk to embedding failures must not: the previous set stays in place
	// and the video counts as failed.
	if len(result.Chunks) == 0 && len(result.Skipped) > 0 {
		return nil, fmt.Errorf("all %d chunks failed to embed for video %s", len(result.Skipped), video.RID)
	}

	for _, chunk := range result.Chunks {
		chunk.VideoID = video.ID
		chunk.VideoRID = video.RID
		chunk.VideoName = video.Name
		chunk.EmbeddingModel = i.embeddingModel
	}

	if err := i.store.ReplaceVideoChunks(video.RID, result.Chunks); err != nil {
		return nil, err
	}

	report := &Report{
		ChunksIndexed: len(result.Chunks),
		ChunksSkipped: result.Skipped,
	}
	i.log.Info("Indexed video",
		slog.String("video_rid", video.RID.String()),
		slog.String("video_name", video.Name),
		slog.Int("chunks_indexed", report.ChunksIndexed),
		slog.Int("chunks_skipped", len(report.ChunksSkipped)))
	for _, skipped := range result.Skipped {
		i.log.Warn("Skipped chunk during indexing",
			slog.String("video_rid", video.RID.String()),
			slog.Int("chunk_index", skipped.Index),
			slog.String("error", skipped.Err.Error()))
	}

	return report, nil
}

// Remove deletes every indexed chunk of the video
func (i *Indexer) Remove(videoRID uuid.UUID) (int, error) {
	removed, err := i.store.DeleteChunksByVideo(videoRID)
	if err != nil {
		return 0, err
	}
	i.log.Info("Removed video from index",
		slog.String("video_rid", videoRID.String()),
		slog.Int("chunks_removed", removed))
	return removed, nil
}
