package index

import (
	"github.com/google/uuid"

	"github.com/Zeyadelgabbas/Video-Audio-RAG/model"
)

// ChunkStore is the persistence boundary of the indexer. The database
// chunks handler and the in-memory index both satisfy it.
type ChunkStore interface {
	// ReplaceVideoChunks swaps the stored chunk set of a video in one
	// atomic step. A concurrent similarity search sees either the old
	// set or the new one, never a mix and never an empty in-between.
	ReplaceVideoChunks(videoRID uuid.UUID, chunks []*model.Chunk) error
	// DeleteChunksByVideo removes every chunk of a video and returns
	// how many were removed.
	DeleteChunksByVideo(videoRID uuid.UUID) (int, error)
	// SelectChunksBySimilarity returns up to limit chunks ordered by
	// descending cosine similarity to the embedding, ties broken by
	// earlier start time, then lower chunk id. A non-empty videoRIDs
	// restricts the search to those videos.
	SelectChunksBySimilarity(embedding []float32, limit int, threshold float64, videoRIDs []uuid.UUID) ([]*model.Chunk, error)
}
