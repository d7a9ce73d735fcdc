package index

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/Zeyadelgabbas/Video-Audio-RAG/model"
)

// MemoryIndex is a process-local ChunkStore for tests and installs without
// Postgres. A replace builds the complete new chunk slice before taking the
// write lock, so concurrent searches never observe a partial chunk set.
type MemoryIndex struct {
	mu     sync.RWMutex
	chunks map[uuid.UUID][]*model.Chunk
	nextID int
}

// NewMemoryIndex creates an empty in-memory chunk index
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		chunks: map[uuid.UUID][]*model.Chunk{},
	}
}

// ReplaceVideoChunks swaps the video's chunk set for the given one. The
// chunks are copied, later changes by the caller do not reach the index.
func (m *MemoryIndex) ReplaceVideoChunks(videoRID uuid.UUID, chunks []*model.Chunk) error {
	stored := make([]*model.Chunk, 0, len(chunks))
	for _, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			return fmt.Errorf("chunk %d of video %s has no embedding", chunk.ChunkIndex, videoRID)
		}
		copied := *chunk
		copied.VideoRID = videoRID
		copied.Embedding = slices.Clone(chunk.Embedding)
		stored = append(stored, &copied)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, chunk := range stored {
		if chunk.ID == 0 {
			m.nextID++
			chunk.ID = m.nextID
		}
	}
	m.chunks[videoRID] = stored
	return nil
}

// DeleteChunksByVideo removes every chunk of the video
func (m *MemoryIndex) DeleteChunksByVideo(videoRID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := len(m.chunks[videoRID])
	delete(m.chunks, videoRID)
	return removed, nil
}

// SelectChunksBySimilarity scores every candidate chunk by cosine
// similarity and returns the best matches in the same order the database
// handler uses: similarity descending, then start time, then chunk id.
func (m *MemoryIndex) SelectChunksBySimilarity(embedding []float32, limit int, threshold float64, videoRIDs []uuid.UUID) ([]*model.Chunk, error) {
	results := []*model.Chunk{}
	if limit <= 0 {
		return results, nil
	}

	m.mu.RLock()
	for videoRID, chunks := range m.chunks {
		if len(videoRIDs) > 0 && !slices.Contains(videoRIDs, videoRID) {
			continue
		}
		for _, chunk := range chunks {
			similarity := cosineSimilarity(embedding, chunk.Embedding)
			if similarity < threshold {
				continue
			}
			copied := *chunk
			copied.Embedding = nil
			copied.Similarity = similarity
			results = append(results, &copied)
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		if results[i].StartTime != results[j].StartTime {
			return results[i].StartTime < results[j].StartTime
		}
		return results[i].ID < results[j].ID
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// cosineSimilarity calculates the cosine similarity between two embedding
// vectors. Mismatched or zero vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
