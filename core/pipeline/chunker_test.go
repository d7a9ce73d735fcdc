package pipeline

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zeyadelgabbas/Video-Audio-RAG/model"
)

// testSegments builds segments of 5 seconds each from the given texts
func testSegments(videoRID uuid.UUID, texts ...string) []*model.Segment {
	segments := make([]*model.Segment, 0, len(texts))
	for i, text := range texts {
		segments = append(segments, &model.Segment{
			ID:        i + 1,
			VideoID:   1,
			VideoRID:  videoRID,
			StartTime: float64(i * 5),
			EndTime:   float64((i + 1) * 5),
			Text:      text,
		})
	}
	return segments
}

func TestSegmentChunker(t *testing.T) {
	t.Run("Error with zero chunk size", func(t *testing.T) {
		_, err := SegmentChunker(0, 0)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "must be positive")
	})

	t.Run("Error with negative overlap", func(t *testing.T) {
		_, err := SegmentChunker(100, -1)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "must not be negative")
	})

	t.Run("Error with overlap not smaller than chunk size", func(t *testing.T) {
		_, err := SegmentChunker(100, 100)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "must be smaller than chunk size")
	})

	t.Run("Greedy packing respects the chunk size", func(t *testing.T) {
		chunker, err := SegmentChunker(25, 0)
		require.NoError(t, err)

		videoRID := uuid.New()
		segments := testSegments(videoRID,
			strings.Repeat("a", 10),
			strings.Repeat("b", 10),
			strings.Repeat("c", 10),
			strings.Repeat("d", 10),
		)

		chunks, err := chunker(segments)

		require.NoError(t, err)
		require.Len(t, chunks, 2)
		assert.Equal(t, strings.Repeat("a", 10)+" "+strings.Repeat("b", 10), chunks[0].Content)
		assert.Equal(t, strings.Repeat("c", 10)+" "+strings.Repeat("d", 10), chunks[1].Content)
		for _, chunk := range chunks {
			assert.LessOrEqual(t, len(chunk.Content), 25)
		}
	})

	t.Run("Chunks carry the covered time range and video identity", func(t *testing.T) {
		chunker, err := SegmentChunker(25, 0)
		require.NoError(t, err)

		videoRID := uuid.New()
		segments := testSegments(videoRID,
			strings.Repeat("a", 10),
			strings.Repeat("b", 10),
			strings.Repeat("c", 10),
		)

		chunks, err := chunker(segments)

		require.NoError(t, err)
		require.Len(t, chunks, 2)

		// First chunk spans the first two segments, second the remaining one
		assert.Equal(t, 0.0, chunks[0].StartTime)
		assert.Equal(t, 10.0, chunks[0].EndTime)
		assert.Equal(t, 10.0, chunks[1].StartTime)
		assert.Equal(t, 15.0, chunks[1].EndTime)

		for i, chunk := range chunks {
			assert.Equal(t, i, chunk.ChunkIndex)
			assert.Equal(t, videoRID, chunk.VideoRID)
			assert.Equal(t, 1, chunk.VideoID)
			assert.Less(t, chunk.StartTime, chunk.EndTime)
		}
		assert.Equal(t, 2, chunks[0].Metadata["segment_count"])
		assert.Equal(t, 1, chunks[1].Metadata["segment_count"])
	})

	t.Run("Trailing segments repeat at the start of the next chunk", func(t *testing.T) {
		chunker, err := SegmentChunker(25, 12)
		require.NoError(t, err)

		videoRID := uuid.New()
		segments := testSegments(videoRID,
			strings.Repeat("a", 10),
			strings.Repeat("b", 10),
			strings.Repeat("c", 10),
			strings.Repeat("d", 10),
		)

		chunks, err := chunker(segments)

		require.NoError(t, err)
		require.Len(t, chunks, 3)
		assert.Equal(t, strings.Repeat("a", 10)+" "+strings.Repeat("b", 10), chunks[0].Content)
		assert.Equal(t, strings.Repeat("b", 10)+" "+strings.Repeat("c", 10), chunks[1].Content)
		assert.Equal(t, strings.Repeat("c", 10)+" "+strings.Repeat("d", 10), chunks[2].Content)

		// Each chunk re-includes at most overlap characters of its predecessor
		for i := 1; i < len(chunks); i++ {
			prev := chunks[i-1]
			shared := 0
			for _, segmentText := range strings.Fields(chunks[i].Content) {
				if strings.Contains(prev.Content, segmentText) {
					shared += len(segmentText)
				}
			}
			assert.LessOrEqual(t, shared, 12, "chunk %d repeats more than the configured overlap", i)
			assert.GreaterOrEqual(t, chunks[i].StartTime, prev.StartTime)
		}
	})

	t.Run("Oversized segment becomes its own chunk", func(t *testing.T) {
		chunker, err := SegmentChunker(20, 5)
		require.NoError(t, err)

		videoRID := uuid.New()
		oversized := strings.Repeat("b", 30)
		segments := testSegments(videoRID,
			strings.Repeat("a", 10),
			oversized,
			strings.Repeat("c", 10),
		)

		chunks, err := chunker(segments)

		require.NoError(t, err)
		require.Len(t, chunks, 3)
		assert.Equal(t, strings.Repeat("a", 10), chunks[0].Content)
		assert.Equal(t, oversized, chunks[1].Content, "oversized segment must stay unsplit")
		assert.Equal(t, strings.Repeat("c", 10), chunks[2].Content, "no overlap is carried out of an oversized chunk")
		assert.Equal(t, 5.0, chunks[1].StartTime)
		assert.Equal(t, 10.0, chunks[1].EndTime)
	})

	t.Run("Empty input produces no chunks", func(t *testing.T) {
		chunker, err := SegmentChunker(100, 20)
		require.NoError(t, err)

		chunks, err := chunker(nil)

		require.NoError(t, err)
		assert.Len(t, chunks, 0)

		chunks, err = chunker([]*model.Segment{})

		require.NoError(t, err)
		assert.Len(t, chunks, 0)
	})

	t.Run("Whitespace segments are skipped and text is trimmed", func(t *testing.T) {
		chunker, err := SegmentChunker(100, 0)
		require.NoError(t, err)

		videoRID := uuid.New()
		segments := testSegments(videoRID, " hello ", "   \n\t ", "world\n")

		chunks, err := chunker(segments)

		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, "hello world", chunks[0].Content)
		assert.Equal(t, 2, chunks[0].Metadata["segment_count"])
	})

	t.Run("Single short segment becomes a single chunk", func(t *testing.T) {
		chunker, err := SegmentChunker(100, 20)
		require.NoError(t, err)

		videoRID := uuid.New()
		segments := testSegments(videoRID, "just one segment")

		chunks, err := chunker(segments)

		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, "just one segment", chunks[0].Content)
		assert.Equal(t, 0.0, chunks[0].StartTime)
		assert.Equal(t, 5.0, chunks[0].EndTime)
	})

	t.Run("Chunk text joins consecutive segment texts without inventing content", func(t *testing.T) {
		chunker, err := SegmentChunker(50, 10)
		require.NoError(t, err)

		videoRID := uuid.New()
		texts := make([]string, 0, 12)
		for i := 0; i < 12; i++ {
			texts = append(texts, fmt.Sprintf("segment %02d text", i))
		}
		segments := testSegments(videoRID, texts...)

		chunks, err := chunker(segments)

		require.NoError(t, err)
		require.NotEmpty(t, chunks)

		// Every chunk is a contiguous slice of the full transcript
		fullText := strings.Join(texts, " ")
		allChunkText := make([]string, 0, len(chunks))
		for _, chunk := range chunks {
			assert.Contains(t, fullText, chunk.Content)
			allChunkText = append(allChunkText, chunk.Content)
		}

		// And no segment is lost
		for _, text := range texts {
			assert.Contains(t, strings.Join(allChunkText, " "), text)
		}
	})

	t.Run("Same input produces the same chunks", func(t *testing.T) {
		chunker, err := SegmentChunker(40, 15)
		require.NoError(t, err)

		videoRID := uuid.New()
		segments := testSegments(videoRID,
			"the first segment",
			"a second segment with more words",
			"third",
			"the fourth segment closes the transcript",
		)

		first, err := chunker(segments)
		require.NoError(t, err)
		second, err := chunker(segments)
		require.NoError(t, err)

		require.Equal(t, len(first), len(second))
		for i := range first {
			assert.Equal(t, first[i].Content, second[i].Content)
			assert.Equal(t, first[i].StartTime, second[i].StartTime)
			assert.Equal(t, first[i].EndTime, second[i].EndTime)
			assert.Equal(t, first[i].ChunkIndex, second[i].ChunkIndex)
		}
	})
}
