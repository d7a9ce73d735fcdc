package pipeline

import (
	"fmt"
	"strings"

	"github.com/Zeyadelgabbas/Video-Audio-RAG/model"
)

// SegmentChunker creates a chunker that greedily packs consecutive transcript
// segments into chunks of about chunkSize characters. A segment is never
// split, so a chunk holding a single oversized segment or a carried overlap
// can run past chunkSize instead of cutting a segment. Each following chunk
// starts with the trailing segments of the previous one, up to overlap
// characters, so context carries across chunk boundaries. The same segments
// always produce the same chunks.
func SegmentChunker(chunkSize int, overlap int) (ChunkFunc, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("chunk overlap must not be negative, got %d", overlap)
	}
	if overlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap %d must be smaller than chunk size %d", overlap, chunkSize)
	}

	return func(segments []*model.Segment) ([]*model.Chunk, error) {
		var chunks []*model.Chunk

		emit := func(group []*model.Segment, texts []string) {
			first := group[0]
			last := group[len(group)-1]
			chunks = append(chunks, &model.Chunk{
				VideoID:    first.VideoID,
				VideoRID:   first.VideoRID,
				Content:    strings.Join(texts, " "),
				StartTime:  first.StartTime,
				EndTime:    last.EndTime,
				ChunkIndex: len(chunks),
				Metadata: model.Metadata{
					"segment_count": len(group),
				},
			})
		}

		// overlapTail returns the longest trailing run of segments whose
		// joined length stays within the configured overlap.
		overlapTail := func(group []*model.Segment, texts []string) ([]*model.Segment, []string, int) {
			start := len(group)
			length := 0
			for start > 0 {
				add := len(texts[start-1])
				if length > 0 {
					add++
				}
				if length+add > overlap {
					break
				}
				length += add
				start--
			}
			if start == len(group) {
				return nil, nil, 0
			}
			tailSegments := append([]*model.Segment{}, group[start:]...)
			tailTexts := append([]string{}, texts[start:]...)
			return tailSegments, tailTexts, length
		}

		var current []*model.Segment
		var texts []string
		currentLen := 0
		// Number of leading segments in current carried over from the
		// previous chunk. A chunk is only emitted once it contains at
		// least one segment beyond the carried overlap, otherwise its
		// text would duplicate the previous chunk.
		carried := 0

		for _, segment := range segments {
			text := strings.TrimSpace(segment.Text)
			if text == "" {
				continue
			}
			segmentLen := len(text)

			// Too long for any chunk, emitted alone and unsplit so the
			// segment's timestamps stay intact.
			if segmentLen > chunkSize {
				if len(current) > carried {
					emit(current, texts)
				}
				emit([]*model.Segment{segment}, []string{text})
				current, texts, currentLen, carried = nil, nil, 0, 0
				continue
			}

			if len(current) > carried && currentLen+1+segmentLen > chunkSize {
				emit(current, texts)
				current, texts, currentLen = overlapTail(current, texts)
				carried = len(current)
			}

			if currentLen > 0 {
				currentLen++
			}
			current = append(current, segment)
			texts = append(texts, text)
			currentLen += segmentLen
		}

		if len(current) > carried {
			emit(current, texts)
		}

		return chunks, nil
	}, nil
}
