package composer

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/Zeyadelgabbas/Video-Audio-RAG/model"
)

// sourceMarker matches the [Source N] markers the prompt instructs the
// model to cite with
var sourceMarker = regexp.MustCompile(`\[Source (\d+)\]`)

// excerptLimit caps citation excerpts, in runes
const excerptLimit = 150

// ExtractCitations resolves the [Source N] markers in the generated text
// against the retrieved results. Valid markers become citations in first
// mention order; markers pointing at no retrieved source are counted into a
// warning, never treated as a failure.
func ExtractCitations(text string, results []*model.RetrievalResult) ([]model.Citation, []string) {
	matches := sourceMarker.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil, nil
	}

	var citations []model.Citation
	seen := make(map[int]bool)
	invalid := 0

	for _, match := range matches {
		number, err := strconv.Atoi(match[1])
		if err != nil || number < 1 || number > len(results) {
			invalid++
			continue
		}
		if seen[number] {
			continue
		}
		seen[number] = true

		chunk := results[number-1].Chunk
		citations = append(citations, model.Citation{
			Source:    number,
			VideoRID:  chunk.VideoRID,
			VideoName: chunk.VideoName,
			StartTime: chunk.StartTime,
			EndTime:   chunk.EndTime,
			Excerpt:   excerpt(chunk.Content),
		})
	}

	var warnings []string
	if invalid > 0 {
		warnings = append(warnings, fmt.Sprintf("citation validation failed for %d claims", invalid))
	}

	return citations, warnings
}

func excerpt(content string) string {
	runes := []rune(content)
	if len(runes) <= excerptLimit {
		return content
	}
	return string(runes[:excerptLimit]) + "..."
}
