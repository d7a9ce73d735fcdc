package videorag

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Zeyadelgabbas/Video-Audio-RAG/model"
)

// TranscriptInput pairs a video with its transcript segments for batch
// indexing.
type TranscriptInput struct {
	Video    *model.Video
	Segments []*model.Segment
}

// BatchOptions controls a batch indexing run.
type BatchOptions struct {
	// SkipExisting leaves videos alone that already finished indexing
	// under the same name.
	SkipExisting bool
}

// FailedVideo reports one video of a batch that could not be indexed.
type FailedVideo struct {
	Name string
	Err  error
}

// BatchReport summarizes a batch indexing run. Total is always the sum of
// Succeeded, Failed and Skipped.
type BatchReport struct {
	Total        int
	Succeeded    int
	Failed       int
	Skipped      int
	FailedVideos []FailedVideo
}

// ProcessTranscripts indexes a batch of transcripts with up to
// MaxConcurrentVideos videos in flight at once. One failing video never
// aborts the batch, it is reported in the returned summary instead.
// Cancelling the context fails the videos not started yet, the ones in
// flight stop at their next pipeline step.
func (v *VideoRAG) ProcessTranscripts(ctx context.Context, inputs []TranscriptInput, opts BatchOptions) *BatchReport {
	report := &BatchReport{Total: len(inputs)}
	if len(inputs) == 0 {
		return report
	}

	workers := v.config.MaxConcurrentVideos
	if workers <= 0 {
		workers = 1
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, workers)
	)

	for _, input := range inputs {
		name := ""
		if input.Video != nil {
			name = input.Video.Name
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			mu.Lock()
			report.Failed++
			report.FailedVideos = append(report.FailedVideos, FailedVideo{Name: name, Err: ctx.Err()})
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func(input TranscriptInput, name string) {
			defer wg.Done()
			defer func() { <-sem }()

			if opts.SkipExisting && v.alreadyIndexed(name) {
				mu.Lock()
				report.Skipped++
				mu.Unlock()
				v.log.Info("Skipped already indexed video", slog.String("video_name", name))
				return
			}

			if _, err := v.ProcessTranscript(ctx, input.Video, input.Segments); err != nil {
				mu.Lock()
				report.Failed++
				report.FailedVideos = append(report.FailedVideos, FailedVideo{Name: name, Err: err})
				mu.Unlock()
				return
			}

			mu.Lock()
			report.Succeeded++
			mu.Unlock()
		}(input, name)
	}

	wg.Wait()

	v.log.Info("Processed transcript batch",
		slog.Int("total", report.Total),
		slog.Int("succeeded", report.Succeeded),
		slog.Int("failed", report.Failed),
		slog.Int("skipped", report.Skipped))

	return report
}

// alreadyIndexed reports whether a video of that name finished indexing
// before. Lookup errors count as not indexed, processing decides then.
func (v *VideoRAG) alreadyIndexed(name string) bool {
	video, err := v.Videos.SelectVideoByName(name)
	if err != nil {
		return false
	}
	return video.Status == model.VideoStatusCompleted
}
