package services

import (
	"context"

	"github.com/yeah-genie/chalk-backend/internal/logger"
)

// demoTranscriber returns a fixed tutoring transcript so the full pipeline can
// run end to end without a speech credential. The output is deterministic:
// the same audio always yields the same result.
type demoTranscriber struct {
	log *logger.Logger
}

func NewDemoTranscriber(log *logger.Logger) TranscriberService {
	return &demoTranscriber{log: log.With("service", "DemoTranscriber")}
}

var demoSegments = []TranscriptSegment{
	{Start: 0, End: 14.5, Text: "Okay, last week we left off on factoring quadratics. Can you walk me through x squared plus five x plus six?"},
	{Start: 14.5, End: 31.0, Text: "So I need two numbers that multiply to six and add to five. That's two and three, so it factors to x plus two times x plus three."},
	{Start: 31.0, End: 44.0, Text: "Exactly right. Let's try one with a negative constant term. What about x squared minus x minus twelve?"},
	{Start: 44.0, End: 62.5, Text: "Multiply to negative twelve, add to negative one. Negative four and three. So x minus four times x plus three."},
	{Start: 62.5, End: 80.0, Text: "Good. Next session we should start the quadratic formula, since completing the square was still shaky on Tuesday."},
}

func (d *demoTranscriber) Transcribe(ctx context.Context, audio []byte, mimeType string) (*TranscriptResult, error) {
	d.log.Debug("Returning demo transcript", "audio_bytes", len(audio), "mime", mimeType)
	segments := make([]TranscriptSegment, len(demoSegments))
	copy(segments, demoSegments)

	var transcript string
	for i, seg := range segments {
		if i > 0 {
			transcript += " "
		}
		transcript += seg.Text
	}
	return &TranscriptResult{
		Provider:   "demo",
		Transcript: transcript,
		Segments:   segments,
		Language:   "en-US",
		Duration:   segments[len(segments)-1].End,
	}, nil
}

func (d *demoTranscriber) Close() error { return nil }
