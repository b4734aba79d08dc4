package services

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"google.golang.org/protobuf/types/known/durationpb"

	"github.com/yeah-genie/chalk-backend/internal/logger"
)

type TranscriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type TranscriptResult struct {
	Provider   string              `json:"provider"`
	Transcript string              `json:"transcript"`
	Segments   []TranscriptSegment `json:"segments,omitempty"`
	Language   string              `json:"language"`
	Duration   float64             `json:"duration"`
}

type TranscriberService interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (*TranscriptResult, error)
	Close() error
}

// NewTranscriber returns the Cloud Speech transcriber when a Google credential
// is configured, otherwise a deterministic demo transcriber so the pipeline
// stays runnable without any provider account.
func NewTranscriber(log *logger.Logger) (TranscriberService, error) {
	creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"))
	if creds == "" {
		creds = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if creds == "" {
		log.Warn("No Google credential configured, using demo transcriber")
		return NewDemoTranscriber(log), nil
	}
	return NewSpeechTranscriber(log, creds)
}

type speechTranscriber struct {
	log        *logger.Logger
	client     *speech.Client
	language   string
	maxRetries int
}

func NewSpeechTranscriber(log *logger.Logger, credsPath string) (TranscriberService, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	slog := log.With("service", "SpeechTranscriber")

	ctx := context.Background()
	var c *speech.Client
	var err error
	if credsPath != "" {
		c, err = speech.NewClient(ctx, option.WithCredentialsFile(credsPath))
	} else {
		c, err = speech.NewClient(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}

	language := strings.TrimSpace(os.Getenv("SPEECH_LANGUAGE_CODE"))
	if language == "" {
		language = "en-US"
	}

	return &speechTranscriber{
		log:        slog,
		client:     c,
		language:   language,
		maxRetries: 4,
	}, nil
}

func (s *speechTranscriber) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *speechTranscriber) Transcribe(ctx context.Context, audio []byte, mimeType string) (*TranscriptResult, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Minute)
	defer cancel()

	if len(audio) == 0 {
		return &TranscriptResult{Provider: "gcp_speech", Language: s.language}, nil
	}

	req := &speechpb.LongRunningRecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			LanguageCode:               s.language,
			EnableAutomaticPunctuation: true,
			EnableWordTimeOffsets:      true,
			Encoding:                   inferSpeechEncoding(mimeType),
		},
		Audio: &speechpb.RecognitionAudio{AudioSource: &speechpb.RecognitionAudio_Content{Content: audio}},
	}

	var resp *speechpb.LongRunningRecognizeResponse
	var err error
	backoff := time.Second
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		resp, err = func() (*speechpb.LongRunningRecognizeResponse, error) {
			op, opErr := s.client.LongRunningRecognize(ctx, req)
			if opErr != nil {
				return nil, opErr
			}
			return op.Wait(ctx)
		}()
		if err == nil {
			break
		}
		if !isRetryableSpeechErr(err) || attempt == s.maxRetries {
			return nil, fmt.Errorf("speech longrunningrecognize: %w", err)
		}
		s.log.Warn("Speech request retrying", "attempt", attempt+1, "error", err.Error())
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return parseSpeechResponse(resp, s.language), nil
}

func isRetryableSpeechErr(err error) bool {
	st, ok := status.FromError(err)
	if !ok {
		return false
	}
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
		return true
	default:
		return false
	}
}

func inferSpeechEncoding(mimeType string) speechpb.RecognitionConfig_AudioEncoding {
	m := strings.ToLower(strings.TrimSpace(mimeType))
	switch {
	case strings.Contains(m, "wav"):
		return speechpb.RecognitionConfig_LINEAR16
	case strings.Contains(m, "flac"):
		return speechpb.RecognitionConfig_FLAC
	case strings.Contains(m, "mp3") || strings.Contains(m, "mpeg"):
		return speechpb.RecognitionConfig_MP3
	case strings.Contains(m, "ogg") || strings.Contains(m, "opus") || strings.Contains(m, "webm"):
		return speechpb.RecognitionConfig_OGG_OPUS
	default:
		// leave unspecified; the API can often auto-detect
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED
	}
}

func parseSpeechResponse(resp *speechpb.LongRunningRecognizeResponse, language string) *TranscriptResult {
	out := &TranscriptResult{Provider: "gcp_speech", Language: language}
	if resp == nil || len(resp.Results) == 0 {
		return out
	}

	var full strings.Builder
	for _, r := range resp.Results {
		if r == nil || len(r.Alternatives) == 0 || r.Alternatives[0] == nil {
			continue
		}
		alt := r.Alternatives[0]
		text := strings.TrimSpace(alt.Transcript)
		if text == "" {
			continue
		}
		if full.Len() > 0 {
			full.WriteString(" ")
		}
		full.WriteString(text)

		seg := TranscriptSegment{Text: text}
		if len(alt.Words) > 0 {
			if first := alt.Words[0]; first != nil {
				seg.Start = durToSec(first.StartTime)
			}
			if last := alt.Words[len(alt.Words)-1]; last != nil {
				seg.End = durToSec(last.EndTime)
			}
		}
		out.Segments = append(out.Segments, seg)
		if seg.End > out.Duration {
			out.Duration = seg.End
		}
	}
	out.Transcript = strings.TrimSpace(full.String())
	return out
}

func durToSec(d *durationpb.Duration) float64 {
	if d == nil {
		return 0
	}
	return float64(d.GetSeconds()) + float64(d.GetNanos())/1e9
}
