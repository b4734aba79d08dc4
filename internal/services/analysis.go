package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yeah-genie/chalk-backend/internal/logger"
	"github.com/yeah-genie/chalk-backend/internal/repos"
	"github.com/yeah-genie/chalk-backend/internal/types"
)

// ErrInvalidAnalysisInput marks request-shaped failures, which the handler
// answers with 400 instead of blaming an upstream provider.
var ErrInvalidAnalysisInput = errors.New("invalid analysis input")

type AnalyzeSessionInput struct {
	StudentID uuid.UUID
	Audio     []byte
	AudioMime string
	Images    []InlineImage
}

type AnalysisResult struct {
	Session      *types.Session            `json:"session"`
	Transcript   string                    `json:"transcript"`
	Summary      string                    `json:"summary"`
	TopicUpdates []*types.StudentMastery   `json:"topic_updates"`
	Proposals    []*types.TaxonomyProposal `json:"proposals"`
}

type AnalysisService interface {
	AnalyzeSession(ctx context.Context, input AnalyzeSessionInput) (*AnalysisResult, error)
	Progress(ctx context.Context, sessionID uuid.UUID) ([]string, error)
}

type analysisService struct {
	db               *gorm.DB
	log              *logger.Logger
	studentRepo      repos.StudentRepo
	sessionRepo      repos.SessionRepo
	sessionTopicRepo repos.SessionTopicRepo
	kbRepo           repos.KnowledgeBaseRepo
	proposalRepo     repos.TaxonomyProposalRepo
	masteryService   MasteryService
	sessionService   SessionService
	transcriber      TranscriberService
	extractor        ExtractionService
	bucket           BucketService
	progress         ProgressStore
}

func NewAnalysisService(
	db *gorm.DB,
	log *logger.Logger,
	studentRepo repos.StudentRepo,
	sessionRepo repos.SessionRepo,
	sessionTopicRepo repos.SessionTopicRepo,
	kbRepo repos.KnowledgeBaseRepo,
	proposalRepo repos.TaxonomyProposalRepo,
	masteryService MasteryService,
	sessionService SessionService,
	transcriber TranscriberService,
	extractor ExtractionService,
	bucket BucketService,
	progress ProgressStore,
) AnalysisService {
	return &analysisService{
		db:               db,
		log:              log.With("service", "AnalysisService"),
		studentRepo:      studentRepo,
		sessionRepo:      sessionRepo,
		sessionTopicRepo: sessionTopicRepo,
		kbRepo:           kbRepo,
		proposalRepo:     proposalRepo,
		masteryService:   masteryService,
		sessionService:   sessionService,
		transcriber:      transcriber,
		extractor:        extractor,
		bucket:           bucket,
		progress:         progress,
	}
}

// AnalyzeSession runs one full recording-to-mastery cycle: create the session
// row, store the recording, transcribe, extract insights, fold every observed
// topic into mastery, queue taxonomy proposals, then mark the session
// completed. The pipeline is not atomic: a failure after the session row
// exists leaves it in_progress with whatever earlier steps already persisted,
// and the progress store shows how far the run got.
func (as *analysisService) AnalyzeSession(ctx context.Context, input AnalyzeSessionInput) (*AnalysisResult, error) {
	// Input validation fails before any side effect.
	if input.StudentID == uuid.Nil {
		return nil, fmt.Errorf("%w: studentId is required", ErrInvalidAnalysisInput)
	}
	if len(input.Audio) == 0 {
		return nil, fmt.Errorf("%w: audio recording is required", ErrInvalidAnalysisInput)
	}

	student, err := as.studentRepo.GetByID(ctx, nil, input.StudentID)
	if err != nil {
		return nil, fmt.Errorf("load student: %w", err)
	}
	if student == nil {
		return nil, fmt.Errorf("%w: student %s not found", ErrInvalidAnalysisInput, input.StudentID)
	}

	// Step 1: session row, in_progress.
	session := &types.Session{
		ID:          uuid.New(),
		StudentID:   student.ID,
		SubjectID:   student.SubjectID,
		ScheduledAt: time.Now().UTC(),
		Status:      types.SessionInProgress,
	}
	if err := as.sessionRepo.Create(ctx, nil, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	as.markStep(ctx, session.ID, StepCreated)

	log := as.log.With("session_id", session.ID.String(), "student_id", student.ID.String())

	// Step 2: persist the raw recording.
	recordingKey := fmt.Sprintf("sessions/%s/recording%s", session.ID, extForMime(input.AudioMime))
	if err := as.bucket.UploadFile(ctx, recordingKey, bytes.NewReader(input.Audio)); err != nil {
		log.Error("Recording upload failed", "error", err)
		return nil, fmt.Errorf("upload failed: %w", err)
	}
	recordingURL := as.bucket.GetPublicURL(recordingKey)
	as.markStep(ctx, session.ID, StepRecordingStored)

	// Step 3: transcription.
	transcript, err := as.transcriber.Transcribe(ctx, input.Audio, input.AudioMime)
	if err != nil {
		log.Error("Transcription failed", "error", err)
		return nil, fmt.Errorf("transcription failed: %w", err)
	}
	if transcript == nil || strings.TrimSpace(transcript.Transcript) == "" {
		return nil, fmt.Errorf("transcription failed: empty transcript")
	}
	as.markStep(ctx, session.ID, StepTranscribed)

	// Step 4: evidence images, uploaded concurrently. The inline payloads for
	// the extractor come straight from the input; only the durable URLs
	// depend on the uploads.
	evidenceURLs := make([]string, len(input.Images))
	g, gctx := errgroup.WithContext(ctx)
	for i, img := range input.Images {
		key := fmt.Sprintf("sessions/%s/evidence/%d%s", session.ID, i, extForMime(img.MimeType))
		data := img.Data
		idx := i
		g.Go(func() error {
			if err := as.bucket.UploadFile(gctx, key, bytes.NewReader(data)); err != nil {
				return fmt.Errorf("upload evidence image %d: %w", idx, err)
			}
			evidenceURLs[idx] = as.bucket.GetPublicURL(key)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Error("Evidence upload failed", "error", err)
		return nil, fmt.Errorf("upload failed: %w", err)
	}

	// Step 5: extraction against a fresh topic list.
	kbTopics, err := as.kbRepo.ListTopicsBySubject(ctx, nil, student.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("load subject topics: %w", err)
	}
	topicCtx := make([]TopicContext, 0, len(kbTopics))
	for _, t := range kbTopics {
		topicCtx = append(topicCtx, TopicContext{ID: t.ID, Name: t.Name})
	}
	subjectName := student.SubjectID
	if subject, sErr := as.kbRepo.GetSubject(ctx, nil, student.SubjectID); sErr == nil && subject != nil {
		subjectName = subject.Name
	}

	extraction, err := as.extractor.ExtractSessionInsights(ctx, ExtractionInput{
		Transcript:  transcript.Transcript,
		SubjectName: subjectName,
		Topics:      topicCtx,
		Images:      input.Images,
	})
	if err != nil {
		log.Error("Extraction failed", "error", err)
		return nil, fmt.Errorf("analysis failed: %w", err)
	}
	as.markStep(ctx, session.ID, StepExtracted)

	// Step 6: evidence rows + mastery updates, independent per topic. A topic
	// id repeated by the extractor counts once; otherwise a single session
	// would double-apply the blend and duplicate its evidence row.
	touched := extraction.Topics[:0]
	seenTopics := make(map[string]bool, len(extraction.Topics))
	for _, topic := range extraction.Topics {
		if seenTopics[topic.TopicID] {
			continue
		}
		seenTopics[topic.TopicID] = true
		touched = append(touched, topic)
	}
	updates := make([]*types.StudentMastery, len(touched))
	tg, tctx := errgroup.WithContext(ctx)
	for i, topic := range touched {
		i, topic := i, topic
		tg.Go(func() error {
			row := &types.SessionTopic{
				SessionID:    session.ID,
				TopicID:      topic.TopicID,
				StatusAfter:  topic.Status,
				Evidence:     topic.Evidence,
				FutureImpact: topic.FutureImpact,
			}
			if err := as.sessionTopicRepo.Create(tctx, nil, row); err != nil {
				return fmt.Errorf("record topic %s: %w", topic.TopicID, err)
			}
			updated, err := as.masteryService.ApplyObservation(tctx, nil, student.ID, MasteryObservation{
				TopicID:    topic.TopicID,
				Status:     topic.Status,
				Confidence: topic.Confidence,
			})
			if err != nil {
				return err
			}
			updates[i] = updated
			return nil
		})
	}
	if err := tg.Wait(); err != nil {
		log.Error("Mastery update failed", "error", err)
		return nil, err
	}

	// Step 7: taxonomy proposals, pending until reviewed.
	proposals := make([]*types.TaxonomyProposal, 0, len(extraction.SuggestedNewNodes))
	for _, node := range extraction.SuggestedNewNodes {
		proposal := &types.TaxonomyProposal{
			SessionID:   session.ID,
			SubjectID:   student.SubjectID,
			Type:        node.Type,
			Name:        node.Name,
			Description: node.Description,
			ParentID:    node.ParentID,
			Status:      types.ProposalPending,
		}
		if err := as.proposalRepo.Create(ctx, nil, proposal); err != nil {
			return nil, fmt.Errorf("record taxonomy proposal %q: %w", node.Name, err)
		}
		proposals = append(proposals, proposal)
	}
	as.markStep(ctx, session.ID, StepTopicsApplied)

	// Step 8: finalize the session row, then transition to completed.
	segmentsJSON, _ := json.Marshal(transcript.Segments)
	urlsJSON, _ := json.Marshal(evidenceURLs)
	session.RecordingURL = recordingURL
	session.Transcript = transcript.Transcript
	session.Segments = datatypes.JSON(segmentsJSON)
	session.EvidenceURLs = datatypes.JSON(urlsJSON)
	session.Notes = extraction.Summary
	if err := as.sessionRepo.Update(ctx, nil, session); err != nil {
		return nil, fmt.Errorf("save session results: %w", err)
	}
	if err := as.sessionService.Transition(ctx, nil, session, types.SessionCompleted); err != nil {
		return nil, err
	}
	as.markStep(ctx, session.ID, StepCompleted)

	log.Info("Session analysis completed",
		"topics", len(updates),
		"proposals", len(proposals),
	)
	return &AnalysisResult{
		Session:      session,
		Transcript:   transcript.Transcript,
		Summary:      extraction.Summary,
		TopicUpdates: updates,
		Proposals:    proposals,
	}, nil
}

func (as *analysisService) Progress(ctx context.Context, sessionID uuid.UUID) ([]string, error) {
	return as.progress.Steps(ctx, sessionID)
}

// Progress markers are observability, not control flow; a failed write never
// aborts the run.
func (as *analysisService) markStep(ctx context.Context, sessionID uuid.UUID, step string) {
	if as.progress == nil {
		return
	}
	if err := as.progress.MarkStep(ctx, sessionID, step); err != nil {
		as.log.Warn("Failed to record pipeline step", "session_id", sessionID.String(), "step", step, "error", err)
	}
}

func extForMime(mime string) string {
	m := strings.ToLower(strings.TrimSpace(mime))
	switch {
	case strings.Contains(m, "wav"):
		return ".wav"
	case strings.Contains(m, "flac"):
		return ".flac"
	case strings.Contains(m, "mp3") || strings.Contains(m, "mpeg"):
		return ".mp3"
	case strings.Contains(m, "ogg"):
		return ".ogg"
	case strings.Contains(m, "webm"):
		return ".webm"
	case strings.Contains(m, "png"):
		return ".png"
	case strings.Contains(m, "jpeg") || strings.Contains(m, "jpg"):
		return ".jpg"
	default:
		return ""
	}
}
