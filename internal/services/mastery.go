package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yeah-genie/chalk-backend/internal/logger"
	"github.com/yeah-genie/chalk-backend/internal/repos"
	"github.com/yeah-genie/chalk-backend/internal/types"
)

// Target score each observed status pulls toward. Targets sit above the
// classifier thresholds so repeated consistent observations cross the
// threshold instead of oscillating on it.
var statusTargets = map[types.TopicStatus]float64{
	types.TopicNew:      10,
	types.TopicLearning: 35,
	types.TopicReviewed: 65,
	types.TopicMastered: 90,
}

const (
	weeklyDecayRate = 0.05
	blendDamping    = 0.5
)

// CalculateNewScore folds one session observation into the running mastery
// score. The current score first decays 5% per elapsed week since the topic
// was last touched, then moves halfway toward the status target, weighted by
// the extractor's confidence. A single noisy observation never fully
// overwrites history; no review at all lets the score regress toward zero.
func CalculateNewScore(currentScore int, newStatus types.TopicStatus, confidence int, daysSinceLastReview float64) int {
	decayed := float64(currentScore)
	if daysSinceLastReview > 0 {
		decayed = decayed * math.Pow(1-weeklyDecayRate, daysSinceLastReview/7)
	}
	target := statusTargets[newStatus]
	blended := decayed + (target-decayed)*(float64(confidence)/100)*blendDamping
	score := int(math.Round(blended))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// StatusFromScore maps a score back to its discrete bucket.
func StatusFromScore(score int) types.TopicStatus {
	switch {
	case score >= 80:
		return types.TopicMastered
	case score >= 55:
		return types.TopicReviewed
	case score >= 25:
		return types.TopicLearning
	default:
		return types.TopicNew
	}
}

type MasteryObservation struct {
	TopicID    string
	Status     types.TopicStatus
	Confidence int
}

type MasteryService interface {
	ApplyObservation(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, obs MasteryObservation) (*types.StudentMastery, error)
	ListForStudent(ctx context.Context, studentID uuid.UUID) ([]*types.StudentMastery, error)
}

type masteryService struct {
	db          *gorm.DB
	log         *logger.Logger
	masteryRepo repos.StudentMasteryRepo
	now         func() time.Time
}

func NewMasteryService(db *gorm.DB, log *logger.Logger, masteryRepo repos.StudentMasteryRepo) MasteryService {
	return &masteryService{
		db:          db,
		log:         log.With("service", "MasteryService"),
		masteryRepo: masteryRepo,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ApplyObservation reads the current (student, topic) score, blends in the
// observation and upserts the result. Missing rows start from score 0.
func (ms *masteryService) ApplyObservation(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, obs MasteryObservation) (*types.StudentMastery, error) {
	if studentID == uuid.Nil {
		return nil, fmt.Errorf("studentID required")
	}
	if obs.TopicID == "" {
		return nil, fmt.Errorf("topicID required")
	}
	if !obs.Status.Valid() {
		return nil, fmt.Errorf("unknown topic status %q", obs.Status)
	}
	confidence := obs.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}

	current, err := ms.masteryRepo.Get(ctx, tx, studentID, obs.TopicID)
	if err != nil {
		return nil, fmt.Errorf("read mastery for topic %s: %w", obs.TopicID, err)
	}

	now := ms.now()
	currentScore := 0
	days := 0.0
	if current != nil {
		currentScore = current.Score
		days = now.Sub(current.UpdatedAt).Hours() / 24
		if days < 0 {
			days = 0
		}
	}

	newScore := CalculateNewScore(currentScore, obs.Status, confidence, days)
	newStatus := StatusFromScore(newScore)

	if err := ms.masteryRepo.Upsert(ctx, tx, studentID, obs.TopicID, newScore, newStatus, now); err != nil {
		return nil, fmt.Errorf("upsert mastery for topic %s: %w", obs.TopicID, err)
	}
	ms.log.Debug("Mastery updated",
		"student_id", studentID.String(),
		"topic", obs.TopicID,
		"old_score", currentScore,
		"new_score", newScore,
		"status", string(newStatus),
	)
	return &types.StudentMastery{
		StudentID: studentID,
		TopicID:   obs.TopicID,
		Score:     newScore,
		Status:    newStatus,
	}, nil
}

func (ms *masteryService) ListForStudent(ctx context.Context, studentID uuid.UUID) ([]*types.StudentMastery, error) {
	return ms.masteryRepo.ListByStudent(ctx, nil, studentID)
}
