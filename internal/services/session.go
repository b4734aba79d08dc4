package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yeah-genie/chalk-backend/internal/logger"
	"github.com/yeah-genie/chalk-backend/internal/repos"
	"github.com/yeah-genie/chalk-backend/internal/types"
)

type SessionService interface {
	Schedule(ctx context.Context, studentID uuid.UUID, subjectID string, scheduledAt time.Time) (*types.Session, error)
	Start(ctx context.Context, sessionID uuid.UUID) (*types.Session, error)
	Cancel(ctx context.Context, sessionID uuid.UUID) (*types.Session, error)
	Get(ctx context.Context, sessionID uuid.UUID) (*types.Session, error)
	ListForStudent(ctx context.Context, studentID uuid.UUID) ([]*types.Session, error)
	Transition(ctx context.Context, tx *gorm.DB, session *types.Session, next types.SessionStatus) error
}

type sessionService struct {
	db          *gorm.DB
	log         *logger.Logger
	sessionRepo repos.SessionRepo
	studentRepo repos.StudentRepo
}

func NewSessionService(db *gorm.DB, log *logger.Logger, sessionRepo repos.SessionRepo, studentRepo repos.StudentRepo) SessionService {
	return &sessionService{
		db:          db,
		log:         log.With("service", "SessionService"),
		sessionRepo: sessionRepo,
		studentRepo: studentRepo,
	}
}

func (ss *sessionService) Schedule(ctx context.Context, studentID uuid.UUID, subjectID string, scheduledAt time.Time) (*types.Session, error) {
	if studentID == uuid.Nil {
		return nil, fmt.Errorf("studentID required")
	}
	student, err := ss.studentRepo.GetByID(ctx, nil, studentID)
	if err != nil {
		return nil, fmt.Errorf("load student: %w", err)
	}
	if student == nil {
		return nil, fmt.Errorf("student %s not found", studentID)
	}
	if subjectID == "" {
		subjectID = student.SubjectID
	}
	session := &types.Session{
		ID:          uuid.New(),
		StudentID:   studentID,
		SubjectID:   subjectID,
		ScheduledAt: scheduledAt,
		Status:      types.SessionScheduled,
	}
	if err := ss.sessionRepo.Create(ctx, nil, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	ss.log.Info("Session scheduled", "session_id", session.ID.String(), "student_id", studentID.String())
	return session, nil
}

func (ss *sessionService) Start(ctx context.Context, sessionID uuid.UUID) (*types.Session, error) {
	return ss.transitionByID(ctx, sessionID, types.SessionInProgress)
}

func (ss *sessionService) Cancel(ctx context.Context, sessionID uuid.UUID) (*types.Session, error) {
	return ss.transitionByID(ctx, sessionID, types.SessionCancelled)
}

func (ss *sessionService) transitionByID(ctx context.Context, sessionID uuid.UUID, next types.SessionStatus) (*types.Session, error) {
	session, err := ss.sessionRepo.GetByID(ctx, nil, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("session %s not found", sessionID)
	}
	if err := ss.Transition(ctx, nil, session, next); err != nil {
		return nil, err
	}
	return session, nil
}

// Transition enforces the lifecycle table before persisting the status. A
// status is never assigned directly anywhere else.
func (ss *sessionService) Transition(ctx context.Context, tx *gorm.DB, session *types.Session, next types.SessionStatus) error {
	if !next.Valid() {
		return fmt.Errorf("unknown session status %q", next)
	}
	if !session.Status.CanTransitionTo(next) {
		return fmt.Errorf("illegal session transition %s -> %s", session.Status, next)
	}
	if err := ss.sessionRepo.UpdateStatus(ctx, tx, session.ID, next); err != nil {
		return fmt.Errorf("update session status: %w", err)
	}
	ss.log.Debug("Session transitioned",
		"session_id", session.ID.String(),
		"from", string(session.Status),
		"to", string(next),
	)
	session.Status = next
	return nil
}

func (ss *sessionService) Get(ctx context.Context, sessionID uuid.UUID) (*types.Session, error) {
	return ss.sessionRepo.GetByID(ctx, nil, sessionID)
}

func (ss *sessionService) ListForStudent(ctx context.Context, studentID uuid.UUID) ([]*types.Session, error) {
	return ss.sessionRepo.ListByStudent(ctx, nil, studentID)
}
