package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yeah-genie/chalk-backend/internal/logger"
	"github.com/yeah-genie/chalk-backend/internal/repos"
	"github.com/yeah-genie/chalk-backend/internal/types"
)

type StudentService interface {
	Register(ctx context.Context, tutorID uuid.UUID, name, subjectID string) (*types.Student, error)
	List(ctx context.Context, tutorID uuid.UUID) ([]*types.Student, error)
	Delete(ctx context.Context, tutorID, studentID uuid.UUID) error
}

type studentService struct {
	db          *gorm.DB
	log         *logger.Logger
	studentRepo repos.StudentRepo
	kbRepo      repos.KnowledgeBaseRepo
}

func NewStudentService(db *gorm.DB, log *logger.Logger, studentRepo repos.StudentRepo, kbRepo repos.KnowledgeBaseRepo) StudentService {
	return &studentService{
		db:          db,
		log:         log.With("service", "StudentService"),
		studentRepo: studentRepo,
		kbRepo:      kbRepo,
	}
}

func (ss *studentService) Register(ctx context.Context, tutorID uuid.UUID, name, subjectID string) (*types.Student, error) {
	if tutorID == uuid.Nil {
		return nil, fmt.Errorf("tutor required")
	}
	if name == "" {
		return nil, fmt.Errorf("A name is required to register a student")
	}
	subject, err := ss.kbRepo.GetSubject(ctx, nil, subjectID)
	if err != nil {
		return nil, fmt.Errorf("look up subject: %w", err)
	}
	if subject == nil {
		return nil, fmt.Errorf("subject %q not found", subjectID)
	}
	student := &types.Student{
		ID:        uuid.New(),
		TutorID:   tutorID,
		Name:      name,
		SubjectID: subject.ID,
	}
	if err := ss.studentRepo.Create(ctx, nil, student); err != nil {
		return nil, fmt.Errorf("create student: %w", err)
	}
	ss.log.Info("Student registered", "student_id", student.ID.String(), "tutor_id", tutorID.String())
	return student, nil
}

func (ss *studentService) List(ctx context.Context, tutorID uuid.UUID) ([]*types.Student, error) {
	return ss.studentRepo.ListByTutor(ctx, nil, tutorID)
}

func (ss *studentService) Delete(ctx context.Context, tutorID, studentID uuid.UUID) error {
	student, err := ss.studentRepo.GetByID(ctx, nil, studentID)
	if err != nil {
		return fmt.Errorf("load student: %w", err)
	}
	if student == nil {
		return fmt.Errorf("student %s not found", studentID)
	}
	if student.TutorID != tutorID {
		return fmt.Errorf("student %s does not belong to this tutor", studentID)
	}
	return ss.studentRepo.Delete(ctx, nil, studentID)
}
