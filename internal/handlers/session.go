package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yeah-genie/chalk-backend/internal/services"
)

type SessionHandler struct {
	sessionService services.SessionService
}

func NewSessionHandler(sessionService services.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

func (sh *SessionHandler) Schedule(c *gin.Context) {
	var req struct {
		StudentID   string    `json:"student_id"`
		SubjectID   string    `json:"subject_id"`
		ScheduledAt time.Time `json:"scheduled_at"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	studentID, err := uuid.Parse(req.StudentID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("invalid student id"))
		return
	}
	session, err := sh.sessionService.Schedule(c.Request.Context(), studentID, req.SubjectID, req.ScheduledAt)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "schedule_failed", err)
		return
	}
	RespondOK(c, gin.H{"session": session})
}

func (sh *SessionHandler) Cancel(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("invalid session id"))
		return
	}
	session, err := sh.sessionService.Cancel(c.Request.Context(), sessionID)
	if err != nil {
		RespondError(c, http.StatusConflict, "cancel_failed", err)
		return
	}
	RespondOK(c, gin.H{"session": session})
}

func (sh *SessionHandler) Get(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("invalid session id"))
		return
	}
	session, err := sh.sessionService.Get(c.Request.Context(), sessionID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "get_failed", err)
		return
	}
	if session == nil {
		RespondError(c, http.StatusNotFound, "not_found", fmt.Errorf("session %s not found", sessionID))
		return
	}
	RespondOK(c, gin.H{"session": session})
}

func (sh *SessionHandler) ListForStudent(c *gin.Context) {
	studentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("invalid student id"))
		return
	}
	sessions, err := sh.sessionService.ListForStudent(c.Request.Context(), studentID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"sessions": sessions})
}
