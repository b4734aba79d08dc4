package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yeah-genie/chalk-backend/internal/requestdata"
	"github.com/yeah-genie/chalk-backend/internal/services"
)

type StudentHandler struct {
	studentService services.StudentService
	masteryService services.MasteryService
}

func NewStudentHandler(studentService services.StudentService, masteryService services.MasteryService) *StudentHandler {
	return &StudentHandler{studentService: studentService, masteryService: masteryService}
}

func (sh *StudentHandler) Register(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("request data not set"))
		return
	}
	var req struct {
		Name      string `json:"name"`
		SubjectID string `json:"subject_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	student, err := sh.studentService.Register(c.Request.Context(), rd.TutorID, req.Name, req.SubjectID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "registration_failed", err)
		return
	}
	RespondOK(c, gin.H{"student": student})
}

func (sh *StudentHandler) List(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("request data not set"))
		return
	}
	students, err := sh.studentService.List(c.Request.Context(), rd.TutorID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"students": students})
}

func (sh *StudentHandler) Delete(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("request data not set"))
		return
	}
	studentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("invalid student id"))
		return
	}
	if err := sh.studentService.Delete(c.Request.Context(), rd.TutorID, studentID); err != nil {
		RespondError(c, http.StatusBadRequest, "delete_failed", err)
		return
	}
	RespondOK(c, gin.H{"deleted": studentID})
}

func (sh *StudentHandler) Mastery(c *gin.Context) {
	studentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("invalid student id"))
		return
	}
	rows, err := sh.masteryService.ListForStudent(c.Request.Context(), studentID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"mastery": rows})
}
