package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/sharedreader/internal/database/activity"
)

type StudentsController struct {
	store ActivityStore
}

func NewStudentsController(store ActivityStore) *StudentsController {
	return &StudentsController{store: store}
}

// ListStudents returns the students logged under the teacher
// GET /students
func (sc *StudentsController) ListStudents(c *gin.Context) {
	teacher := teacherFor(c, c.Query("teacher"))
	if teacher == "" {
		respondBadRequest(c, "teacher is required")
		return
	}

	students, err := sc.store.ListStudents(c.Request.Context(), teacher)
	if err != nil {
		respondInternalError(c, err, "list students")
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": students})
}

// AddStudent records a student for the teacher
// POST /students
func (sc *StudentsController) AddStudent(c *gin.Context) {
	var req struct {
		Student string `json:"student" binding:"required"`
		Teacher string `json:"teacher"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "student is required")
		return
	}

	teacher := teacherFor(c, req.Teacher)
	if teacher == "" {
		respondBadRequest(c, "teacher is required")
		return
	}

	err := sc.store.AddStudent(c.Request.Context(), teacher, req.Student)
	if errors.Is(err, activity.ErrTeacherRequired) || errors.Is(err, activity.ErrStudentRequired) {
		respondBadRequest(c, err.Error())
		return
	}
	if err != nil {
		respondInternalError(c, err, "add student")
		return
	}
	respondOK(c)
}
