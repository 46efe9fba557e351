package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/sharedreader/internal/database/activity"
)

type LogController struct {
	store ActivityStore
}

func NewLogController(store ActivityStore) *LogController {
	return &LogController{store: store}
}

// logRequest is a reading event. The book is named by its shared slug, sent
// as "bookid".
type logRequest struct {
	BookID  string `json:"bookid" binding:"required"`
	Page    *int   `json:"page" binding:"required"`
	Reading *int   `json:"reading" binding:"required"`
	Teacher string `json:"teacher"`
	Student string `json:"student"`
	Action  string `json:"action"`
}

// AppendLog records a reading event
// POST /log
func (lc *LogController) AppendLog(c *gin.Context) {
	var req logRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "bookid, page and reading are required")
		return
	}

	_, err := lc.store.AppendLog(c.Request.Context(), activity.LogInput{
		Teacher: req.Teacher,
		Student: req.Student,
		Action:  req.Action,
		Slug:    req.BookID,
		Page:    req.Page,
		Reading: req.Reading,
	})
	if errors.Is(err, activity.ErrSlugRequired) {
		respondBadRequest(c, err.Error())
		return
	}
	if err != nil {
		respondInternalError(c, err, "append log")
		return
	}
	respondOK(c)
}

// ListLog returns the teacher's log rows for one book
// GET /log?slug=
func (lc *LogController) ListLog(c *gin.Context) {
	slug := c.Query("slug")
	if slug == "" {
		respondBadRequest(c, "slug is required")
		return
	}
	teacher := teacherFor(c, c.Query("teacher"))
	if teacher == "" {
		respondBadRequest(c, "teacher is required")
		return
	}

	entries, err := lc.store.ListLog(c.Request.Context(), teacher, slug)
	if err != nil {
		respondInternalError(c, err, "list log")
		return
	}
	c.JSON(http.StatusOK, gin.H{"log": entries})
}
