package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Iron-Ham/maintenance/internal/command"
	"github.com/Iron-Ham/maintenance/internal/errors"
	"github.com/Iron-Ham/maintenance/internal/task"
	"github.com/Iron-Ham/maintenance/internal/view"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"backend": s.svc.Tracker().Store().Backend().Name(),
		"tasks":   s.svc.Tracker().Store().Len(),
		// Includes one per open /api/events stream.
		"subscribers": s.svc.Tracker().Bus().SubscriptionCount(),
	})
}

func (s *Server) handleList(c *gin.Context) {
	filter := view.Filter{
		Zone:   c.Query("zone"),
		Status: task.Status(c.Query("status")),
		Owner:  c.Query("owner"),
	}
	if raw := c.Query("overdue"); raw != "" {
		overdue, err := strconv.ParseBool(raw)
		if err != nil {
			s.writeError(c, errors.NewValidationError("overdue must be a boolean").WithField("overdue").WithValue(raw))
			return
		}
		filter.OverdueOnly = overdue
	}

	tr := s.svc.Tracker()
	board, err := view.NewBoard(tr.All(), tr.Now(), filter)
	if err != nil {
		s.writeError(c, errors.NewValidationError("invalid filter").WithCause(err))
		return
	}
	c.JSON(http.StatusOK, board)
}

func (s *Server) handleGet(c *gin.Context) {
	tr := s.svc.Tracker()
	t, err := tr.Get(c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view.NewTaskView(t, tr.Now()))
}

func (s *Server) handleAdd(c *gin.Context) {
	var req command.AddRequest
	if !s.bind(c, &req, false) {
		return
	}
	t, err := s.svc.Add(c.Request.Context(), req)
	s.reply(c, http.StatusCreated, t, err)
}

func (s *Server) handleQuickAdd(c *gin.Context) {
	var req command.CreateFromSummaryRequest
	if !s.bind(c, &req, false) {
		return
	}
	t, err := s.svc.CreateFromSummary(c.Request.Context(), req)
	s.reply(c, http.StatusCreated, t, err)
}

func (s *Server) handleUpdate(c *gin.Context) {
	var req command.UpdateRequest
	if !s.bind(c, &req, false) {
		return
	}
	req.TaskID = c.Param("id")
	t, err := s.svc.Update(c.Request.Context(), req)
	s.reply(c, http.StatusOK, t, err)
}

func (s *Server) handleDelete(c *gin.Context) {
	removed, err := s.svc.Delete(c.Request.Context(), command.DeleteRequest{TaskID: c.Param("id")})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task_id": c.Param("id"), "deleted": removed})
}

func (s *Server) handleStart(c *gin.Context) {
	var req command.StartRequest
	if !s.bind(c, &req, true) {
		return
	}
	req.TaskID = c.Param("id")
	req.User = userOf(c, req.User)
	t, err := s.svc.Start(c.Request.Context(), req)
	s.reply(c, http.StatusOK, t, err)
}

func (s *Server) handlePause(c *gin.Context) {
	var req command.PauseRequest
	if !s.bind(c, &req, true) {
		return
	}
	req.TaskID = c.Param("id")
	req.User = userOf(c, req.User)
	t, err := s.svc.Pause(c.Request.Context(), req)
	s.reply(c, http.StatusOK, t, err)
}

func (s *Server) handleComplete(c *gin.Context) {
	var req command.CompleteRequest
	if !s.bind(c, &req, true) {
		return
	}
	req.TaskID = c.Param("id")
	req.User = userOf(c, req.User)
	t, err := s.svc.Complete(c.Request.Context(), req)
	s.reply(c, http.StatusOK, t, err)
}

func (s *Server) handleMarkDone(c *gin.Context) {
	t, err := s.svc.MarkDone(c.Request.Context(), command.MarkDoneRequest{TaskID: c.Param("id")})
	s.reply(c, http.StatusOK, t, err)
}

func (s *Server) handleZones(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"zones": view.Zones(s.svc.Tracker().All())})
}

// bind decodes a JSON body into obj. With optional set an empty body is
// accepted. It writes the error response and returns false on failure.
func (s *Server) bind(c *gin.Context, obj any, optional bool) bool {
	err := c.ShouldBindJSON(obj)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return true
	}
	s.writeError(c, errors.NewValidationError("invalid request body").WithCause(err))
	return false
}

func (s *Server) reply(c *gin.Context, status int, t task.Task, err error) {
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(status, view.NewTaskView(t, s.svc.Tracker().Now()))
}

// writeError maps tracker errors onto HTTP statuses. Messages that are not
// user facing are replaced by the status text and only logged.
func (s *Server) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	args := []any{"path", c.FullPath(), "status", status, "error", err}
	switch errors.GetSeverity(err) {
	case errors.SeverityError, errors.SeverityCritical:
		s.logger.Error("request error", args...)
	case errors.SeverityWarning:
		s.logger.Warn("request error", args...)
	default:
		s.logger.Debug("request error", args...)
	}

	msg := err.Error()
	if !errors.IsUserFacing(err) {
		msg = http.StatusText(status)
	}
	body := gin.H{"error": msg}
	if errors.IsRetryable(err) {
		body["retryable"] = true
	}
	var verr *errors.ValidationError
	if errors.As(err, &verr) && verr.Field != "" {
		body["field"] = verr.Field
	}
	var lerr *errors.LockedError
	if errors.As(err, &lerr) {
		body["locked_by"] = lerr.Holder
	}
	c.AbortWithStatusJSON(status, body)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errors.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrTaskNotFound):
		return http.StatusNotFound
	case errors.Is(err, errors.ErrTaskExists):
		return http.StatusConflict
	case errors.Is(err, errors.ErrTaskLocked):
		return http.StatusLocked
	case errors.Is(err, errors.ErrPersist):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func userOf(c *gin.Context, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	return c.Query("user")
}
