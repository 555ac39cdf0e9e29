package web

import (
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/williampepple1/desktop-weekly-planner/internal/db"
	"github.com/williampepple1/desktop-weekly-planner/internal/model"
	"github.com/williampepple1/desktop-weekly-planner/internal/planner"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var weekTemplate = template.Must(template.New("week.tmpl").Funcs(template.FuncMap{
	"dateLabel": func(t time.Time) string { return t.Format("Jan 2") },
}).ParseFS(templateFS, "templates/week.tmpl"))

type Server struct {
	svc    *planner.Service
	logger *slog.Logger
	now    func() time.Time
}

type dayColumn struct {
	Day   model.Day
	Label string
	Date  time.Time
	Tasks []model.Task
}

type weekPage struct {
	WeekID string
	Range  string
	Prev   string
	Next   string
	Total  int
	Days   []dayColumn
}

func NewServer(svc *planner.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{svc: svc, logger: logger, now: time.Now}
}

func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(s.logger))
	r.SetHTMLTemplate(weekTemplate)

	r.GET("/", s.weekHandler)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.GET("/weeks/:week/tasks", s.listWeekHandler)
	api.POST("/tasks", s.createHandler)
	api.GET("/tasks/:id", s.getHandler)
	api.PATCH("/tasks/:id", s.updateHandler)
	api.DELETE("/tasks/:id", s.deleteHandler)
	api.PUT("/tasks/:id/status", s.statusHandler)
	api.PUT("/tasks/:id/day", s.dayHandler)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found"})
	})
	return r
}

func (s *Server) weekHandler(c *gin.Context) {
	weekID := strings.TrimSpace(c.Query("week"))
	if weekID == "" {
		weekID = model.WeekID(s.now())
	}

	page, err := s.buildWeekPage(c, weekID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.HTML(http.StatusOK, "week.tmpl", page)
}

func (s *Server) buildWeekPage(c *gin.Context, weekID string) (weekPage, error) {
	start, err := model.ParseWeekID(weekID)
	if err != nil {
		return weekPage{}, &planner.ValidationError{Field: "week_id", Message: err.Error(), Err: err}
	}

	tasks, err := s.svc.GetTasksForWeek(c.Request.Context(), weekID)
	if err != nil {
		return weekPage{}, err
	}

	prev, _ := model.ShiftWeek(weekID, -1)
	next, _ := model.ShiftWeek(weekID, 1)
	page := weekPage{
		WeekID: weekID,
		Range:  model.WeekRange(weekID),
		Prev:   prev,
		Next:   next,
	}

	// Total counts only what the columns show; rows with an unknown day
	// have no column.
	grouped := model.GroupByDay(tasks)
	for i, day := range model.Days() {
		page.Total += len(grouped[day])
		page.Days = append(page.Days, dayColumn{
			Day:   day,
			Label: day.Label(),
			Date:  start.AddDate(0, 0, i),
			Tasks: grouped[day],
		})
	}
	if skipped := len(tasks) - page.Total; skipped > 0 {
		s.logger.Warn("tasks with unknown day left off the board", "week_id", weekID, "count", skipped)
	}
	return page, nil
}

func (s *Server) listWeekHandler(c *gin.Context) {
	tasks, err := s.svc.GetTasksForWeek(c.Request.Context(), c.Param("week"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (s *Server) getHandler(c *gin.Context) {
	task, err := s.svc.GetTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) createHandler(c *gin.Context) {
	var req planner.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	id, err := s.svc.AddTask(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (s *Server) updateHandler(c *gin.Context) {
	var req planner.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	affected, err := s.svc.UpdateTask(c.Request.Context(), c.Param("id"), req)
	writeAffected(c, affected, err)
}

func (s *Server) deleteHandler(c *gin.Context) {
	affected, err := s.svc.DeleteTask(c.Request.Context(), c.Param("id"))
	writeAffected(c, affected, err)
}

func (s *Server) statusHandler(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	affected, err := s.svc.UpdateTaskStatus(c.Request.Context(), c.Param("id"), req.Status)
	writeAffected(c, affected, err)
}

func (s *Server) dayHandler(c *gin.Context) {
	var req struct {
		Day string `json:"day" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	affected, err := s.svc.UpdateTaskDay(c.Request.Context(), c.Param("id"), req.Day)
	writeAffected(c, affected, err)
}

func writeAffected(c *gin.Context, affected int64, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"affected": affected})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
}

func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case planner.IsValidation(err):
		status = http.StatusBadRequest
	case errors.Is(err, db.ErrTaskNotFound):
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
