// Package api exposes the dashboard's REST surface over Fiber.
package api

import (
	"errors"
	"log"
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/amirbrooks/ttodo/internal/daily"
	"github.com/amirbrooks/ttodo/internal/ingest"
	"github.com/amirbrooks/ttodo/internal/store"
	"github.com/amirbrooks/ttodo/internal/task"
)

// Handler handles HTTP requests for the task dashboard.
type Handler struct {
	store     *store.Store
	ingest    *ingest.Service
	scheduler *daily.Scheduler
	loc       *time.Location
	logger    *log.Logger

	now func() time.Time
}

// NewHandler creates the API handler. scheduler may be nil when the
// daily-close loop is not running (manual close is then unavailable).
func NewHandler(st *store.Store, ing *ingest.Service, sched *daily.Scheduler, loc *time.Location, logger *log.Logger) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{
		store:     st,
		ingest:    ing,
		scheduler: sched,
		loc:       loc,
		logger:    logger,
		now:       time.Now,
	}
}

// ErrorResponse is the response body for errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// NewApp builds the Fiber app with all routes registered.
func NewApp(h *Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
				Error:   "internal_error",
				Message: "An unexpected error occurred",
			})
		},
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy", "service": "ttodo"})
	})

	api := app.Group("/api")
	api.Get("/tasks", h.ListTasks)
	api.Get("/tasks/archived", h.ListArchived)
	api.Post("/tasks", h.CreateTasks)
	api.Patch("/tasks/:id", h.UpdateTask)
	api.Delete("/tasks/:id", h.DeleteTask)
	api.Post("/tasks/:id/done", h.ToggleDone)
	api.Post("/tasks/:id/snooze", h.ToggleSnooze)
	api.Post("/tasks/:id/archive", h.ArchiveTask)
	api.Post("/tasks/:id/recall", h.RecallTask)
	api.Put("/users/:id/report-time", h.SetReportTime)
	api.Post("/users/:id/close", h.CloseUser)
	return app
}

// TaskView is a task plus its computed urgency, the shape the
// dashboard renders directly.
type TaskView struct {
	task.Task
	Score   int    `json:"score"`
	Urgency string `json:"urgency"`
}

func (h *Handler) view(t task.Task) TaskView {
	today := h.now().In(h.loc)
	return TaskView{
		Task:    t,
		Score:   task.SortScore(&t, today),
		Urgency: task.UrgencyLabel(&t, today),
	}
}

func (h *Handler) views(tasks []task.Task) []TaskView {
	out := make([]TaskView, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, h.view(t))
	}
	// Most urgent first; equal scores keep insertion order.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// ListTasks handles GET /api/tasks.
func (h *Handler) ListTasks(c *fiber.Ctx) error {
	views := h.views(h.store.Active())
	return c.JSON(fiber.Map{"tasks": views, "count": len(views)})
}

// ListArchived handles GET /api/tasks/archived.
func (h *Handler) ListArchived(c *fiber.Ctx) error {
	views := h.views(h.store.Archived())
	return c.JSON(fiber.Map{"tasks": views, "count": len(views)})
}

// CreateTasksRequest carries a raw chat message plus its origin
// metadata. One message can yield any number of tasks.
type CreateTasksRequest struct {
	Content     string `json:"content"`
	AuthorID    string `json:"author_id"`
	AuthorName  string `json:"author_name"`
	AvatarURL   string `json:"avatar_url"`
	ChannelID   string `json:"channel_id"`
	ChannelName string `json:"channel_name"`
	GuildName   string `json:"guild_name"`
	Assignee    string `json:"assignee"`
}

// CreateTasks handles POST /api/tasks.
func (h *Handler) CreateTasks(c *fiber.Ctx) error {
	var req CreateTasksRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Content == "" {
		return badRequest(c, "content is required")
	}
	created, err := h.ingest.ParseAndIngest(req.Content, ingest.Meta{
		AuthorID:    req.AuthorID,
		AuthorName:  req.AuthorName,
		AvatarURL:   req.AvatarURL,
		ChannelID:   req.ChannelID,
		ChannelName: req.ChannelName,
		GuildName:   req.GuildName,
		Assignee:    req.Assignee,
	})
	if err != nil {
		h.logger.Printf("ingest error: %v", err)
		return internalError(c, "Failed to store tasks")
	}
	views := make([]TaskView, 0, len(created))
	for _, t := range created {
		views = append(views, h.view(t))
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"tasks": views, "count": len(views)})
}

// UpdateTaskRequest uses pointers so absent fields stay untouched.
type UpdateTaskRequest struct {
	Content    *string   `json:"content"`
	Priority   *string   `json:"priority"`
	Difficulty *string   `json:"difficulty"`
	Effort     *string   `json:"effort"`
	Tags       *[]string `json:"tags"`
	Assignee   *string   `json:"assignee"`
	StartDate  *string   `json:"start_date"`
	DueDate    *string   `json:"due_date"`
}

// UpdateTask handles PATCH /api/tasks/:id.
func (h *Handler) UpdateTask(c *fiber.Ctx) error {
	var req UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	priority, ok := parsePriority(req.Priority)
	if !ok {
		return badRequest(c, "priority must be unset, low, or high")
	}
	difficulty, ok := parseDifficulty(req.Difficulty)
	if !ok {
		return badRequest(c, "difficulty must be unset, low, or high")
	}
	effort, ok := parseEffort(req.Effort)
	if !ok {
		return badRequest(c, "effort must be unknown, short, or long")
	}
	start, ok := parseDate(req.StartDate, h.loc)
	if !ok {
		return badRequest(c, "start_date must be YYYY-MM-DD or empty")
	}
	due, ok := parseDate(req.DueDate, h.loc)
	if !ok {
		return badRequest(c, "due_date must be YYYY-MM-DD or empty")
	}

	updated, err := h.store.Mutate(c.Params("id"), func(t *task.Task) {
		if req.Content != nil {
			t.Content = *req.Content
		}
		if req.Priority != nil {
			t.Priority = priority
		}
		if req.Difficulty != nil {
			t.Difficulty = difficulty
		}
		if req.Effort != nil {
			t.Effort = effort
		}
		if req.Tags != nil {
			t.Tags = *req.Tags
		}
		if req.Assignee != nil {
			t.Assignee = *req.Assignee
		}
		if req.StartDate != nil {
			t.StartDate = start
		}
		if req.DueDate != nil {
			t.DueDate = due
		}
	})
	if err != nil {
		return h.storeError(c, err, "Failed to update task")
	}
	return h.saved(c, updated)
}

// ToggleDone handles POST /api/tasks/:id/done. A completed task is
// reopened, an active one completed.
func (h *Handler) ToggleDone(c *fiber.Ctx) error {
	id := c.Params("id")
	current, err := h.store.Get(id)
	if err != nil {
		return h.storeError(c, err, "Failed to load task")
	}
	var updated task.Task
	if current.Completed() {
		updated, err = h.store.Reopen(id)
	} else {
		updated, err = h.store.Complete(id)
	}
	if err != nil {
		return h.storeError(c, err, "Failed to toggle task")
	}
	return h.saved(c, updated)
}

// ToggleSnooze handles POST /api/tasks/:id/snooze.
func (h *Handler) ToggleSnooze(c *fiber.Ctx) error {
	updated, err := h.store.ToggleSnooze(c.Params("id"))
	if err != nil {
		return h.storeError(c, err, "Failed to snooze task")
	}
	return h.saved(c, updated)
}

// ArchiveTask handles POST /api/tasks/:id/archive.
func (h *Handler) ArchiveTask(c *fiber.Ctx) error {
	updated, err := h.store.Archive(c.Params("id"))
	if err != nil {
		return h.storeError(c, err, "Failed to archive task")
	}
	return h.saved(c, updated)
}

// RecallTask handles POST /api/tasks/:id/recall.
func (h *Handler) RecallTask(c *fiber.Ctx) error {
	updated, err := h.store.Recall(c.Params("id"))
	if err != nil {
		return h.storeError(c, err, "Failed to recall task")
	}
	return h.saved(c, updated)
}

// DeleteTask handles DELETE /api/tasks/:id.
func (h *Handler) DeleteTask(c *fiber.Ctx) error {
	if err := h.store.Remove(c.Params("id")); err != nil {
		return h.storeError(c, err, "Failed to delete task")
	}
	if err := h.store.Save(); err != nil {
		h.logger.Printf("save error: %v", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SetReportTimeRequest configures a user's daily close.
type SetReportTimeRequest struct {
	DisplayName     string `json:"display_name"`
	ReportTime      string `json:"report_time"`
	ReportChannelID string `json:"report_channel_id"`
}

// SetReportTime handles PUT /api/users/:id/report-time.
func (h *Handler) SetReportTime(c *fiber.Ctx) error {
	var req SetReportTimeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	userID := c.Params("id")
	if err := h.store.SetReportTime(userID, req.DisplayName, req.ReportTime); err != nil {
		if errors.Is(err, store.ErrInvalid) {
			return badRequest(c, "report_time must be HH:MM")
		}
		return internalError(c, "Failed to set report time")
	}
	if req.ReportChannelID != "" {
		if err := h.store.SetReportChannel(userID, req.DisplayName, req.ReportChannelID); err != nil {
			return internalError(c, "Failed to set report channel")
		}
	}
	if err := h.store.Save(); err != nil {
		h.logger.Printf("save error: %v", err)
	}
	cfg, _ := h.store.ConfigFor(userID)
	return c.JSON(cfg)
}

// CloseUser handles POST /api/users/:id/close, running the daily close
// for one user immediately.
func (h *Handler) CloseUser(c *fiber.Ctx) error {
	if h.scheduler == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error:   "scheduler_unavailable",
			Message: "Daily close is not running",
		})
	}
	delivered := h.scheduler.CloseUser(c.Context(), c.Params("id"))
	return c.JSON(fiber.Map{"reported": delivered})
}

func (h *Handler) saved(c *fiber.Ctx, t task.Task) error {
	if err := h.store.Save(); err != nil {
		h.logger.Printf("save error: %v", err)
	}
	return c.JSON(h.view(t))
}

func (h *Handler) storeError(c *fiber.Ctx, err error, msg string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: "Task not found",
		})
	case errors.Is(err, store.ErrInvalid):
		return badRequest(c, err.Error())
	default:
		h.logger.Printf("store error: %v", err)
		return internalError(c, msg)
	}
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:   "invalid_request",
		Message: msg,
	})
}

func internalError(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error:   "internal_error",
		Message: msg,
	})
}

func parsePriority(s *string) (task.Priority, bool) {
	if s == nil {
		return task.PriorityUnset, true
	}
	switch *s {
	case "unset", "":
		return task.PriorityUnset, true
	case "low":
		return task.PriorityLow, true
	case "high":
		return task.PriorityHigh, true
	}
	return task.PriorityUnset, false
}

func parseDifficulty(s *string) (task.Difficulty, bool) {
	if s == nil {
		return task.DifficultyUnset, true
	}
	switch *s {
	case "unset", "":
		return task.DifficultyUnset, true
	case "low":
		return task.DifficultyLow, true
	case "high":
		return task.DifficultyHigh, true
	}
	return task.DifficultyUnset, false
}

func parseEffort(s *string) (task.Effort, bool) {
	if s == nil {
		return task.EffortUnknown, true
	}
	switch *s {
	case "unknown", "":
		return task.EffortUnknown, true
	case "short":
		return task.EffortShort, true
	case "long":
		return task.EffortLong, true
	}
	return task.EffortUnknown, false
}

// parseDate accepts YYYY-MM-DD, or an empty string to clear the field.
func parseDate(s *string, loc *time.Location) (*time.Time, bool) {
	if s == nil || *s == "" {
		return nil, true
	}
	d, err := time.ParseInLocation("2006-01-02", *s, loc)
	if err != nil {
		return nil, false
	}
	return &d, true
}
