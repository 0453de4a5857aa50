package api

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"taskboard/domain"
)

// Register wires up the task-service routes on the provided Echo instance.
func Register(e *echo.Echo, store Storage, deduper Deduper, logger *log.Logger) {
	e.GET("/api/tasks", listTasks(store, logger))
	e.POST("/api/tasks", createTask(store, deduper, logger))
	e.PUT("/api/tasks/:id", updateTask(store, logger))
	e.DELETE("/api/tasks/:id", deleteTask(store, logger))
	e.GET("/healthz", healthz())
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

func listTasks(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		tasks, err := store.ListTasks(c.Request().Context())
		if err != nil {
			logger.WithField("error", err.Error()).Error("tasks.list.storage")
			return c.JSON(http.StatusInternalServerError, errorResponse{Message: "storage failure"})
		}
		if tasks == nil {
			tasks = []domain.Task{}
		}
		return c.JSON(http.StatusOK, tasks)
	}
}

func createTask(store Storage, deduper Deduper, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		req, err := decodeTaskRequest(c.Request())
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Message: "invalid body"})
		}
		if err := req.Validate(); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Message: err.Error()})
		}

		// A retried create with the same idempotency key returns the task
		// the first attempt produced.
		key := c.Request().Header.Get("Idempotency-Key")
		if key != "" && deduper != nil {
			if id, ok, derr := deduper.Lookup(ctx, key); derr == nil && ok {
				if t, gerr := store.GetTask(ctx, id); gerr == nil {
					return c.JSON(http.StatusOK, t)
				}
			} else if derr != nil {
				logger.WithField("error", derr.Error()).Warn("tasks.create.dedup_lookup")
			}
		}

		now := time.Now().UTC()
		t := domain.Task{
			ID:             uuid.NewString(),
			Title:          strings.TrimSpace(req.Title),
			Description:    req.Description,
			Status:         domain.StatusPending,
			Priority:       domain.PriorityMedium,
			DueDate:        req.DueDate,
			AssignedUserID: req.AssignedUserID,
			Attachments:    req.Attachments,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		// Unknown status/priority strings are ignored, not rejected.
		if req.Status.Valid() {
			t.Status = req.Status
		}
		if req.Priority.Valid() {
			t.Priority = req.Priority
		}
		if t.Attachments == nil {
			t.Attachments = []string{}
		}

		if err := store.InsertTask(ctx, t); err != nil {
			logger.WithField("error", err.Error()).Error("tasks.create.storage")
			return c.JSON(http.StatusInternalServerError, errorResponse{Message: "storage failure"})
		}
		if key != "" && deduper != nil {
			if derr := deduper.Remember(ctx, key, t.ID); derr != nil {
				logger.WithField("error", derr.Error()).Warn("tasks.create.dedup_remember")
			}
		}
		return c.JSON(http.StatusCreated, t)
	}
}

func updateTask(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		id := c.Param("id")
		req, err := decodeTaskRequest(c.Request())
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Message: "invalid body"})
		}
		if err := req.Validate(); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Message: err.Error()})
		}

		existing, err := store.GetTask(ctx, id)
		if err != nil {
			return taskError(c, logger, "update", id, err)
		}
		updated := applyRequest(existing, req)
		updated.UpdatedAt = time.Now().UTC()
		if err := store.ReplaceTask(ctx, updated); err != nil {
			return taskError(c, logger, "update", id, err)
		}
		return c.JSON(http.StatusOK, updated)
	}
}

func deleteTask(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")
		if err := store.DeleteTask(c.Request().Context(), id); err != nil {
			return taskError(c, logger, "delete", id, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func decodeTaskRequest(r *http.Request) (domain.TaskRequest, error) {
	lr := io.LimitReader(r.Body, taskRequestMaxSize)
	var req domain.TaskRequest
	if err := sonic.ConfigStd.NewDecoder(lr).Decode(&req); err != nil {
		return domain.TaskRequest{}, err
	}
	return req, nil
}

// applyRequest folds a full-object payload into an existing task. Unknown
// enum values leave the current value in place, matching create.
func applyRequest(t domain.Task, req domain.TaskRequest) domain.Task {
	t.Title = strings.TrimSpace(req.Title)
	t.Description = req.Description
	if req.Status.Valid() {
		t.Status = req.Status
	}
	if req.Priority.Valid() {
		t.Priority = req.Priority
	}
	t.DueDate = req.DueDate
	t.AssignedUserID = req.AssignedUserID
	if req.Attachments != nil {
		t.Attachments = req.Attachments
	} else {
		t.Attachments = []string{}
	}
	return t
}

func taskError(c echo.Context, logger *log.Logger, op, id string, err error) error {
	var nf NotFoundError
	if errors.As(err, &nf) {
		return c.JSON(http.StatusNotFound, errorResponse{Message: "task " + id + " not found"})
	}
	logger.WithFields(log.Fields{"op": op, "task": id, "error": err.Error()}).Error("tasks.storage")
	return c.JSON(http.StatusInternalServerError, errorResponse{Message: "storage failure"})
}
