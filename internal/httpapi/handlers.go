package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/byronguina/tasktracker/internal/model"
	"github.com/byronguina/tasktracker/internal/repository"
)

// itemForm is the request body for creating and updating items.
type itemForm struct {
	ID          int          `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Status      model.Status `json:"status"`
	StartTime   *time.Time   `json:"startTime"`
	Duration    int          `json:"duration"`
	EpicID      int          `json:"epicId"`
}

func (f *itemForm) status() model.Status {
	if f.Status == "" {
		return model.StatusNew
	}
	return f.Status
}

// Handler maps HTTP routes onto repository operations.
type Handler struct {
	repo *repository.Repository
	log  *logrus.Entry
}

func NewHandler(repo *repository.Repository, log *logrus.Entry) *Handler {
	return &Handler{repo: repo, log: log}
}

func (h *Handler) EnrichRoutes(router *gin.Engine) {
	routes := router.Group("/tasks")
	routes.GET("", h.prioritized)
	routes.GET("/history", h.history)

	routes.GET("/task", h.getTasks)
	routes.POST("/task", h.createTask)
	routes.PUT("/task", h.updateTask)
	routes.DELETE("/task", h.deleteTasks)

	routes.GET("/epic", h.getEpics)
	routes.POST("/epic", h.createEpic)
	routes.PUT("/epic", h.updateEpic)
	routes.DELETE("/epic", h.deleteEpics)

	routes.GET("/subtask", h.getSubtasks)
	routes.POST("/subtask", h.createSubtask)
	routes.PUT("/subtask", h.updateSubtask)
	routes.DELETE("/subtask", h.deleteSubtasks)

	routes.GET("/subtask/epic", h.subtasksForEpic)
}

func (h *Handler) prioritized(c *gin.Context) {
	c.JSON(http.StatusOK, h.repo.Prioritized())
}

func (h *Handler) history(c *gin.Context) {
	c.JSON(http.StatusOK, h.repo.History())
}

func (h *Handler) getTasks(c *gin.Context) {
	h.getItems(c, "handlers.getTasks", h.repo.Tasks, h.repo.GetTask)
}

func (h *Handler) getEpics(c *gin.Context) {
	h.getItems(c, "handlers.getEpics", h.repo.Epics, h.repo.GetEpic)
}

func (h *Handler) getSubtasks(c *gin.Context) {
	h.getItems(c, "handlers.getSubtasks", h.repo.Subtasks, h.repo.GetSubtask)
}

// getItems lists every item, or returns one when ?id= is given.
func (h *Handler) getItems(c *gin.Context, op string, all func() []*model.Item, one func(int) (*model.Item, error)) {
	if _, ok := c.GetQuery("id"); !ok {
		c.JSON(http.StatusOK, all())
		return
	}
	id, ok := h.queryID(c, op)
	if !ok {
		return
	}
	item, err := one(id)
	if err != nil {
		h.fail(c, op, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) createTask(c *gin.Context) {
	const op = "handlers.createTask"
	form, ok := h.bind(c, op)
	if !ok {
		return
	}
	task, err := h.repo.AddTask(model.NewTask(form.Name, form.Description, form.status(), form.StartTime, form.Duration))
	h.created(c, op, task, err)
}

func (h *Handler) createEpic(c *gin.Context) {
	const op = "handlers.createEpic"
	form, ok := h.bind(c, op)
	if !ok {
		return
	}
	epic, err := h.repo.AddEpic(model.NewEpic(form.ID, form.Name, form.Description))
	h.created(c, op, epic, err)
}

func (h *Handler) createSubtask(c *gin.Context) {
	const op = "handlers.createSubtask"
	form, ok := h.bind(c, op)
	if !ok {
		return
	}
	sub, err := h.repo.AddSubtask(model.NewSubtask(form.EpicID, form.Name, form.Description, form.status(), form.StartTime, form.Duration))
	h.created(c, op, sub, err)
}

func (h *Handler) updateTask(c *gin.Context) {
	const op = "handlers.updateTask"
	form, ok := h.bind(c, op)
	if !ok {
		return
	}
	task := model.NewTask(form.Name, form.Description, form.status(), form.StartTime, form.Duration)
	task.ID = form.ID
	h.done(c, op, h.repo.UpdateTask(task))
}

func (h *Handler) updateEpic(c *gin.Context) {
	const op = "handlers.updateEpic"
	form, ok := h.bind(c, op)
	if !ok {
		return
	}
	h.done(c, op, h.repo.UpdateEpic(model.NewEpic(form.ID, form.Name, form.Description)))
}

func (h *Handler) updateSubtask(c *gin.Context) {
	const op = "handlers.updateSubtask"
	form, ok := h.bind(c, op)
	if !ok {
		return
	}
	sub := model.NewSubtask(form.EpicID, form.Name, form.Description, form.status(), form.StartTime, form.Duration)
	sub.ID = form.ID
	h.done(c, op, h.repo.UpdateSubtask(sub))
}

func (h *Handler) deleteTasks(c *gin.Context) {
	h.deleteItems(c, "handlers.deleteTasks", h.repo.RemoveAllTasks, h.repo.RemoveTask)
}

func (h *Handler) deleteEpics(c *gin.Context) {
	h.deleteItems(c, "handlers.deleteEpics", h.repo.RemoveAllEpics, h.repo.RemoveEpic)
}

func (h *Handler) deleteSubtasks(c *gin.Context) {
	h.deleteItems(c, "handlers.deleteSubtasks", h.repo.RemoveAllSubtasks, h.repo.RemoveSubtask)
}

// deleteItems removes one item when ?id= is given, otherwise all of them.
func (h *Handler) deleteItems(c *gin.Context, op string, all func() error, one func(int) error) {
	if _, ok := c.GetQuery("id"); !ok {
		h.done(c, op, all())
		return
	}
	id, ok := h.queryID(c, op)
	if !ok {
		return
	}
	h.done(c, op, one(id))
}

func (h *Handler) subtasksForEpic(c *gin.Context) {
	const op = "handlers.subtasksForEpic"
	id, ok := h.queryID(c, op)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.repo.SubtasksForEpic(id))
}

func (h *Handler) bind(c *gin.Context, op string) (*itemForm, bool) {
	form := &itemForm{}
	if err := c.ShouldBindJSON(form); err != nil {
		h.log.WithField("operation", op).WithError(err).Debug("bad request body")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return nil, false
	}
	return form, true
}

func (h *Handler) queryID(c *gin.Context, op string) (int, bool) {
	raw := c.Query("id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		h.log.WithField("operation", op).WithError(err).Debug("bad id")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id: " + strconv.Quote(raw)})
		return 0, false
	}
	return id, true
}

func (h *Handler) created(c *gin.Context, op string, item *model.Item, err error) {
	if err != nil {
		h.fail(c, op, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *Handler) done(c *gin.Context, op string, err error) {
	if err != nil {
		h.fail(c, op, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// fail writes err with the status its kind maps to.
func (h *Handler) fail(c *gin.Context, op string, err error) {
	code := statusFor(err)
	log := h.log.WithField("operation", op).WithError(err)
	if code >= http.StatusInternalServerError {
		log.Error("request failed")
	} else {
		log.Debug("request rejected")
	}
	c.JSON(code, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrInvalidID), errors.Is(err, repository.ErrInvalidItem):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, repository.ErrEpicNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
