package api

import (
	"errors"
	"net/http"
	"time"

	"resale-console/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ScheduledTaskHandler struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewScheduledTaskHandler(db *gorm.DB) *ScheduledTaskHandler {
	return &ScheduledTaskHandler{DB: db, Now: time.Now}
}

type scheduledTaskRequest struct {
	Name           string     `json:"name" binding:"required"`
	TaskType       string     `json:"taskType" binding:"omitempty,oneof=item_refresh"`
	AccountID      *string    `json:"accountId"`
	Enabled        *bool      `json:"enabled"`
	IntervalHours  *int       `json:"intervalHours" binding:"omitempty,min=1"`
	DelayMinutes   int        `json:"delayMinutes" binding:"gte=0"`
	RandomDelayMax int        `json:"randomDelayMax" binding:"gte=0"`
	NextRunAt      *time.Time `json:"nextRunAt"`
}

// apply copies the request onto t and computes NextRunAt when it was not
// given.
func (r *scheduledTaskRequest) apply(t *models.ScheduledTask, now time.Time) {
	t.Name = r.Name
	t.TaskType = r.TaskType
	if t.TaskType == "" {
		t.TaskType = models.TaskTypeItemRefresh
	}
	t.AccountID = r.AccountID
	t.Enabled = boolOr(r.Enabled, t.Enabled)
	if r.IntervalHours != nil {
		t.IntervalHours = *r.IntervalHours
	}
	if t.IntervalHours == 0 {
		t.IntervalHours = 24
	}
	t.DelayMinutes = r.DelayMinutes
	t.RandomDelayMax = r.RandomDelayMax

	next := r.NextRunAt
	if next == nil {
		n := t.ComputeNextRun(now)
		next = &n
	}
	t.NextRunAt = next
}

func (h *ScheduledTaskHandler) GetTasks(c *gin.Context) {
	q := h.DB.WithContext(c.Request.Context())
	if accountID := c.Query("accountId"); accountID != "" {
		q = q.Where("account_id = ?", accountID)
	}
	var tasks []models.ScheduledTask
	if err := q.Order("id ASC").Find(&tasks).Error; err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *ScheduledTaskHandler) GetTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var task models.ScheduledTask
	if !findOr404(c, h.DB, &task, id, "Task") {
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *ScheduledTaskHandler) CreateTask(c *gin.Context) {
	var req scheduledTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	task := models.ScheduledTask{Enabled: true}
	req.apply(&task, h.Now())
	if err := h.DB.WithContext(c.Request.Context()).Create(&task).Error; err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *ScheduledTaskHandler) UpdateTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req scheduledTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	var task models.ScheduledTask
	err := h.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&task, id).Error; err != nil {
			return err
		}
		req.apply(&task, h.Now())
		return tx.Save(&task).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *ScheduledTaskHandler) DeleteTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	deleteByID[models.ScheduledTask](c, h.DB, id, "Task")
}
