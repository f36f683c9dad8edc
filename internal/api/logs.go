package api

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"resale-console/internal/logs"
	"resale-console/internal/storage"
	"resale-console/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const archiveURLExpiry = 24 * time.Hour

type LogHandler struct {
	Dir     string
	Hub     *ws.Hub
	Storage storage.Driver
}

func NewLogHandler(dir string, hub *ws.Hub, store storage.Driver) *LogHandler {
	return &LogHandler{Dir: dir, Hub: hub, Storage: store}
}

func (h *LogHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, logs.ErrLogFileNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, logs.ErrInvalidLogFile), errors.Is(err, logs.ErrUnknownLevel):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		serverError(c, err)
	}
}

func (h *LogHandler) GetFiles(c *gin.Context) {
	files, err := logs.ListFiles(h.Dir)
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, files)
}

// GetContent returns the tail of one daily log file, filtered by level and
// keyword.
func (h *LogHandler) GetContent(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	resp, err := logs.Read(h.Dir, logs.Query{
		File:    c.Query("file"),
		Date:    c.Query("date"),
		Level:   c.Query("level"),
		Keyword: c.Query("keyword"),
		Limit:   limit,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Stream upgrades to a websocket that receives every new log entry.
func (h *LogHandler) Stream(c *gin.Context) {
	h.Hub.ServeWs(c.Writer, c.Request)
}

// Archive uploads a daily log file to the configured storage and returns a
// download link.
func (h *LogHandler) Archive(c *gin.Context) {
	var req struct {
		File string `json:"file"`
		Date string `json:"date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	path, name, err := logs.ResolveFile(h.Dir, req.File, req.Date, time.Now())
	if err != nil {
		h.writeError(c, err)
		return
	}
	f, err := os.Open(path)
	if err != nil {
		serverError(c, err)
		return
	}
	defer f.Close()

	ctx := c.Request.Context()
	key := uuid.NewString() + "-" + name
	if err := h.Storage.Save(ctx, key, f, "text/plain; charset=utf-8"); err != nil {
		serverError(c, err)
		return
	}
	url, err := h.Storage.GenerateURL(ctx, key, archiveURLExpiry)
	if err != nil {
		serverError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"file": name, "key": key, "url": url})
}

// Download serves an archived log file from storage.
func (h *LogHandler) Download(c *gin.Context) {
	rc, contentType, err := h.Storage.Get(c.Request.Context(), c.Param("key"))
	switch {
	case errors.Is(err, os.ErrNotExist):
		c.JSON(http.StatusNotFound, gin.H{"error": "archive not found"})
		return
	case errors.Is(err, os.ErrInvalid):
		badRequest(c, err)
		return
	case err != nil:
		serverError(c, err)
		return
	}
	defer rc.Close()

	c.Header("Content-Disposition", "attachment; filename="+c.Param("key"))
	c.DataFromReader(http.StatusOK, -1, contentType, rc, nil)
}
