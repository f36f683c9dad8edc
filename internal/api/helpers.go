package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

var errNotFound = errors.New("not found")

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// pagination reads limit/offset query parameters, clamping limit to
// maxPageSize.
func pagination(c *gin.Context) (limit, offset int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if err != nil || limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func serverError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// findOr404 loads the row with the given primary key into dst. It writes a
// 404 or 500 response and returns false when the row cannot be loaded.
func findOr404(c *gin.Context, db *gorm.DB, dst any, id any, what string) bool {
	err := db.WithContext(c.Request.Context()).First(dst, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": what + " not found"})
		return false
	}
	if err != nil {
		serverError(c, err)
		return false
	}
	return true
}

// deleteByID removes the row of T with the given primary key.
func deleteByID[T any](c *gin.Context, db *gorm.DB, id any, what string) {
	res := db.WithContext(c.Request.Context()).Delete(new(T), "id = ?", id)
	if res.Error != nil {
		serverError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": what + " not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": what + " deleted successfully"})
}

// toggleEnabled sets the enabled column of the row of T with the given
// primary key. With an {"enabled": bool} body the value is set, otherwise it
// is flipped.
func toggleEnabled[T any](c *gin.Context, db *gorm.DB, id any, what string) {
	var req struct {
		Enabled *bool `json:"enabled"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	var enabled bool
	err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var current []bool
		if err := tx.Model(new(T)).Where("id = ?", id).Pluck("enabled", &current).Error; err != nil {
			return err
		}
		if len(current) == 0 {
			return errNotFound
		}
		enabled = !current[0]
		if req.Enabled != nil {
			enabled = *req.Enabled
		}
		return tx.Model(new(T)).Where("id = ?", id).Update("enabled", enabled).Error
	})
	if errors.Is(err, errNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": what + " not found"})
		return
	}
	if err != nil {
		serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "enabled": enabled})
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
