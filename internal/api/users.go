package api

import (
	"errors"
	"net/http"

	"resale-console/internal/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	msgPasswordMismatch = "两次输入的密码不一致"
	msgUsernameTaken    = "用户名已存在"
)

type UserHandler struct {
	DB *gorm.DB
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{DB: db}
}

type createUserRequest struct {
	Username        string `json:"username" binding:"required,min=3,max=100"`
	Email           string `json:"email" binding:"omitempty,email"`
	Password        string `json:"password" binding:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
	Role            string `json:"role" binding:"omitempty,oneof=user admin"`
	Enabled         *bool  `json:"enabled"`
}

type updateUserRequest struct {
	Email           *string `json:"email" binding:"omitempty,email"`
	Password        string  `json:"password" binding:"omitempty,min=6"`
	ConfirmPassword string  `json:"confirmPassword"`
	Role            *string `json:"role" binding:"omitempty,oneof=user admin"`
	Enabled         *bool   `json:"enabled"`
}

func (h *UserHandler) usernameTaken(tx *gorm.DB, username string) (bool, error) {
	var n int64
	err := tx.Model(&models.User{}).Where("username = ?", username).Count(&n).Error
	return n > 0, err
}

func (h *UserHandler) GetUsers(c *gin.Context) {
	var users []models.User
	if err := h.DB.WithContext(c.Request.Context()).Order("id ASC").Find(&users).Error; err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var user models.User
	if !findOr404(c, h.DB, &user, id, "User") {
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Password != req.ConfirmPassword {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgPasswordMismatch})
		return
	}

	db := h.DB.WithContext(c.Request.Context())
	taken, err := h.usernameTaken(db, req.Username)
	if err != nil {
		serverError(c, err)
		return
	}
	if taken {
		c.JSON(http.StatusConflict, gin.H{"error": msgUsernameTaken})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		serverError(c, err)
		return
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		Enabled:      boolOr(req.Enabled, true),
	}
	if user.Role == "" {
		user.Role = "user"
	}
	if err := db.Create(&user).Error; err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Password != "" && req.Password != req.ConfirmPassword {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgPasswordMismatch})
		return
	}

	var user models.User
	err := h.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, id).Error; err != nil {
			return err
		}
		setIf(&user.Email, req.Email)
		setIf(&user.Role, req.Role)
		setIf(&user.Enabled, req.Enabled)
		if req.Password != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			user.PasswordHash = string(hash)
		}
		return tx.Save(&user).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	deleteByID[models.User](c, h.DB, id, "User")
}
