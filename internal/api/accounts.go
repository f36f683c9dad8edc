package api

import (
	"errors"
	"fmt"
	"net/http"

	"resale-console/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AccountHandler struct {
	DB *gorm.DB
}

func NewAccountHandler(db *gorm.DB) *AccountHandler {
	return &AccountHandler{DB: db}
}

type accountRequest struct {
	ID            string  `json:"id"`
	Cookies       *string `json:"cookies"`
	UserID        *string `json:"userId"`
	Nickname      *string `json:"nickname"`
	Avatar        *string `json:"avatar"`
	Enabled       *bool   `json:"enabled"`
	Remark        *string `json:"remark"`
	ProxyType     *string `json:"proxyType"`
	ProxyHost     *string `json:"proxyHost"`
	ProxyPort     *int    `json:"proxyPort"`
	ProxyUsername *string `json:"proxyUsername"`
	ProxyPassword *string `json:"proxyPassword"`
}

func (r *accountRequest) validateProxy() error {
	if r.ProxyType != nil {
		switch *r.ProxyType {
		case "", "http", "https":
		default:
			return fmt.Errorf("unsupported proxy type: %s", *r.ProxyType)
		}
	}
	if r.ProxyPort != nil && *r.ProxyPort != 0 && (*r.ProxyPort < 1 || *r.ProxyPort > 65535) {
		return fmt.Errorf("proxy port out of range: %d", *r.ProxyPort)
	}
	return nil
}

// apply copies the submitted fields onto a. An empty proxy type clears the
// proxy.
func (r *accountRequest) apply(a *models.Account) {
	setIf(&a.Cookies, r.Cookies)
	setIf(&a.UserID, r.UserID)
	setIf(&a.Nickname, r.Nickname)
	setIf(&a.Avatar, r.Avatar)
	setIf(&a.Enabled, r.Enabled)
	setIf(&a.Remark, r.Remark)
	setIf(&a.ProxyHost, r.ProxyHost)
	setIf(&a.ProxyPort, r.ProxyPort)
	setIf(&a.ProxyUsername, r.ProxyUsername)
	setIf(&a.ProxyPassword, r.ProxyPassword)
	if r.ProxyType != nil {
		if *r.ProxyType == "" {
			a.ProxyType = nil
			a.ProxyHost, a.ProxyPort, a.ProxyUsername, a.ProxyPassword = "", 0, "", ""
		} else {
			pt := *r.ProxyType
			a.ProxyType = &pt
		}
	}
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// GetAccounts lists accounts without their credentials.
func (h *AccountHandler) GetAccounts(c *gin.Context) {
	var accounts []models.Account
	if err := h.DB.WithContext(c.Request.Context()).Order("created_at ASC").Find(&accounts).Error; err != nil {
		serverError(c, err)
		return
	}

	out := make([]models.Account, len(accounts))
	for i, a := range accounts {
		out[i] = a.Redacted()
	}
	c.JSON(http.StatusOK, out)
}

func (h *AccountHandler) GetAccount(c *gin.Context) {
	var account models.Account
	if !findOr404(c, h.DB, &account, c.Param("id"), "Account") {
		return
	}
	c.JSON(http.StatusOK, account)
}

func (h *AccountHandler) CreateAccount(c *gin.Context) {
	var req accountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Cookies == nil || *req.Cookies == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cookies are required"})
		return
	}
	if err := req.validateProxy(); err != nil {
		badRequest(c, err)
		return
	}

	account := models.Account{ID: req.ID, Enabled: true}
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	req.apply(&account)

	var existing int64
	if err := h.DB.Model(&models.Account{}).Where("id = ?", account.ID).Count(&existing).Error; err != nil {
		serverError(c, err)
		return
	}
	if existing > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Account already exists"})
		return
	}

	if err := h.DB.WithContext(c.Request.Context()).Create(&account).Error; err != nil {
		serverError(c, err)
		return
	}
	account.Status.AccountID = account.ID
	c.JSON(http.StatusCreated, account.Redacted())
}

func (h *AccountHandler) UpdateAccount(c *gin.Context) {
	var req accountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := req.validateProxy(); err != nil {
		badRequest(c, err)
		return
	}

	var account models.Account
	err := h.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&account, "id = ?", c.Param("id")).Error; err != nil {
			return err
		}
		req.apply(&account)
		return tx.Save(&account).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		return
	}
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, account.Redacted())
}

func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	deleteByID[models.Account](c, h.DB, c.Param("id"), "Account")
}

func (h *AccountHandler) ToggleAccount(c *gin.Context) {
	toggleEnabled[models.Account](c, h.DB, c.Param("id"), "Account")
}
