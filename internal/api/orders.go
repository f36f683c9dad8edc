package api

import (
	"encoding/csv"
	"errors"
	"net/http"
	"strconv"
	"time"

	"resale-console/internal/models"
	respmodels "resale-console/pkg/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type OrderHandler struct {
	DB *gorm.DB
}

func NewOrderHandler(db *gorm.DB) *OrderHandler {
	return &OrderHandler{DB: db}
}

// filtered applies the accountId, status and keyword query filters.
func (h *OrderHandler) filtered(c *gin.Context) (*gorm.DB, error) {
	q := h.DB.WithContext(c.Request.Context()).Model(&models.Order{})
	if accountID := c.Query("accountId"); accountID != "" {
		q = q.Where("account_id = ?", accountID)
	}
	if status := c.Query("status"); status != "" {
		s, err := strconv.Atoi(status)
		if err != nil {
			return nil, errors.New("invalid status")
		}
		q = q.Where("status = ?", s)
	}
	if keyword := c.Query("keyword"); keyword != "" {
		like := "%" + keyword + "%"
		q = q.Where("order_id LIKE ? OR item_title LIKE ? OR buyer_nickname LIKE ?", like, like, like)
	}
	return q, nil
}

func (h *OrderHandler) GetOrders(c *gin.Context) {
	q, err := h.filtered(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	limit, offset := pagination(c)

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		serverError(c, err)
		return
	}

	orders := []models.Order{}
	if err := q.Order("order_time DESC, id DESC").Limit(limit).Offset(offset).Find(&orders).Error; err != nil {
		serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, respmodels.OrderListResponse{
		Orders: orders,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	var order models.Order
	err := h.DB.WithContext(c.Request.Context()).Where("order_id = ?", c.Param("orderId")).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// ExportOrders writes the filtered orders as CSV.
func (h *OrderHandler) ExportOrders(c *gin.Context) {
	q, err := h.filtered(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	var orders []models.Order
	if err := q.Order("order_time DESC, id DESC").Find(&orders).Error; err != nil {
		serverError(c, err)
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=orders.csv")
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	w.Write([]string{"Order ID", "Account", "Item", "Price", "Buyer", "Status", "Order Time"})
	for _, o := range orders {
		w.Write([]string{
			o.OrderID,
			o.AccountID,
			o.ItemTitle,
			o.Price,
			o.BuyerNickname,
			o.StatusText,
			o.OrderTime.UTC().Format(time.RFC3339),
		})
	}
	w.Flush()
}

type GoodsHandler struct {
	DB *gorm.DB
}

func NewGoodsHandler(db *gorm.DB) *GoodsHandler {
	return &GoodsHandler{DB: db}
}

func (h *GoodsHandler) GetGoods(c *gin.Context) {
	limit, offset := pagination(c)
	q := h.DB.WithContext(c.Request.Context()).Model(&models.GoodsItem{})
	if accountID := c.Query("accountId"); accountID != "" {
		q = q.Where("account_id = ?", accountID)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		serverError(c, err)
		return
	}

	items := []models.GoodsItem{}
	if err := q.Order("updated_at DESC").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, respmodels.GoodsListResponse{
		Items:      items,
		NextPage:   int64(offset+len(items)) < total,
		TotalCount: total,
	})
}
