package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BongominErickJuma/quickmart-server/checkout"
	"github.com/BongominErickJuma/quickmart-server/middleware"
	"github.com/BongominErickJuma/quickmart-server/models"
	"github.com/BongominErickJuma/quickmart-server/repository"
)

type OrderController struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
	checkout *checkout.Service
}

func NewOrderController(orders repository.OrderRepository, products repository.ProductRepository, checkoutSvc *checkout.Service) *OrderController {
	return &OrderController{orders: orders, products: products, checkout: checkoutSvc}
}

// CreateCheckoutSession prices the submitted cart from the catalog and
// returns the Stripe session handle. Any price field the client sneaks into
// the payload is dropped at binding: CartItem has no price.
func (o *OrderController) CreateCheckoutSession(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "fail", "message": "You are not logged in, please login"})
		return
	}

	var body struct {
		Items []models.CartItem `json:"items" binding:"required,min=1,dive"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "fail", "message": "No products selected for checkout"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	session, err := o.checkout.CreateSession(ctx, user, body.Items)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrEmptyCart), errors.Is(err, checkout.ErrInvalidProductID):
			c.JSON(http.StatusBadRequest, gin.H{"status": "fail", "message": err.Error()})
		case errors.Is(err, repository.ErrProductNotFound):
			c.JSON(http.StatusNotFound, gin.H{"status": "fail", "message": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to create checkout session"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"session": session}})
}

func (o *OrderController) GetMyOrders(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "fail", "message": "You are not logged in, please login"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	orders, err := o.orders.FindByUser(ctx, user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to fetch orders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"results": len(orders),
		"data":    gin.H{"orders": orders},
	})
}
