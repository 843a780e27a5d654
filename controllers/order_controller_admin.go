package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/BongominErickJuma/quickmart-server/models"
	"github.com/BongominErickJuma/quickmart-server/repository"
)

func (o *OrderController) GetAllOrders(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	orders, err := o.orders.FindAll(ctx)
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

// GetOrder returns one order with its line items expanded against the
// current catalog. The join is done here, visibly, rather than by a
// query-time hook; products deleted since the order keep their captured
// unit price and lose only the display fields.
func (o *OrderController) GetOrder(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "fail", "message": "Invalid order id"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	order, err := o.orders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"status": "fail", "message": "No order found with that ID"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to fetch order"})
		return
	}

	type lineItem struct {
		Product     primitive.ObjectID `json:"product"`
		Name        string             `json:"name,omitempty"`
		Description string             `json:"description,omitempty"`
		Image       string             `json:"image,omitempty"`
		Quantity    int                `json:"quantity"`
		UnitPrice   float64            `json:"unitPrice"`
	}

	items := make([]lineItem, 0, len(order.Products))
	for _, item := range order.Products {
		li := lineItem{
			Product:   item.Product,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
		var product *models.Product
		if product, err = o.products.FindByID(ctx, item.Product); err == nil {
			li.Name = product.Name
			li.Description = product.Description
			li.Image = product.Image
		}
		items = append(items, li)
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"order": gin.H{
				"id":         order.ID.Hex(),
				"user":       order.User.Hex(),
				"products":   items,
				"totalPrice": order.TotalPrice,
				"paid":       order.Paid,
				"createdAt":  order.CreatedAt,
			},
		},
	})
}

func (o *OrderController) DeleteOrder(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "fail", "message": "Invalid order id"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := o.orders.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"status": "fail", "message": "No order found with that ID"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to delete order"})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}
