package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/BongominErickJuma/quickmart-server/checkout"
	"github.com/BongominErickJuma/quickmart-server/models"
	"github.com/BongominErickJuma/quickmart-server/repository"
)

func (p *ProductController) CreateProduct(c *gin.Context) {
	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "fail", "message": "Invalid input: " + err.Error()})
		return
	}

	if !models.ValidCategory(product.Category) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "fail", "message": "Please select a valid category"})
		return
	}
	product.Price = checkout.RoundPrice(product.Price)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.products.Create(ctx, &product); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to create product"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "data": gin.H{"product": product}})
}

func (p *ProductController) UpdateProduct(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "fail", "message": "Invalid product id"})
		return
	}

	var body struct {
		Name        *string  `json:"name" binding:"omitempty,max=100"`
		Description *string  `json:"description" binding:"omitempty,max=1000"`
		Price       *float64 `json:"price" binding:"omitempty,min=0"`
		Image       *string  `json:"image"`
		Category    *string  `json:"category"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "fail", "message": "Invalid request body"})
		return
	}

	update := bson.M{}
	if body.Name != nil {
		update["name"] = *body.Name
	}
	if body.Description != nil {
		update["description"] = *body.Description
	}
	if body.Price != nil {
		update["price"] = checkout.RoundPrice(*body.Price)
	}
	if body.Image != nil {
		update["image"] = *body.Image
	}
	if body.Category != nil {
		if !models.ValidCategory(*body.Category) {
			c.JSON(http.StatusBadRequest, gin.H{"status": "fail", "message": "Please select a valid category"})
			return
		}
		update["category"] = *body.Category
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	updated, err := p.products.Update(ctx, id, update)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"status": "fail", "message": "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to update product"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"product": updated}})
}

func (p *ProductController) DeleteProduct(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "fail", "message": "Invalid product id"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.products.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"status": "fail", "message": "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to delete product"})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}
