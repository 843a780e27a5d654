package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/BongominErickJuma/quickmart-server/repository"
)

type ProductController struct {
	products repository.ProductRepository
}

func NewProductController(products repository.ProductRepository) *ProductController {
	return &ProductController{products: products}
}

func (p *ProductController) GetAllProducts(c *gin.Context) {
	filter := repository.ProductFilter{
		Category: c.Query("category"),
		Sort:     c.Query("sort"),
	}
	if v := c.Query("page"); v != "" {
		filter.Page, _ = strconv.Atoi(v)
	}
	if v := c.Query("limit"); v != "" {
		filter.Limit, _ = strconv.Atoi(v)
	}
	if v := c.Query("minPrice"); v != "" {
		if price, err := strconv.ParseFloat(v, 64); err == nil {
			filter.MinPrice = &price
		}
	}
	if v := c.Query("maxPrice"); v != "" {
		if price, err := strconv.ParseFloat(v, 64); err == nil {
			filter.MaxPrice = &price
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	products, err := p.products.List(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to fetch products"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"result": len(products),
		"data":   gin.H{"products": products},
	})
}

func (p *ProductController) GetProduct(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "fail", "message": "Invalid product id"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	product, err := p.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"status": "fail", "message": "The product is not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to fetch product"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"product": product}})
}
