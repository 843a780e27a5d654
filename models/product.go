package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const DefaultProductImage = "/img/products/default.jpg"

// Categories is the closed set of product categories the catalog accepts.
var Categories = []string{
	"Appliances",
	"Electronics",
	"Furniture",
	"Home & Kitchen",
	"Fitness",
	"Fashion",
	"Home Automation",
	"Accessories",
	"Home & Storage",
	"Home & Office",
}

func ValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name" binding:"required,max=100"`
	Description string             `bson:"description" json:"description" binding:"max=1000"`
	Price       float64            `bson:"price" json:"price" binding:"min=0"`
	Image       string             `bson:"image" json:"image"`
	Category    string             `bson:"category" json:"category" binding:"required"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
