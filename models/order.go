package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Order struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	User     primitive.ObjectID `bson:"user" json:"user"`
	Products []OrderItem        `bson:"products" json:"products"`

	// TotalPrice is the amount the payment processor actually captured,
	// in major currency units.
	TotalPrice float64 `bson:"totalPrice" json:"totalPrice"`
	Paid       bool    `bson:"paid" json:"paid"`

	// StripeSessionID is the idempotency key for reconciliation: the orders
	// collection carries a unique sparse index on it, so the same completed
	// checkout session can never produce two orders.
	StripeSessionID string `bson:"stripeSessionId,omitempty" json:"-"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

type OrderItem struct {
	Product  primitive.ObjectID `bson:"product" json:"product"`
	Quantity int                `bson:"quantity" json:"quantity"`

	// UnitPrice is the catalog price at reconciliation time, never a
	// client-supplied value.
	UnitPrice float64 `bson:"unitPrice" json:"unitPrice"`
}
