package models

// CartItem is a client-submitted cart entry. It deliberately has no price
// field: unit prices are always resolved from the catalog, both when the
// checkout session is built and again when the completed payment is
// reconciled into an order.
type CartItem struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}
