package models

// Order is a checkout header owned by a user.
type Order struct {
	BaseModel
	UserID uint        `gorm:"index;not null" json:"user_id"`
	User   *User       `json:"user,omitempty"`
	Items  []OrderItem `json:"items,omitempty"`
}

// OrderItem is one merged line of an order. A product appears at most once per order.
type OrderItem struct {
	BaseModel
	OrderID   uint     `gorm:"not null;uniqueIndex:idx_order_product" json:"order_id"`
	ProductID uint     `gorm:"not null;uniqueIndex:idx_order_product;index" json:"product_id"`
	Product   *Product `json:"product,omitempty"`
	Count     int      `gorm:"not null" json:"count"`
}
