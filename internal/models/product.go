package models

// Product is an item offered for sale. Price is in whole currency units.
type Product struct {
	BaseModel
	AuthorID      uint      `gorm:"index" json:"author_id"`
	Author        *User     `json:"author,omitempty"`
	Name          string    `gorm:"size:50;not null" json:"name"`
	Image         string    `json:"image"`
	Description   string    `gorm:"type:text" json:"description"`
	CategoryID    uint      `gorm:"index" json:"category_id"`
	Category      *Category `json:"category,omitempty"`
	Price         int64     `gorm:"not null" json:"price"`
	RatingAverage float64   `json:"rating_average"`
	RatingCount   int       `json:"rating_count"`
}

// Comment is a user review of a product with a 1..5 star rating.
type Comment struct {
	BaseModel
	UserID    uint     `gorm:"index;not null" json:"user_id"`
	User      *User    `json:"user,omitempty"`
	ProductID uint     `gorm:"index;not null" json:"product_id"`
	Product   *Product `json:"product,omitempty"`
	Message   string   `gorm:"type:text;not null" json:"message"`
	Star      int      `gorm:"not null" json:"star"`
}
