package models

// Region groups users geographically.
type Region struct {
	BaseModel
	Name string `gorm:"size:40;uniqueIndex;not null" json:"name"`
}

// Category groups products.
type Category struct {
	BaseModel
	Name  string `gorm:"size:40;not null" json:"name"`
	Photo string `json:"photo"`
}
