// internal/models/taxonomy.go
package models

// Shape, Color, WineType and Closure are reference data. The catalog only
// reads them.

type Shape struct {
	BaseModel
	Name        string `json:"name" gorm:"size:100;not null;uniqueIndex"`
	Description string `json:"description,omitempty" gorm:"type:text"`
}

type Color struct {
	BaseModel
	Name        string `json:"name" gorm:"size:100;not null;uniqueIndex"`
	Description string `json:"description,omitempty" gorm:"type:text"`
}

type WineType struct {
	BaseModel
	Name        string `json:"name" gorm:"size:100;not null;uniqueIndex"`
	Description string `json:"description,omitempty" gorm:"type:text"`
}

func (WineType) TableName() string {
	return "wine_types"
}

type Closure struct {
	BaseModel
	Name        string `json:"name" gorm:"size:100;not null;uniqueIndex"`
	Description string `json:"description,omitempty" gorm:"type:text"`
}
