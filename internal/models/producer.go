// internal/models/producer.go
package models

// Producer owns wines through wines.producer_id. Wines is only populated
// when loaded with Preload("Wines").
type Producer struct {
	BaseModel
	Name        string `json:"name" gorm:"size:255;not null;index"`
	Description string `json:"description,omitempty" gorm:"type:text"`
	Weblink     string `json:"weblink,omitempty" gorm:"size:512"`

	// Relationships
	Wines []Wine `json:"wines,omitempty" gorm:"foreignKey:ProducerID"`
}
