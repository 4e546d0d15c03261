// internal/models/wine.go
package models

// Wine is a catalog entry. It always belongs to exactly one producer and
// carries exactly one shape, color, type and closure.
type Wine struct {
	BaseModel
	Name        string  `json:"name" gorm:"size:255;not null" validate:"required,max=255"`
	Vintage     Vintage `json:"vintage" gorm:"not null;default:0" validate:"vintage"`
	Size        float64 `json:"size" gorm:"not null" validate:"gt=0"`
	Alcohol     float64 `json:"alcohol" validate:"min=0,max=100"`
	Acidity     float64 `json:"acidity" validate:"min=0"`
	PH          float64 `json:"ph" gorm:"column:ph" validate:"min=0,max=14"`
	BottleAging int     `json:"bottle_aging" validate:"min=0"`
	Description string  `json:"description" gorm:"type:text"`
	Weblink     string  `json:"weblink" gorm:"size:512" validate:"omitempty,url,max=512"`
	Image       []byte  `json:"image,omitempty"`
	ImageType   string  `json:"image_type,omitempty" gorm:"size:100"`
	ImageKey    string  `json:"image_key,omitempty" gorm:"size:255"`

	ProducerID uint `json:"producer_id" gorm:"not null;index"`
	ShapeID    uint `json:"shape_id" gorm:"not null"`
	ColorID    uint `json:"color_id" gorm:"not null"`
	TypeID     uint `json:"type_id" gorm:"not null"`
	ClosureID  uint `json:"closure_id" gorm:"not null"`

	// Relationships
	Producer *Producer `json:"producer,omitempty" gorm:"foreignKey:ProducerID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Shape    *Shape    `json:"shape,omitempty" gorm:"foreignKey:ShapeID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Color    *Color    `json:"color,omitempty" gorm:"foreignKey:ColorID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Type     *WineType `json:"type,omitempty" gorm:"foreignKey:TypeID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Closure  *Closure  `json:"closure,omitempty" gorm:"foreignKey:ClosureID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// HasImage reports whether an image has been attached.
func (w *Wine) HasImage() bool {
	return len(w.Image) > 0
}
