package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MenuItem struct {
	ID          primitive.ObjectID `bson:"_id" json:"_id"`
	ItemName    string             `bson:"item_name" json:"itemName" validate:"required"`
	Description string             `bson:"description" json:"description"`
	ImageURL    string             `bson:"image_url" json:"imageUrl"`
	Category    string             `bson:"category" json:"category"`
	IsAvailable bool               `bson:"is_available" json:"isAvailable"`
	// Sizes maps a size label (Small/Medium/Large/Regular) to its price.
	Sizes map[string]float64 `bson:"sizes" json:"sizes"`
}

type Restaurant struct {
	ID          primitive.ObjectID  `bson:"_id" json:"_id"`
	Name        string              `bson:"name" json:"name" validate:"required"`
	Address     string              `bson:"address" json:"address" validate:"required"`
	ImageURL    string              `bson:"image_url" json:"imageUrl"`
	IsActive    bool                `bson:"is_active" json:"isActive"`
	OwnerID     *primitive.ObjectID `bson:"owner_id,omitempty" json:"owner,omitempty"`
	OpeningTime *time.Time          `bson:"opening_time,omitempty" json:"openingTime,omitempty"`
	Menu        []MenuItem          `bson:"menu" json:"menu"`
	CreatedAt   time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updated_at" json:"updatedAt"`
}
