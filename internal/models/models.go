package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"         json:"_id,omitempty"`
	Name        string             `bson:"name"                  json:"name"`
	Price       *float64           `bson:"price,omitempty"       json:"price,omitempty"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	ImageURL    string             `bson:"imageUrl,omitempty"    json:"imageUrl,omitempty"`
}

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Name         string             `bson:"name"          json:"name"`
	Email        string             `bson:"email"         json:"email"`
	PasswordHash string             `bson:"password"      json:"-"`
	CreatedAt    time.Time          `bson:"createdAt"     json:"createdAt"`
}
