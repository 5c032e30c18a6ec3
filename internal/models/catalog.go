package models

import "time"

type Product struct {
	ID                string    `json:"_id,omitempty" bson:"_id,omitempty"`
	Name              string    `json:"name" bson:"name"`
	Description       string    `json:"description" bson:"description"`
	Image             string    `json:"image" bson:"image"`
	Price             float64   `json:"price" bson:"price"`
	MinimumQuantity   int       `json:"minimumQuantity" bson:"minimumQuantity"`
	AvailableQuantity int       `json:"availableQuantity" bson:"availableQuantity"`
	CreatedAt         time.Time `json:"created_at" bson:"created_at"`
}

type Review struct {
	ID        string    `json:"_id,omitempty" bson:"_id,omitempty"`
	Name      string    `json:"name" bson:"name"`
	Email     string    `json:"email" bson:"email"`
	Rating    int       `json:"rating" bson:"rating"`
	Comment   string    `json:"comment" bson:"comment"`
	Image     string    `json:"image" bson:"image"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

type Order struct {
	ID          string    `json:"_id,omitempty" bson:"_id,omitempty"`
	Email       string    `json:"email" bson:"email"`
	Name        string    `json:"name" bson:"name"`
	ProductID   string    `json:"productId" bson:"productId"`
	ProductName string    `json:"productName" bson:"productName"`
	Quantity    int       `json:"quantity" bson:"quantity"`
	Price       float64   `json:"price" bson:"price"`
	Address     string    `json:"address" bson:"address"`
	Phone       string    `json:"phone" bson:"phone"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}
