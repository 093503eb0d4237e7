package model

import (
	"time"
)

// Booking is a single reservation of the chair. A slot is the (date, time)
// pair; the store guarantees at most one live booking per slot.
type Booking struct {
	ID        int        `json:"id" bson:"_id"`
	Date      string     `json:"date" bson:"date" validate:"required"`
	Time      string     `json:"time" bson:"time" validate:"required"`
	Name      string     `json:"name" bson:"name" validate:"required"`
	Phone     string     `json:"phone" bson:"phone" validate:"required"`
	Service   string     `json:"service" bson:"service" validate:"required"`
	CreatedAt *time.Time `json:"created_at" bson:"created_at"`
}
