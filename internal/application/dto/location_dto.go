package dto

import "time"

// CreateLocationRequest da de alta una ubicación de stock.
type CreateLocationRequest struct {
	Code string `json:"code" validate:"required,max=32"`
	Name string `json:"name" validate:"required,max=100"`
}

// LocationResponse es la vista pública de una ubicación.
type LocationResponse struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
