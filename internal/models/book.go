package models

import "time"

// Book represents a catalog entry in the library inventory
type Book struct {
	ID              int       `json:"id"`
	Title           string    `json:"title"`
	ISBN            string    `json:"isbn"`
	Author          string    `json:"author"`
	Publisher       string    `json:"publisher,omitempty"`
	PublicationYear int       `json:"publication_year,omitempty"`
	CategoryID      int       `json:"category_id"`
	CategoryName    string    `json:"category,omitempty"`
	TotalCopies     int       `json:"total_copies"`
	AvailableCopies int       `json:"available_copies"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Category is a named grouping of books
type Category struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}
