package dto

import "time"

// ItemCreateRequest carries the fields for listing a new rentable item. The
// code is assigned server-side; a client-provided code is ignored.
type ItemCreateRequest struct {
	Name     string `json:"name"`
	PhotoURL string `json:"photo_url"`
}

// ItemUpdateRequest edits an item's descriptive fields only.
type ItemUpdateRequest struct {
	Name     string `json:"name"`
	PhotoURL string `json:"photo_url"`
}

// ItemResponse represents an item as exposed via transport layers. PhotoURL
// is never empty; a placeholder image URL substitutes for missing photos.
type ItemResponse struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	PhotoURL  string    `json:"photo_url"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
