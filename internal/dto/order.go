package dto

import "time"

// OrderRequest is the full payload for creating or replacing an order.
// Updates overwrite every mutable field; there is no partial patch.
type OrderRequest struct {
	ItemID           int64     `json:"item_id"`
	ClientName       string    `json:"client_name"`
	Village          string    `json:"village"`
	FromDate         time.Time `json:"from_date"`
	ToDate           time.Time `json:"to_date"`
	Rent             float64   `json:"rent"`
	Advance          float64   `json:"advance"`
	AdvanceTakenBy   *int64    `json:"advance_taken_by,omitempty"`
	RemainingTakenBy *int64    `json:"remaining_taken_by,omitempty"`
	RemainingAmount  *float64  `json:"remaining_amount,omitempty"`
	Remark           string    `json:"remark"`
	MobileNumber     string    `json:"mobile_number"`
}

// OrderResponse represents an order as exposed via transport layers.
type OrderResponse struct {
	ID               int64     `json:"id"`
	ItemID           int64     `json:"item_id"`
	ClientName       string    `json:"client_name"`
	Village          string    `json:"village"`
	FromDate         time.Time `json:"from_date"`
	ToDate           time.Time `json:"to_date"`
	Rent             float64   `json:"rent"`
	Advance          float64   `json:"advance"`
	Remaining        float64   `json:"remaining"`
	AdvanceTakenBy   *int64    `json:"advance_taken_by,omitempty"`
	RemainingTakenBy *int64    `json:"remaining_taken_by,omitempty"`
	RemainingAmount  *float64  `json:"remaining_amount,omitempty"`
	Remark           string    `json:"remark"`
	MobileNumber     string    `json:"mobile_number"`
	CreatedAt        time.Time `json:"created_at"`
}

// AvailabilityResponse answers a check-availability query.
type AvailabilityResponse struct {
	Available bool `json:"available"`
}

// BookedRange is one unavailable interval of an item.
type BookedRange struct {
	FromDate time.Time `json:"from_date"`
	ToDate   time.Time `json:"to_date"`
}
