package api

// TimeSlot is one bookable interval within a day, using "HH:MM" wall-clock
// bounds.
type TimeSlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Room describes one bookable space inside a location together with its
// capacity-based pricing.
type Room struct {
	Name        string   `json:"name"`
	Capacity    int      `json:"capacity"`
	HourlyPrice float64  `json:"hourlyPrice"`
	Images      []string `json:"images,omitempty"`
}

// User is a platform account as the admin dashboard sees it.
type User struct {
	ID        string `json:"_id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Active    bool   `json:"active"`
	Special   bool   `json:"special"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// Location is a bookable venue.
//
// Fields mirror the backend document:
//
//	Types           – activity type ids hosted at the venue.
//	Services        – free-form service labels.
//	CapacityPricing – rooms/spaces with per-room capacity and price.
//	Availability    – weekly schedule, exactly one slot list per weekday
//	                  starting at Monday; an empty list is a closed day.
type Location struct {
	ID              string       `json:"_id"`
	Name            string       `json:"name"`
	Address         string       `json:"address"`
	City            string       `json:"city"`
	CAP             string       `json:"cap"`
	Description     string       `json:"description,omitempty"`
	Rules           string       `json:"rules,omitempty"`
	OwnerID         string       `json:"ownerId"`
	Special         bool         `json:"special"`
	DurationType    string       `json:"durationType"`
	Duration        float64      `json:"duration"`
	Fee             float64      `json:"fee"`
	StripeID        string       `json:"stripeId,omitempty"`
	RefundPolicyID  string       `json:"refundPolicyId,omitempty"`
	Active          bool         `json:"active"`
	Verified        bool         `json:"verified"`
	Types           []int        `json:"type"`
	Services        []string     `json:"services"`
	Images          []string     `json:"images,omitempty"`
	CapacityPricing []Room       `json:"capacityPricing"`
	Availability    [][]TimeSlot `json:"availability"`
}

// Reservation is a booking of a location slot by a user.
type Reservation struct {
	ID         string   `json:"_id"`
	UserID     string   `json:"userId"`
	LocationID string   `json:"locationId"`
	Date       string   `json:"date"`
	Slot       TimeSlot `json:"slot"`
	Status     string   `json:"status"` // PENDING, CONFIRMED, CANCELLED, REFUNDED
	Amount     float64  `json:"amount"`
}

// RefundPolicy describes how much of a booking is returned when cancelled a
// given number of days before the reserved date.
type RefundPolicy struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	DaysBefore  int    `json:"daysBefore"`
	Percentage  int    `json:"percentage"`
}

// ActivityType is a platform-defined category of activity a location hosts.
type ActivityType struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// GeocodeSuggestion is one entry of the address-suggestion list.  The wizard
// only accepts addresses confirmed through one of these.
type GeocodeSuggestion struct {
	Label   string  `json:"label"`
	Address string  `json:"address"`
	City    string  `json:"city"`
	CAP     string  `json:"cap"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// UserList is the paged payload of the user listing endpoints.
type UserList struct {
	Items []User `json:"items"`
	Total int    `json:"total"`
}

// LocationList is the paged payload of the location listing endpoints.
type LocationList struct {
	Items []Location `json:"items"`
	Total int        `json:"total"`
}

// ReservationList is the paged payload of the reservation listing endpoints.
type ReservationList struct {
	Items []Reservation `json:"items"`
	Total int           `json:"total"`
}
