// Package wizard implements the location-creation flow: the aggregate form
// data, the fixed step sequence with per-step validation, the state machine
// gating navigation and submission, and the debounced draft persistence.
package wizard

import (
	"github.com/locatrova/locatrova-admin/internal/api"
)

// Weekday count of the availability schedule.  The aggregate always carries
// exactly one slot bucket per weekday, which a fixed-size array guarantees
// by construction.
const DaysPerWeek = 7

// ImageFile is one image staged for upload, tied to the room it depicts.
type ImageFile struct {
	RoomIndex int    `json:"roomIndex"`
	Name      string `json:"name"`
	Data      []byte `json:"data"`
}

// FormData is the wizard's aggregate.  It is a plain value: every mutation
// goes through Apply or one of the indexed With* helpers, all of which copy
// the containers they touch, so no two steps ever alias the same backing
// storage.
type FormData struct {
	// Basic info.
	Name            string `json:"name"`
	Address         string `json:"address"`
	AddressSelected bool   `json:"addressSelected"` // address was confirmed via a geocode suggestion
	City            string `json:"city"`
	CAP             string `json:"cap"`
	Description     string `json:"description"`
	Rules           string `json:"rules"`

	// Owner.
	OwnerID string `json:"ownerId"`
	Special bool   `json:"special"`

	// Pricing.
	DurationType   string  `json:"durationType"`
	Duration       float64 `json:"duration"`
	Fee            float64 `json:"fee"`
	StripeID       string  `json:"stripeId"`
	RefundPolicyID string  `json:"refundPolicyId"`

	// Status flags.
	Active   bool `json:"active"`
	Verified bool `json:"verified"`

	// Collections.
	Types        []int                       `json:"type"`
	Services     []string                    `json:"services"`
	Images       []ImageFile                 `json:"images"`
	Rooms        []api.Room                  `json:"capacityPricing"`
	Availability [DaysPerWeek][]api.TimeSlot `json:"availability"`
}

// NewFormData returns the aggregate with its creation defaults: hourly
// bookings of one hour, an active unverified listing, and seven empty
// availability days.
func NewFormData() FormData {
	return FormData{
		DurationType: "hourly",
		Duration:     1,
		Active:       true,
	}
}

// Patch is a partial update of the aggregate.  Nil fields are left as they
// are; non-nil collection fields replace the collection wholesale.
type Patch struct {
	Name            *string
	Address         *string
	AddressSelected *bool
	City            *string
	CAP             *string
	Description     *string
	Rules           *string

	OwnerID *string
	Special *bool

	DurationType   *string
	Duration       *float64
	Fee            *float64
	StripeID       *string
	RefundPolicyID *string

	Active   *bool
	Verified *bool

	Types        *[]int
	Services     *[]string
	Images       *[]ImageFile
	Rooms        *[]api.Room
	Availability *[DaysPerWeek][]api.TimeSlot
}

// Apply merges p into the aggregate and returns the result.  The receiver is
// a value, so the caller's copy is never touched.
func (f FormData) Apply(p Patch) FormData {
	if p.Name != nil {
		f.Name = *p.Name
	}
	if p.Address != nil {
		f.Address = *p.Address
	}
	if p.AddressSelected != nil {
		f.AddressSelected = *p.AddressSelected
	}
	if p.City != nil {
		f.City = *p.City
	}
	if p.CAP != nil {
		f.CAP = *p.CAP
	}
	if p.Description != nil {
		f.Description = *p.Description
	}
	if p.Rules != nil {
		f.Rules = *p.Rules
	}
	if p.OwnerID != nil {
		f.OwnerID = *p.OwnerID
	}
	if p.Special != nil {
		f.Special = *p.Special
	}
	if p.DurationType != nil {
		f.DurationType = *p.DurationType
	}
	if p.Duration != nil {
		f.Duration = *p.Duration
	}
	if p.Fee != nil {
		f.Fee = *p.Fee
	}
	if p.StripeID != nil {
		f.StripeID = *p.StripeID
	}
	if p.RefundPolicyID != nil {
		f.RefundPolicyID = *p.RefundPolicyID
	}
	if p.Active != nil {
		f.Active = *p.Active
	}
	if p.Verified != nil {
		f.Verified = *p.Verified
	}
	if p.Types != nil {
		f.Types = append([]int(nil), (*p.Types)...)
	}
	if p.Services != nil {
		f.Services = append([]string(nil), (*p.Services)...)
	}
	if p.Images != nil {
		f.Images = append([]ImageFile(nil), (*p.Images)...)
	}
	if p.Rooms != nil {
		f.Rooms = append([]api.Room(nil), (*p.Rooms)...)
	}
	if p.Availability != nil {
		for day := range p.Availability {
			f.Availability[day] = append([]api.TimeSlot(nil), p.Availability[day]...)
		}
	}
	return f
}

// WithDaySlots replaces the slot list of one weekday.  Out-of-range days are
// ignored.
func (f FormData) WithDaySlots(day int, slots []api.TimeSlot) FormData {
	if day < 0 || day >= DaysPerWeek {
		return f
	}
	f.Availability[day] = append([]api.TimeSlot(nil), slots...)
	return f
}

// WithAddedSlot appends a slot to one weekday.
func (f FormData) WithAddedSlot(day int, slot api.TimeSlot) FormData {
	if day < 0 || day >= DaysPerWeek {
		return f
	}
	slots := append([]api.TimeSlot(nil), f.Availability[day]...)
	f.Availability[day] = append(slots, slot)
	return f
}

// WithSlot replaces a single slot, addressed by day and position.
func (f FormData) WithSlot(day, idx int, slot api.TimeSlot) FormData {
	if day < 0 || day >= DaysPerWeek || idx < 0 || idx >= len(f.Availability[day]) {
		return f
	}
	slots := append([]api.TimeSlot(nil), f.Availability[day]...)
	slots[idx] = slot
	f.Availability[day] = slots
	return f
}

// WithRemovedSlot removes a single slot, addressed by day and position.
func (f FormData) WithRemovedSlot(day, idx int) FormData {
	if day < 0 || day >= DaysPerWeek || idx < 0 || idx >= len(f.Availability[day]) {
		return f
	}
	slots := append([]api.TimeSlot(nil), f.Availability[day]...)
	f.Availability[day] = append(slots[:idx], slots[idx+1:]...)
	return f
}

// WithAddedRoom appends a room.
func (f FormData) WithAddedRoom(room api.Room) FormData {
	f.Rooms = append(append([]api.Room(nil), f.Rooms...), room)
	return f
}

// WithRoom replaces the room at idx.
func (f FormData) WithRoom(idx int, room api.Room) FormData {
	if idx < 0 || idx >= len(f.Rooms) {
		return f
	}
	rooms := append([]api.Room(nil), f.Rooms...)
	rooms[idx] = room
	f.Rooms = rooms
	return f
}

// WithRemovedRoom removes the room at idx together with its staged images,
// shifting the room index of images belonging to later rooms down by one so
// they stay attached to the right room.
func (f FormData) WithRemovedRoom(idx int) FormData {
	if idx < 0 || idx >= len(f.Rooms) {
		return f
	}
	rooms := append([]api.Room(nil), f.Rooms...)
	f.Rooms = append(rooms[:idx], rooms[idx+1:]...)
	images := make([]ImageFile, 0, len(f.Images))
	for _, img := range f.Images {
		switch {
		case img.RoomIndex == idx:
			continue
		case img.RoomIndex > idx:
			img.RoomIndex--
			images = append(images, img)
		default:
			images = append(images, img)
		}
	}
	f.Images = images
	return f
}

// WithAddedImage stages an image for the room at roomIdx.
func (f FormData) WithAddedImage(roomIdx int, name string, data []byte) FormData {
	if roomIdx < 0 || roomIdx >= len(f.Rooms) {
		return f
	}
	f.Images = append(append([]ImageFile(nil), f.Images...), ImageFile{RoomIndex: roomIdx, Name: name, Data: data})
	return f
}
