package stub

import (
	"crypto/rand"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"

	"github.com/locatrova/locatrova-admin/internal/api"
)

// account is a fixture user with a credential.  Passwords are stored as
// bcrypt hashes like the real backend's.
type account struct {
	api.User
	PasswordHash []byte
}

// newObjectID returns a random 24-hex identifier in the backend's format.
func newObjectID() string {
	buf := make([]byte, 12)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

// mustHash bcrypt-hashes a fixture password at the minimum cost; fixtures
// trade hash strength for fast startup.
func mustHash(password string) []byte {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return h
}

// seed fills the stub with a deterministic dataset: one admin credential,
// a couple of owners, sample locations with a weekly schedule, reservations
// in assorted states, refund policies and the activity catalog.
func (s *Server) seed() {
	admin := account{
		User: api.User{
			ID:       newObjectID(),
			Username: "admin",
			Email:    "admin@locatrova.it",
			Active:   true,
		},
		PasswordHash: mustHash("admin123"),
	}
	ownerA := account{
		User: api.User{ID: newObjectID(), Username: "marta.r", Email: "marta@studioverde.it", Active: true},
	}
	ownerB := account{
		User: api.User{ID: newObjectID(), Username: "luca.b", Email: "luca@spaziocentro.it", Active: true, Special: true},
	}
	s.accounts = []*account{&admin, &ownerA, &ownerB}

	policy := api.RefundPolicy{ID: newObjectID(), Name: "Flexible", Description: "Full refund up to 2 days before", DaysBefore: 2, Percentage: 100}
	strict := api.RefundPolicy{ID: newObjectID(), Name: "Strict", Description: "Half refund up to 7 days before", DaysBefore: 7, Percentage: 50}
	s.policies = []api.RefundPolicy{policy, strict}

	weekdays := [7][]api.TimeSlot{
		{{Start: "09:00", End: "13:00"}, {Start: "14:00", End: "18:00"}},
		{{Start: "09:00", End: "18:00"}},
		{{Start: "09:00", End: "18:00"}},
		{{Start: "09:00", End: "18:00"}},
		{{Start: "09:00", End: "20:00"}},
		{{Start: "10:00", End: "16:00"}},
		nil, // closed on Sunday
	}
	locA := api.Location{
		ID: newObjectID(), Name: "Studio Verde", Address: "Via Roma 12", City: "Torino", CAP: "10121",
		OwnerID: ownerA.ID, DurationType: "hourly", Duration: 1, Fee: 15,
		StripeID: "acct_1LocAVerde", RefundPolicyID: policy.ID, Active: true, Verified: true,
		Types: []int{1, 3}, Services: []string{"wifi", "projector"},
		CapacityPricing: []api.Room{{Name: "Sala Grande", Capacity: 40, HourlyPrice: 35}},
		Availability:    weekdays[:],
	}
	locB := api.Location{
		ID: newObjectID(), Name: "Spazio Centro", Address: "Corso Milano 4", City: "Milano", CAP: "20121",
		OwnerID: ownerB.ID, Special: true, DurationType: "hourly", Duration: 2, Fee: 20,
		Active: true, Types: []int{2}, Services: []string{"wifi"},
		CapacityPricing: []api.Room{{Name: "Open Space", Capacity: 80, HourlyPrice: 60}, {Name: "Meeting Room", Capacity: 10, HourlyPrice: 20}},
		Availability:    weekdays[:],
	}
	s.locations = []api.Location{locA, locB}

	s.reservations = []api.Reservation{
		{ID: newObjectID(), UserID: ownerA.ID, LocationID: locA.ID, Date: "2026-09-04", Slot: api.TimeSlot{Start: "14:00", End: "16:00"}, Status: "CONFIRMED", Amount: 70},
		{ID: newObjectID(), UserID: ownerB.ID, LocationID: locA.ID, Date: "2026-09-05", Slot: api.TimeSlot{Start: "09:00", End: "11:00"}, Status: "PENDING", Amount: 70},
		{ID: newObjectID(), UserID: ownerA.ID, LocationID: locB.ID, Date: "2026-09-06", Slot: api.TimeSlot{Start: "10:00", End: "12:00"}, Status: "CANCELLED", Amount: 120},
	}

	s.activityTypes = []api.ActivityType{
		{ID: 1, Name: "Fotografia"},
		{ID: 2, Name: "Eventi"},
		{ID: 3, Name: "Coworking"},
		{ID: 4, Name: "Corsi"},
	}
	s.services = []string{"wifi", "projector", "kitchen", "parking", "accessibility"}

	s.suggestions = []api.GeocodeSuggestion{
		{Label: "Via Roma 12, Torino", Address: "Via Roma 12", City: "Torino", CAP: "10121", Lat: 45.068, Lng: 7.683},
		{Label: "Corso Milano 4, Milano", Address: "Corso Milano 4", City: "Milano", CAP: "20121", Lat: 45.464, Lng: 9.19},
		{Label: "Piazza Maggiore 1, Bologna", Address: "Piazza Maggiore 1", City: "Bologna", CAP: "40124", Lat: 44.494, Lng: 11.343},
	}
}
