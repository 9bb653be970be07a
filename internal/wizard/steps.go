package wizard

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/locatrova/locatrova-admin/internal/api"
)

// StepID indexes the fixed step sequence.
type StepID int

const (
	StepBasicInfo StepID = iota
	StepOwner
	StepActivities
	StepPricing
	StepAvailability
	StepReview
)

// Step is the static configuration of one wizard screen.  RequiredFields is
// informational (the shell uses it to mark labels); the authoritative rules
// live in the per-step validators below.
type Step struct {
	ID             StepID
	Title          string
	RequiredFields []string
}

// Steps is the wizard's fixed forward sequence.
var Steps = []Step{
	{StepBasicInfo, "Basic info", []string{"name", "address", "city", "cap"}},
	{StepOwner, "Owner", []string{"ownerId"}},
	{StepActivities, "Activity types", []string{"type"}},
	{StepPricing, "Pricing", []string{"duration", "fee"}},
	{StepAvailability, "Availability & rooms", []string{"availability", "capacityPricing"}},
	{StepReview, "Review", nil},
}

// ValidationResult is the outcome of validating one step; recomputed on
// every navigation attempt, never stored.
type ValidationResult struct {
	Valid  bool
	Errors map[string]string
}

// Fee bounds and the duration ceiling of the pricing step.
const (
	MinFee      = 10.0
	MaxFee      = 30.0
	MaxDuration = 24.0
)

var (
	capPattern      = regexp.MustCompile(`^\d{5}$`)
	timeSlotPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
	objectIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)
)

// ValidateStep runs the required-field rules of one step against the
// aggregate and returns the per-field error map.
func ValidateStep(id StepID, f FormData) ValidationResult {
	errs := map[string]string{}
	switch id {
	case StepBasicInfo:
		if len(strings.TrimSpace(f.Name)) < 3 {
			errs["name"] = "name must be at least 3 characters"
		}
		if strings.TrimSpace(f.Address) == "" {
			errs["address"] = "address is required"
		} else if !f.AddressSelected {
			errs["address"] = "address must be confirmed from the suggestion list"
		}
		if strings.TrimSpace(f.City) == "" {
			errs["city"] = "city is required"
		}
		if !capPattern.MatchString(f.CAP) {
			errs["cap"] = "CAP must be a 5-digit postal code"
		}
	case StepOwner:
		if !objectIDPattern.MatchString(f.OwnerID) {
			errs["ownerId"] = "an owner must be selected"
		}
	case StepActivities:
		if len(f.Types) == 0 {
			errs["type"] = "select at least one activity type"
		}
	case StepPricing:
		if f.Duration <= 0 || f.Duration > MaxDuration {
			errs["duration"] = fmt.Sprintf("duration must be between 0 and %g hours", MaxDuration)
		} else if !isHalfHourMultiple(f.Duration) {
			errs["duration"] = "duration must be a multiple of half an hour"
		}
		if f.Fee < MinFee || f.Fee > MaxFee {
			errs["fee"] = fmt.Sprintf("fee must be between %g and %g", MinFee, MaxFee)
		}
		if !f.Special {
			if strings.TrimSpace(f.StripeID) == "" {
				errs["stripeId"] = "a Stripe account id is required for standard locations"
			}
			if strings.TrimSpace(f.RefundPolicyID) == "" {
				errs["refundPolicyId"] = "a refund policy is required for standard locations"
			}
		}
	case StepAvailability:
		if !hasOpenDay(f.Availability) {
			errs["availability"] = "at least one weekday needs a time slot"
		} else if field, msg, ok := invalidSlot(f.Availability); !ok {
			errs[field] = msg
		}
		if len(f.Rooms) == 0 {
			errs["capacityPricing"] = "define at least one room or space"
		} else {
			for i, room := range f.Rooms {
				if strings.TrimSpace(room.Name) == "" {
					errs[fmt.Sprintf("capacityPricing.%d.name", i)] = "room name is required"
				}
				if room.Capacity <= 0 {
					errs[fmt.Sprintf("capacityPricing.%d.capacity", i)] = "capacity must be positive"
				}
				if room.HourlyPrice <= 0 {
					errs[fmt.Sprintf("capacityPricing.%d.hourlyPrice", i)] = "hourly price must be positive"
				}
			}
		}
	case StepReview:
		// The review step has no fields of its own; Submit re-runs every
		// other step's rules.
	}
	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// ValidateAll runs every step's rules and reports the merged error map plus
// the first step owning a failing field, so submission can route the user
// back there.
func ValidateAll(f FormData) (map[string]string, StepID, bool) {
	merged := map[string]string{}
	first := StepReview
	ok := true
	for _, step := range Steps {
		res := ValidateStep(step.ID, f)
		if res.Valid {
			continue
		}
		if ok {
			first = step.ID
			ok = false
		}
		for field, msg := range res.Errors {
			merged[field] = msg
		}
	}
	return merged, first, ok
}

// isHalfHourMultiple reports whether d lands on a half-hour boundary,
// tolerating float noise from form inputs.
func isHalfHourMultiple(d float64) bool {
	scaled := d * 2
	return math.Abs(scaled-math.Round(scaled)) < 1e-9
}

// hasOpenDay reports whether at least one weekday carries a slot.
func hasOpenDay(availability [DaysPerWeek][]api.TimeSlot) bool {
	for _, day := range availability {
		if len(day) > 0 {
			return true
		}
	}
	return false
}

// invalidSlot scans the schedule for a malformed or inverted slot and
// returns its field path and message.  ok is true when every slot is sound.
func invalidSlot(availability [DaysPerWeek][]api.TimeSlot) (string, string, bool) {
	for day, slots := range availability {
		for i, slot := range slots {
			field := fmt.Sprintf("availability.%d.%d", day, i)
			if !timeSlotPattern.MatchString(slot.Start) || !timeSlotPattern.MatchString(slot.End) {
				return field, "time slots must use HH:MM", false
			}
			if slot.Start >= slot.End {
				return field, "a slot must end after it starts", false
			}
		}
	}
	return "", "", true
}
