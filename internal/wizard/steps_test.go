package wizard

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/locatrova/locatrova-admin/internal/api"
)

func TestBasicInfoStepValidation(t *testing.T) {
	f := NewFormData()
	res := ValidateStep(StepBasicInfo, f)
	require.False(t, res.Valid)
	require.Contains(t, res.Errors, "name")
	require.Contains(t, res.Errors, "address")
	require.Contains(t, res.Errors, "city")
	require.Contains(t, res.Errors, "cap")

	name := "Studio Verde"
	addr := "Via Roma 1, Milano"
	city := "Milano"
	f = f.Apply(Patch{Name: &name, Address: &addr, City: &city})

	// A typed-in address that was never confirmed against a geocode
	// suggestion still blocks the step.
	postal := "2013"
	f = f.Apply(Patch{CAP: &postal})
	res = ValidateStep(StepBasicInfo, f)
	require.False(t, res.Valid)
	require.Equal(t, "address must be confirmed from the suggestion list", res.Errors["address"])
	require.Contains(t, res.Errors, "cap", "a 4-digit CAP is rejected")

	selected := true
	postal = "20131"
	f = f.Apply(Patch{AddressSelected: &selected, CAP: &postal})
	res = ValidateStep(StepBasicInfo, f)
	require.True(t, res.Valid)
	require.Empty(t, res.Errors)
}

func TestPricingStepFeeBounds(t *testing.T) {
	f := validPricingForm()

	cases := []struct {
		fee   float64
		valid bool
	}{
		{5, false},
		{9.99, false},
		{10, true},
		{20, true},
		{30, true},
		{30.01, false},
	}
	for _, tc := range cases {
		fee := tc.fee
		res := ValidateStep(StepPricing, f.Apply(Patch{Fee: &fee}))
		require.Equal(t, tc.valid, res.Valid, "fee=%g", tc.fee)
		if !tc.valid {
			require.Contains(t, res.Errors, "fee")
		}
	}
}

func TestPricingStepDurationRules(t *testing.T) {
	f := validPricingForm()

	for _, d := range []float64{0.5, 1, 1.5, 8, 24} {
		dur := d
		res := ValidateStep(StepPricing, f.Apply(Patch{Duration: &dur}))
		require.True(t, res.Valid, "duration=%g", d)
	}
	for _, d := range []float64{0, -1, 24.5, 1.25} {
		dur := d
		res := ValidateStep(StepPricing, f.Apply(Patch{Duration: &dur}))
		require.False(t, res.Valid, "duration=%g", d)
		require.Contains(t, res.Errors, "duration")
	}
}

func TestPricingStepSpecialSkipsBillingFields(t *testing.T) {
	f := validPricingForm()
	empty := ""
	f = f.Apply(Patch{StripeID: &empty, RefundPolicyID: &empty})

	res := ValidateStep(StepPricing, f)
	require.False(t, res.Valid)
	require.Contains(t, res.Errors, "stripeId")
	require.Contains(t, res.Errors, "refundPolicyId")

	special := true
	res = ValidateStep(StepPricing, f.Apply(Patch{Special: &special}))
	require.True(t, res.Valid, "special locations do not bill through Stripe")
}

func TestAvailabilityStepValidation(t *testing.T) {
	f := NewFormData()
	res := ValidateStep(StepAvailability, f)
	require.False(t, res.Valid)
	require.Contains(t, res.Errors, "availability")
	require.Contains(t, res.Errors, "capacityPricing")

	f = f.
		WithAddedRoom(api.Room{Name: "Sala A", Capacity: 12, HourlyPrice: 25}).
		WithAddedSlot(1, api.TimeSlot{Start: "09:00", End: "13:00"})
	res = ValidateStep(StepAvailability, f)
	require.True(t, res.Valid)

	inverted := f.WithSlot(1, 0, api.TimeSlot{Start: "13:00", End: "09:00"})
	res = ValidateStep(StepAvailability, inverted)
	require.False(t, res.Valid)
	require.Equal(t, "a slot must end after it starts", res.Errors["availability.1.0"])

	malformed := f.WithSlot(1, 0, api.TimeSlot{Start: "9am", End: "13:00"})
	res = ValidateStep(StepAvailability, malformed)
	require.False(t, res.Valid)
	require.Equal(t, "time slots must use HH:MM", res.Errors["availability.1.0"])

	badRoom := f.WithRoom(0, api.Room{Name: "", Capacity: 0, HourlyPrice: 25})
	res = ValidateStep(StepAvailability, badRoom)
	require.False(t, res.Valid)
	require.Contains(t, res.Errors, "capacityPricing.0.name")
	require.Contains(t, res.Errors, "capacityPricing.0.capacity")
}

func TestValidateAllReportsFirstOffendingStep(t *testing.T) {
	f := completeForm()

	errs, first, ok := ValidateAll(f)
	require.True(t, ok, "the reference form must pass everything: %v", errs)

	fee := 5.0
	errs, first, ok = ValidateAll(f.Apply(Patch{Fee: &fee}))
	require.False(t, ok)
	require.Equal(t, StepPricing, first)
	require.Contains(t, errs, "fee")

	// With two broken steps, the earlier one wins.
	owner := "not-an-id"
	errs, first, ok = ValidateAll(f.Apply(Patch{Fee: &fee, OwnerID: &owner}))
	require.False(t, ok)
	require.Equal(t, StepOwner, first)
	require.Contains(t, errs, "ownerId")
	require.Contains(t, errs, "fee", "errors from every failing step are merged")
}

// validPricingForm carries just enough to satisfy the pricing step.
func validPricingForm() FormData {
	f := NewFormData()
	fee := 20.0
	stripe := "acct_1ABCDEF"
	policy := "64b80f3ba5c1d2e3f4a5b6c7"
	return f.Apply(Patch{Fee: &fee, StripeID: &stripe, RefundPolicyID: &policy})
}

// completeForm satisfies every step's rules.
func completeForm() FormData {
	f := validPricingForm()
	name := "Studio Verde"
	addr := "Via Roma 1, Milano"
	selected := true
	city := "Milano"
	postal := "20131"
	owner := "64b80f3ba5c1d2e3f4a5b6c8"
	types := []int{1}
	f = f.Apply(Patch{
		Name: &name, Address: &addr, AddressSelected: &selected,
		City: &city, CAP: &postal, OwnerID: &owner, Types: &types,
	})
	return f.
		WithAddedRoom(api.Room{Name: "Sala A", Capacity: 12, HourlyPrice: 25}).
		WithAddedSlot(0, api.TimeSlot{Start: "09:00", End: "18:00"})
}
