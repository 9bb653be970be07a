package wizard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"

	"github.com/locatrova/locatrova-admin/internal/api"
)

// submission is the JSON blob field of the create payload: the whole
// aggregate minus the binary images, which travel as file parts.
type submission struct {
	Name           string                      `json:"name"`
	Address        string                      `json:"address"`
	City           string                      `json:"city"`
	CAP            string                      `json:"cap"`
	Description    string                      `json:"description"`
	Rules          string                      `json:"rules"`
	OwnerID        string                      `json:"ownerId"`
	Special        bool                        `json:"special"`
	DurationType   string                      `json:"durationType"`
	Duration       float64                     `json:"duration"`
	Fee            float64                     `json:"fee"`
	StripeID       string                      `json:"stripeId"`
	RefundPolicyID string                      `json:"refundPolicyId"`
	Active         bool                        `json:"active"`
	Verified       bool                        `json:"verified"`
	Types          []int                       `json:"type"`
	Services       []string                    `json:"services"`
	Rooms          []api.Room                  `json:"capacityPricing"`
	Availability   [DaysPerWeek][]api.TimeSlot `json:"availability"`
}

// BuildSubmission serializes the aggregate into the multipart payload the
// create endpoint expects: a single "data" field holding the JSON blob, then
// one file part per staged image named "images_<roomIndex>".
func BuildSubmission(f FormData) (*api.Multipart, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	blob, err := json.Marshal(submission{
		Name:           f.Name,
		Address:        f.Address,
		City:           f.City,
		CAP:            f.CAP,
		Description:    f.Description,
		Rules:          f.Rules,
		OwnerID:        f.OwnerID,
		Special:        f.Special,
		DurationType:   f.DurationType,
		Duration:       f.Duration,
		Fee:            f.Fee,
		StripeID:       f.StripeID,
		RefundPolicyID: f.RefundPolicyID,
		Active:         f.Active,
		Verified:       f.Verified,
		Types:          f.Types,
		Services:       f.Services,
		Rooms:          f.Rooms,
		Availability:   f.Availability,
	})
	if err != nil {
		return nil, fmt.Errorf("encode submission data: %w", err)
	}
	if err := w.WriteField("data", string(blob)); err != nil {
		return nil, fmt.Errorf("write data field: %w", err)
	}

	for _, img := range f.Images {
		part, err := w.CreateFormFile(fmt.Sprintf("images_%d", img.RoomIndex), img.Name)
		if err != nil {
			return nil, fmt.Errorf("create image part: %w", err)
		}
		if _, err := part.Write(img.Data); err != nil {
			return nil, fmt.Errorf("write image %s: %w", img.Name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalize multipart payload: %w", err)
	}
	return &api.Multipart{Body: buf.Bytes(), ContentType: w.FormDataContentType()}, nil
}
