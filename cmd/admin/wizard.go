package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/locatrova/locatrova-admin/internal/api"
	"github.com/locatrova/locatrova-admin/internal/wizard"
)

// newWizardCmd runs the location-creation flow interactively.  The command
// is the "page layer" of the wizard: it renders prompts and feeds patches to
// the state machine, which owns validation, navigation and draft handling.
func newWizardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wizard",
		Short: "Create a location through the guided multi-step flow",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			in := bufio.NewScanner(os.Stdin)
			drafts := wizard.NewDraftStore(a.store, wizard.DefaultDebounce)

			if _, ok := drafts.Load(); ok {
				if !askYesNo(in, "resume the saved draft?") {
					_ = drafts.Clear()
				}
			}
			m := wizard.NewMachine(drafts)
			m.UploadProgress = func(fraction float64) {
				fmt.Printf("\ruploading... %3.0f%%", fraction*100)
				if fraction >= 1 {
					fmt.Println()
				}
			}
			defer func() {
				if drafts.Dirty() {
					fmt.Println("saving draft...")
					_ = drafts.Flush()
				}
			}()

			for {
				step := m.Step()
				fmt.Printf("\n-- step %d/%d: %s --\n", m.StepIndex()+1, len(wizard.Steps), step.Title)
				for field, msg := range m.Errors() {
					fmt.Printf("  ! %s: %s\n", field, msg)
				}

				switch step.ID {
				case wizard.StepBasicInfo:
					promptBasicInfo(cmd, a, in, m)
				case wizard.StepOwner:
					promptOwner(cmd, a, in, m)
				case wizard.StepActivities:
					promptActivities(cmd, a, in, m)
				case wizard.StepPricing:
					promptPricing(cmd, a, in, m)
				case wizard.StepAvailability:
					promptAvailability(in, m)
				case wizard.StepReview:
					if err := printJSON(m.Data()); err != nil {
						return err
					}
					if askYesNo(in, "submit this location?") {
						loc, err := m.Submit(cmd.Context(), a.locations)
						if err != nil {
							fmt.Printf("submit failed: %v\n", err)
							continue // Submit already jumped to the offending step
						}
						fmt.Printf("location created with id %s\n", loc.ID)
						return nil
					}
				}

				switch strings.ToLower(ask(in, "[n]ext, [b]ack, [q]uit")) {
				case "n", "next", "":
					m.Next()
				case "b", "back":
					m.Prev()
				case "q", "quit":
					return nil
				}
			}
		},
	}
}

func promptBasicInfo(cmd *cobra.Command, a *app, in *bufio.Scanner, m *wizard.Machine) {
	name := ask(in, "name")
	city := ask(in, "city")
	postalCode := ask(in, "CAP")
	description := ask(in, "description")
	address := ask(in, "address (will be matched against suggestions)")

	selected := false
	if address != "" {
		suggestions, err := a.locations.Geocode(cmd.Context(), address)
		if err != nil {
			fmt.Printf("geocode lookup failed: %v\n", err)
		} else {
			for i, sg := range suggestions {
				fmt.Printf("  %d) %s\n", i+1, sg.Label)
			}
			if pick, err := strconv.Atoi(ask(in, "pick a suggestion (0 to skip)")); err == nil && pick >= 1 && pick <= len(suggestions) {
				sg := suggestions[pick-1]
				address, city, postalCode = sg.Address, sg.City, sg.CAP
				selected = true
			}
		}
	}

	m.ApplyPatch(wizard.Patch{
		Name:            &name,
		City:            &city,
		CAP:             &postalCode,
		Description:     &description,
		Address:         &address,
		AddressSelected: &selected,
	})
}

func promptOwner(cmd *cobra.Command, a *app, in *bufio.Scanner, m *wizard.Machine) {
	query := ask(in, "search owner by name/email")
	if query != "" {
		if res, err := a.users.Search(cmd.Context(), query, nil, nil); err == nil {
			for _, u := range res.Items {
				fmt.Printf("  %s  %s <%s>\n", u.ID, u.Username, u.Email)
			}
		}
	}
	ownerID := ask(in, "owner id")
	special := askYesNo(in, "special (platform-managed) location?")
	m.ApplyPatch(wizard.Patch{OwnerID: &ownerID, Special: &special})
}

func promptActivities(cmd *cobra.Command, a *app, in *bufio.Scanner, m *wizard.Machine) {
	if types, err := a.activities.Types(cmd.Context()); err == nil {
		for _, t := range types {
			fmt.Printf("  %d) %s\n", t.ID, t.Name)
		}
	}
	ids := []int{}
	for _, part := range strings.Split(ask(in, "activity type ids (comma separated)"), ",") {
		if id, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
			ids = append(ids, id)
		}
	}
	services := []string{}
	for _, part := range strings.Split(ask(in, "services (comma separated)"), ",") {
		if s := strings.TrimSpace(part); s != "" {
			services = append(services, s)
		}
	}
	m.ApplyPatch(wizard.Patch{Types: &ids, Services: &services})
}

func promptPricing(cmd *cobra.Command, a *app, in *bufio.Scanner, m *wizard.Machine) {
	duration, _ := strconv.ParseFloat(ask(in, "slot duration in hours (half-hour steps)"), 64)
	fee, _ := strconv.ParseFloat(ask(in, fmt.Sprintf("platform fee (%g-%g)", wizard.MinFee, wizard.MaxFee)), 64)
	patch := wizard.Patch{Duration: &duration, Fee: &fee}

	if !m.Data().Special {
		stripe := ask(in, "stripe account id")
		patch.StripeID = &stripe
		if policies, err := a.policies.List(cmd.Context()); err == nil {
			for _, p := range policies {
				fmt.Printf("  %s  %s (%d%% up to %d days before)\n", p.ID, p.Name, p.Percentage, p.DaysBefore)
			}
		}
		policy := ask(in, "refund policy id")
		patch.RefundPolicyID = &policy
	}
	m.ApplyPatch(patch)
}

var dayNames = [wizard.DaysPerWeek]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

func promptAvailability(in *bufio.Scanner, m *wizard.Machine) {
	fmt.Println("time slots, per day; leave empty to close the day")
	for day := 0; day < wizard.DaysPerWeek; day++ {
		line := ask(in, fmt.Sprintf("%s slots (e.g. 09:00-13:00,14:00-18:00)", dayNames[day]))
		slots := []api.TimeSlot{}
		for _, part := range strings.Split(line, ",") {
			bounds := strings.SplitN(strings.TrimSpace(part), "-", 2)
			if len(bounds) == 2 {
				slots = append(slots, api.TimeSlot{Start: bounds[0], End: bounds[1]})
			}
		}
		d := day
		m.Update(func(f wizard.FormData) wizard.FormData { return f.WithDaySlots(d, slots) })
	}

	for {
		name := ask(in, "room name (empty to finish rooms)")
		if name == "" {
			break
		}
		capacity, _ := strconv.Atoi(ask(in, "capacity"))
		price, _ := strconv.ParseFloat(ask(in, "hourly price"), 64)
		m.Update(func(f wizard.FormData) wizard.FormData {
			return f.WithAddedRoom(api.Room{Name: name, Capacity: capacity, HourlyPrice: price})
		})
		roomIdx := len(m.Data().Rooms) - 1
		for {
			path := ask(in, "image file for this room (empty to stop)")
			if path == "" {
				break
			}
			data, err := os.ReadFile(path)
			if err != nil {
				fmt.Printf("cannot read %s: %v\n", path, err)
				continue
			}
			m.Update(func(f wizard.FormData) wizard.FormData {
				return f.WithAddedImage(roomIdx, fileName(path), data)
			})
		}
	}
}

func ask(in *bufio.Scanner, prompt string) string {
	fmt.Printf("%s: ", prompt)
	if !in.Scan() {
		return ""
	}
	return strings.TrimSpace(in.Text())
}

func askYesNo(in *bufio.Scanner, prompt string) bool {
	answer := strings.ToLower(ask(in, prompt+" [y/N]"))
	return answer == "y" || answer == "yes"
}

func fileName(path string) string {
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		return path[idx+1:]
	}
	return path
}
