package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/locatrova/locatrova-admin/internal/api"
	"github.com/locatrova/locatrova-admin/internal/auth"
	"github.com/locatrova/locatrova-admin/internal/config"
	"github.com/locatrova/locatrova-admin/internal/storage"
)

// app bundles the explicitly constructed client stack.  Everything is built
// once per invocation and passed down; there are no package-level singletons.
type app struct {
	cfg          config.Config
	store        *storage.Store
	tokens       *auth.TokenStore
	bus          *auth.Bus
	client       *api.Client
	users        *api.UsersService
	locations    *api.LocationsService
	reservations *api.ReservationsService
	policies     *api.PoliciesService
	activities   *api.ActivitiesService
}

func newApp() (*app, error) {
	cfg := config.Load()
	store, err := storage.Open(cfg.StateFile)
	if err != nil {
		return nil, err
	}
	tokens := auth.NewTokenStore(store)
	bus := auth.NewBus()
	bus.Subscribe(func(ev auth.Event) {
		if ev == auth.EventUnauthenticated {
			fmt.Fprintln(os.Stderr, "session expired, please run `login` again")
		}
	})
	client := api.NewClient(cfg, tokens, bus)
	return &app{
		cfg:          cfg,
		store:        store,
		tokens:       tokens,
		bus:          bus,
		client:       client,
		users:        api.NewUsersService(client),
		locations:    api.NewLocationsService(client),
		reservations: api.NewReservationsService(client),
		policies:     api.NewPoliciesService(client),
		activities:   api.NewActivitiesService(client),
	}, nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "locatrova-admin",
		Short:         "Administrative console for the LocaTrova location-booking platform",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newWhoamiCmd(),
		newUsersCmd(),
		newLocationsCmd(),
		newReservationsCmd(),
		newPoliciesCmd(),
		newWizardCmd(),
	)
	return root
}

func newLoginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate against the backend and store the session tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			data, err := a.client.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			var payload struct {
				User api.User `json:"user"`
			}
			_ = json.Unmarshal(data, &payload)
			fmt.Printf("logged in as %s <%s>\n", payload.User.Username, payload.User.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and clear stored tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := a.client.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("logged out")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the identity of the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			user := a.tokens.CurrentUser()
			if user == nil || !a.tokens.IsAuthenticated() {
				return fmt.Errorf("not logged in")
			}
			fmt.Printf("%s <%s> (id %s)\n", user.Username, user.Email, user.ID)
			if _, err := a.client.CheckAuth(cmd.Context()); err != nil {
				return fmt.Errorf("server-side session check failed: %w", err)
			}
			fmt.Println("session verified by the server")
			return nil
		},
	}
}

func newUsersCmd() *cobra.Command {
	users := &cobra.Command{Use: "users", Short: "Manage platform users"}

	var page, limit int
	var search string
	list := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			res, err := a.users.List(cmd.Context(), api.UserListOptions{Page: &page, Limit: &limit, Search: search})
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tACTIVE")
			for _, u := range res.Items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%v\n", u.ID, u.Username, u.Email, u.Active)
			}
			_ = w.Flush()
			fmt.Printf("%d of %d users\n", len(res.Items), res.Total)
			return nil
		},
	}
	list.Flags().IntVar(&page, "page", 1, "page number")
	list.Flags().IntVar(&limit, "limit", 10, "page size")
	list.Flags().StringVar(&search, "search", "", "filter by username/email")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			u, err := a.users.Details(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(u)
		},
	}

	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Free-text user search",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			res, err := a.users.Search(cmd.Context(), args[0], nil, nil)
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}

	users.AddCommand(list, get, searchCmd)
	return users
}

func newLocationsCmd() *cobra.Command {
	locations := &cobra.Command{Use: "locations", Short: "Manage locations"}

	var page, limit int
	var city, owner string
	list := &cobra.Command{
		Use:   "list",
		Short: "List locations",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			res, err := a.locations.List(cmd.Context(), api.LocationListOptions{Page: &page, Limit: &limit, City: city, OwnerID: owner})
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCITY\tFEE\tACTIVE\tVERIFIED")
			for _, l := range res.Items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%v\t%v\n", l.ID, l.Name, l.City, l.Fee, l.Active, l.Verified)
			}
			_ = w.Flush()
			fmt.Printf("%d of %d locations\n", len(res.Items), res.Total)
			return nil
		},
	}
	list.Flags().IntVar(&page, "page", 1, "page number")
	list.Flags().IntVar(&limit, "limit", 10, "page size")
	list.Flags().StringVar(&city, "city", "", "filter by city")
	list.Flags().StringVar(&owner, "owner", "", "filter by owner id")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			l, err := a.locations.Details(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(l)
		},
	}

	locations.AddCommand(list, get)
	return locations
}

func newReservationsCmd() *cobra.Command {
	reservations := &cobra.Command{Use: "reservations", Short: "Manage reservations"}

	var page, limit int
	var locationID, userID, status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List reservations",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			res, err := a.reservations.List(cmd.Context(), api.ReservationListOptions{
				Page: &page, Limit: &limit, LocationID: locationID, UserID: userID, Status: status,
			})
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tLOCATION\tUSER\tDATE\tSLOT\tSTATUS\tAMOUNT")
			for _, r := range res.Items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s-%s\t%s\t%.2f\n",
					r.ID, r.LocationID, r.UserID, r.Date, r.Slot.Start, r.Slot.End, r.Status, r.Amount)
			}
			_ = w.Flush()
			fmt.Printf("%d of %d reservations\n", len(res.Items), res.Total)
			return nil
		},
	}
	list.Flags().IntVar(&page, "page", 1, "page number")
	list.Flags().IntVar(&limit, "limit", 10, "page size")
	list.Flags().StringVar(&locationID, "location", "", "filter by location id")
	list.Flags().StringVar(&userID, "user", "", "filter by user id")
	list.Flags().StringVar(&status, "status", "", "filter by status")

	setStatus := &cobra.Command{
		Use:   "set-status <id> <status>",
		Short: "Change a reservation's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			r, err := a.reservations.UpdateStatus(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(r)
		},
	}

	reservations.AddCommand(list, setStatus)
	return reservations
}

func newPoliciesCmd() *cobra.Command {
	policies := &cobra.Command{Use: "policies", Short: "Manage refund policies"}
	list := &cobra.Command{
		Use:   "list",
		Short: "List refund policies",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			res, err := a.policies.List(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}
	policies.AddCommand(list)
	return policies
}

func printJSON(v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(raw))
	return nil
}
