package stub

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/locatrova/locatrova-admin/internal/api"
	"github.com/locatrova/locatrova-admin/internal/config"
)

// Server is the in-memory LocaTrova backend emulation.  It exists so the
// admin CLI and the integration tests can exercise the full client stack —
// envelope decoding, bearer auth, refresh, multipart create — with zero
// infrastructure.
type Server struct {
	cfg config.StubConfig
	rdb *redis.Client

	mu            sync.Mutex
	accounts      []*account
	refreshTokens map[string]string // refresh token -> user id
	locations     []api.Location
	reservations  []api.Reservation
	policies      []api.RefundPolicy
	activityTypes []api.ActivityType
	services      []string
	suggestions   []api.GeocodeSuggestion
}

// NewServer builds a seeded stub.  rdb may be nil; rate limiting then
// degrades to passthrough.
func NewServer(cfg config.StubConfig, rdb *redis.Client) *Server {
	s := &Server{cfg: cfg, rdb: rdb, refreshTokens: map[string]string{}}
	s.seed()
	return s
}

// Router assembles the echo instance with every endpoint the admin client
// consumes, all under the fixed /api prefix.
func (s *Server) Router() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(rateLimit(s.cfg.RateLimit, s.rdb))

	root := e.Group("/api")
	root.POST("/auth/login", s.login)
	root.POST("/auth/refresh-token", s.refreshToken)
	root.GET("/utils/geocode", s.geocode)

	auth := root.Group("", requireAuth(s.cfg.JWTSecret))
	auth.POST("/auth/logout", s.logout)
	auth.GET("/auth/check-auth", s.checkAuth)

	auth.GET("/users", s.listUsers)
	auth.GET("/users/search", s.searchUsers)
	auth.GET("/users/:id", s.getUser)
	auth.PUT("/users/:id", s.updateUser)
	auth.DELETE("/users/:id", s.deleteUser)

	auth.GET("/locations", s.listLocations)
	auth.POST("/locations/create", s.createLocation)
	auth.GET("/locations/:id", s.getLocation)
	auth.PUT("/locations/:id", s.updateLocation)
	auth.DELETE("/locations/:id", s.deleteLocation)

	auth.GET("/reservations", s.listReservations)
	auth.PUT("/reservations/:id", s.updateReservation)

	auth.GET("/refundPolicy/policies", s.listPolicies)
	auth.POST("/refundPolicy/policies", s.createPolicy)
	auth.DELETE("/refundPolicy/policies/:id", s.deletePolicy)

	auth.GET("/attivita/tipologie", s.activityTypesHandler)
	auth.GET("/attivita/servizi", s.servicesHandler)

	return e
}

// ----- envelope helpers -----

func ok(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": data})
}

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"success": false, "error": msg})
}

// paginate reads page/limit query parameters with the client's defaults and
// returns the slice bounds for a collection of length total.
func paginate(c echo.Context, total int) (int, int) {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return start, end
}

// ----- auth -----

func (s *Server) login(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acc := range s.accounts {
		if !strings.EqualFold(acc.Email, req.Email) || len(acc.PasswordHash) == 0 {
			continue
		}
		if bcrypt.CompareHashAndPassword(acc.PasswordHash, []byte(req.Password)) != nil {
			break
		}
		access, err := newAccessToken(s.cfg.JWTSecret, acc.ID, acc.Email, acc.Username, s.cfg.AccessTTLMin)
		if err != nil {
			return fail(c, http.StatusInternalServerError, "token signing failed")
		}
		refresh, err := newRefreshToken()
		if err != nil {
			return fail(c, http.StatusInternalServerError, "token generation failed")
		}
		s.refreshTokens[refresh] = acc.ID
		return ok(c, echo.Map{
			"accessToken":  access,
			"refreshToken": refresh,
			"user":         acc.User,
		})
	}
	return fail(c, http.StatusUnauthorized, "invalid credentials")
}

func (s *Server) refreshToken(c echo.Context) error {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, okTok := s.refreshTokens[req.RefreshToken]
	if !okTok {
		return fail(c, http.StatusUnauthorized, "unknown refresh token")
	}
	for _, acc := range s.accounts {
		if acc.ID == userID {
			access, err := newAccessToken(s.cfg.JWTSecret, acc.ID, acc.Email, acc.Username, s.cfg.AccessTTLMin)
			if err != nil {
				return fail(c, http.StatusInternalServerError, "token signing failed")
			}
			// The refresh token is deliberately not rotated.
			return ok(c, echo.Map{"accessToken": access})
		}
	}
	return fail(c, http.StatusUnauthorized, "unknown user")
}

func (s *Server) logout(c echo.Context) error {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	_ = c.Bind(&req)
	s.mu.Lock()
	delete(s.refreshTokens, req.RefreshToken)
	s.mu.Unlock()
	return ok(c, echo.Map{"loggedOut": true})
}

func (s *Server) checkAuth(c echo.Context) error {
	userID, _ := c.Get("userId").(string)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acc := range s.accounts {
		if acc.ID == userID {
			return ok(c, acc.User)
		}
	}
	return fail(c, http.StatusUnauthorized, "unknown user")
}

// ----- users -----

func (s *Server) listUsers(c echo.Context) error {
	search := strings.ToLower(c.QueryParam("search"))
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := make([]api.User, 0, len(s.accounts))
	for _, acc := range s.accounts {
		if search != "" && !strings.Contains(strings.ToLower(acc.Username), search) &&
			!strings.Contains(strings.ToLower(acc.Email), search) {
			continue
		}
		matched = append(matched, acc.User)
	}
	start, end := paginate(c, len(matched))
	return ok(c, api.UserList{Items: matched[start:end], Total: len(matched)})
}

func (s *Server) searchUsers(c echo.Context) error {
	q := strings.ToLower(c.QueryParam("q"))
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := []api.User{}
	for _, acc := range s.accounts {
		if strings.Contains(strings.ToLower(acc.Username), q) || strings.Contains(strings.ToLower(acc.Email), q) {
			matched = append(matched, acc.User)
		}
	}
	start, end := paginate(c, len(matched))
	return ok(c, api.UserList{Items: matched[start:end], Total: len(matched)})
}

func (s *Server) getUser(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acc := range s.accounts {
		if acc.ID == c.Param("id") {
			return ok(c, acc.User)
		}
	}
	return fail(c, http.StatusNotFound, "user not found")
}

func (s *Server) updateUser(c echo.Context) error {
	var update struct {
		Username *string `json:"username"`
		Email    *string `json:"email"`
		Active   *bool   `json:"active"`
		Special  *bool   `json:"special"`
	}
	if err := c.Bind(&update); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acc := range s.accounts {
		if acc.ID != c.Param("id") {
			continue
		}
		if update.Username != nil {
			acc.Username = *update.Username
		}
		if update.Email != nil {
			acc.Email = *update.Email
		}
		if update.Active != nil {
			acc.Active = *update.Active
		}
		if update.Special != nil {
			acc.Special = *update.Special
		}
		return ok(c, acc.User)
	}
	return fail(c, http.StatusNotFound, "user not found")
}

func (s *Server) deleteUser(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, acc := range s.accounts {
		if acc.ID == c.Param("id") {
			s.accounts = append(s.accounts[:i], s.accounts[i+1:]...)
			return ok(c, echo.Map{"deleted": true})
		}
	}
	return fail(c, http.StatusNotFound, "user not found")
}

// ----- locations -----

func (s *Server) listLocations(c echo.Context) error {
	city := strings.ToLower(c.QueryParam("city"))
	owner := c.QueryParam("ownerId")
	search := strings.ToLower(c.QueryParam("search"))
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := []api.Location{}
	for _, loc := range s.locations {
		if city != "" && strings.ToLower(loc.City) != city {
			continue
		}
		if owner != "" && loc.OwnerID != owner {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(loc.Name), search) {
			continue
		}
		matched = append(matched, loc)
	}
	start, end := paginate(c, len(matched))
	return ok(c, api.LocationList{Items: matched[start:end], Total: len(matched)})
}

func (s *Server) getLocation(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, loc := range s.locations {
		if loc.ID == c.Param("id") {
			return ok(c, loc)
		}
	}
	return fail(c, http.StatusNotFound, "location not found")
}

// createLocation accepts the wizard's multipart payload: the "data" field
// holds the JSON blob, image parts are named "images_<roomIndex>".  Images
// are recorded as synthetic URLs on the matching room.
func (s *Server) createLocation(c echo.Context) error {
	blob := c.FormValue("data")
	if blob == "" {
		return fail(c, http.StatusBadRequest, "missing data field")
	}
	var loc api.Location
	if err := json.Unmarshal([]byte(blob), &loc); err != nil {
		return fail(c, http.StatusBadRequest, "malformed data field")
	}
	if loc.Name == "" || loc.OwnerID == "" {
		return fail(c, http.StatusBadRequest, "name and ownerId are required")
	}
	for len(loc.Availability) < 7 {
		loc.Availability = append(loc.Availability, nil)
	}
	loc.ID = newObjectID()

	if form, err := c.MultipartForm(); err == nil {
		for field, files := range form.File {
			idx, convErr := strconv.Atoi(strings.TrimPrefix(field, "images_"))
			if convErr != nil || idx < 0 || idx >= len(loc.CapacityPricing) {
				continue
			}
			for _, fh := range files {
				url := "/media/" + loc.ID + "/" + fh.Filename
				loc.CapacityPricing[idx].Images = append(loc.CapacityPricing[idx].Images, url)
				loc.Images = append(loc.Images, url)
			}
		}
	}

	s.mu.Lock()
	s.locations = append(s.locations, loc)
	s.mu.Unlock()
	return ok(c, loc)
}

func (s *Server) updateLocation(c echo.Context) error {
	var update struct {
		Name           *string  `json:"name"`
		Description    *string  `json:"description"`
		Rules          *string  `json:"rules"`
		Fee            *float64 `json:"fee"`
		Active         *bool    `json:"active"`
		Verified       *bool    `json:"verified"`
		RefundPolicyID *string  `json:"refundPolicyId"`
	}
	if err := c.Bind(&update); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.locations {
		loc := &s.locations[i]
		if loc.ID != c.Param("id") {
			continue
		}
		if update.Name != nil {
			loc.Name = *update.Name
		}
		if update.Description != nil {
			loc.Description = *update.Description
		}
		if update.Rules != nil {
			loc.Rules = *update.Rules
		}
		if update.Fee != nil {
			loc.Fee = *update.Fee
		}
		if update.Active != nil {
			loc.Active = *update.Active
		}
		if update.Verified != nil {
			loc.Verified = *update.Verified
		}
		if update.RefundPolicyID != nil {
			loc.RefundPolicyID = *update.RefundPolicyID
		}
		return ok(c, *loc)
	}
	return fail(c, http.StatusNotFound, "location not found")
}

func (s *Server) deleteLocation(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, loc := range s.locations {
		if loc.ID == c.Param("id") {
			s.locations = append(s.locations[:i], s.locations[i+1:]...)
			return ok(c, echo.Map{"deleted": true})
		}
	}
	return fail(c, http.StatusNotFound, "location not found")
}

// ----- reservations -----

func (s *Server) listReservations(c echo.Context) error {
	locationID := c.QueryParam("locationId")
	userID := c.QueryParam("userId")
	status := c.QueryParam("status")
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := []api.Reservation{}
	for _, r := range s.reservations {
		if locationID != "" && r.LocationID != locationID {
			continue
		}
		if userID != "" && r.UserID != userID {
			continue
		}
		if status != "" && r.Status != status {
			continue
		}
		matched = append(matched, r)
	}
	start, end := paginate(c, len(matched))
	return ok(c, api.ReservationList{Items: matched[start:end], Total: len(matched)})
}

func (s *Server) updateReservation(c echo.Context) error {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.reservations {
		if s.reservations[i].ID == c.Param("id") {
			s.reservations[i].Status = req.Status
			return ok(c, s.reservations[i])
		}
	}
	return fail(c, http.StatusNotFound, "reservation not found")
}

// ----- refund policies & activity catalog -----

func (s *Server) listPolicies(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ok(c, s.policies)
}

func (s *Server) createPolicy(c echo.Context) error {
	var policy api.RefundPolicy
	if err := c.Bind(&policy); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	policy.ID = newObjectID()
	s.mu.Lock()
	s.policies = append(s.policies, policy)
	s.mu.Unlock()
	return ok(c, policy)
}

func (s *Server) deletePolicy(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.policies {
		if p.ID == c.Param("id") {
			s.policies = append(s.policies[:i], s.policies[i+1:]...)
			return ok(c, echo.Map{"deleted": true})
		}
	}
	return fail(c, http.StatusNotFound, "policy not found")
}

func (s *Server) activityTypesHandler(c echo.Context) error {
	return ok(c, s.activityTypes)
}

func (s *Server) servicesHandler(c echo.Context) error {
	return ok(c, s.services)
}

// ----- geocode -----

func (s *Server) geocode(c echo.Context) error {
	q := strings.ToLower(c.QueryParam("query"))
	matched := []api.GeocodeSuggestion{}
	for _, sg := range s.suggestions {
		if q == "" || strings.Contains(strings.ToLower(sg.Label), q) {
			matched = append(matched, sg)
		}
	}
	return ok(c, matched)
}
