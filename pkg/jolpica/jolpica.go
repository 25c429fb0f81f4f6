// Package jolpica provides a client for the Jolpica F1 API, the Ergast-compatible
// source of the calendar, entry lists and classifications.
package jolpica

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/selfire1/gridtip-sub000/internal/logger"
)

// DefaultBaseURL is the public Jolpica endpoint
const DefaultBaseURL = "https://api.jolpi.ca/ergast/f1"

// pageLimit covers a full calendar or classification in one request
const pageLimit = 100

// ErrRateLimited is returned when the API answers 429
var ErrRateLimited = errors.New("jolpica: rate limited")

// FlexInt is an int that can be unmarshaled from either a number or a numeric string.
// The API encodes every number as a string.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler for FlexInt
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = 0
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("FlexInt: cannot parse %q", s)
		}
		*f = FlexInt(n)
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexInt(n)
		return nil
	}

	return fmt.Errorf("FlexInt: cannot unmarshal %s", string(data))
}

// Int returns the int value
func (f FlexInt) Int() int {
	return int(f)
}

// FlexFloat is a float64 that can be unmarshaled from either a number or a numeric string
type FlexFloat float64

// UnmarshalJSON implements json.Unmarshaler for FlexFloat
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = 0
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("FlexFloat: cannot parse %q", s)
		}
		*f = FlexFloat(v)
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err == nil {
		*f = FlexFloat(v)
		return nil
	}

	return fmt.Errorf("FlexFloat: cannot unmarshal %s", string(data))
}

// Session is the date and time of one session. Time may be empty for old seasons.
type Session struct {
	Date string `json:"date"`
	Time string `json:"time,omitempty"`
}

// Start parses the session start in UTC. ok is false when the date is missing or malformed.
func (s *Session) Start() (t time.Time, ok bool) {
	if s == nil || s.Date == "" {
		return time.Time{}, false
	}
	clock := s.Time
	if clock == "" {
		clock = "00:00:00Z"
	}
	t, err := time.Parse(time.RFC3339, s.Date+"T"+clock)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// Location is where a circuit is
type Location struct {
	Locality string `json:"locality"`
	Country  string `json:"country"`
}

// Circuit is a race track
type Circuit struct {
	CircuitID   string   `json:"circuitId"`
	CircuitName string   `json:"circuitName"`
	Location    Location `json:"Location"`
}

// Driver is a driver as listed by the API
type Driver struct {
	DriverID        string  `json:"driverId"`
	PermanentNumber FlexInt `json:"permanentNumber"`
	Code            string  `json:"code"`
	GivenName       string  `json:"givenName"`
	FamilyName      string  `json:"familyName"`
	Nationality     string  `json:"nationality"`
}

// Constructor is a team as listed by the API
type Constructor struct {
	ConstructorID string `json:"constructorId"`
	Name          string `json:"name"`
	Nationality   string `json:"nationality"`
}

// Result is one classified car of a race or sprint
type Result struct {
	Number      FlexInt     `json:"number"`
	Position    FlexInt     `json:"position"`
	Points      FlexFloat   `json:"points"`
	Driver      Driver      `json:"Driver"`
	Constructor Constructor `json:"Constructor"`
	Status      string      `json:"status"`
}

// QualifyingResult is one classified car of qualifying
type QualifyingResult struct {
	Number      FlexInt     `json:"number"`
	Position    FlexInt     `json:"position"`
	Driver      Driver      `json:"Driver"`
	Constructor Constructor `json:"Constructor"`
	Q1          string      `json:"Q1,omitempty"`
	Q2          string      `json:"Q2,omitempty"`
	Q3          string      `json:"Q3,omitempty"`
}

// Race is one calendar entry, optionally with a classification attached
type Race struct {
	Season           FlexInt  `json:"season"`
	Round            FlexInt  `json:"round"`
	RaceName         string   `json:"raceName"`
	Circuit          Circuit  `json:"Circuit"`
	Date             string   `json:"date"`
	Time             string   `json:"time,omitempty"`
	Qualifying       *Session `json:"Qualifying,omitempty"`
	Sprint           *Session `json:"Sprint,omitempty"`
	SprintQualifying *Session `json:"SprintQualifying,omitempty"`
	// 2023 name of the sprint qualifying session
	SprintShootout *Session `json:"SprintShootout,omitempty"`

	Results           []Result           `json:"Results,omitempty"`
	SprintResults     []Result           `json:"SprintResults,omitempty"`
	QualifyingResults []QualifyingResult `json:"QualifyingResults,omitempty"`
}

// Start returns the grand prix start
func (r Race) Start() (time.Time, bool) {
	return (&Session{Date: r.Date, Time: r.Time}).Start()
}

// SprintQualifyingSession returns the sprint qualifying session under either name
func (r Race) SprintQualifyingSession() *Session {
	if r.SprintQualifying != nil {
		return r.SprintQualifying
	}
	return r.SprintShootout
}

// Response is the envelope of every API answer
type Response struct {
	MRData struct {
		Total     FlexInt `json:"total"`
		RaceTable *struct {
			Races []Race `json:"Races"`
		} `json:"RaceTable,omitempty"`
		DriverTable *struct {
			Drivers []Driver `json:"Drivers"`
		} `json:"DriverTable,omitempty"`
		ConstructorTable *struct {
			Constructors []Constructor `json:"Constructors"`
		} `json:"ConstructorTable,omitempty"`
	} `json:"MRData"`
}

func (r *Response) races() []Race {
	if r.MRData.RaceTable == nil {
		return nil
	}
	return r.MRData.RaceTable.Races
}

// Client defines the interface for F1 data operations
type Client interface {
	// FetchSchedule retrieves the calendar of a season
	FetchSchedule(ctx context.Context, season int) ([]Race, error)
	// FetchDrivers retrieves the drivers entered in a season
	FetchDrivers(ctx context.Context, season int) ([]Driver, error)
	// FetchConstructors retrieves the constructors entered in a season
	FetchConstructors(ctx context.Context, season int) ([]Constructor, error)
	// FetchQualifying retrieves the qualifying classification; empty if not run yet
	FetchQualifying(ctx context.Context, season, round int) ([]QualifyingResult, error)
	// FetchRaceResults retrieves the grand prix classification; empty if not run yet
	FetchRaceResults(ctx context.Context, season, round int) ([]Result, error)
	// FetchSprintResults retrieves the sprint classification; empty if none
	FetchSprintResults(ctx context.Context, season, round int) ([]Result, error)
	// BaseURL returns the configured base URL
	BaseURL() string
	// SetBaseURL updates the base URL
	SetBaseURL(url string)
}

// HTTPClient is a real HTTP client for the Jolpica API
type HTTPClient struct {
	mu         sync.RWMutex
	baseURL    string
	httpClient *http.Client
	log        logger.Logger
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a new API client
func NewHTTPClient(baseURL string, log logger.Logger) *HTTPClient {
	return NewHTTPClientWithHTTPClient(baseURL, &http.Client{Timeout: 30 * time.Second}, log)
}

// NewHTTPClientWithHTTPClient creates a new API client with a custom http.Client
func NewHTTPClientWithHTTPClient(baseURL string, httpClient *http.Client, log logger.Logger) *HTTPClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		log:        log,
	}
}

// BaseURL returns the configured base URL
func (c *HTTPClient) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// SetBaseURL updates the base URL
func (c *HTTPClient) SetBaseURL(url string) {
	c.mu.Lock()
	c.baseURL = strings.TrimRight(url, "/")
	c.mu.Unlock()
}

// doRequest executes a GET against path and decodes the envelope
func (c *HTTPClient) doRequest(ctx context.Context, path string) (*Response, error) {
	apiURL := fmt.Sprintf("%s/%s.json?limit=%d", c.BaseURL(), path, pageLimit)

	c.log.Debug("F1 API request", "method", "GET", "url", apiURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to F1 API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.log.Debug("F1 API response", "status", resp.StatusCode, "bytes", len(body))

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w (retry after %q)", ErrRateLimited, resp.Header.Get("Retry-After"))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("F1 API returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var response Response
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &response, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// FetchSchedule retrieves the calendar of a season
func (c *HTTPClient) FetchSchedule(ctx context.Context, season int) ([]Race, error) {
	resp, err := c.doRequest(ctx, strconv.Itoa(season))
	if err != nil {
		return nil, err
	}
	return resp.races(), nil
}

// FetchDrivers retrieves the drivers entered in a season
func (c *HTTPClient) FetchDrivers(ctx context.Context, season int) ([]Driver, error) {
	resp, err := c.doRequest(ctx, fmt.Sprintf("%d/drivers", season))
	if err != nil {
		return nil, err
	}
	if resp.MRData.DriverTable == nil {
		return nil, nil
	}
	return resp.MRData.DriverTable.Drivers, nil
}

// FetchConstructors retrieves the constructors entered in a season
func (c *HTTPClient) FetchConstructors(ctx context.Context, season int) ([]Constructor, error) {
	resp, err := c.doRequest(ctx, fmt.Sprintf("%d/constructors", season))
	if err != nil {
		return nil, err
	}
	if resp.MRData.ConstructorTable == nil {
		return nil, nil
	}
	return resp.MRData.ConstructorTable.Constructors, nil
}

// fetchRound returns the single race of a round-scoped endpoint, or nil if unclassified
func (c *HTTPClient) fetchRound(ctx context.Context, season, round int, endpoint string) (*Race, error) {
	resp, err := c.doRequest(ctx, fmt.Sprintf("%d/%d/%s", season, round, endpoint))
	if err != nil {
		return nil, err
	}
	races := resp.races()
	if len(races) == 0 {
		return nil, nil
	}
	return &races[0], nil
}

// FetchQualifying retrieves the qualifying classification
func (c *HTTPClient) FetchQualifying(ctx context.Context, season, round int) ([]QualifyingResult, error) {
	race, err := c.fetchRound(ctx, season, round, "qualifying")
	if err != nil || race == nil {
		return nil, err
	}
	return race.QualifyingResults, nil
}

// FetchRaceResults retrieves the grand prix classification
func (c *HTTPClient) FetchRaceResults(ctx context.Context, season, round int) ([]Result, error) {
	race, err := c.fetchRound(ctx, season, round, "results")
	if err != nil || race == nil {
		return nil, err
	}
	return race.Results, nil
}

// FetchSprintResults retrieves the sprint classification
func (c *HTTPClient) FetchSprintResults(ctx context.Context, season, round int) ([]Result, error) {
	race, err := c.fetchRound(ctx, season, round, "sprint")
	if err != nil || race == nil {
		return nil, err
	}
	return race.SprintResults, nil
}
