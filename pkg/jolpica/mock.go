package jolpica

import (
	"context"
	"sync"
)

// MockClient is a mock F1 API client for testing
type MockClient struct {
	mu              sync.Mutex
	baseURL         string
	schedule        []Race
	drivers         []Driver
	constructors    []Constructor
	qualifying      map[int][]QualifyingResult // round -> classification
	results         map[int][]Result
	sprints         map[int][]Result
	scheduleErr     error
	driversErr      error
	constructorsErr error
	resultsErr      error
	calls           map[string]int
}

var _ Client = (*MockClient)(nil)

// MockOption configures the mock client
type MockOption func(*MockClient)

// WithSchedule sets the calendar to return
func WithSchedule(races []Race) MockOption {
	return func(m *MockClient) {
		m.schedule = races
	}
}

// WithDrivers sets the drivers to return
func WithDrivers(drivers []Driver) MockOption {
	return func(m *MockClient) {
		m.drivers = drivers
	}
}

// WithConstructors sets the constructors to return
func WithConstructors(constructors []Constructor) MockOption {
	return func(m *MockClient) {
		m.constructors = constructors
	}
}

// WithQualifying sets the qualifying classification of a round
func WithQualifying(round int, results []QualifyingResult) MockOption {
	return func(m *MockClient) {
		m.qualifying[round] = results
	}
}

// WithRaceResults sets the grand prix classification of a round
func WithRaceResults(round int, results []Result) MockOption {
	return func(m *MockClient) {
		m.results[round] = results
	}
}

// WithSprintResults sets the sprint classification of a round
func WithSprintResults(round int, results []Result) MockOption {
	return func(m *MockClient) {
		m.sprints[round] = results
	}
}

// WithScheduleError sets an error to return from FetchSchedule
func WithScheduleError(err error) MockOption {
	return func(m *MockClient) {
		m.scheduleErr = err
	}
}

// WithDriversError sets an error to return from FetchDrivers
func WithDriversError(err error) MockOption {
	return func(m *MockClient) {
		m.driversErr = err
	}
}

// WithConstructorsError sets an error to return from FetchConstructors
func WithConstructorsError(err error) MockOption {
	return func(m *MockClient) {
		m.constructorsErr = err
	}
}

// WithResultsError sets an error to return from every classification fetch
func WithResultsError(err error) MockOption {
	return func(m *MockClient) {
		m.resultsErr = err
	}
}

// NewMockClient creates a new mock client. Without options it serves an empty season.
func NewMockClient(opts ...MockOption) *MockClient {
	m := &MockClient{
		baseURL:    "http://mock-f1.local",
		qualifying: make(map[int][]QualifyingResult),
		results:    make(map[int][]Result),
		sprints:    make(map[int][]Result),
		calls:      make(map[string]int),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MockClient) record(name string) {
	m.mu.Lock()
	m.calls[name]++
	m.mu.Unlock()
}

// Calls returns how often a method was invoked
func (m *MockClient) Calls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

// BaseURL returns the configured base URL
func (m *MockClient) BaseURL() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.baseURL
}

// SetBaseURL updates the base URL
func (m *MockClient) SetBaseURL(url string) {
	m.mu.Lock()
	m.baseURL = url
	m.mu.Unlock()
}

// FetchSchedule returns the configured calendar
func (m *MockClient) FetchSchedule(ctx context.Context, season int) ([]Race, error) {
	m.record("FetchSchedule")
	if m.scheduleErr != nil {
		return nil, m.scheduleErr
	}
	return m.schedule, nil
}

// FetchDrivers returns the configured drivers
func (m *MockClient) FetchDrivers(ctx context.Context, season int) ([]Driver, error) {
	m.record("FetchDrivers")
	if m.driversErr != nil {
		return nil, m.driversErr
	}
	return m.drivers, nil
}

// FetchConstructors returns the configured constructors
func (m *MockClient) FetchConstructors(ctx context.Context, season int) ([]Constructor, error) {
	m.record("FetchConstructors")
	if m.constructorsErr != nil {
		return nil, m.constructorsErr
	}
	return m.constructors, nil
}

// FetchQualifying returns the configured qualifying classification
func (m *MockClient) FetchQualifying(ctx context.Context, season, round int) ([]QualifyingResult, error) {
	m.record("FetchQualifying")
	if m.resultsErr != nil {
		return nil, m.resultsErr
	}
	return m.qualifying[round], nil
}

// FetchRaceResults returns the configured grand prix classification
func (m *MockClient) FetchRaceResults(ctx context.Context, season, round int) ([]Result, error) {
	m.record("FetchRaceResults")
	if m.resultsErr != nil {
		return nil, m.resultsErr
	}
	return m.results[round], nil
}

// FetchSprintResults returns the configured sprint classification
func (m *MockClient) FetchSprintResults(ctx context.Context, season, round int) ([]Result, error) {
	m.record("FetchSprintResults")
	if m.resultsErr != nil {
		return nil, m.resultsErr
	}
	return m.sprints[round], nil
}

// MockResult builds a classified car for tests
func MockResult(position int, driverID, constructorID string, points float64) Result {
	return Result{
		Position:    FlexInt(position),
		Points:      FlexFloat(points),
		Driver:      Driver{DriverID: driverID},
		Constructor: Constructor{ConstructorID: constructorID},
		Status:      "Finished",
	}
}

// MockQualifyingResult builds a qualifying entry for tests
func MockQualifyingResult(position int, driverID, constructorID string) QualifyingResult {
	return QualifyingResult{
		Position:    FlexInt(position),
		Driver:      Driver{DriverID: driverID},
		Constructor: Constructor{ConstructorID: constructorID},
	}
}
