package services

import (
	"fmt"

	"github.com/selfire1/gridtip-sub000/internal/models"
)

// Service errors
var (
	ErrTipsClosed          = &ServiceError{Message: "tips for this race are closed"}
	ErrChampionshipClosed  = &ServiceError{Message: "championship tips are closed"}
	ErrUnknownField        = &ServiceError{Message: "unknown prediction field"}
	ErrSprintNotAvailable  = &ServiceError{Message: "sprint tips are only available on sprint weekends"}
	ErrUnknownDriver       = &ServiceError{Message: "unknown driver"}
	ErrUnknownConstructor  = &ServiceError{Message: "unknown constructor"}
	ErrNoSelections        = &ServiceError{Message: "no selections submitted"}
	ErrInvalidCutoff       = &ServiceError{Message: fmt.Sprintf("cutoff must be between 0 and %d minutes", maxCutoffMinutes)}
	ErrInvalidOverwrite    = &ServiceError{Message: "overwrite must be countAsCorrect, countAsIncorrect or empty"}
	ErrEmptyName           = &ServiceError{Message: "name is required"}
	ErrNameTaken           = &ServiceError{Message: "name is already taken in this group"}
	ErrInvalidSeason       = &ServiceError{Message: "season must be between 1950 and 2100"}
	ErrInvalidRound        = &ServiceError{Message: "round must be positive"}
	ErrBaseURLNotSet       = &ServiceError{Message: "base_url not configured"}
	ErrNoTablesSpecified   = &ServiceError{Message: "no tables specified"}
	ErrJoinCodeUnavailable = &ServiceError{Message: "could not allocate a unique join code"}
)

// ServiceError represents a service-level error
type ServiceError struct {
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// FieldClosedError is returned when a submission changes a field whose deadline has passed
type FieldClosedError struct {
	Field models.PredictionField
}

func (e *FieldClosedError) Error() string {
	return fmt.Sprintf("tips for %s are closed", e.Field)
}

// InvalidTableError represents an invalid table name error
type InvalidTableError struct {
	Table string
}

func (e *InvalidTableError) Error() string {
	return fmt.Sprintf("invalid table name: %s", e.Table)
}
