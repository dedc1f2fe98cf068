package attendance

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrMissingFields is returned when a submission lacks a required field.
var ErrMissingFields = errors.New("surname, given name and dni are required")

// Store is the persistence surface the service needs.
type Store interface {
	Insert(ctx context.Context, rec Record) (Record, error)
	ListAll(ctx context.Context) ([]Record, error)
}

// Service coordinates attendance submissions and the read path.
type Service struct {
	store Store
}

// NewService creates a service backed by a store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Submit records attendance for a student in a class. Surnames are stored
// upper-cased and given names title-cased with Spanish casing rules. A
// second submission for the same (dni, class) on the same UTC calendar day
// returns ErrDuplicate.
func (s *Service) Submit(ctx context.Context, classID, surname, givenName, dni string, now time.Time) (Record, error) {
	classID = strings.TrimSpace(classID)
	surname = strings.TrimSpace(surname)
	givenName = strings.TrimSpace(givenName)
	dni = strings.TrimSpace(dni)
	if classID == "" || surname == "" || givenName == "" || dni == "" {
		return Record{}, ErrMissingFields
	}
	if now.IsZero() {
		now = time.Now()
	}

	rec := Record{
		ClassID:    classID,
		Surname:    strings.ToUpper(surname),
		GivenName:  cases.Title(language.Spanish).String(givenName),
		DNI:        dni,
		RecordedAt: now.UTC(),
	}
	return s.store.Insert(ctx, rec)
}

// ListAll returns every record, newest first.
func (s *Service) ListAll(ctx context.Context) ([]Record, error) {
	return s.store.ListAll(ctx)
}
