// Package sequence issues the human-facing ticket numbers.
package sequence

import (
	"context"
	"fmt"
	"time"

	"github.com/Realwahba/support-tickets/internal/repository"
	apperrors "github.com/Realwahba/support-tickets/pkg/util"
)

const ticketNumberPrefix = "KC"

// Allocator produces year-scoped sequential ticket numbers of the form
// KC-2025-0001. Numbering restarts at 1 with the first ticket of a new year;
// sequences past 9999 simply widen the field.
type Allocator struct {
	counters repository.CounterRepository
	now      func() time.Time
}

// NewAllocator constructs an allocator backed by the persisted counter.
func NewAllocator(counters repository.CounterRepository) *Allocator {
	return &Allocator{counters: counters, now: time.Now}
}

// NewAllocatorWithClock allows tests to pin the calendar year.
func NewAllocatorWithClock(counters repository.CounterRepository, now func() time.Time) *Allocator {
	return &Allocator{counters: counters, now: now}
}

// Allocate returns the next ticket number. A counter failure means no number
// and therefore no ticket; the caller must abort.
func (a *Allocator) Allocate(ctx context.Context) (string, error) {
	year := a.now().Year()
	seq, err := a.counters.NextSequence(ctx, year)
	if err != nil {
		return "", apperrors.NewStorageUnavailable(err)
	}
	return Format(year, seq), nil
}

// Format renders a ticket number from its parts.
func Format(year, seq int) string {
	return fmt.Sprintf("%s-%d-%04d", ticketNumberPrefix, year, seq)
}
