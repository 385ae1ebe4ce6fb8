package sequence

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Realwahba/support-tickets/pkg/util"
)

// fakeCounter mimics the single-row persisted counter.
type fakeCounter struct {
	lastSequence int
	lastYear     int
	err          error
}

func (c *fakeCounter) NextSequence(_ context.Context, year int) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	if year != c.lastYear {
		c.lastYear = year
		c.lastSequence = 0
	}
	c.lastSequence++
	return c.lastSequence, nil
}

func fixedClock(year int) func() time.Time {
	return func() time.Time {
		return time.Date(year, time.March, 14, 12, 0, 0, 0, time.UTC)
	}
}

func TestAllocateSequenceWithinYear(t *testing.T) {
	counter := &fakeCounter{lastYear: 2025}
	alloc := NewAllocatorWithClock(counter, fixedClock(2025))

	for i := 1; i <= 12; i++ {
		num, err := alloc.Allocate(context.Background())
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("KC-2025-%04d", i), num)
	}
}

func TestAllocateYearRollover(t *testing.T) {
	counter := &fakeCounter{lastYear: 2025}
	alloc := NewAllocatorWithClock(counter, fixedClock(2025))

	num, err := alloc.Allocate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "KC-2025-0001", num)

	alloc = NewAllocatorWithClock(counter, fixedClock(2026))
	num, err = alloc.Allocate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "KC-2026-0001", num)
}

func TestAllocateWideSequence(t *testing.T) {
	counter := &fakeCounter{lastYear: 2025, lastSequence: 9999}
	alloc := NewAllocatorWithClock(counter, fixedClock(2025))

	num, err := alloc.Allocate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "KC-2025-10000", num)
}

func TestAllocateStorageFailure(t *testing.T) {
	counter := &fakeCounter{err: errors.New("connection refused")}
	alloc := NewAllocatorWithClock(counter, fixedClock(2025))

	num, err := alloc.Allocate(context.Background())
	assert.Empty(t, num)
	require.Error(t, err)

	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, apperrors.CodeStorageUnavailable, domainErr.Code)
}
