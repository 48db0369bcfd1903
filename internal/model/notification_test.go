package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus_RankOrdering(t *testing.T) {
	// the live lifecycle only ever moves up in rank
	lifecycle := []Status{StatusPending, StatusSending, StatusSent, StatusDelivered, StatusRead}
	for i := 1; i < len(lifecycle); i++ {
		assert.Greater(t, lifecycle[i].Rank(), lifecycle[i-1].Rank(),
			"%s must outrank %s", lifecycle[i], lifecycle[i-1])
	}

	assert.Equal(t, StatusPending.Rank(), StatusScheduled.Rank())
	assert.Equal(t, StatusError.Rank(), StatusCancelled.Rank())

	// a failure outranks every live state, so a late "delivered" receipt
	// can never resurrect a failed notification
	assert.Greater(t, StatusError.Rank(), StatusRead.Rank())

	assert.Equal(t, -1, Status("BOGUS").Rank())
}

func TestStatus_Terminal(t *testing.T) {
	for _, s := range []Status{StatusRead, StatusError, StatusCancelled} {
		assert.True(t, s.Terminal(), "%s should be terminal", s)
	}
	for _, s := range []Status{StatusPending, StatusScheduled, StatusSending, StatusSent, StatusDelivered} {
		assert.False(t, s.Terminal(), "%s should not be terminal", s)
	}
}
