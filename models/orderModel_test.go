package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCanTransition(t *testing.T) {
	legal := []struct{ from, to string }{
		{StatusPlaced, StatusAccepted},
		{StatusPlaced, StatusCancelled},
		{StatusAccepted, StatusPreparing},
		{StatusAccepted, StatusReady},
		{StatusAccepted, StatusCancelled},
		{StatusPreparing, StatusReady},
		{StatusReady, StatusDelivered},
	}
	for _, tc := range legal {
		assert.True(t, CanTransition(tc.from, tc.to), "%s -> %s should be legal", tc.from, tc.to)
	}

	illegal := []struct{ from, to string }{
		{StatusPlaced, StatusReady},
		{StatusPlaced, StatusDelivered},
		{StatusReady, StatusCancelled},
		{StatusDelivered, StatusCancelled},
		{StatusCancelled, StatusAccepted},
		{StatusDelivered, StatusPlaced},
		{StatusAccepted, StatusPlaced},
	}
	for _, tc := range illegal {
		assert.False(t, CanTransition(tc.from, tc.to), "%s -> %s should be illegal", tc.from, tc.to)
	}
}

func TestTerminalStatusesAdmitNothing(t *testing.T) {
	for _, terminal := range []string{StatusDelivered, StatusCancelled} {
		assert.True(t, IsTerminal(terminal))
		for _, to := range []string{StatusPlaced, StatusAccepted, StatusPreparing, StatusReady, StatusDelivered, StatusCancelled} {
			assert.False(t, CanTransition(terminal, to), "%s -> %s", terminal, to)
		}
	}
	assert.False(t, IsTerminal(StatusPlaced))
	assert.False(t, IsTerminal(StatusReady))
}

func TestStatusesLeadingTo(t *testing.T) {
	assert.ElementsMatch(t, []string{StatusPlaced, StatusAccepted}, StatusesLeadingTo(StatusCancelled))
	assert.ElementsMatch(t, []string{StatusAccepted, StatusPreparing}, StatusesLeadingTo(StatusReady))
	assert.ElementsMatch(t, []string{StatusPlaced}, StatusesLeadingTo(StatusAccepted))
	assert.ElementsMatch(t, []string{StatusReady}, StatusesLeadingTo(StatusDelivered))
	assert.Empty(t, StatusesLeadingTo(StatusPlaced))
}

func TestValidSize(t *testing.T) {
	for _, size := range []string{"Small", "Medium", "Large", "Regular"} {
		assert.True(t, ValidSize(size), size)
	}
	for _, size := range []string{"", "XXL", "small", "regular"} {
		assert.False(t, ValidSize(size), "%q is outside the accepted set", size)
	}
}

func TestShortOrderID(t *testing.T) {
	id, err := primitive.ObjectIDFromHex("65f1c2d3e4a5b6c7d8e9fa0b")
	assert.NoError(t, err)
	assert.Equal(t, "e9fa0b", ShortOrderID(id))
	assert.Equal(t, "e9fa0b", Order{ID: id}.ShortID())
}
