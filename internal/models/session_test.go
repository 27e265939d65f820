package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestUninit_StartsInUninitPhase(t *testing.T) {
	s := Uninit()
	assert.Equal(t, PhaseUninit, s.Phase)
	assert.Equal(t, uuid.Nil, s.ChatmateID)
	assert.Zero(t, s.RemainingCredit)
}

func TestInit_CarriesChatmateAndCredit(t *testing.T) {
	id := uuid.New()
	s := Init(id, 5)

	assert.Equal(t, PhaseInit, s.Phase)
	assert.Equal(t, id, s.ChatmateID)
	assert.Equal(t, 5, s.RemainingCredit)
}

func TestSpendOne_DecrementsUntilZero(t *testing.T) {
	s := Init(uuid.New(), 2)

	s = s.SpendOne()
	assert.Equal(t, 1, s.RemainingCredit)

	s = s.SpendOne()
	assert.Equal(t, 0, s.RemainingCredit)

	s = s.SpendOne()
	assert.Equal(t, 0, s.RemainingCredit, "spending at zero credit must saturate, not go negative")
}
