package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEntityList(t *testing.T) {
	raw := "- anemia\n* iron deficiency\n1. pregnant women\n2) aspirin\n\"sepsis\"\n\n   \n"
	entities := ParseEntityList(raw)
	assert.Equal(t, []string{"anemia", "iron deficiency", "pregnant women", "aspirin", "sepsis"}, entities)
}

func TestParseEntityListPlainLines(t *testing.T) {
	entities := ParseEntityList("headache\nmigraine")
	assert.Equal(t, []string{"headache", "migraine"}, entities)
}

func TestParseEntityListEmpty(t *testing.T) {
	assert.Nil(t, ParseEntityList(""))
	assert.Nil(t, ParseEntityList("\n\n  \n"))
}

func TestTrimListNumber(t *testing.T) {
	assert.Equal(t, "aspirin", trimListNumber("1. aspirin"))
	assert.Equal(t, "aspirin", trimListNumber("12) aspirin"))
	assert.Equal(t, "aspirin", trimListNumber("aspirin"))
	// A bare number is not a list marker.
	assert.Equal(t, "42", trimListNumber("42"))
	// Digits followed by other text stay intact.
	assert.Equal(t, "5mg dose", trimListNumber("5mg dose"))
}
