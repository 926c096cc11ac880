package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSaturatesOverTotalFat(t *testing.T) {
	tests := []struct {
		name         string
		saturatedFat float64
		totalFat     float64
		want         float64
	}{
		{"quarter saturated", 4, 16, 25},
		{"all saturated", 10, 10, 100},
		{"no saturates", 0, 12, 0},
		{"no fat", 0, 0, 0},
		{"saturates without total", 3, 0, 0},
		{"negative total", 5, -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, SaturatesOverTotalFat(tt.saturatedFat, tt.totalFat), 1e-9)
		})
	}
}

func TestParseFoodType(t *testing.T) {
	ft, err := ParseFoodType("")
	assert.NoError(t, err)
	assert.Equal(t, GeneralFood, ft)

	ft, err = ParseFoodType("cheese")
	assert.NoError(t, err)
	assert.Equal(t, Cheese, ft)

	_, err = ParseFoodType("snack")
	assert.Error(t, err)
}
