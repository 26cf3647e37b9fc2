package render

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(h, m int) time.Time {
	return time.Date(2026, 10, 19, h, m, 0, 0, time.UTC)
}

func TestShortTime24AllClockValues(t *testing.T) {
	for h := 0; h < 24; h++ {
		for m := 0; m < 60; m++ {
			assert.Equal(t, fmt.Sprintf("%d:%02d", h, m), ShortTime(at(h, m), true))
		}
	}
}

func TestShortTime12(t *testing.T) {
	tests := []struct {
		h, m int
		want string
	}{
		{0, 0, "12am"},
		{0, 30, "12.30am"},
		{9, 0, "9am"},
		{9, 5, "9.05am"},
		{12, 0, "12pm"},
		{12, 45, "12.45pm"},
		{13, 0, "1pm"},
		{23, 59, "11.59pm"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ShortTime(at(tt.h, tt.m), false), "%02d:%02d", tt.h, tt.m)
	}
}
