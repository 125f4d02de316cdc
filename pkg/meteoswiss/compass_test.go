package meteoswiss

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompassDirection(t *testing.T) {
	cases := []struct {
		degrees float64
		want    string
	}{
		{0, "N"},
		{11.25, "N"},
		{22.5, "NNE"},
		{45, "NE"},
		{90, "E"},
		{135, "SE"},
		{180, "S"},
		{225, "SW"},
		{270, "W"},
		{315, "NW"},
		{348.75, "NNW"},
		// The wrap segment above NNW and the 360 edge both fall back to N.
		{350, "N"},
		{359.9, "N"},
		{360, "N"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, CompassDirection(tc.degrees), "degrees=%v", tc.degrees)
	}
}
