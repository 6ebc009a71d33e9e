package chainage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/chainage-cli/internal/centreline"
)

func TestFormatLabel(t *testing.T) {
	mainline := &centreline.Roadname{RouteNumber: "01", RouteSuffix: "S", ReferenceStation: "0333", Direction: "D"}
	ramp := &centreline.Roadname{RouteNumber: "01", RouteSuffix: "S", ReferenceStation: "0333", Direction: "I", ElementType: "RP", RampNumber: "2"}

	tests := []struct {
		name string
		rn   *centreline.Roadname
		pos  float64
		want string
	}{
		{"start of section", mainline, 1400.3, "01S-0333/01.40-D"},
		{"round km", mainline, 2000, "01S-0333/02.00-D"},
		{"end of section", mainline, 4130, "01S-0333/04.13-D"},
		{"double digit km", mainline, 12340, "01S-0333/12.34-D"},
		{"ramp replaces direction", ramp, 250, "01S-0333/00.25-R2"},
		{"no metadata", nil, 300, "77/00.30"},
		{"no direction", &centreline.Roadname{RouteNumber: "73", ReferenceStation: "0010"}, 0, "73-0010/00.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatLabel(77, tt.rn, tt.pos))
		})
	}
}

func TestIsMultiple(t *testing.T) {
	assert.True(t, IsMultiple(0, 100))
	assert.True(t, IsMultiple(2000, 2000))
	assert.True(t, IsMultiple(3000, 1000))
	assert.False(t, IsMultiple(3000, 2000))
	assert.False(t, IsMultiple(1400.3, 100))
	assert.True(t, IsMultiple(1400+1e-9, 200))
	assert.False(t, IsMultiple(100, 0))
}
