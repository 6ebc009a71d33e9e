package chainage

import (
	"fmt"
	"math"
	"strconv"

	"github.com/sells-group/chainage-cli/internal/centreline"
)

// RoundThresholds are the round-number spacings flagged on each marker, in metres.
var RoundThresholds = [...]float64{2000, 1000, 500, 200, 100}

// roundEpsilonM is how close a position must be to a multiple to count as round.
const roundEpsilonM = 1e-6

// IsMultiple reports whether positionM is a multiple of step, within roundEpsilonM.
func IsMultiple(positionM, step float64) bool {
	if step <= 0 {
		return false
	}
	return math.Abs(positionM-math.Round(positionM/step)*step) < roundEpsilonM
}

// FormatLabel renders a chainage label such as "01S-0333/01.40-D". Ramps carry
// their ramp suffix ("R2") in place of the direction. Roads without metadata
// fall back to "<road_id>/<km>".
func FormatLabel(roadID int64, rn *centreline.Roadname, positionM float64) string {
	km := fmt.Sprintf("%05.2f", positionM/1000)
	if rn == nil {
		return strconv.FormatInt(roadID, 10) + "/" + km
	}

	suffix := rn.Direction
	if rn.IsRamp() {
		suffix = rn.RampSuffix()
	}

	label := rn.Route() + "-" + rn.ReferenceStation + "/" + km
	if suffix != "" {
		label += "-" + suffix
	}
	return label
}
