package marker

import (
	"fmt"
	"strings"

	"mrimark/internal/issues"
)

// SpacingPolicy selects how the 3D-T1 pass reads slice spacing.
type SpacingPolicy string

const (
	// SpacingLiteral relabels a volumetric T1 as 3DT1 whenever a spacing value
	// is present, whatever its magnitude, and as delete when it is missing.
	SpacingLiteral SpacingPolicy = "literal"
	// SpacingThinSlice requires the spacing to be present and below the
	// configured maximum; anything else becomes delete.
	SpacingThinSlice SpacingPolicy = "thin_slice"
)

// ParseSpacingPolicy validates a policy name. An empty name selects
// SpacingLiteral.
func ParseSpacingPolicy(name string) (SpacingPolicy, error) {
	switch SpacingPolicy(strings.ToLower(strings.TrimSpace(name))) {
	case "", SpacingLiteral:
		return SpacingLiteral, nil
	case SpacingThinSlice:
		return SpacingThinSlice, nil
	default:
		return "", issues.Wrap(issues.ErrConfiguration, "marker", "spacing policy", fmt.Sprintf("unsupported value %q (want %q or %q)", name, SpacingLiteral, SpacingThinSlice), nil)
	}
}

const (
	DefaultThreeDPattern    = `iso|MPRAGE|3D|MP-RAGE|BRAVO|0.55mm|MultiPlanar Reconstruction|MPRAGE-2_6`
	DefaultMaxSpacing       = 1.5
	DefaultPhasePattern     = `PHA`
	DefaultMagnitudePattern = `Mag_Images|FILT_MAG`
)

// Options configures the refinement passes.
type Options struct {
	ThreeDPattern string
	SpacingPolicy string
	MaxSpacing    float64

	PhasePattern string
	// Magnitude enables the SWI_Mag label. When false, magnitude images keep
	// the plain SWI label.
	Magnitude        bool
	MagnitudePattern string
}

// DefaultOptions returns the stock refinement settings.
func DefaultOptions() Options {
	return Options{
		ThreeDPattern:    DefaultThreeDPattern,
		SpacingPolicy:    string(SpacingLiteral),
		MaxSpacing:       DefaultMaxSpacing,
		PhasePattern:     DefaultPhasePattern,
		MagnitudePattern: DefaultMagnitudePattern,
	}
}
