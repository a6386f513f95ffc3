package config

import "mrimark/internal/marker"

const (
	defaultStateDir      = "~/.local/share/mrimark"
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
	defaultRetentionDays = 30
	defaultLabelColumn   = "Label"
	defaultGapDays       = 180
	defaultHistoryFile   = "history.db"

	defaultIngestSubjectPattern = `^\d+\+[\p{L}\p{N}_]+`
	defaultSplitChar            = "+"
	defaultMinColumnFill        = 0.5

	defaultPlacementMode = PlacementModeAuto
	defaultIDPrefix      = "MAP"
	defaultUnlabeledDir  = "uncategorized"
)

// Placement modes.
const (
	PlacementModeAuto = "auto"
	PlacementModeCopy = "copy"
	PlacementModeMove = "move"
)

var defaultMatchFields = []string{"SeriesDescription", "ProtocolName", "Manufacturer", "SeriesInstanceUID"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultRetentionDays,
		},
		Table: Table{
			LabelColumn: defaultLabelColumn,
		},
		Refine: Refine{
			T1ThreeDPattern:     marker.DefaultThreeDPattern,
			T1ThreeDPolicy:      string(marker.SpacingLiteral),
			T1ThreeDMaxSpacing:  marker.DefaultMaxSpacing,
			SWIPhasePattern:     marker.DefaultPhasePattern,
			SWIMagnitudePattern: marker.DefaultMagnitudePattern,
		},
		Rounds: Rounds{
			GapDays: defaultGapDays,
		},
		Ingest: Ingest{
			SubjectPattern: defaultIngestSubjectPattern,
			SplitChar:      defaultSplitChar,
			MinColumnFill:  defaultMinColumnFill,
		},
		Placement: Placement{
			SubjectPattern: defaultIngestSubjectPattern,
			MatchFields:    append([]string(nil), defaultMatchFields...),
			Mode:           defaultPlacementMode,
			IDPrefix:       defaultIDPrefix,
			SkipDeleted:    true,
			UnlabeledDir:   defaultUnlabeledDir,
		},
		History: History{
			Enabled: true,
		},
	}
}
