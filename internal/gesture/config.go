// Package gesture classifies stabilized hand landmarks into discrete gesture
// signals. Every classifier is stateless and reads only the landmarks of the
// current frame.
package gesture

// Config holds the calibrated classifier thresholds. Distances are in
// screen-space pixels.
type Config struct {
	FistTipRadius float64 `mapstructure:"fist_tip_radius"` // Tip to palm distance that counts as curled
	FistMinCurled int     `mapstructure:"fist_min_curled"` // Curled fingertips required for a fist

	PinchDistance      float64 `mapstructure:"pinch_distance"`       // Thumb to index tip distance below which the hand pinches
	PinchStrengthRange float64 `mapstructure:"pinch_strength_range"` // Distance at which pinch strength reaches 0
	PinchMinConfidence float64 `mapstructure:"pinch_min_confidence"` // Confidence above which an unseen tip is still usable

	PointIndexMinDist  float64 `mapstructure:"point_index_min_dist"`  // Index tip to palm distance for pointing
	PointCurledMaxDist float64 `mapstructure:"point_curled_max_dist"` // Other tips to palm distance for pointing
	PointStraightCos   float64 `mapstructure:"point_straight_cos"`    // Cosine at the index PIP below which the finger is straight
	PointExtrapolation float64 `mapstructure:"point_extrapolation"`   // MCP to tip lengths projected past the tip

	PalmWristMargin      float64 `mapstructure:"palm_wrist_margin"`       // Wrist below palm center
	PalmDepthTolerance   float64 `mapstructure:"palm_depth_tolerance"`    // Tips may sit this far behind the MCPs
	PalmFingerRiseMargin float64 `mapstructure:"palm_finger_rise_margin"` // Tip above MCP
	PalmTipMinDist       float64 `mapstructure:"palm_tip_min_dist"`       // Extended tip to palm distance
	PalmThumbMinDist     float64 `mapstructure:"palm_thumb_min_dist"`     // Extended thumb tip to palm distance
	PalmMCPLevelRange    float64 `mapstructure:"palm_mcp_level_range"`    // Max MCP y spread
	PalmMCPDepthRange    float64 `mapstructure:"palm_mcp_depth_range"`    // Max MCP z spread

	UpFistWristMargin   float64 `mapstructure:"up_fist_wrist_margin"`    // Wrist below mean MCP y
	UpFistMCPLevelRange float64 `mapstructure:"up_fist_mcp_level_range"` // Max MCP y spread
	UpFistThumbMaxDist  float64 `mapstructure:"up_fist_thumb_max_dist"`  // Tucked thumb tip to palm distance

	OpenHandTipMinDist  float64 `mapstructure:"open_hand_tip_min_dist"` // Tip to palm distance that counts as extended
	OpenHandMinExtended int     `mapstructure:"open_hand_min_extended"` // Extended fingertips required for an open hand
}

// DefaultConfig returns thresholds calibrated for typical webcam resolutions.
func DefaultConfig() Config {
	return Config{
		FistTipRadius: 80,
		FistMinCurled: 3,

		PinchDistance:      70,
		PinchStrengthRange: 160,
		PinchMinConfidence: 0.3,

		PointIndexMinDist:  100,
		PointCurledMaxDist: 90,
		PointStraightCos:   -0.3,
		PointExtrapolation: 2.0,

		PalmWristMargin:      20,
		PalmDepthTolerance:   25,
		PalmFingerRiseMargin: 20,
		PalmTipMinDist:       90,
		PalmThumbMinDist:     70,
		PalmMCPLevelRange:    50,
		PalmMCPDepthRange:    40,

		UpFistWristMargin:   20,
		UpFistMCPLevelRange: 60,
		UpFistThumbMaxDist:  100,

		OpenHandTipMinDist:  80,
		OpenHandMinExtended: 3,
	}
}
