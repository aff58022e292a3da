package output

import "math"

// ClampLevel clamps a volume level to 0.0-1.0.
func ClampLevel(level float64) float64 {
	if level < 0 {
		return 0
	}
	if level > 1 {
		return 1
	}
	return level
}

// LevelToVolume converts a 0.0-1.0 level to beep's base-2 volume value.
// 1.0 -> 0, 0.5 -> -1, 0.25 -> -2, 0 -> -10 (essentially silent).
func LevelToVolume(level float64) float64 {
	if level <= 0 {
		return -10
	}
	if level >= 1 {
		return 0
	}
	return math.Log2(level)
}

// LevelToGain converts a 0.0-1.0 level to a linear sample multiplier.
// beep's base-2 volume of LevelToVolume(level) scales amplitude by the same
// factor, so both backends sound alike.
func LevelToGain(level float64) float32 {
	return float32(ClampLevel(level))
}
