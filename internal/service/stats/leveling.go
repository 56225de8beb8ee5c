package stats

import "math"

// Network leveling curve: level n costs base + (n-2)*growth/2 experience more
// than level n-1.
const (
	levelBase   = 10_000.0
	levelGrowth = 2_500.0

	halfGrowth      = 0.5 * levelGrowth
	reversePQPrefix = -(levelBase - 0.5*levelGrowth) / levelGrowth
	reverseConst    = reversePQPrefix * reversePQPrefix
	growthDivides2  = 2 / levelGrowth
)

// ExactLevel returns the fractional network level for total experience exp.
func ExactLevel(exp float64) float64 {
	return Level(exp) + percentageToNextLevel(exp)
}

// Level returns the whole network level reached with exp, at least 1.
func Level(exp float64) float64 {
	return math.Max(1, math.Floor(1+reversePQPrefix+math.Sqrt(reverseConst+growthDivides2*exp)))
}

// TotalExpToFullLevel is the experience needed to reach the start of level.
func TotalExpToFullLevel(level float64) float64 {
	return (halfGrowth*(level-2) + levelBase) * (level - 1)
}

func percentageToNextLevel(exp float64) float64 {
	lv := Level(exp)
	x0 := totalExpToLevel(lv)
	return (exp - x0) / (totalExpToLevel(lv+1) - x0)
}

func totalExpToLevel(level float64) float64 {
	lv := math.Floor(level)
	x0 := TotalExpToFullLevel(lv)
	if level == lv {
		return x0
	}
	return (TotalExpToFullLevel(lv+1)-x0)*math.Mod(level, 1) + x0
}
