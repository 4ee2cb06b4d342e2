package triage

import (
	"math"

	"github.com/mmcdole/picky/internal/domain"
)

// Gesture thresholds
const (
	SwipeThresholdRatio = 0.25 // Fraction of the card width a drag must cover
	VelocityThreshold   = 500  // Fling speed that commits regardless of distance
)

// Gesture is a completed drag: translation and release velocity.
// Y grows downward, so an upward swipe has negative DY.
type Gesture struct {
	DX, DY float64
	VX, VY float64
}

// ClassifyGesture maps a drag over a card of the given width to an outcome.
// Right is keep, left is trash, up is favorite. A horizontal swipe wins when
// it moved further sideways than vertically. ok is false when the gesture
// commits nothing and the card should snap back.
func ClassifyGesture(g Gesture, width float64) (outcome domain.Outcome, ok bool) {
	threshold := width * SwipeThresholdRatio

	horizontal := math.Abs(g.DX) > threshold || math.Abs(g.VX) > VelocityThreshold
	vertical := math.Abs(g.DY) > threshold || math.Abs(g.VY) > VelocityThreshold

	switch {
	case horizontal && math.Abs(g.DX) > math.Abs(g.DY):
		if g.DX > 0 {
			return domain.OutcomeKeep, true
		}
		return domain.OutcomeTrash, true
	case vertical && g.DY < 0:
		return domain.OutcomeFavorite, true
	default:
		return 0, false
	}
}
