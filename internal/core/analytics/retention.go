package analytics

import "github.com/shopspring/decimal"

const rateScale = 4

// DensifyRetention turns sparse (zero-based window index → active users) counts
// into the full 1-indexed window list and fills in retention rates.
// Indexes outside [0, windows) are ignored.
func DensifyRetention(counts map[int]int64, windows int) []RetentionWindow {
	out := make([]RetentionWindow, windows)
	for i := 0; i < windows; i++ {
		out[i] = RetentionWindow{Window: i + 1, ActiveUsers: counts[i]}
	}
	applyRates(out)
	return out
}

// applyRates sets each window's rate relative to the first window.
// A zero first window yields zero rates rather than a division error.
func applyRates(windows []RetentionWindow) {
	if len(windows) == 0 {
		return
	}
	base := decimal.NewFromInt(windows[0].ActiveUsers)
	for i := range windows {
		if base.IsZero() {
			windows[i].Rate = decimal.Zero
			continue
		}
		windows[i].Rate = decimal.NewFromInt(windows[i].ActiveUsers).DivRound(base, rateScale)
	}
}
