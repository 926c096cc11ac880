package scoring

// Finalize subtracts the additive penalty and, for non-organic products,
// the non-organic penalty from the scaled score. The result is floored at 0.
func Finalize(scaled, additivePenalty int, organic bool, nonOrganicPenalty int) int {
	final := scaled - additivePenalty
	if !organic {
		final -= nonOrganicPenalty
	}
	return max(final, 0)
}
