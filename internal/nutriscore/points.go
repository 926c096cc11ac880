package nutriscore

// Points returns the index of the first breakpoint that value does not
// exceed, or len(breakpoints) when value is above all of them.
func Points(value float64, breakpoints []float64) int {
	for i, bp := range breakpoints {
		if value <= bp {
			return i
		}
	}
	return len(breakpoints)
}
