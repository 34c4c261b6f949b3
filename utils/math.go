package utils

// Square returns n * n. math.Pow is slow for this, this is faster.
func Square(n float64) float64 {
	return n * n
}
