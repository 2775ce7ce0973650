package dataset

// Record is a collection of variable values at a given geo location at a
// given time.
type Record struct {
	// Dimensions
	Timestamp int64 // unix milliseconds
	Latitude  float64
	Longitude float64

	// Values holds one value per variable, ordered like Scanner.Names.
	Values []float64
}
