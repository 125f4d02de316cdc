package meteoswiss

// compassBuckets maps bearing ranges to the 16 compass labels. The N bucket
// wraps across 0/360; anything not matched below (348.75, 360]) falls back
// to "N".
var compassBuckets = []struct {
	label    string
	min, max float64
}{
	{"N", 0, 11.25},
	{"NNE", 11.25, 33.75},
	{"NE", 33.75, 56.25},
	{"ENE", 56.25, 78.75},
	{"E", 78.75, 101.25},
	{"ESE", 101.25, 123.75},
	{"SE", 123.75, 146.25},
	{"SSE", 146.25, 168.75},
	{"S", 168.75, 191.25},
	{"SSW", 191.25, 213.75},
	{"SW", 213.75, 236.25},
	{"WSW", 236.25, 258.75},
	{"W", 258.75, 281.25},
	{"WNW", 281.25, 303.75},
	{"NW", 303.75, 326.25},
	{"NNW", 326.25, 348.75},
}

// CompassDirection maps a wind bearing in degrees to one of the 16 compass
// direction labels.
func CompassDirection(degrees float64) string {
	for _, b := range compassBuckets {
		if degrees >= b.min && degrees <= b.max {
			return b.label
		}
	}
	return "N"
}
