package stats

// Point is an (x, y) sample.
type Point struct {
	X, Y float64
}

// Line is y = Slope*x + Intercept.
type Line struct {
	Slope     float64
	Intercept float64
}

// At evaluates the line at x.
func (l Line) At(x float64) float64 { return l.Slope*x + l.Intercept }

// LinearRegression fits an ordinary least squares line through points.
// It reports false for fewer than two points or when every x is equal.
func LinearRegression(points []Point) (Line, bool) {
	n := float64(len(points))
	if len(points) < 2 {
		return Line{}, false
	}

	var sumX, sumY, sumXY, sumXX float64
	for _, p := range points {
		sumX += p.X
		sumY += p.Y
		sumXY += p.X * p.Y
		sumXX += p.X * p.X
	}

	den := n*sumXX - sumX*sumX
	if den == 0 {
		return Line{}, false
	}
	slope := (n*sumXY - sumX*sumY) / den
	intercept := (sumY - slope*sumX) / n
	return Line{Slope: slope, Intercept: intercept}, true
}
