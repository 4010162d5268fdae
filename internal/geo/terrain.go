package geo

import "math"

// Hills returns a rolling height function around base. A zero wavelength
// gives flat ground.
func Hills(base, amplitude, wavelength float64) func(x, y float64) float64 {
	if wavelength <= 0 || amplitude == 0 {
		return func(float64, float64) float64 { return base }
	}
	k := 2 * math.Pi / wavelength
	return func(x, y float64) float64 {
		return base + amplitude*math.Sin(k*x)*math.Cos(k*y*0.7)
	}
}
