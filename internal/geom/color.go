package geom

import "math/rand"

// Color is per-agent display data. Nothing in this repo renders it; it is
// carried as plain state so logging/config fields that reference "per-agent
// fields generically" have something concrete to point at.
type Color struct {
	R, G, B uint8
}

// RandomColor draws a uniformly random opaque color from rng.
func RandomColor(rng *rand.Rand) Color {
	return Color{
		R: uint8(rng.Intn(256)),
		G: uint8(rng.Intn(256)),
		B: uint8(rng.Intn(256)),
	}
}

// FixedColor is the non-random fallback used when an agent's configuration
// disables random color assignment.
func FixedColor() Color {
	return Color{R: 128, G: 128, B: 128}
}
