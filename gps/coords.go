package gps

import "math/rand"

// Coordinate is one axis of the transmitted position in NMEA
// degrees/minutes form. MinutesFrac holds four decimal digits of
// arc-minutes (0-9999).
type Coordinate struct {
	Degrees     int
	MinutesInt  int
	MinutesFrac int
	Hemisphere  byte
}

// Decimal returns the coordinate as signed decimal degrees.
func (c Coordinate) Decimal() float64 {
	deg := float64(c.Degrees) + (float64(c.MinutesInt)+float64(c.MinutesFrac)/10000)/60
	if c.Hemisphere == 'S' || c.Hemisphere == 'W' {
		deg = -deg
	}
	return deg
}

// CoordinateModel derives the transmitted position from the live
// parameters and perturbs it with simulated measurement noise. Owned
// exclusively by the tick loop.
type CoordinateModel struct {
	rng *rand.Rand
	Lat Coordinate
	Lon Coordinate
}

// NewCoordinateModel creates a model drawing jitter from rng.
func NewCoordinateModel(rng *rand.Rand) *CoordinateModel {
	return &CoordinateModel{rng: rng}
}

// Update re-derives both axes from the parameter snapshot, so a
// parameter change takes effect on the next tick, then applies an
// independent jitter draw per axis. Hemisphere follows the live sign,
// so relocating across hemispheres needs no restart.
func (m *CoordinateModel) Update(p Params) {
	m.Lat = deriveCoordinate(p.StartLat, 'S', 'N')
	m.Lon = deriveCoordinate(p.StartLon, 'W', 'E')
	m.jitter(&m.Lat)
	m.jitter(&m.Lon)
}

// deriveCoordinate converts micro-degrees to degrees, integer
// arc-minutes and four decimal digits of arc-minutes.
func deriveCoordinate(micro int, neg, pos byte) Coordinate {
	abs := micro
	hemi := pos
	if micro < 0 {
		abs = -micro
		hemi = neg
	}
	minPart := (abs % 1000000) * 60
	return Coordinate{
		Degrees:     abs / 1000000,
		MinutesInt:  minPart / 1000000,
		MinutesFrac: (minPart % 1000000) / 100,
		Hemisphere:  hemi,
	}
}

// jitter adds or subtracts a uniform [0,20) amount to the minute
// fraction and clamps it back into [0,9999].
func (m *CoordinateModel) jitter(c *Coordinate) {
	j := m.rng.Intn(20)
	if m.rng.Intn(2) == 1 {
		c.MinutesFrac += j
	} else {
		c.MinutesFrac -= j
	}
	if c.MinutesFrac < 0 {
		c.MinutesFrac = 0
	}
	if c.MinutesFrac > 9999 {
		c.MinutesFrac = 9999
	}
}
