package gps

// Satellite is one entry of the simulated constellation.
type Satellite struct {
	PRN       int
	Elevation int // degrees above horizon
	Azimuth   int // degrees from north
	SNR       int // base signal-to-noise ratio, dB
}

// constellation is the fixed set of 8 simulated satellites. Immutable
// for the process lifetime; the first six PRNs are reported as active
// in GSA sentences.
var constellation = [8]Satellite{
	{PRN: 1, Elevation: 45, Azimuth: 120, SNR: 30},
	{PRN: 3, Elevation: 60, Azimuth: 210, SNR: 35},
	{PRN: 6, Elevation: 30, Azimuth: 45, SNR: 25},
	{PRN: 9, Elevation: 15, Azimuth: 300, SNR: 20},
	{PRN: 12, Elevation: 70, Azimuth: 180, SNR: 40},
	{PRN: 17, Elevation: 25, Azimuth: 90, SNR: 28},
	{PRN: 22, Elevation: 10, Azimuth: 270, SNR: 15},
	{PRN: 28, Elevation: 50, Azimuth: 330, SNR: 32},
}

// Constellation returns a copy of the satellite table.
func Constellation() []Satellite {
	sats := constellation
	return sats[:]
}
