package gps

import (
	"fmt"
	"math/rand"
)

// calculateChecksum XORs every byte of a sentence's content, the
// substring between '$' and '*' exclusive.
func calculateChecksum(content string) byte {
	var cs byte
	for i := 0; i < len(content); i++ {
		cs ^= content[i]
	}
	return cs
}

// encoder frames sentence content into complete NMEA lines and
// applies the checksum corruption draw.
type encoder struct {
	rng *rand.Rand
}

// frame renders "$<content>*<CS>\r\n". With probability errorRate/100
// the transmitted checksum is the true value plus one (mod 256); the
// off-by-one is deliberate and exact, never a random delta.
func (e *encoder) frame(content string, errorRate int) string {
	cs := calculateChecksum(content)
	if e.rng.Intn(100) < errorRate {
		cs++
	}
	return fmt.Sprintf("$%s*%02X\r\n", content, cs)
}

// generateGGA generates the GNGGA (fix data) sentence. Fix quality is
// 0 while signal loss is active, 1 otherwise.
func (s *Simulator) generateGGA(p Params) string {
	quality := 1
	if p.SignalLoss {
		quality = 0
	}
	content := fmt.Sprintf("GNGGA,%02d%02d%02d,%02d%02d.%04d,%c,%03d%02d.%04d,%c,%d,08,0.9,545.4,M,46.9,M,,",
		s.clock.Hour, s.clock.Minute, s.clock.Second,
		s.coords.Lat.Degrees, s.coords.Lat.MinutesInt, s.coords.Lat.MinutesFrac, s.coords.Lat.Hemisphere,
		s.coords.Lon.Degrees, s.coords.Lon.MinutesInt, s.coords.Lon.MinutesFrac, s.coords.Lon.Hemisphere,
		quality)
	return s.enc.frame(content, p.ErrorRate)
}

// generateRMC generates the GNRMC (recommended minimum) sentence with
// fixed speed, course and calendar date. Status is V while signal
// loss is active, A otherwise.
func (s *Simulator) generateRMC(p Params) string {
	status := byte('A')
	if p.SignalLoss {
		status = 'V'
	}
	content := fmt.Sprintf("GNRMC,%02d%02d%02d,%c,%02d%02d.%04d,%c,%03d%02d.%04d,%c,0.5,0.0,100226,,,A",
		s.clock.Hour, s.clock.Minute, s.clock.Second, status,
		s.coords.Lat.Degrees, s.coords.Lat.MinutesInt, s.coords.Lat.MinutesFrac, s.coords.Lat.Hemisphere,
		s.coords.Lon.Degrees, s.coords.Lon.MinutesInt, s.coords.Lon.MinutesFrac, s.coords.Lon.Hemisphere)
	return s.enc.frame(content, p.ErrorRate)
}

// generateGSA generates the GNGSA (DOP and active satellites)
// sentence. Fix type is 1 (none) while signal loss is active, 3 (3D)
// otherwise.
func (s *Simulator) generateGSA(p Params) string {
	fixType := 3
	if p.SignalLoss {
		fixType = 1
	}
	content := fmt.Sprintf("GNGSA,A,%d,01,03,06,12,17,28,,,,,,,1.5,1.0,1.2", fixType)
	return s.enc.frame(content, p.ErrorRate)
}

// generateGSV generates the two GNGSV (satellites in view) sentences
// covering the 8-satellite constellation, four per message. Each SNR
// is the satellite's base value plus uniform [0,5); signal loss
// zeroes every reported SNR without altering topology.
func (s *Simulator) generateGSV(p Params) []string {
	sats := Constellation()
	sentences := make([]string, 0, 2)

	for msg := 0; msg < 2; msg++ {
		content := fmt.Sprintf("GNGSV,2,%d,08", msg+1)
		for i := msg * 4; i < msg*4+4; i++ {
			snr := sats[i].SNR + s.enc.rng.Intn(5)
			if p.SignalLoss {
				snr = 0
			}
			content += fmt.Sprintf(",%02d,%02d,%03d,%02d",
				sats[i].PRN, sats[i].Elevation, sats[i].Azimuth, snr)
		}
		sentences = append(sentences, s.enc.frame(content, p.ErrorRate))
	}

	return sentences
}
