package gps

import (
	"encoding/xml"
	"fmt"
	"os"
	"time"
)

// GPX is the root GPX document structure
type GPX struct {
	XMLName xml.Name `xml:"gpx"`
	Version string   `xml:"version,attr"`
	Creator string   `xml:"creator,attr"`
	Xmlns   string   `xml:"xmlns,attr"`
	Track   Track    `xml:"trk"`
}

// Track represents a GPX track
type Track struct {
	Name         string       `xml:"name"`
	TrackSegment TrackSegment `xml:"trkseg"`
}

// TrackSegment represents a segment of a GPX track
type TrackSegment struct {
	TrackPoints []TrackPoint `xml:"trkpt"`
}

// TrackPoint represents a single point of a GPX track
type TrackPoint struct {
	Lat       float64   `xml:"lat,attr"`
	Lon       float64   `xml:"lon,attr"`
	Elevation float64   `xml:"ele"`
	Time      time.Time `xml:"time"`
}

// GPXWriter records transmitted fixes to a GPX file, one track point
// per tick.
type GPXWriter struct {
	filename string
	gpx      *GPX
	file     *os.File
}

// NewGPXWriter creates a GPX writer backed by filename.
func NewGPXWriter(filename string) (*GPXWriter, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create GPX file %s: %w", filename, err)
	}

	return &GPXWriter{
		filename: filename,
		file:     file,
		gpx: &GPX{
			Version: "1.1",
			Creator: "gps-sim",
			Xmlns:   "http://www.topografix.com/GPX/1/1",
			Track: Track{
				Name: "Simulated GPS Track",
			},
		},
	}, nil
}

// AddTrackPoint appends a track point.
func (w *GPXWriter) AddTrackPoint(lat, lon, elevation float64, timestamp time.Time) {
	w.gpx.Track.TrackSegment.TrackPoints = append(w.gpx.Track.TrackSegment.TrackPoints, TrackPoint{
		Lat:       lat,
		Lon:       lon,
		Elevation: elevation,
		Time:      timestamp.UTC(),
	})
}

// TrackPointCount returns the number of recorded track points.
func (w *GPXWriter) TrackPointCount() int {
	return len(w.gpx.Track.TrackSegment.TrackPoints)
}

// WriteToFile rewrites the file with the current track.
func (w *GPXWriter) WriteToFile() error {
	if _, err := w.file.Seek(0, 0); err != nil {
		return fmt.Errorf("seek GPX file: %w", err)
	}
	if err := w.file.Truncate(0); err != nil {
		return fmt.Errorf("truncate GPX file: %w", err)
	}
	if _, err := w.file.WriteString(xml.Header); err != nil {
		return fmt.Errorf("write GPX header: %w", err)
	}

	enc := xml.NewEncoder(w.file)
	enc.Indent("", "  ")
	if err := enc.Encode(w.gpx); err != nil {
		return fmt.Errorf("encode GPX data: %w", err)
	}
	return w.file.Sync()
}

// Close writes any pending points and closes the file.
func (w *GPXWriter) Close() error {
	if w.file == nil {
		return nil
	}
	if err := w.WriteToFile(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}

// ReadGPXFile parses a GPX file and returns its track points.
func ReadGPXFile(filename string) ([]TrackPoint, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open GPX file %s: %w", filename, err)
	}
	defer file.Close()

	var gpx GPX
	if err := xml.NewDecoder(file).Decode(&gpx); err != nil {
		return nil, fmt.Errorf("parse GPX file %s: %w", filename, err)
	}

	points := gpx.Track.TrackSegment.TrackPoints
	if len(points) == 0 {
		return nil, fmt.Errorf("no track points found in GPX file %s", filename)
	}
	return points, nil
}
