package track

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/alexjbarnes/activity-sync/internal/models"
)

const (
	gpxNamespace      = "http://www.topografix.com/GPX/1/1"
	gpxSchemaLocation = "http://www.topografix.com/GPX/1/1 http://www.topografix.com/GPX/1/1/gpx.xsd"
	gpxCreator        = "http://strava.com/"
	activityLinkBase  = "https://www.strava.com/api/v3/activities/"
)

type gpxDoc struct {
	XMLName        xml.Name    `xml:"http://www.topografix.com/GPX/1/1 gpx"`
	XSI            string      `xml:"xmlns:xsi,attr"`
	SchemaLocation string      `xml:"xsi:schemaLocation,attr"`
	Version        string      `xml:"version,attr"`
	Creator        string      `xml:"creator,attr"`
	Metadata       gpxMetadata `xml:"metadata"`
	Track          gpxTrack    `xml:"trk"`
}

type gpxMetadata struct {
	Name string  `xml:"name"`
	Link gpxLink `xml:"link"`
}

type gpxLink struct {
	Href string `xml:"href,attr"`
	Text string `xml:"text"`
}

type gpxTrack struct {
	Name    string     `xml:"name"`
	Segment gpxSegment `xml:"trkseg"`
}

type gpxSegment struct {
	Points []gpxPoint `xml:"trkpt"`
}

type gpxPoint struct {
	Lat  float64 `xml:"lat,attr"`
	Lon  float64 `xml:"lon,attr"`
	Ele  string  `xml:"ele"`
	Time string  `xml:"time"`
}

// Encode writes the stream of activity a as a GPX 1.1 document. Point
// times are the activity start plus the stream offsets.
func Encode(w io.Writer, a *models.Activity, s *models.Stream) error {
	if len(s.LatLng) != len(s.Time) || len(s.Time) != len(s.Altitude) {
		return fmt.Errorf("activity %d: streams have different lengths (latlng %d, time %d, altitude %d)",
			a.ID, len(s.LatLng), len(s.Time), len(s.Altitude))
	}

	start := a.StartTime()
	if start.IsZero() {
		return fmt.Errorf("activity %d: invalid start date %q", a.ID, a.StartDate)
	}

	name := norm.NFC.String(a.Name)

	doc := gpxDoc{
		XSI:            "http://www.w3.org/2001/XMLSchema-instance",
		SchemaLocation: gpxSchemaLocation,
		Version:        "1.1",
		Creator:        gpxCreator,
		Metadata: gpxMetadata{
			Name: name,
			Link: gpxLink{Href: activityLinkBase + strconv.FormatInt(a.ID, 10), Text: name},
		},
		Track: gpxTrack{Name: name},
	}

	doc.Track.Segment.Points = make([]gpxPoint, len(s.LatLng))
	for i, p := range s.LatLng {
		doc.Track.Segment.Points[i] = gpxPoint{
			Lat:  p[0],
			Lon:  p[1],
			Ele:  strconv.FormatFloat(s.Altitude[i], 'f', -1, 64),
			Time: start.Add(time.Duration(s.Time[i]) * time.Second).Format(time.RFC3339),
		}
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")

	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding gpx: %w", err)
	}

	_, err := io.WriteString(w, "\n")

	return err
}

type gpxReadDoc struct {
	Points []gpxPoint `xml:"trk>trkseg>trkpt"`
}

// Decode reads the first track segment of a GPX document. Time offsets
// are relative to the first timed point.
func Decode(r io.Reader) (*models.Stream, error) {
	var doc gpxReadDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding gpx: %w", err)
	}

	s := &models.Stream{
		LatLng:   make([][2]float64, 0, len(doc.Points)),
		Altitude: make([]float64, 0, len(doc.Points)),
		Time:     make([]int64, 0, len(doc.Points)),
	}

	var first time.Time

	for _, p := range doc.Points {
		s.LatLng = append(s.LatLng, [2]float64{p.Lat, p.Lon})

		ele, err := strconv.ParseFloat(p.Ele, 64)
		if err != nil {
			ele = 0
		}

		s.Altitude = append(s.Altitude, ele)

		if p.Time == "" {
			continue
		}

		t, err := time.Parse(time.RFC3339, p.Time)
		if err != nil {
			return nil, fmt.Errorf("decoding gpx: point time %q: %w", p.Time, err)
		}

		if first.IsZero() {
			first = t
		}

		s.Time = append(s.Time, int64(t.Sub(first)/time.Second))
	}

	return s, nil
}
