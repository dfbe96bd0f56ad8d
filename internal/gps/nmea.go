package gps

import (
	"math"
	"strconv"
	"strings"

	"github.com/sightline-labs/sightline/internal/geo"
)

// ParseSentence extracts a coordinate from a GPGGA or GPRMC sentence.
// Sentences without a fix (empty coordinate fields, RMC status "V")
// yield ok=false.
func ParseSentence(sentence string) (geo.Coordinate, bool) {
	sentence = strings.TrimSpace(sentence)
	fields := strings.Split(sentence, ",")

	switch {
	case strings.HasPrefix(sentence, "$GPGGA"):
		if len(fields) < 6 {
			return geo.Coordinate{}, false
		}
		return parseLatLon(fields[2], fields[3], fields[4], fields[5])

	case strings.HasPrefix(sentence, "$GPRMC"):
		if len(fields) < 7 {
			return geo.Coordinate{}, false
		}
		if fields[2] != "A" {
			return geo.Coordinate{}, false
		}
		return parseLatLon(fields[3], fields[4], fields[5], fields[6])
	}

	return geo.Coordinate{}, false
}

func parseLatLon(latRaw, latDir, lonRaw, lonDir string) (geo.Coordinate, bool) {
	lat, ok := toDegrees(latRaw, latDir)
	if !ok {
		return geo.Coordinate{}, false
	}
	lon, ok := toDegrees(lonRaw, lonDir)
	if !ok {
		return geo.Coordinate{}, false
	}
	return geo.Coordinate{Lat: lat, Lon: lon}, true
}

// toDegrees converts NMEA DDMM.MMMM (or DDDMM.MMMM for longitude)
// plus a hemisphere letter to signed decimal degrees.
func toDegrees(raw, dir string) (float64, bool) {
	if raw == "" || dir == "" {
		return 0, false
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}

	degrees := math.Floor(value / 100)
	minutes := value - degrees*100
	if minutes >= 60 {
		return 0, false
	}

	dd := degrees + minutes/60
	switch dir {
	case "S", "W":
		dd = -dd
	case "N", "E":
	default:
		return 0, false
	}
	return dd, true
}
