package geo

import "math"

// EarthRadius is the WGS84 semi-major axis used by EPSG:3857.
const EarthRadius = 6378137.0

// MaxMercatorLat is the latitude where Web Mercator is clipped.
const MaxMercatorLat = 85.05112878

// FromLonLat projects WGS84 degrees into EPSG:3857 meters.
func FromLonLat(lon, lat float64) (x, y float64) {
	if lat > MaxMercatorLat {
		lat = MaxMercatorLat
	} else if lat < -MaxMercatorLat {
		lat = -MaxMercatorLat
	}

	x = EarthRadius * lon * math.Pi / 180
	y = EarthRadius * math.Log(math.Tan(math.Pi/4+lat*math.Pi/360))
	return x, y
}

// ToLonLat converts EPSG:3857 meters back to WGS84 degrees.
// The longitude is not wrapped; see NormalizeLon.
func ToLonLat(x, y float64) (lon, lat float64) {
	lon = x / EarthRadius * 180 / math.Pi

	// Inverse Mercator projection
	latRad := 2*math.Atan(math.Exp(y/EarthRadius)) - math.Pi/2
	lat = latRad * 180 / math.Pi

	if lat > MaxMercatorLat {
		lat = MaxMercatorLat
	} else if lat < -MaxMercatorLat {
		lat = -MaxMercatorLat
	}
	return lon, lat
}
