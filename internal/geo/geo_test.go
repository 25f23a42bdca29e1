package geo

import (
	"math"
	"testing"
)

func TestValidateCoordinates(t *testing.T) {
	tests := []struct {
		name    string
		lat     float64
		lon     float64
		wantErr bool
	}{
		{name: "tehran", lat: 35.6892, lon: 51.3890},
		{name: "poles and antimeridian", lat: -90, lon: 180},
		{name: "lat too high", lat: 90.1, lon: 0, wantErr: true},
		{name: "lon too low", lat: 0, lon: -180.5, wantErr: true},
		{name: "nan", lat: math.NaN(), lon: 0, wantErr: true},
		{name: "inf", lat: 0, lon: math.Inf(1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCoordinates(tt.lat, tt.lon)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateCoordinates(%v, %v) error = %v, wantErr %v", tt.lat, tt.lon, err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeLon(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{in: 51.389, want: 51.389},
		{in: 180, want: 180},
		{in: 411.389, want: 51.389},
		{in: -308.611, want: 51.389},
		{in: 190, want: -170},
	}

	for _, tt := range tests {
		if got := NormalizeLon(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("NormalizeLon(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMercatorRoundTrip(t *testing.T) {
	x, y := FromLonLat(51.3890, 35.6892)
	lon, lat := ToLonLat(x, y)

	if math.Abs(lon-51.3890) > 1e-6 || math.Abs(lat-35.6892) > 1e-6 {
		t.Fatalf("round trip = (%v, %v), want (51.3890, 35.6892)", lon, lat)
	}
}

func TestFormatCoordinates(t *testing.T) {
	if got := FormatCoordinates(35.68921, 51.38899); got != "Location (35.6892, 51.3890)" {
		t.Fatalf("FormatCoordinates = %q", got)
	}
}
