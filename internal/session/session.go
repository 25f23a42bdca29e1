// Package session holds the server-side model of the map widget: the current
// view and one marker slot per layer.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/i474232898/weathermap/internal/geo"
)

// Layer names a marker slot.
type Layer string

const (
	// LayerSearch holds the marker of the last search result.
	LayerSearch Layer = "search"
	// LayerClick holds the marker of the last map click or device position.
	LayerClick Layer = "click"
)

// View is the map viewport. AnimationMs tells the widget how long to animate
// into it; zero means jump.
type View struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Zoom        int     `json:"zoom"`
	AnimationMs int64   `json:"animationMs"`
}

// Marker is the single feature of a layer.
type Marker struct {
	Layer Layer   `json:"layer"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Title string  `json:"title,omitempty"`
}

// State is a copy of the session for rendering.
type State struct {
	View    View     `json:"view"`
	Markers []Marker `json:"markers"`
}

// Options configure a Session.
type Options struct {
	Center    geo.Point
	Zoom      int
	MinZoom   int
	MaxZoom   int
	Animation time.Duration
}

// Session is safe for concurrent use. Each layer holds at most one marker;
// setting a marker replaces the previous one.
type Session struct {
	mu      sync.RWMutex
	view    View
	markers map[Layer]Marker

	minZoom   int
	maxZoom   int
	animation time.Duration
}

// New creates a Session centered on opts.Center.
func New(opts Options) *Session {
	s := &Session{
		markers:   make(map[Layer]Marker, 2),
		minZoom:   opts.MinZoom,
		maxZoom:   opts.MaxZoom,
		animation: opts.Animation,
	}
	s.view = View{Lat: opts.Center.Lat, Lon: opts.Center.Lon, Zoom: s.clampZoom(opts.Zoom)}
	return s
}

// Recenter animates the view to lat/lon. A zoom of zero keeps the current zoom.
func (s *Session) Recenter(lat, lon float64, zoom int) error {
	if err := geo.ValidateCoordinates(lat, lon); err != nil {
		return fmt.Errorf("recenter: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if zoom == 0 {
		zoom = s.view.Zoom
	}
	s.view = View{
		Lat:         lat,
		Lon:         lon,
		Zoom:        s.clampZoom(zoom),
		AnimationMs: s.animation.Milliseconds(),
	}
	return nil
}

// SetView records a viewport change made by the user in the widget.
func (s *Session) SetView(lat, lon float64, zoom int) error {
	if err := geo.ValidateCoordinates(lat, lon); err != nil {
		return fmt.Errorf("set view: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if zoom == 0 {
		zoom = s.view.Zoom
	}
	s.view = View{Lat: lat, Lon: lon, Zoom: s.clampZoom(zoom)}
	return nil
}

// SetMarker clears layer and places a marker at p.
func (s *Session) SetMarker(layer Layer, p geo.Point) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("set %s marker: %w", layer, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.markers[layer] = Marker{Layer: layer, Lat: p.Lat, Lon: p.Lon, Title: p.Label}
	return nil
}

// ClearMarker empties layer.
func (s *Session) ClearMarker(layer Layer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.markers, layer)
}

// ToLonLat converts a click in EPSG:3857 meters to wrapped WGS84 degrees.
func (s *Session) ToLonLat(x, y float64) (lon, lat float64) {
	lon, lat = geo.ToLonLat(x, y)
	return geo.NormalizeLon(lon), lat
}

// Snapshot copies the current state. Markers are ordered search, click.
func (s *Session) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := State{View: s.view, Markers: make([]Marker, 0, len(s.markers))}
	for _, layer := range []Layer{LayerSearch, LayerClick} {
		if m, ok := s.markers[layer]; ok {
			st.Markers = append(st.Markers, m)
		}
	}
	return st
}

func (s *Session) clampZoom(z int) int {
	if s.minZoom > 0 && z < s.minZoom {
		return s.minZoom
	}
	if s.maxZoom > 0 && z > s.maxZoom {
		return s.maxZoom
	}
	return z
}
