package store

import (
	"errors"
	"testing"

	"github.com/i474232898/weathermap/internal/display"
	"github.com/i474232898/weathermap/internal/geo"
)

func TestLatestEmpty(t *testing.T) {
	s := NewDisplayStore()
	if _, err := s.Latest(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Latest() error = %v, want ErrNotFound", err)
	}
}

func TestShowOverwritesAndRejectsOlder(t *testing.T) {
	s := NewDisplayStore()

	if !s.Show(2, geo.Point{Label: "second"}, display.Model{LocationName: "second"}) {
		t.Fatal("first write rejected")
	}
	if s.Show(1, geo.Point{Label: "first"}, display.Model{LocationName: "first"}) {
		t.Fatal("older write accepted")
	}
	if !s.Show(2, geo.Point{Label: "refresh"}, display.Model{LocationName: "refresh"}) {
		t.Fatal("same-sequence refresh rejected")
	}

	cur, err := s.Latest()
	if err != nil {
		t.Fatal(err)
	}
	if cur.Model.LocationName != "refresh" || cur.Seq != 2 {
		t.Fatalf("current = %+v", cur)
	}
}

func TestShowClearsMessage(t *testing.T) {
	s := NewDisplayStore()
	s.Notify("Location request timed out. Please try again.")
	s.Show(1, geo.Point{}, display.Model{})

	if msg := s.Snapshot().Message; msg != "" {
		t.Fatalf("message = %q, want empty", msg)
	}
}

func TestBusyNests(t *testing.T) {
	s := NewDisplayStore()

	s.SetBusy(true)
	s.SetBusy(true)
	s.SetBusy(false)
	if !s.Loading() {
		t.Fatal("indicator hidden while one action still running")
	}
	s.SetBusy(false)
	if s.Loading() {
		t.Fatal("indicator visible after all actions ended")
	}
	s.SetBusy(false)
	if s.Loading() {
		t.Fatal("extra hide must not underflow")
	}
}

func TestFollowView(t *testing.T) {
	s := NewDisplayStore()
	s.FollowView(1, 2)
	if s.Snapshot().Current != nil {
		t.Fatal("FollowView must not create a display")
	}

	s.Show(1, geo.Point{}, display.Model{Coordinates: display.FormatCoordinates(35.6892, 51.389)})
	s.FollowView(48.8566, 2.3522)

	cur, _ := s.Latest()
	if cur.Model.Coordinates != "Lat: 48.8566, Lon: 2.3522" {
		t.Fatalf("Coordinates = %q", cur.Model.Coordinates)
	}
}
