// Package orchestrator runs user actions against the resolver, labeler and
// weather fetcher and publishes the results to the map session and the
// display store.
package orchestrator

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/i474232898/weathermap/internal/apperror"
	"github.com/i474232898/weathermap/internal/display"
	"github.com/i474232898/weathermap/internal/geo"
	"github.com/i474232898/weathermap/internal/geolocation"
	"github.com/i474232898/weathermap/internal/session"
	"github.com/i474232898/weathermap/internal/store"
	"github.com/i474232898/weathermap/internal/weather"
)

// CurrentLocationLabel labels weather for the device position.
const CurrentLocationLabel = "Current location"

// Resolver turns search text into a point.
type Resolver interface {
	Resolve(ctx context.Context, query string) (geo.Point, error)
}

// Labeler names raw coordinates. It never fails.
type Labeler interface {
	Label(ctx context.Context, lat, lon float64) string
}

// WeatherFetcher returns the current reading at a coordinate.
type WeatherFetcher interface {
	Fetch(ctx context.Context, lat, lon float64) (weather.Reading, error)
}

// MapView is the map widget as seen by the orchestrator.
type MapView interface {
	Recenter(lat, lon float64, zoom int) error
	SetView(lat, lon float64, zoom int) error
	SetMarker(layer session.Layer, p geo.Point) error
	ToLonLat(x, y float64) (lon, lat float64)
}

// Surface is the weather panel, loading indicator and message line.
type Surface interface {
	SetBusy(on bool)
	Show(seq uint64, p geo.Point, m display.Model) bool
	Notify(msg string)
	FollowView(lat, lon float64)
	Latest() (store.Current, error)
}

// Options tune the map behaviour of each action.
type Options struct {
	SearchZoom  int
	ClickZoom   int // 0 leaves the view where the user clicked
	LocateZoom  int
	Geolocation geolocation.Options
}

// Outcome describes how an action ended for its caller.
type Outcome struct {
	Seq     uint64         `json:"seq,omitempty"`
	ID      string         `json:"id,omitempty"`
	Point   *geo.Point     `json:"point,omitempty"`
	Display *display.Model `json:"display,omitempty"`
	Message string         `json:"message,omitempty"`
	// Stale is set when a newer action started before this one finished;
	// its results were not published.
	Stale bool `json:"stale,omitempty"`
}

// Orchestrator is safe for concurrent use. Every action takes a sequence
// token; only the holder of the latest token publishes. Starting an action
// cancels the context of the one before it.
type Orchestrator struct {
	resolver Resolver
	labeler  Labeler
	fetcher  WeatherFetcher
	mapper   *display.Mapper
	view     MapView
	surface  Surface
	opts     Options

	mu         sync.Mutex
	cancelPrev context.CancelFunc
	seq        atomic.Uint64
	inflight   atomic.Int64
}

// New wires an Orchestrator.
func New(resolver Resolver, labeler Labeler, fetcher WeatherFetcher, mapper *display.Mapper,
	view MapView, surface Surface, opts Options,
) *Orchestrator {
	if mapper == nil {
		mapper = display.NewMapper(nil)
	}
	return &Orchestrator{
		resolver: resolver,
		labeler:  labeler,
		fetcher:  fetcher,
		mapper:   mapper,
		view:     view,
		surface:  surface,
		opts:     opts,
	}
}

// Search resolves query, marks it on the map and shows its weather.
func (o *Orchestrator) Search(ctx context.Context, query string) (Outcome, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		err := &apperror.ValidationError{Message: msgEmptySearch}
		return Outcome{Message: err.Message}, err
	}

	it, ctx := o.begin(ctx, "search", false)
	defer it.end()
	it.log.Info().Str("query", query).Msg("Search started")

	p, err := o.resolver.Resolve(ctx, query)
	if err != nil {
		return it.fail(err)
	}
	if !p.Success {
		it.log.Warn().Str("label", p.Label).Msg("Search resolved to fallback point")
	}

	if it.current() {
		if err := o.view.Recenter(p.Lat, p.Lon, o.opts.SearchZoom); err != nil {
			return it.fail(&apperror.ValidationError{Message: msgInvalidCoords})
		}
		if err := o.view.SetMarker(session.LayerSearch, p); err != nil {
			return it.fail(&apperror.ValidationError{Message: msgInvalidCoords})
		}
	}

	return it.fetchAndShow(ctx, p)
}

// Click shows weather at a clicked coordinate. The reverse label and the
// weather are fetched concurrently.
func (o *Orchestrator) Click(ctx context.Context, lat, lon float64) (Outcome, error) {
	lon = geo.NormalizeLon(lon)
	if err := geo.ValidateCoordinates(lat, lon); err != nil {
		ve := &apperror.ValidationError{Message: msgInvalidCoords}
		return Outcome{Message: ve.Message}, ve
	}

	it, ctx := o.begin(ctx, "click", false)
	defer it.end()
	it.log.Info().Float64("lat", lat).Float64("lon", lon).Msg("Map clicked")

	p := geo.Point{Lat: lat, Lon: lon, Success: true, Source: geo.SourceClick}
	if err := o.view.SetMarker(session.LayerClick, p); err != nil {
		return it.fail(&apperror.ValidationError{Message: msgInvalidCoords})
	}
	if o.opts.ClickZoom > 0 {
		if err := o.view.Recenter(lat, lon, o.opts.ClickZoom); err != nil {
			return it.fail(&apperror.ValidationError{Message: msgInvalidCoords})
		}
	}

	var (
		wg      sync.WaitGroup
		label   string
		reading weather.Reading
		err     error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		label = o.labeler.Label(ctx, lat, lon)
	}()
	go func() {
		defer wg.Done()
		reading, err = o.fetcher.Fetch(ctx, lat, lon)
	}()
	wg.Wait()

	p.Label = label
	if err != nil {
		return it.fail(err)
	}
	return it.show(p, reading)
}

// ClickProjected is Click for a coordinate in map projection (EPSG:3857).
func (o *Orchestrator) ClickProjected(ctx context.Context, x, y float64) (Outcome, error) {
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		ve := &apperror.ValidationError{Message: msgInvalidCoords}
		return Outcome{Message: ve.Message}, ve
	}
	lon, lat := o.view.ToLonLat(x, y)
	return o.Click(ctx, lat, lon)
}

// Locate asks locator for the device position and shows weather there.
func (o *Orchestrator) Locate(ctx context.Context, locator geolocation.Locator) (Outcome, error) {
	if locator == nil {
		ge := &apperror.GeolocationError{Reason: apperror.ReasonOther, Message: "not supported"}
		return Outcome{Message: msgNoGeolocation}, ge
	}

	it, ctx := o.begin(ctx, "locate", false)
	defer it.end()

	opts := o.opts.Geolocation
	gctx, cancel := ctx, context.CancelFunc(func() {})
	if opts.Timeout > 0 {
		gctx, cancel = context.WithTimeout(ctx, opts.Timeout)
	}
	pos, err := locator.CurrentPosition(gctx, opts)
	ctxErr := gctx.Err()
	cancel()

	if err != nil {
		var ge *apperror.GeolocationError
		switch {
		case errors.As(err, &ge):
		case errors.Is(ctx.Err(), context.Canceled):
			err = ctx.Err()
		case ctxErr != nil:
			err = geolocation.FromContext(ctxErr)
		default:
			err = &apperror.GeolocationError{Reason: apperror.ReasonOther, Message: err.Error()}
		}
		return it.fail(err)
	}

	p := geo.Point{
		Lat:     pos.Lat,
		Lon:     pos.Lon,
		Label:   CurrentLocationLabel,
		Success: true,
		Source:  geo.SourceDevice,
	}
	if err := p.Validate(); err != nil {
		return it.fail(&apperror.GeolocationError{Reason: apperror.ReasonPositionUnavailable, Message: err.Error()})
	}
	it.log.Info().Float64("lat", p.Lat).Float64("lon", p.Lon).Float64("accuracy", pos.Accuracy).Msg("Device located")

	if it.current() {
		if err := o.view.Recenter(p.Lat, p.Lon, o.opts.LocateZoom); err != nil {
			return it.fail(&apperror.ValidationError{Message: msgInvalidCoords})
		}
		if err := o.view.SetMarker(session.LayerClick, p); err != nil {
			return it.fail(&apperror.ValidationError{Message: msgInvalidCoords})
		}
	}

	return it.fetchAndShow(ctx, p)
}

// Refresh fetches fresh weather for the displayed point. It is skipped while
// another action is running, and any action started during it wins. Without
// a displayed point it does nothing.
func (o *Orchestrator) Refresh(ctx context.Context) (Outcome, error) {
	cur, err := o.surface.Latest()
	if errors.Is(err, store.ErrNotFound) {
		return Outcome{}, nil
	}
	if err != nil {
		return Outcome{}, err
	}
	it, ctx := o.begin(ctx, "refresh", true)
	if it == nil {
		log.Debug().Msg("Refresh skipped: action in progress")
		return Outcome{Stale: true}, nil
	}
	defer it.end()

	return it.fetchAndShow(ctx, cur.Point)
}

// ViewChanged records a pan or zoom made in the widget.
func (o *Orchestrator) ViewChanged(lat, lon float64, zoom int) error {
	lon = geo.NormalizeLon(lon)
	if err := o.view.SetView(lat, lon, zoom); err != nil {
		return &apperror.ValidationError{Message: msgInvalidCoords}
	}
	o.surface.FollowView(lat, lon)
	return nil
}

type interaction struct {
	o       *Orchestrator
	seq     uint64
	id      string
	cancel  context.CancelFunc
	log     zerolog.Logger
	started time.Time
}

// begin takes the next sequence token and cancels the previous interaction.
// With idleOnly it returns a nil interaction if another one is running.
func (o *Orchestrator) begin(ctx context.Context, kind string, idleOnly bool) (*interaction, context.Context) {
	o.mu.Lock()
	if idleOnly && o.inflight.Load() > 0 {
		o.mu.Unlock()
		return nil, ctx
	}
	// The token moves before the cancel so the cancelled action sees itself
	// as stale.
	seq := o.seq.Add(1)
	ctx, cancel := context.WithCancel(ctx)
	if o.cancelPrev != nil {
		o.cancelPrev()
	}
	o.cancelPrev = cancel
	o.inflight.Add(1)
	o.mu.Unlock()

	id := uuid.NewString()
	o.surface.SetBusy(true)
	return &interaction{
		o:       o,
		seq:     seq,
		id:      id,
		cancel:  cancel,
		started: time.Now(),
		log: log.With().
			Str("action", kind).
			Str("interaction", id).
			Uint64("seq", seq).
			Logger(),
	}, ctx
}

func (it *interaction) end() {
	it.cancel()
	it.o.surface.SetBusy(false)
	it.o.inflight.Add(-1)
	it.log.Debug().Dur("duration", time.Since(it.started)).Msg("Action finished")
}

func (it *interaction) current() bool {
	return it.o.seq.Load() == it.seq
}

func (it *interaction) outcome() Outcome {
	return Outcome{Seq: it.seq, ID: it.id, Stale: !it.current()}
}

func (it *interaction) fail(err error) (Outcome, error) {
	out := it.outcome()
	if out.Stale && errors.Is(err, context.Canceled) {
		it.log.Info().Msg("Action superseded")
		return out, nil
	}
	out.Message = UserMessage(err)

	it.log.Error().Err(err).Bool("stale", out.Stale).Msg("Action failed")
	if !out.Stale {
		it.o.surface.Notify(out.Message)
	}
	return out, err
}

func (it *interaction) fetchAndShow(ctx context.Context, p geo.Point) (Outcome, error) {
	reading, err := it.o.fetcher.Fetch(ctx, p.Lat, p.Lon)
	if err != nil {
		return it.fail(err)
	}
	return it.show(p, reading)
}

func (it *interaction) show(p geo.Point, r weather.Reading) (Outcome, error) {
	model := it.o.mapper.ToDisplay(r, p.Label)

	out := it.outcome()
	out.Point = &p
	out.Display = &model

	if out.Stale || !it.o.surface.Show(it.seq, p, model) {
		out.Stale = true
		it.log.Info().Str("label", p.Label).Msg("Discarding stale result")
		return out, nil
	}

	it.log.Info().
		Str("label", p.Label).
		Str("provider", r.Provider).
		Bool("synthetic", r.Synthetic).
		Msg("Weather displayed")
	return out, nil
}
