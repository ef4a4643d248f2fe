package rest

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"bitbucket.org/kleinnic74/tourist/domain/gps"
	"bitbucket.org/kleinnic74/tourist/library"
	svg "github.com/ajstarks/svgo"
	"github.com/gorilla/mux"
)

var (
	strokeGrid     = []string{`stroke="gray"`, `stroke-width="0.2px"`, `fill="none"`}
	strokeBox      = []string{`stroke="red"`, `stroke-width="0.1px"`, `fill="none"`}
	fillWithAlbum  = `fill="blue"`
	fillNoAlbum    = `fill="gray"`
	markerRadius   = 0.3
	viewBoxPadding = 1.0
)

type MarkerSource interface {
	FetchAllMarkers(ctx context.Context) ([]library.Marker, error)
}

// MapView renders markers and their search boxes as SVG
type MapView struct {
	markers MarkerSource
}

func NewMapView(markers MarkerSource) *MapView {
	return &MapView{markers: markers}
}

func (m *MapView) InitRoutes(r *mux.Router) {
	r.HandleFunc("/map.svg", m.render).Methods(http.MethodGet)
}

func (m *MapView) render(w http.ResponseWriter, r *http.Request) {
	markers, err := m.markers.FetchAllMarkers(r.Context())
	if err != nil {
		respondWithFailure(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	bounds := gps.WorldBounds
	if r.URL.Query().Get("fit") == "true" && len(markers) > 0 {
		bounds = fitBounds(markers)
	}
	drawMarkers(w, bounds, markers)
}

// fitBounds returns the smallest rect containing the search boxes of all
// markers, padded and clamped to the world
func fitBounds(markers []library.Marker) gps.Rect {
	b := markers[0].SearchBox()
	for _, m := range markers[1:] {
		box := m.SearchBox()
		b = gps.RectFrom(
			min(b.X0(), box.X0()), min(b.Y0(), box.Y0()),
			max(b.X1(), box.X1()), max(b.Y1(), box.Y1()))
	}
	return gps.RectFrom(
		b.X0()-viewBoxPadding, b.Y0()-viewBoxPadding,
		b.X1()+viewBoxPadding, b.Y1()+viewBoxPadding).ClampTo(gps.WorldBounds)
}

func rectPath(bounds gps.Rect) string {
	return fmt.Sprintf("M %f %f l 0 %f l %f 0 l 0 %f Z", bounds.X0(), bounds.Y0(), bounds.H(), bounds.W(), -bounds.H())
}

func dotPath(x, y, r float64) string {
	return fmt.Sprintf("M %f %f a %f %f 0 1 0 %f 0 a %f %f 0 1 0 %f 0 Z", x-r, y, r, r, 2*r, r, r, -2*r)
}

func drawMarkers(out io.Writer, bounds gps.Rect, markers []library.Marker) {
	canvas := svg.New(out)
	// y grows downwards in SVG, the view box is flipped to keep north up
	canvas.Startpercent(100, 100, fmt.Sprintf(`viewBox="%f %f %f %f"`, bounds.X0(), -bounds.Y1(), bounds.W(), bounds.H()))
	canvas.Gtransform("scale(1,-1)")
	canvas.Path("M 0 -90 l 0 180", strokeGrid...)
	canvas.Path("M -180 0 l 360 0", strokeGrid...)
	canvas.Path(rectPath(gps.WorldBounds), strokeGrid...)
	for _, m := range markers {
		canvas.Group(fmt.Sprintf(`id="%s"`, m.ID))
		canvas.Path(rectPath(m.SearchBox()), strokeBox...)
		fill := fillNoAlbum
		if m.HasAlbum {
			fill = fillWithAlbum
		}
		p := m.Coordinates().Point()
		canvas.Path(dotPath(p.X(), p.Y(), markerRadius), fill)
		canvas.Gend()
	}
	canvas.Gend()
	canvas.End()
}
