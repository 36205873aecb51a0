package webservices

import (
	"image/png"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownmap-styler/ownmap/maprenderer"
	"github.com/jamesrr39/ownmap-styler/ownmapdal"
	"github.com/jamesrr39/ownmap-styler/projection"
	"github.com/jamesrr39/ownmap-styler/styling"
	"github.com/jamesrr39/semaphore"
	"github.com/pkg/profile"
)

const maxConcurrentTileRenders = 4

type TileService struct {
	logger        *logpkg.Logger
	dbConnSet     *ownmapdal.DBConnSet
	sema          *semaphore.Semaphore
	rasterer      maprenderer.MapRenderer
	styleSet      *styling.StyleSet
	shouldProfile bool
	chi.Router
}

func NewTileService(logger *logpkg.Logger, dbConnSet *ownmapdal.DBConnSet, rasterer maprenderer.MapRenderer, styleSet *styling.StyleSet, shouldProfile bool) *TileService {
	ts := &TileService{logger, dbConnSet, semaphore.NewSemaphore(maxConcurrentTileRenders), rasterer, styleSet, shouldProfile, chi.NewRouter()}

	ts.Get("/raster/{z}/{x}/{y}", ts.handleGetTile)

	return ts
}

func getStyle(styleSet *styling.StyleSet, styleID string) (*styling.Stylesheet, errorsx.Error) {
	if styleID == "" {
		return styleSet.GetDefaultStyle(), nil
	}

	style := styleSet.GetStyleByID(styleID)
	if style == nil {
		return nil, errorsx.Errorf("couldn't get requested style %q (style not loaded)", styleID)
	}

	return style, nil
}

func (ts *TileService) handleGetTile(w http.ResponseWriter, r *http.Request) {
	if ts.shouldProfile {
		defer profile.Start().Stop()
	}
	x := chi.URLParam(r, "x")
	y := strings.TrimSuffix(chi.URLParam(r, "y"), ".png")
	zStr := chi.URLParam(r, "z")
	styleID := r.URL.Query().Get("styleId")

	ints, err := stringsToInts(x, y, zStr)
	if err != nil {
		errorsx.HTTPError(w, ts.logger, errorsx.Wrap(err), 400)
		return
	}

	if !projection.IsValidTile(ints[0], ints[1], ints[2]) {
		errorsx.HTTPError(w, ts.logger, errorsx.Errorf("tile x=%d, y=%d does not exist at zoom %d", ints[0], ints[1], ints[2]), 400)
		return
	}

	style, err := getStyle(ts.styleSet, styleID)
	if err != nil {
		errorsx.HTTPError(w, ts.logger, errorsx.Wrap(err), 400)
		return
	}

	bounds := projection.XYZToBounds(ints[0], ints[1], ints[2])
	ts.logger.Debug("serving x, y, z: %s %s %s. Bounds (NW, SE): [%f %f, %f %f]", x, y, zStr, bounds.MaxLat, bounds.MinLon, bounds.MinLat, bounds.MaxLon)

	viewport, err := projection.NewViewportWithSize(bounds, projection.Mercator, projection.TileSize, projection.TileSize)
	if err != nil {
		errorsx.HTTPError(w, ts.logger, errorsx.Wrap(err), 400)
		return
	}

	ts.sema.Add()
	defer ts.sema.Done()

	// tiles exist at every zoom, so a scale outside the stylesheet's zoom levels takes the nearest one
	img, err := ts.rasterer.RenderRaster(r.Context(), ts.dbConnSet, viewport, style, styling.ScalePolicyClamp)
	if err != nil {
		errorsx.HTTPError(w, ts.logger, errorsx.Wrap(err), 500)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	err = png.Encode(w, img)
	if err != nil {
		switch err.(type) {
		case *net.OpError:
			// broken pipe (request cancelled). Do nothing
		default:
			errorsx.HTTPError(w, ts.logger, errorsx.Wrap(err), 500)
		}
		return
	}
}

func stringsToInts(s ...string) ([]int, error) {
	var ints []int
	for _, str := range s {
		i, err := strconv.Atoi(str)
		if err != nil {
			return nil, err
		}
		ints = append(ints, i)
	}

	return ints, nil
}
