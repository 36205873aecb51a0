package webservices

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownmap-styler/ownmapdal"
	"github.com/jamesrr39/ownmap-styler/ownmaprenderer"
	"github.com/jamesrr39/ownmap-styler/projection"
	"github.com/jamesrr39/ownmap-styler/styling"
	"github.com/paulmach/osm"
)

const defaultPlanMaxSize = 1024

// PlanWebService shows what would be fetched and drawn for an area, without drawing it
type PlanWebService struct {
	logger    *logpkg.Logger
	dbConnSet *ownmapdal.DBConnSet
	styleSet  *styling.StyleSet
	chi.Router
}

func NewPlanWebService(logger *logpkg.Logger, dbConnSet *ownmapdal.DBConnSet, styleSet *styling.StyleSet) *PlanWebService {
	router := chi.NewRouter()
	service := &PlanWebService{logger, dbConnSet, styleSet, router}

	router.Get("/", service.handleGet)
	return service
}

type planQuery struct {
	bounds      osm.Bounds
	stylesheet  *styling.Stylesheet
	projection  projection.Projection
	maxSize     int
	scalePolicy styling.ScalePolicy
}

func (s *PlanWebService) parseQuery(r *http.Request) (*planQuery, errorsx.Error) {
	query := r.URL.Query()

	bounds, err := parseBoundsString(query.Get("bounds"))
	if err != nil {
		return nil, err
	}

	stylesheet, err := getStyle(s.styleSet, query.Get("styleId"))
	if err != nil {
		return nil, err
	}

	projectionName := query.Get("projection")
	if projectionName == "" {
		projectionName = projection.Mercator.Name()
	}
	proj, err := projection.Get(projectionName)
	if err != nil {
		return nil, err
	}

	maxSize := defaultPlanMaxSize
	if maxSizeStr := query.Get("maxSize"); maxSizeStr != "" {
		var parseErr error
		maxSize, parseErr = strconv.Atoi(maxSizeStr)
		if parseErr != nil {
			return nil, errorsx.Wrap(parseErr, "maxSize", maxSizeStr)
		}
	}

	scalePolicy := styling.ScalePolicyFail
	if scalePolicyStr := query.Get("scalePolicy"); scalePolicyStr != "" {
		scalePolicy, err = styling.ParseScalePolicy(scalePolicyStr)
		if err != nil {
			return nil, err
		}
	}

	return &planQuery{*bounds, stylesheet, proj, maxSize, scalePolicy}, nil
}

func (s *PlanWebService) handleGet(w http.ResponseWriter, r *http.Request) {
	query, err := s.parseQuery(r)
	if err != nil {
		errorsx.HTTPError(w, s.logger, err, http.StatusBadRequest)
		return
	}

	viewport, err := projection.NewViewport(query.bounds, query.projection, query.maxSize)
	if err != nil {
		errorsx.HTTPError(w, s.logger, err, http.StatusBadRequest)
		return
	}

	plan, err := ownmaprenderer.PlanRender(r.Context(), s.logger, s.dbConnSet, viewport, query.stylesheet, query.scalePolicy)
	if err != nil {
		status := http.StatusInternalServerError
		if errorsx.Cause(err) == styling.ErrScaleOutOfRange {
			status = http.StatusBadRequest
		}
		errorsx.HTTPError(w, s.logger, err, status)
		return
	}

	render.JSON(w, r, plan)
}

// (S,W,N,E)
// (52.533251,-1.394072,52.800548,-0.898208)
func parseBoundsString(boundsString string) (*osm.Bounds, errorsx.Error) {
	bounds := &osm.Bounds{}

	withoutBrackets := strings.TrimPrefix(strings.TrimSuffix(boundsString, ")"), "(")
	fragments := strings.Split(withoutBrackets, ",")
	if len(fragments) != 4 {
		return nil, errorsx.Errorf("expected 4 bounds, but got %d. A bounds URL parameter should be in the format 'bounds=(S,W,N,E)'", len(fragments))
	}

	for index, fragment := range fragments {
		trimmedFragment := strings.TrimSpace(fragment)
		coordinate, err := strconv.ParseFloat(trimmedFragment, 64)
		if err != nil {
			return nil, errorsx.Wrap(err)
		}

		switch index {
		case 0:
			bounds.MinLat = coordinate
		case 1:
			bounds.MinLon = coordinate
		case 2:
			bounds.MaxLat = coordinate
		case 3:
			bounds.MaxLon = coordinate
		}
	}

	return bounds, nil
}
