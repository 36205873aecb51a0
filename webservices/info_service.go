package webservices

import (
	"net/http"
	"sort"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownmap-styler/ownmap"
	"github.com/jamesrr39/ownmap-styler/ownmapdal"
	"github.com/jamesrr39/ownmap-styler/projection"
	"github.com/jamesrr39/ownmap-styler/styling"
)

func NewInfoService(logger *logpkg.Logger, dbConnSet *ownmapdal.DBConnSet, styleSet *styling.StyleSet) *InfoService {
	ws := &InfoService{logger, dbConnSet, styleSet, chi.NewRouter()}
	ws.Get("/", ws.handleGet)
	ws.Get("/styles/{styleId}", ws.handleGetStyle)

	return ws
}

type InfoService struct {
	logger    *logpkg.Logger
	dbConnSet *ownmapdal.DBConnSet
	styleSet  *styling.StyleSet
	chi.Router
}

type stylesType struct {
	DefaultStyleID string   `json:"defaultStyleId"`
	StyleIDs       []string `json:"styleIds"`
}

type datasetType struct {
	Style       stylesType            `json:"style"`
	Datasets    []*ownmap.DatasetInfo `json:"datasets"`
	Projections []string              `json:"projections"`
}

func (ws *InfoService) handleGet(w http.ResponseWriter, r *http.Request) {
	infos := []*ownmap.DatasetInfo{}

	for _, conn := range ws.dbConnSet.GetConns() {
		info, err := conn.DatasetInfo()
		if err != nil {
			if errorsx.Cause(err) == ownmapdal.ErrNoDataAvailable {
				continue
			}
			errorsx.HTTPError(w, ws.logger, err, http.StatusInternalServerError)
			return
		}

		infos = append(infos, info)
	}

	// make deterministic
	sort.SliceStable(infos, func(a, b int) bool {
		if infos[a].Bounds.MinLon != infos[b].Bounds.MinLon {
			return infos[a].Bounds.MinLon < infos[b].Bounds.MinLon
		}
		return infos[a].Name < infos[b].Name
	})

	style := stylesType{
		ws.styleSet.GetDefaultStyle().GetStyleID(),
		ws.styleSet.GetAllStyleIDs(),
	}

	render.JSON(w, r, datasetType{style, infos, projection.Names()})
}

type styleInfoType struct {
	StyleID       string              `json:"styleId"`
	ZoomLevels    []styling.ZoomLevel `json:"zoomLevels"`
	MapBackground string              `json:"mapBackground"`
	SeaBackground string              `json:"seaBackground"`
	RuleCount     int                 `json:"ruleCount"`
}

func (ws *InfoService) handleGetStyle(w http.ResponseWriter, r *http.Request) {
	styleID := chi.URLParam(r, "styleId")

	stylesheet := ws.styleSet.GetStyleByID(styleID)
	if stylesheet == nil {
		errorsx.HTTPError(w, ws.logger, errorsx.Errorf("style %q not loaded", styleID), http.StatusNotFound)
		return
	}

	render.JSON(w, r, styleInfoType{
		StyleID:       stylesheet.GetStyleID(),
		ZoomLevels:    stylesheet.ZoomRegistry().Levels(),
		MapBackground: stylesheet.MapBackground().String(),
		SeaBackground: stylesheet.SeaBackground().String(),
		RuleCount:     len(stylesheet.Rules()),
	})
}
