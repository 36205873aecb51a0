package webservices

import (
	"encoding/json"
	"image/png"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jamesrr39/goutil/gofs/mockfs"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownmap-styler/ownmap"
	"github.com/jamesrr39/ownmap-styler/ownmap/testmocks"
	"github.com/jamesrr39/ownmap-styler/ownmapdal"
	"github.com/jamesrr39/ownmap-styler/ownmaprenderer"
	"github.com/jamesrr39/ownmap-styler/styling"
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *logpkg.Logger {
	return logpkg.NewLogger(ioutil.Discard, logpkg.LogLevelInfo)
}

func newTestStyleSet(t *testing.T) *styling.StyleSet {
	builtin, err := styling.NewBuiltinStylesheet()
	require.NoError(t, err)

	styleSet, err := styling.NewStyleSet([]*styling.Stylesheet{builtin}, styling.BuiltinStyleID)
	require.NoError(t, err)
	return styleSet
}

func newTestDBConnSet() *ownmapdal.DBConnSet {
	conn := testmocks.NewMockDataSourceConnFromFeatures("oslo", osm.Bounds{MinLat: 59, MaxLat: 60, MinLon: 10, MaxLon: 11},
		&ownmap.FetchedFeature{
			GeometryType: ownmap.GeometryTypePolygon,
			Geometry:     orb.Polygon{{{10.2, 59.2}, {10.8, 59.2}, {10.8, 59.8}, {10.2, 59.8}, {10.2, 59.2}}},
			Tags:         ownmap.TagMap{"landuse": "forest"},
		},
	)
	return ownmapdal.NewDBConnSet(newTestLogger(), []ownmapdal.DataSourceConn{conn})
}

func TestTileService(t *testing.T) {
	logger := newTestLogger()
	renderer := ownmaprenderer.NewRasterRenderer(logger, mockfs.NewMockFs())
	service := NewTileService(logger, newTestDBConnSet(), renderer, newTestStyleSet(t), false)

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"whole world", "/raster/0/0/0.png", http.StatusOK},
		{"tile over the data", "/raster/8/135/75", http.StatusOK},
		{"tile without data", "/raster/8/0/0", http.StatusOK},
		{"not a number", "/raster/a/0/0", http.StatusBadRequest},
		{"outside the grid", "/raster/1/2/0", http.StatusBadRequest},
		{"unknown style", "/raster/0/0/0?styleId=nope", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			service.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantStatus != http.StatusOK {
				return
			}

			assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
			img, err := png.Decode(w.Body)
			require.NoError(t, err)
			assert.Equal(t, 256, img.Bounds().Dx())
			assert.Equal(t, 256, img.Bounds().Dy())
		})
	}
}

func TestInfoService(t *testing.T) {
	service := NewInfoService(newTestLogger(), newTestDBConnSet(), newTestStyleSet(t))

	w := httptest.NewRecorder()
	service.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var info struct {
		Style struct {
			DefaultStyleID string   `json:"defaultStyleId"`
			StyleIDs       []string `json:"styleIds"`
		} `json:"style"`
		Datasets []struct {
			Name string `json:"name"`
		} `json:"datasets"`
		Projections []string `json:"projections"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))

	assert.Equal(t, styling.BuiltinStyleID, info.Style.DefaultStyleID)
	assert.Equal(t, []string{styling.BuiltinStyleID}, info.Style.StyleIDs)
	require.Len(t, info.Datasets, 1)
	assert.Equal(t, "oslo", info.Datasets[0].Name)
	assert.Contains(t, info.Projections, "mercator")
}

func TestInfoService_style(t *testing.T) {
	service := NewInfoService(newTestLogger(), newTestDBConnSet(), newTestStyleSet(t))

	w := httptest.NewRecorder()
	service.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/styles/"+styling.BuiltinStyleID, nil))
	require.Equal(t, http.StatusOK, w.Code)

	var style struct {
		StyleID    string `json:"styleId"`
		ZoomLevels []struct {
			Name string `json:"name"`
		} `json:"zoomLevels"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &style))

	assert.Equal(t, styling.BuiltinStyleID, style.StyleID)
	var names []string
	for _, level := range style.ZoomLevels {
		names = append(names, level.Name)
	}
	assert.Equal(t, []string{"near", "mid", "far"}, names)

	w = httptest.NewRecorder()
	service.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/styles/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPlanWebService(t *testing.T) {
	service := NewPlanWebService(newTestLogger(), newTestDBConnSet(), newTestStyleSet(t))

	w := httptest.NewRecorder()
	service.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?bounds=(59,10,60,11)&projection=plate-carree&maxSize=100&scalePolicy=clamp", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var plan struct {
		ZoomLevel struct {
			Name string `json:"name"`
		} `json:"zoomLevel"`
		Filters     map[string][]*ownmap.FeatureFilter `json:"filters"`
		DataSources []string                           `json:"dataSources"`
		DrawItems   []struct {
			Tags   ownmap.TagMap `json:"tags"`
			ZIndex int           `json:"zIndex"`
		} `json:"drawItems"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plan))

	assert.Equal(t, "far", plan.ZoomLevel.Name)
	assert.Equal(t, []string{"oslo"}, plan.DataSources)
	assert.Contains(t, plan.Filters, "POLYGON")
	require.Len(t, plan.DrawItems, 1)
	assert.Equal(t, "forest", plan.DrawItems[0].Tags["landuse"])
	assert.Equal(t, 1, plan.DrawItems[0].ZIndex)
}

func TestPlanWebService_badRequests(t *testing.T) {
	service := NewPlanWebService(newTestLogger(), newTestDBConnSet(), newTestStyleSet(t))

	tests := []struct {
		name string
		path string
	}{
		{"no bounds", "/"},
		{"bad bounds", "/?bounds=(59,10,60)"},
		{"unknown projection", "/?bounds=(59,10,60,11)&projection=robinson"},
		{"bad max size", "/?bounds=(59,10,60,11)&maxSize=big"},
		{"bad scale policy", "/?bounds=(59,10,60,11)&scalePolicy=guess"},
		{"scale outside the zoom levels", "/?bounds=(-80,-170,80,170)&maxSize=2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			service.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func Test_parseBoundsString(t *testing.T) {
	bounds, err := parseBoundsString("(52.533251,-1.394072, 52.800548,-0.898208)")
	require.NoError(t, err)
	assert.Equal(t, osm.Bounds{MinLat: 52.533251, MinLon: -1.394072, MaxLat: 52.800548, MaxLon: -0.898208}, *bounds)
}
