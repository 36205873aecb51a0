package main

import (
	"context"
	"fmt"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	tracing "github.com/jamesrr39/go-tracing"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/goutil/httpextra"
	"github.com/jamesrr39/goutil/humanise"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/goutil/open"
	"github.com/jamesrr39/ownmap-styler/ownmapdal"
	"github.com/jamesrr39/ownmap-styler/ownmapdal/memorydb"
	"github.com/jamesrr39/ownmap-styler/ownmapdal/ownmapsqldb/ownmappostgresql"
	"github.com/jamesrr39/ownmap-styler/ownmaprenderer"
	"github.com/jamesrr39/ownmap-styler/projection"
	"github.com/jamesrr39/ownmap-styler/renderplan"
	"github.com/jamesrr39/ownmap-styler/styling"
	"github.com/jamesrr39/ownmap-styler/styling/yamlstyle"
	"github.com/jamesrr39/ownmap-styler/webservices"
	"github.com/paulmach/osm"
	"github.com/pkg/profile"
	"gopkg.in/alecthomas/kingpin.v2"
)

const (
	DEFAULT_PORT     = 9000
	DEFAULT_MAX_SIZE = 1024
)

var logger *logpkg.Logger

func main() {
	verbose := kingpin.Flag("v", "verbose logging").Bool()
	kingpin.CommandLine.PreAction(func(ctx *kingpin.ParseContext) error {
		logLevel := logpkg.LogLevelInfo
		if *verbose {
			logLevel = logpkg.LogLevelDebug
		}
		logger = logpkg.NewLogger(os.Stderr, logLevel)
		return nil
	})

	setupServe()
	setupRender()
	setupPlan()
	setupCheck()

	kingpin.Parse()
}

// runAction logs the stack of a failed command, the way errorsx errors carry it
func runAction(run func() errorsx.Error) error {
	err := run()
	if err != nil {
		return fmt.Errorf("error: %q\nStack trace:\n%s", err.Error(), err.Stack())
	}
	return nil
}

var dbConnHelp = fmt.Sprintf("data source to read from. It should be the type, followed by the separator (%s), followed by the path or connection string. For example: %s%smy/data.geojson, %s%soslo.osm.pbf or %s%suser:pass@localhost/gis",
	ownmapdal.ConnectionPathSeparator,
	string(ownmapdal.DBFileTypeGeoJSON),
	ownmapdal.ConnectionPathSeparator,
	string(ownmapdal.DBFileTypePBF),
	ownmapdal.ConnectionPathSeparator,
	string(ownmapdal.DBFileTypePostgresql),
	ownmapdal.ConnectionPathSeparator,
)

func loadDBConn(dbConfigString string) (ownmapdal.DataSourceConn, errorsx.Error) {
	dbConnConfig, err := ownmapdal.ParseDBConnFilePath(dbConfigString)
	if err != nil {
		return nil, errorsx.Wrap(err, "db file path", dbConfigString)
	}

	switch dbConnConfig.Type {
	case ownmapdal.DBFileTypePostgresql:
		return ownmappostgresql.NewDBConn(dbConnConfig.ConnectionPath)
	case ownmapdal.DBFileTypeGeoJSON:
		return memorydb.LoadGeoJSONFile(gofs.NewOsFs(), dbConnConfig.ConnectionPath)
	case ownmapdal.DBFileTypePBF:
		return memorydb.LoadPBFFile(logger, gofs.NewOsFs(), dbConnConfig.ConnectionPath)
	default:
		return nil, errorsx.Errorf("unrecognized db connection type: %q", dbConnConfig.Type)
	}
}

func loadDBConnSet(dbConfigStrings []string) (*ownmapdal.DBConnSet, errorsx.Error) {
	var conns []ownmapdal.DataSourceConn
	for _, dbConfigString := range dbConfigStrings {
		conn, err := loadDBConn(dbConfigString)
		if err != nil {
			return nil, err
		}

		conns = append(conns, conn)
	}

	return ownmapdal.NewDBConnSet(logger, conns), nil
}

// loadStylesheet loads a stylesheet file, or gives the built-in stylesheet when no path is given
func loadStylesheet(path string) (*styling.Stylesheet, errorsx.Error) {
	if path == "" {
		return styling.NewBuiltinStylesheet()
	}

	return yamlstyle.LoadFile(gofs.NewOsFs(), path)
}

func loadStyleSet(stylesDir, defaultStyleID string) (*styling.StyleSet, errorsx.Error) {
	builtin, err := styling.NewBuiltinStylesheet()
	if err != nil {
		return nil, err
	}

	stylesheets, err := yamlstyle.LoadDir(logger, gofs.NewOsFs(), stylesDir)
	if err != nil {
		return nil, err
	}

	styleSet, err := styling.NewStyleSet(append([]*styling.Stylesheet{builtin}, stylesheets...), defaultStyleID)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	return styleSet, nil
}

var addrHelp = fmt.Sprintf(
	`address to serve on. Ex: ':%d' listen on port %d to traffic from anywhere. 'localhost:%d' listen on port %d to traffic from localhost`,
	DEFAULT_PORT, DEFAULT_PORT, DEFAULT_PORT, DEFAULT_PORT,
)

func setupServe() {
	cmd := kingpin.Command("serve", "serve map tiles over HTTP")
	addr := cmd.Flag("addr", addrHelp).Default(fmt.Sprintf(":%d", DEFAULT_PORT)).String()
	dbConnStrings := cmd.Arg("db-conn", dbConnHelp).Required().Strings()
	stylesDir := cmd.Flag("styles-dir", "directory of YAML stylesheets to serve, as well as the built-in style (default: under ~/.local/share)").String()
	defaultStyleID := cmd.Flag("default-style-id", "default style to render with").Default(styling.BuiltinStyleID).String()
	allowCORS := cmd.Flag("cors", "allow cross-origin requests from anywhere").Bool()
	shouldProfile := cmd.Flag("profile", "profile the request performance").Bool()
	cmd.Action(func(ctx *kingpin.ParseContext) error {
		return runAction(func() errorsx.Error {
			pathsConfig, err := ownmapdal.DefaultPathsConfig()
			if err != nil {
				return err
			}

			if *stylesDir != "" {
				pathsConfig.StylesDir = *stylesDir
			}

			err = pathsConfig.EnsurePaths()
			if err != nil {
				return err
			}

			styleSet, err := loadStyleSet(pathsConfig.StylesDir, *defaultStyleID)
			if err != nil {
				return err
			}

			dbConnSet, err := loadDBConnSet(*dbConnStrings)
			if err != nil {
				return err
			}

			router, err := createServer(dbConnSet, styleSet, pathsConfig, *allowCORS, *shouldProfile)
			if err != nil {
				return err
			}

			server := httpextra.NewServerWithTimeouts()
			server.Addr = *addr
			server.Handler = router

			logger.Info("about to start serving on %q", *addr)

			listenErr := server.ListenAndServe()
			if listenErr != nil {
				return errorsx.Wrap(listenErr)
			}
			return nil
		})
	})
}

func createServer(dbConnSet *ownmapdal.DBConnSet, styleSet *styling.StyleSet, pathsConfig *ownmapdal.PathsConfig, allowCORS, shouldProfile bool) (chi.Router, errorsx.Error) {
	renderer := ownmaprenderer.NewRasterRenderer(logger, gofs.NewOsFs())

	traceFilePath := filepath.Join(pathsConfig.TraceDir, fmt.Sprintf("trace_%s.pbf", time.Now().Format("2006-01-02__03_04_05")))
	logger.Info("tracing at %q", traceFilePath)

	traceFile, err := os.Create(traceFilePath)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	tracer := tracing.NewTracer(traceFile)

	router := chi.NewRouter()
	router.Use(middleware.DefaultLogger)
	if allowCORS {
		router.Use(httpextra.CorsAllowAnythingMiddleware())
	}
	router.Use(tracing.Middleware(tracer))
	router.Route("/api/", func(r chi.Router) {
		r.Mount("/info", webservices.NewInfoService(logger, dbConnSet, styleSet))
		r.Mount("/tiles/", webservices.NewTileService(logger, dbConnSet, renderer, styleSet, shouldProfile))
		r.Mount("/plan/", webservices.NewPlanWebService(logger, dbConnSet, styleSet))
	})

	return router, nil
}

// boundsStrToOSMBounds parses "W,N,E,S"
func boundsStrToOSMBounds(boundsStr string) (osm.Bounds, errorsx.Error) {
	bounds := osm.Bounds{}

	fragments := strings.Split(boundsStr, ",")
	if len(fragments) != 4 {
		return bounds, errorsx.Errorf("expected 4 bounds, but found %d", len(fragments))
	}

	for idx, boundStr := range fragments {
		boundFloat, err := strconv.ParseFloat(strings.TrimSpace(boundStr), 64)
		if err != nil {
			return bounds, errorsx.Wrap(err)
		}
		switch idx {
		case 0:
			bounds.MinLon = boundFloat
		case 1:
			bounds.MaxLat = boundFloat
		case 2:
			bounds.MaxLon = boundFloat
		case 3:
			bounds.MinLat = boundFloat
		}
	}

	if bounds.MinLon >= bounds.MaxLon || bounds.MinLat >= bounds.MaxLat {
		return bounds, errorsx.Errorf("bounds %q are empty or inverted. Expected W,N,E,S", boundsStr)
	}

	return bounds, nil
}

// mapFlags are the flags shared by the commands that work on one map area
type mapFlags struct {
	boundsStr      *string
	dbConnStrings  *[]string
	stylePath      *string
	maxSize        *int
	projectionName *string
	scalePolicyStr *string
}

func addMapFlags(cmd *kingpin.CmdClause) *mapFlags {
	return &mapFlags{
		boundsStr:      cmd.Flag("bounds", "area to draw, as W,N,E,S. Example: 10.6,59.97,10.9,59.85").Required().String(),
		dbConnStrings:  cmd.Flag("db-conn", dbConnHelp).Required().Strings(),
		stylePath:      cmd.Flag("style", "path to a YAML stylesheet (default: the built-in style)").String(),
		maxSize:        cmd.Flag("max-size", "size in pixels of the longest side of the map").Default(strconv.Itoa(DEFAULT_MAX_SIZE)).Int(),
		projectionName: cmd.Flag("projection", "map projection: "+strings.Join(projection.Names(), ", ")).Default(projection.Mercator.Name()).String(),
		scalePolicyStr: cmd.Flag("scale-policy", "what to do when the map scale is outside every zoom level of the stylesheet: 'fail' or 'clamp' to the nearest").Default("fail").String(),
	}
}

type mapRequest struct {
	dbConnSet   *ownmapdal.DBConnSet
	stylesheet  *styling.Stylesheet
	viewport    *projection.Viewport
	scalePolicy styling.ScalePolicy
}

func (f *mapFlags) load() (*mapRequest, errorsx.Error) {
	bounds, err := boundsStrToOSMBounds(*f.boundsStr)
	if err != nil {
		return nil, err
	}

	proj, err := projection.Get(*f.projectionName)
	if err != nil {
		return nil, err
	}

	viewport, err := projection.NewViewport(bounds, proj, *f.maxSize)
	if err != nil {
		return nil, err
	}

	scalePolicy, err := styling.ParseScalePolicy(*f.scalePolicyStr)
	if err != nil {
		return nil, err
	}

	stylesheet, err := loadStylesheet(*f.stylePath)
	if err != nil {
		return nil, err
	}

	dbConnSet, err := loadDBConnSet(*f.dbConnStrings)
	if err != nil {
		return nil, err
	}

	return &mapRequest{dbConnSet, stylesheet, viewport, scalePolicy}, nil
}

func setupRender() {
	cmd := kingpin.Command("render", "render a map to a PNG file")
	outputPath := cmd.Arg("output", "PNG file to write").Required().String()
	flags := addMapFlags(cmd)
	openAfter := cmd.Flag("open", "open the map once written").Bool()
	shouldProfile := cmd.Flag("profile", "profile the render performance").Bool()
	cmd.Action(func(ctx *kingpin.ParseContext) error {
		return runAction(func() errorsx.Error {
			if *shouldProfile {
				defer profile.Start(profile.ProfilePath(filepath.Dir(*outputPath)), profile.CPUProfile).Stop()
			}

			request, err := flags.load()
			if err != nil {
				return err
			}

			startTime := time.Now()

			renderer := ownmaprenderer.NewRasterRenderer(logger, gofs.NewOsFs())
			img, err := renderer.RenderRaster(context.Background(), request.dbConnSet, request.viewport, request.stylesheet, request.scalePolicy)
			if err != nil {
				return err
			}

			file, createErr := os.Create(*outputPath)
			if createErr != nil {
				return errorsx.Wrap(createErr)
			}
			defer file.Close()

			encodeErr := png.Encode(file, img)
			if encodeErr != nil {
				return errorsx.Wrap(encodeErr, "path", *outputPath)
			}

			fileInfo, statErr := file.Stat()
			if statErr != nil {
				return errorsx.Wrap(statErr)
			}

			logger.Info("wrote %dx%d map to %q (%s) in %s", request.viewport.Width, request.viewport.Height, *outputPath, humanise.HumaniseBytes(fileInfo.Size()), time.Since(startTime))

			if *openAfter {
				openErr := open.OpenURL(*outputPath)
				if openErr != nil {
					return errorsx.Wrap(openErr)
				}
			}

			return nil
		})
	})
}

func setupPlan() {
	cmd := kingpin.Command("plan", "print the zoom level, data queries and draw order for a map, without drawing it")
	flags := addMapFlags(cmd)
	filtersOnly := cmd.Flag("filters-only", "print only the data queries, without fetching any data").Bool()
	cmd.Action(func(ctx *kingpin.ParseContext) error {
		return runAction(func() errorsx.Error {
			request, err := flags.load()
			if err != nil {
				return err
			}

			if *filtersOnly {
				zoomLevel, err := request.stylesheet.ZoomRegistry().ResolveZoomLevelWithPolicy(request.viewport.Scale(), request.scalePolicy)
				if err != nil {
					return err
				}

				filters, err := renderplan.PlanFilters(request.stylesheet, zoomLevel.Name)
				if err != nil {
					return err
				}

				fmt.Printf("zoom level: %s\n\n%s\n", zoomLevel.Name, renderplan.DescribeFilters(filters))
				return nil
			}

			plan, err := ownmaprenderer.PlanRender(context.Background(), logger, request.dbConnSet, request.viewport, request.stylesheet, request.scalePolicy)
			if err != nil {
				return err
			}

			fmt.Println(plan.String())
			return nil
		})
	})
}

func setupCheck() {
	cmd := kingpin.Command("check", "check stylesheet files load, and print their zoom levels")
	paths := cmd.Arg("stylesheet", "stylesheet file(s) to check").Required().Strings()
	cmd.Action(func(ctx *kingpin.ParseContext) error {
		return runAction(func() errorsx.Error {
			fs := gofs.NewOsFs()

			var failed int
			for _, path := range *paths {
				stylesheet, err := yamlstyle.LoadFile(fs, path)
				if err != nil {
					failed++
					log.Printf("%s: %s\n", path, err.Error())
					continue
				}

				var zoomLevels []string
				for _, level := range stylesheet.ZoomRegistry().Levels() {
					zoomLevels = append(zoomLevels, fmt.Sprintf("%s [%g, %g)", level.Name, level.MinScale, level.MaxScale))
				}

				fmt.Printf("%s: ok. style %q, %d rules, zoom levels: %s\n", path, stylesheet.GetStyleID(), len(stylesheet.Rules()), strings.Join(zoomLevels, ", "))
			}

			if failed != 0 {
				return errorsx.Errorf("%d of %d stylesheets failed to load", failed, len(*paths))
			}

			return nil
		})
	})
}
