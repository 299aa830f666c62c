package server

import (
	"fmt"
	"net/http"
	"os"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/rs/zerolog"

	"github.com/joeblew999/plat-claimmap/internal/api"
	"github.com/joeblew999/plat-claimmap/internal/api/editor"
	"github.com/joeblew999/plat-claimmap/internal/config"
	"github.com/joeblew999/plat-claimmap/internal/db"
	"github.com/joeblew999/plat-claimmap/internal/geocode"
	"github.com/joeblew999/plat-claimmap/internal/logging"
	"github.com/joeblew999/plat-claimmap/internal/report"
	"github.com/joeblew999/plat-claimmap/internal/service"
	"github.com/joeblew999/plat-claimmap/internal/staticmap"
	"github.com/joeblew999/plat-claimmap/internal/templates"
)

// Options holds the process-level settings taken from the command line.
type Options struct {
	Host       string
	Port       string
	ConfigFile string
	WebDir     string // Optional template directory overriding the embedded templates
}

// Server is the claimmap HTTP server.
type Server struct {
	opts      Options
	cfg       config.Config
	log       zerolog.Logger
	mux       *http.ServeMux
	humaAPI   huma.API
	analytics *db.Analytics
	svc       *service.ProjectService
	renderer  *templates.Renderer
}

// New loads configuration and wires the services and routes.
func New(opts Options) (*Server, error) {
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return nil, err
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	return NewWithConfig(opts, cfg, log)
}

// NewWithConfig wires a server from an already loaded configuration.
func NewWithConfig(opts Options, cfg config.Config, log zerolog.Logger) (*Server, error) {
	mux := http.NewServeMux()

	// Create Huma API with humago (pure stdlib) adapter
	humaConfig := huma.DefaultConfig("claimmap API", api.Version)
	humaConfig.Info.Description = "Property incident and camera mapping: markers, address search, CSV import, map snapshots and PDF reports."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", opts.Host, opts.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, api.LinkTransformer())

	humaAPI := humago.New(mux, humaConfig)

	renderer, err := templates.New(opts.WebDir)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	// DuckDB is optional: analytics routes answer 503 without it.
	analytics, err := db.Open(db.Config{DataDir: cfg.DataDir, DBName: "claimmap"})
	if err != nil {
		log.Warn().Err(err).Msg("analytics database unavailable")
		analytics = nil
	}

	svc, err := service.New(service.Options{
		Logger:   log,
		Geocoder: geocode.NewArcGIS(cfg.Geocoder.URL, cfg.Geocoder.Timeout),
		Catalog:  cfg.Tiles.Catalog(),
		Tiles:    tileFactory(cfg.Tiles),
		Workers:  cfg.Tiles.Workers,
		Assembler: &report.Assembler{
			FontDir:      cfg.Report.FontDir,
			FontFamily:   cfg.Report.FontFamily,
			BannerPath:   cfg.Report.BannerPath,
			Organization: cfg.Report.Organization,
			Logger:       log.With().Str("component", "report").Logger(),
		},
		Cache:     report.NewCache(cfg.Report.CacheSize, cfg.Report.CacheTTL),
		Analytics: analytics,
		Center:    cfg.Map.LatLng(),
		Zoom:      cfg.Map.Zoom,
		Style:     cfg.Tiles.Default,
		Width:     cfg.Report.Width,
		Height:    cfg.Report.Height,
	})
	if err != nil {
		if analytics != nil {
			analytics.Close()
		}
		return nil, err
	}

	s := &Server{
		opts:      opts,
		cfg:       cfg,
		log:       log,
		mux:       mux,
		humaAPI:   humaAPI,
		analytics: analytics,
		svc:       svc,
		renderer:  renderer,
	}
	s.routes()
	return s, nil
}

// tileFactory shares one HTTP tile client per style.
func tileFactory(cfg config.TilesConfig) service.TileFactory {
	clients := make(map[string]*staticmap.HTTPTiles, len(cfg.Styles))
	for _, st := range cfg.Styles {
		clients[st.Name] = staticmap.NewHTTPTiles(st.URL, cfg.UserAgent, cfg.Timeout)
	}
	return func(st staticmap.Style) staticmap.TileSource {
		if c, ok := clients[st.Name]; ok {
			return c
		}
		return staticmap.NewHTTPTiles(st.URL, cfg.UserAgent, cfg.Timeout)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// OpenAPI returns the generated OpenAPI document.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Service returns the project service.
func (s *Server) Service() *service.ProjectService {
	return s.svc
}

// Logger returns the configured logger.
func (s *Server) Logger() zerolog.Logger {
	return s.log
}

// Close closes server resources.
func (s *Server) Close() error {
	if s.analytics == nil {
		return nil
	}
	return s.analytics.Close()
}

func (s *Server) routes() {
	// Register Huma REST API routes (OpenAPI-documented JSON endpoints)
	api.RegisterRoutes(s.humaAPI, s.svc, api.NewInfoHandler(s.cfg.DataDir, s.analytics != nil, s.svc))

	// Register Editor SSE routes using Huma + Datastar SDK
	ed := editor.NewHandler(s.svc, s.renderer, s.log)
	ed.RegisterRoutes(s.humaAPI)

	// Page routes
	s.mux.HandleFunc("GET /editor", ed.Page)
	s.mux.HandleFunc("/", s.handleRoot)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/editor", http.StatusFound)
}
