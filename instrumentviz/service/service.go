/*
	Copyright 2023 Google Inc.
	Licensed under the Apache License, Version 2.0 (the "License");
	you may not use this file except in compliance with the License.
	You may obtain a copy of the License at
		https://www.apache.org/licenses/LICENSE-2.0
	Unless required by applicable law or agreed to in writing, software
	distributed under the License is distributed on an "AS IS" BASIS,
	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
	See the License for the specific language governing permissions and
	limitations under the License.
*/

// Package service assembles an InstrumentViz server: the instrument catalog,
// the plot session and status surface, the renderer registry, the data
// loader, and the HTTP handlers exposing them.
package service

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/safehtml"
	"github.com/google/safehtml/template"
	"github.com/ilhamster/instrumentviz/handlers"
	datafetcher "github.com/ilhamster/instrumentviz/instrumentviz/data_fetcher"
	"github.com/ilhamster/instrumentviz/instrumentviz/hover"
	"github.com/ilhamster/instrumentviz/instrumentviz/instrument"
	"github.com/ilhamster/instrumentviz/instrumentviz/message"
	"github.com/ilhamster/instrumentviz/instrumentviz/metrics"
	"github.com/ilhamster/instrumentviz/instrumentviz/plot"
	rendererregistry "github.com/ilhamster/instrumentviz/instrumentviz/renderer_registry"
	"github.com/ilhamster/instrumentviz/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Request parameters.
const (
	typeParam           = "type"
	instrumentNameParam = "instrument_name"
	dataURLParam        = "json_data_url"
	pxParam             = "px"
	pyParam             = "py"
	zoomParam           = "zoom"
	panParam            = "pan"

	messageVersionHeader = "X-Message-Version"
	hoverPositionHeader  = "X-Hover-Position"
	plotSeriesName       = "plot"
	readingsSeriesName   = "readings"
)

// Config configures a Service.
type Config struct {
	// CatalogPath is the path of the instrument catalog JSON file.  If empty,
	// the catalog is empty.
	CatalogPath string
	// ResourceRoot, if set, is a directory of client resources served under
	// /static/.
	ResourceRoot string
	// FetchTimeout limits each data fetch.  Zero means no limit.
	FetchTimeout time.Duration
	// Width and Height are the plot canvas size, in pixels.
	Width, Height int
	// AllowedDataURLs are the URL prefixes data may be fetched from, such as
	// 'https://data.example.com/products/'.  A data URL is allowed if its
	// scheme and host match a prefix's exactly and its path lies under the
	// prefix's path.  If empty, no data URL is allowed.
	AllowedDataURLs []string
}

// DefaultConfig returns the default Service configuration.
func DefaultConfig() Config {
	opts := plot.DefaultOptions()
	return Config{
		FetchTimeout: datafetcher.DefaultTimeout,
		Width:        opts.Width,
		Height:       opts.Height,
	}
}

func (c Config) validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("plot canvas must have positive size, got %dx%d", c.Width, c.Height)
	}
	for _, allowed := range c.AllowedDataURLs {
		u, err := url.Parse(allowed)
		if err != nil {
			return fmt.Errorf("allowed data URL '%s' is malformed: %w", allowed, err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("allowed data URL '%s' must be an absolute http or https URL", allowed)
		}
	}
	return nil
}

// ErrDataURLNotAllowed is returned when a data URL matches none of the
// configured allowed prefixes.
var ErrDataURLNotAllowed = errors.New("data URL is not allowed")

// checkDataURL returns nil if raw lies under one of the receiver's allowed
// data URL prefixes.
func (c Config) checkDataURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDataURLNotAllowed, err)
	}
	if u.User == nil {
		for _, allowed := range c.AllowedDataURLs {
			// Prefixes were checked by validate.
			a, _ := url.Parse(allowed)
			if u.Scheme == a.Scheme && strings.EqualFold(u.Host, a.Host) && underPath(u.Path, a.Path) {
				return nil
			}
		}
	}
	return fmt.Errorf("%w: '%s'", ErrDataURLNotAllowed, raw)
}

// underPath returns true if p, once cleaned of '..' elements, is prefix or
// lies beneath it.
func underPath(p, prefix string) bool {
	if prefix == "" || prefix == "/" {
		return true
	}
	if p != "" {
		p = path.Clean(p)
	}
	if p == strings.TrimSuffix(prefix, "/") {
		return true
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return strings.HasPrefix(p, prefix)
}

const indexTemplate = `<!DOCTYPE html>
<html>
<head>
<title>InstrumentViz</title>
</head>
<body>
<div id="status">{{.Message}}</div>
{{if .HasChart}}<div id="plot"><div id="caption">{{.Labels.Y}} by {{.Labels.X}}</div><img src="/Plot.svg"></div>{{end}}
<table id="instruments">
<tr><th>Instrument</th><th>Name</th><th>X</th><th>Y</th></tr>
{{range .Instruments}}<tr><td>{{.DisplayName}}</td><td>{{.ShortName}}</td><td>{{.PlotLabels.X}}</td><td>{{.PlotLabels.Y}}</td></tr>
{{end}}</table>
</body>
</html>
`

var index = template.Must(template.New("index").Parse(indexTemplate))

type indexPage struct {
	Message     safehtml.HTML
	HasChart    bool
	Labels      instrument.AxisLabels
	Instruments []*instrument.Instrument
}

// Service serves an instrument viewer.
type Service struct {
	cfg      Config
	log      logr.Logger
	catalog  *instrument.Catalog
	session  *plot.Session
	surface  *message.Surface
	registry *rendererregistry.Registry
	loader   *datafetcher.Loader
	hover    *hover.Coordinator
	gatherer prometheus.Gatherer
}

// New returns a new Service configured by cfg.
func New(cfg Config, log logr.Logger) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	catalog, err := instrument.NewCatalog()
	if err != nil {
		return nil, err
	}
	if cfg.CatalogPath != "" {
		if catalog, err = instrument.LoadCatalog(cfg.CatalogPath); err != nil {
			return nil, fmt.Errorf("failed to load instrument catalog: %w", err)
		}
	}
	session := plot.NewSession()
	surface := message.New()
	opts := plot.DefaultOptions()
	opts.Width, opts.Height = cfg.Width, cfg.Height
	registry := rendererregistry.New(plot.NewDefaultRenderer(session, catalog, opts))

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	fetchMetrics := metrics.NewFetch()
	fetchMetrics.Register(reg)

	loader, err := datafetcher.New(registry, session, surface,
		datafetcher.WithTimeout(cfg.FetchTimeout),
		datafetcher.WithLogger(log.WithName("loader")),
		datafetcher.WithMetrics(fetchMetrics),
	)
	if err != nil {
		return nil, err
	}
	return &Service{
		cfg:      cfg,
		log:      log,
		catalog:  catalog,
		session:  session,
		surface:  surface,
		registry: registry,
		loader:   loader,
		hover:    hover.New(session, surface),
		gatherer: reg,
	}, nil
}

// Registry returns the receiver's renderer registry, allowing renderers for
// additional data-product types to be registered.
func (s *Service) Registry() *rendererregistry.Registry {
	return s.registry
}

// Wait blocks until all in-flight data fetches have completed.  Since any
// request to /GetData starts a fetch, Wait must only be called once the
// receiver's handlers can no longer be invoked, as after http.Server.Shutdown
// has returned.
func (s *Service) Wait() {
	s.loader.Wait()
}

// HandlersByPath returns the receiver's HTTP handlers, keyed by path.
func (s *Service) HandlersByPath() map[string]func(http.ResponseWriter, *http.Request) {
	ret := map[string]func(http.ResponseWriter, *http.Request){
		"/GetData":     s.getData,
		"/Message":     s.message,
		"/Plot":        s.plot,
		"/Readings":    s.readings,
		"/Plot.svg":    s.plotImage(plot.SVG),
		"/Plot.png":    s.plotImage(plot.PNG),
		"/Hover":       s.hoverAt,
		"/Navigate":    s.navigate,
		"/Instruments": s.instruments,
		"/metrics":     promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}).ServeHTTP,
		"/":            s.index,
	}
	if s.cfg.ResourceRoot != "" {
		ret["/static/"] = http.StripPrefix("/static/", http.FileServer(http.Dir(s.cfg.ResourceRoot))).ServeHTTP
	}
	return ret
}

// RegisterHandlers registers the receiver's handlers, with request logging,
// on mux.
func (s *Service) RegisterHandlers(mux *http.ServeMux) {
	handlers.Register(mux, handlers.Wrapped(s, handlers.Logging(s.log)))
}

func (s *Service) getData(w http.ResponseWriter, req *http.Request) {
	if err := req.ParseForm(); err != nil {
		http.Error(w, "Failed to parse request: "+err.Error(), http.StatusBadRequest)
		return
	}
	desc := instrument.Descriptor{
		Type:           req.Form.Get(typeParam),
		InstrumentName: req.Form.Get(instrumentNameParam),
		DataURL:        req.Form.Get(dataURLParam),
	}
	if desc.DataURL == "" {
		http.Error(w, "Request lacks a '"+dataURLParam+"'", http.StatusBadRequest)
		return
	}
	if err := s.cfg.checkDataURL(desc.DataURL); err != nil {
		logr.FromContextOrDiscard(req.Context()).Info("refused data load", "descriptor", desc.String())
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}
	seq := s.loader.Load(req.Context(), desc)
	handlers.SendJSON(w, http.StatusAccepted, map[string]uint64{"seq": seq})
}

func (s *Service) message(w http.ResponseWriter, req *http.Request) {
	w.Header().Set(messageVersionHeader, strconv.FormatUint(s.surface.Version(), 10))
	handlers.SendHTML(w, s.surface.Message())
}

// currentChart returns the session's current chart, or reports to w that
// there is none.
func (s *Service) currentChart(w http.ResponseWriter) (*plot.Chart, bool) {
	chart, err := s.session.Current()
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return nil, false
	}
	return chart, true
}

func (s *Service) plot(w http.ResponseWriter, req *http.Request) {
	chart, ok := s.currentChart(w)
	if !ok {
		return
	}
	drb := util.NewDataResponseBuilder()
	chart.Build(drb.DataSeries(plotSeriesName))
	data, err := drb.Data()
	if err != nil {
		http.Error(w, "Failed to describe plot: "+err.Error(), http.StatusInternalServerError)
		return
	}
	handlers.SendJSON(w, http.StatusOK, data)
}

func (s *Service) readings(w http.ResponseWriter, req *http.Request) {
	chart, ok := s.currentChart(w)
	if !ok {
		return
	}
	drb := util.NewDataResponseBuilder()
	chart.BuildReadings(drb.DataSeries(readingsSeriesName))
	data, err := drb.Data()
	if err != nil {
		http.Error(w, "Failed to describe readings: "+err.Error(), http.StatusInternalServerError)
		return
	}
	handlers.SendJSON(w, http.StatusOK, data)
}

func (s *Service) plotImage(format plot.Format) handlers.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		chart, ok := s.currentChart(w)
		if !ok {
			return
		}
		var buf bytes.Buffer
		if err := chart.Draw(&buf, format); err != nil {
			logr.FromContextOrDiscard(req.Context()).Error(err, "failed to draw plot", "format", format)
			http.Error(w, "Failed to draw plot: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", format.ContentType())
		w.Write(buf.Bytes())
	}
}

func floatParam(req *http.Request, name string) (float64, error) {
	str := req.FormValue(name)
	if str == "" {
		return 0, fmt.Errorf("request lacks a '%s'", name)
	}
	v, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return 0, fmt.Errorf("'%s' must be a number: %w", name, err)
	}
	return v, nil
}

func (s *Service) hoverAt(w http.ResponseWriter, req *http.Request) {
	px, err := floatParam(req, pxParam)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	py, err := floatParam(req, pyParam)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	hit, err := s.hover.HoverAt(px, py)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, plot.ErrNoChart) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}
	if hit {
		if pos, ok := s.highlightPosition(logr.FromContextOrDiscard(req.Context())); ok {
			w.Header().Set(hoverPositionHeader, pos)
		}
	}
	s.message(w, req)
}

// highlightPosition returns the image position, as 'px,py', of the current
// chart's highlighted point, for placing a tooltip.
func (s *Service) highlightPosition(log logr.Logger) (string, bool) {
	chart, err := s.session.Current()
	if err != nil {
		return "", false
	}
	item, ok := chart.Highlighted()
	if !ok {
		return "", false
	}
	px, py, err := chart.Position(item.Datapoint)
	if err != nil {
		log.Error(err, "failed to position highlighted point")
		return "", false
	}
	return strconv.FormatFloat(px, 'f', 1, 64) + "," + strconv.FormatFloat(py, 'f', 1, 64), true
}

func (s *Service) navigate(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "Navigate requires POST", http.StatusMethodNotAllowed)
		return
	}
	chart, ok := s.currentChart(w)
	if !ok {
		return
	}
	if zoom := req.FormValue(zoomParam); zoom != "" {
		if err := chart.Zoom(plot.ZoomDirection(zoom)); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	if pan := req.FormValue(panParam); pan != "" {
		if err := chart.Pan(plot.PanDirection(pan)); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	x, y := chart.View()
	handlers.SendJSON(w, http.StatusOK, map[string]plot.Range{"x": x, "y": y})
}

func (s *Service) instruments(w http.ResponseWriter, req *http.Request) {
	handlers.SendJSON(w, http.StatusOK, s.catalog.Instruments())
}

func (s *Service) index(w http.ResponseWriter, req *http.Request) {
	if req.URL.Path != "/" {
		http.NotFound(w, req)
		return
	}
	_, labels, err := s.session.Snapshot()
	page := indexPage{
		Message:     s.surface.Message(),
		HasChart:    err == nil,
		Labels:      labels,
		Instruments: s.catalog.Instruments(),
	}
	var buf bytes.Buffer
	if err := index.Execute(&buf, page); err != nil {
		logr.FromContextOrDiscard(req.Context()).Error(err, "failed to render viewer page")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}
