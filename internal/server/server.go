// Package server exposes the export pipeline over HTTP.
//
// Routes:
//
//	GET  /healthz                                       liveness and build version
//	POST /api/v1/layout                                 area JSON -> layout summary
//	POST /api/v1/figure?format=svg|png&theme=&scale=    area JSON -> layout figure
//	POST /api/v1/sheet                                  area JSON -> XLSX position table
//	POST /api/v1/export?format=pdf|pptx|xlsx            export options JSON -> document
//	GET  /api/v1/projects/{project}/schedules/{schedule}/export?format=
//	                                                    catalog area -> document
//
// Failures are JSON bodies of the form {"code": ..., "message": ...} with
// the status chosen by [errors.HTTPStatus].
package server

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/matzehuels/dancespec/pkg/area"
	"github.com/matzehuels/dancespec/pkg/buildinfo"
	"github.com/matzehuels/dancespec/pkg/errors"
	"github.com/matzehuels/dancespec/pkg/formation"
	"github.com/matzehuels/dancespec/pkg/pipeline"
	"github.com/matzehuels/dancespec/pkg/sheet"
)

// DefaultMaxBody bounds request bodies. Screenshots travel base64 encoded
// inside the export options.
const DefaultMaxBody = 32 << 20

// RequestIDHeader carries the per-request id in both directions.
const RequestIDHeader = "X-Request-ID"

var contentTypes = map[string]string{
	pipeline.FormatPDF:  "application/pdf",
	pipeline.FormatPPTX: "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	pipeline.FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
}

// Options configures a [Server].
type Options struct {
	// Store resolves catalog exports. Catalog routes answer 404 without it.
	Store area.Store

	// Defaults fill export options the request leaves empty.
	Company  string
	Header   string
	GradFrom string
	GradTo   string
	Template string

	MaxBody int64
	Logger  *log.Logger
}

// Server serves the export API.
type Server struct {
	runner *pipeline.Runner
	opts   Options
	logger *log.Logger
	router chi.Router
}

// New creates a server around runner.
func New(runner *pipeline.Runner, opts Options) *Server {
	if opts.MaxBody <= 0 {
		opts.MaxBody = DefaultMaxBody
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	s := &Server{runner: runner, opts: opts, logger: logger}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/layout", s.handleLayout)
		r.Post("/figure", s.handleFigure)
		r.Post("/sheet", s.handleSheet)
		r.Post("/export", s.handleExport)
		r.Get("/projects/{project}/schedules/{schedule}/export", s.handleCatalogExport)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, errors.New(errors.ErrCodeNotFound, "no route for %s %s", r.Method, r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{
			Code:    "METHOD_NOT_ALLOWED",
			Message: http.StatusText(http.StatusMethodNotAllowed),
		})
	})
	return r
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Current().Version,
	})
}

// LayoutResponse is the JSON summary of a landing layout.
type LayoutResponse struct {
	CanRender    bool    `json:"can_render"`
	Reason       string  `json:"reason"`
	Message      string  `json:"message,omitempty"`
	CountX       int     `json:"x_count"`
	CountY       int     `json:"y_count"`
	Total        int     `json:"count,omitempty"`
	ActualRows   int     `json:"rows"`
	LastRowCount int     `json:"last_row_count"`
	WidthM       float64 `json:"width_m"`
	HeightM      float64 `json:"depth_m"`
	Hexagon      bool    `json:"hexagon"`
}

// NewLayoutResponse summarizes m.
func NewLayoutResponse(m formation.Model) LayoutResponse {
	return LayoutResponse{
		CanRender:    m.CanRender,
		Reason:       string(m.Reason),
		Message:      m.Message,
		CountX:       m.CountX,
		CountY:       m.CountY,
		Total:        m.Total,
		ActualRows:   m.ActualRows,
		LastRowCount: m.LastRowCount,
		WidthM:       m.WidthM,
		HeightM:      m.HeightM,
		Hexagon:      m.IsHexagon,
	}
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.decodeArea(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NewLayoutResponse(formation.Build(formation.FromArea(cfg))))
}

func (s *Server) handleFigure(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.decodeArea(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	q := r.URL.Query()
	opts := pipeline.FigureOptions{
		Area:    cfg,
		Format:  q.Get("format"),
		Theme:   q.Get("theme"),
		Refresh: q.Get("refresh") == "true",
	}
	if v := q.Get("scale"); v != "" {
		scale, err := strconv.ParseFloat(v, 64)
		if err != nil || scale <= 0 || scale > pipeline.MaxFigureScale {
			writeError(w, errors.New(errors.ErrCodeInvalidInput, "invalid scale %q (want 0 < scale ≤ %g)", v, pipeline.MaxFigureScale))
			return
		}
		opts.Scale = scale
	}

	data, _, err := s.runner.Figure(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeFile(w, "", opts.Format, data)
}

func (s *Server) handleSheet(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.decodeArea(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := sheet.Write(&buf, formation.Build(formation.FromArea(cfg))); err != nil {
		writeError(w, err)
		return
	}
	writeFile(w, "positions.xlsx", pipeline.FormatXLSX, buf.Bytes())
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var opts pipeline.Options
	if err := s.decodeJSON(w, r, &opts); err != nil {
		writeError(w, err)
		return
	}
	if opts.Template != "" {
		if err := errors.ValidateURL(opts.Template); err != nil {
			writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "template must be an http(s) URL"))
			return
		}
	}
	s.export(w, r, &opts)
}

func (s *Server) handleCatalogExport(w http.ResponseWriter, r *http.Request) {
	if s.opts.Store == nil {
		writeError(w, errors.New(errors.ErrCodeNotFound, "no area catalog configured"))
		return
	}
	project := chi.URLParam(r, "project")
	schedule := chi.URLParam(r, "schedule")
	cfg, err := s.opts.Store.Load(r.Context(), project, schedule)
	if err != nil {
		writeError(w, err)
		return
	}
	opts := pipeline.Options{
		Area:     cfg,
		Project:  project,
		Schedule: schedule,
		Refresh:  r.URL.Query().Get("refresh") == "true",
	}
	s.export(w, r, &opts)
}

// export runs the pipeline for the single format named by the query and
// writes it as an attachment.
func (s *Server) export(w http.ResponseWriter, r *http.Request, opts *pipeline.Options) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatPDF
	}
	if err := pipeline.ValidateFormats([]string{format}); err != nil {
		writeError(w, err)
		return
	}
	opts.Formats = []string{format}
	s.applyDefaults(opts)
	opts.Logger = s.logger.With("request_id", requestIDFrom(r))

	result, err := s.runner.Execute(r.Context(), *opts)
	if err != nil {
		writeError(w, err)
		return
	}
	if result.CacheInfo.ExportHit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	writeFile(w, result.Filename(format), format, result.Artifacts[format])
}

func (s *Server) applyDefaults(opts *pipeline.Options) {
	set := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	set(&opts.Company, s.opts.Company)
	set(&opts.Header, s.opts.Header)
	set(&opts.GradFrom, s.opts.GradFrom)
	set(&opts.GradTo, s.opts.GradTo)
	set(&opts.Template, s.opts.Template)
}

// =============================================================================
// Request decoding
// =============================================================================

func (s *Server) decodeArea(w http.ResponseWriter, r *http.Request) (*area.Config, error) {
	body := http.MaxBytesReader(w, r.Body, s.opts.MaxBody)
	cfg, err := area.Decode(body, area.FormatJSON)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return nil, errors.New(errors.ErrCodeInvalidInput, "request body exceeds %d bytes", tooLarge.Limit)
		}
		return nil, err
	}
	if err := formation.FromArea(cfg).CheckLimits(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.opts.MaxBody))
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return errors.New(errors.ErrCodeInvalidInput, "request body exceeds %d bytes", tooLarge.Limit)
		}
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request")
	}
	return nil
}

// =============================================================================
// Responses
// =============================================================================

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, errors.HTTPStatus(err), errorResponse{
		Code:    string(code),
		Message: errors.UserMessage(err),
	})
}

// writeFile writes data with the content type of format. A non-empty name
// marks the response as a download.
func writeFile(w http.ResponseWriter, name, format string, data []byte) {
	if ct, ok := contentTypes[format]; ok {
		w.Header().Set("Content-Type", ct)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	if name != "" {
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// =============================================================================
// Middleware
// =============================================================================

type ctxKey struct{}

// requestID tags each request with the caller's X-Request-ID or a fresh
// UUID and echoes it in the response.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(withRequestID(r.Context(), id)))
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		logf := s.logger.Info
		if status >= http.StatusInternalServerError {
			logf = s.logger.Error
		}
		logf("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Millisecond),
			"request_id", requestIDFrom(r),
		)
	})
}
