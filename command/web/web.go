package web

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"calls-dashboard/connectors/chart"
	cfgconn "calls-dashboard/connectors/config"
	ccsv "calls-dashboard/connectors/csv"
	"calls-dashboard/connectors/session"
	"calls-dashboard/connectors/watch"
	"calls-dashboard/connectors/xlsx"
	"calls-dashboard/domain/calls"
	dc "calls-dashboard/domain/config"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	lo "github.com/samber/lo"
)

// Run starts the Echo web server exposing the upload and chart APIs and an optional SPA dashboard.
//
// Usage:
//
//	calls-dashboard web [-addr :8080] [-ui ./ui/dist] [-uploads ./uploads/data_upload] [-max-upload-mb 1800]
//
// Endpoints:
//
//	POST   /api/upload                     multipart "file" (.xlsx) -> {session, months, selected}
//	GET    /api/config                     chart categories and colours
//	GET    /api/sessions/:id/months        -> {months, selected}
//	GET    /api/sessions/:id/chart         ?month=YYYY-MM (repeatable) -> aggregated rows + title
//	GET    /api/sessions/:id/chart.png     same query, rendered chart
//	GET    /api/sessions/:id/chart.csv     same query, long-form CSV
//	DELETE /api/sessions/:id
//
// With -uploads set, workbooks dropped in that directory are ingested as session "inbox".
// When -ui points to a built Vite app (index.html exists), static files are served at / and
// unknown routes fall back to index.html for SPA routing.
func Run(args []string) error {
	fs := flag.NewFlagSet("web", flag.ContinueOnError)
	addr := fs.String("addr", ":8080", "http listen address (host:port)")
	uiDir := fs.String("ui", "./ui/dist", "directory containing built UI (Vite dist)")
	uploads := fs.String("uploads", "", "directory to watch for uploaded workbooks (optional)")
	maxMB := fs.Int("max-upload-mb", 1800, "maximum upload size in megabytes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := cfgconn.Resolve()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := session.NewStore(cfg.Sessions.Max, cfg.Sessions.TTL)
	if cfg.Sessions.TTL > 0 {
		store.StartCleanup(ctx, max(cfg.Sessions.TTL/4, time.Second))
	}

	if *uploads != "" {
		w := watch.New(*uploads, cfg.Ingest, store)
		if err := w.Start(ctx); err != nil {
			return fmt.Errorf("watch %s: %w", *uploads, err)
		}
		if err := w.Backfill(); err != nil {
			slog.Error("watch.backfill.error", "dir", *uploads, "error", err)
		}
	}

	e := NewServer(*cfg, store, Options{UIDir: *uiDir, MaxUploadMB: *maxMB})
	slog.Info("web.start", "addr", *addr, "uploads", *uploads)
	return e.Start(*addr)
}

// Options tune NewServer.
type Options struct {
	UIDir       string
	MaxUploadMB int
}

type server struct {
	cfg    dc.Config
	domain calls.Domain
	store  *session.Store
}

// NewServer wires the routes onto a fresh Echo instance.
func NewServer(cfg dc.Config, store *session.Store, opts Options) *echo.Echo {
	s := &server{cfg: cfg, domain: calls.NewDomain(cfg), store: store}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			slog.Info("http.request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))

	api := e.Group("/api")
	if opts.MaxUploadMB > 0 {
		api.POST("/upload", s.upload, middleware.BodyLimit(fmt.Sprintf("%dM", opts.MaxUploadMB)))
	} else {
		api.POST("/upload", s.upload)
	}
	api.GET("/config", s.config)
	api.GET("/sessions/:id/months", s.months)
	api.GET("/sessions/:id/chart", s.chartJSON)
	api.GET("/sessions/:id/chart.png", s.chartPNG)
	api.GET("/sessions/:id/chart.csv", s.chartCSV)
	api.DELETE("/sessions/:id", s.deleteSession)

	// Static UI (optional)
	if opts.UIDir == "" {
		return e
	}
	indexPath := filepath.Join(opts.UIDir, "index.html")
	if fi, err := os.Stat(indexPath); err == nil && !fi.IsDir() {
		e.Static("/", opts.UIDir)
		e.GET("/", func(c echo.Context) error { return c.File(indexPath) })

		// Fallback to index.html for non-API 404s (SPA routing) while keeping static assets working
		e.HTTPErrorHandler = func(err error, c echo.Context) {
			if he, ok := err.(*echo.HTTPError); ok && he.Code == http.StatusNotFound {
				if !strings.HasPrefix(c.Request().URL.Path, "/api") {
					_ = c.File(indexPath)
					return
				}
			}
			e.DefaultHTTPErrorHandler(err, c)
		}
	}
	return e
}

type selection struct {
	Session  string   `json:"session,omitempty"`
	Months   []string `json:"months"`
	Selected []string `json:"selected"`
	Records  int      `json:"records,omitempty"`
	Error    string   `json:"error,omitempty"`
}

func emptySelection(msg string) selection {
	return selection{Months: []string{}, Selected: []string{}, Error: msg}
}

// upload ingests a workbook. Passing ?session=<id> replaces that session's table;
// a failed upload never touches an existing table.
func (s *server) upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, emptySelection("multipart field \"file\" is required"))
	}
	if !strings.EqualFold(filepath.Ext(fh.Filename), ".xlsx") {
		return c.JSON(http.StatusBadRequest, emptySelection("only .xlsx files are accepted"))
	}
	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, emptySelection(err.Error()))
	}
	defer f.Close()

	t, err := xlsx.Read(f, s.cfg.Ingest)
	if err != nil {
		slog.Error("upload.ingest.error", "file", fh.Filename, "error", err)
		return c.JSON(http.StatusUnprocessableEntity, emptySelection(err.Error()))
	}
	t.Source = fh.Filename

	id := c.QueryParam("session")
	if id != "" {
		s.store.Set(id, t)
	} else {
		id = s.store.Put(t)
	}
	slog.Info("upload.ingest.done", "file", fh.Filename, "session", id, "records", len(t.Records))
	return c.JSON(http.StatusOK, selection{
		Session:  id,
		Months:   t.Months(),
		Selected: t.DefaultSelection(s.cfg.Chart.DefaultMonths),
		Records:  len(t.Records),
	})
}

func (s *server) config(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"categories":     s.domain.Categories(),
		"colors":         s.cfg.Colors(),
		"top_n":          s.cfg.Chart.TopN,
		"default_months": s.cfg.Chart.DefaultMonths,
	})
}

func (s *server) months(c echo.Context) error {
	id := c.Param("id")
	t, ok := s.store.Get(id)
	if !ok {
		return c.JSON(http.StatusNotFound, emptySelection("unknown session"))
	}
	return c.JSON(http.StatusOK, selection{
		Session:  id,
		Months:   t.Months(),
		Selected: t.DefaultSelection(s.cfg.Chart.DefaultMonths),
		Records:  len(t.Records),
	})
}

type chartResponse struct {
	calls.Result
	Categories []string          `json:"categories"`
	Colors     map[string]string `json:"colors"`
}

func (s *server) chartJSON(c echo.Context) error {
	res, err := s.aggregate(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, chartResponse{Result: res, Categories: s.domain.Categories(), Colors: s.cfg.Colors()})
}

func (s *server) chartPNG(c echo.Context) error {
	res, err := s.aggregate(c)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	st := chart.Style{
		Categories: s.domain.Categories(),
		Colors:     s.cfg.Colors(),
		Width:      s.cfg.Chart.Width,
		Height:     s.cfg.Chart.Height,
	}
	if err := chart.RenderPNG(&buf, res, st); err != nil {
		slog.Error("chart.render.error", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": err.Error(), "message": "failed to render chart"})
	}
	return c.Blob(http.StatusOK, "image/png", buf.Bytes())
}

func (s *server) chartCSV(c echo.Context) error {
	res, err := s.aggregate(c)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="top_callers.csv"`)
	c.Response().WriteHeader(http.StatusOK)
	return ccsv.WriteRows(c.Response(), res.Rows)
}

func (s *server) deleteSession(c echo.Context) error {
	if !s.store.Delete(c.Param("id")) {
		return c.JSON(http.StatusNotFound, map[string]any{"error": "unknown session"})
	}
	return c.NoContent(http.StatusNoContent)
}

// aggregate resolves the session and month query. An unknown session yields the
// placeholder chart rather than an error.
func (s *server) aggregate(c echo.Context) (calls.Result, error) {
	months, err := parseMonths(c.QueryParams()["month"])
	if err != nil {
		return calls.Result{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	t, ok := s.store.Get(c.Param("id"))
	if !ok {
		months = nil
	}
	return calls.Aggregate(t, months, s.domain), nil
}

var errMonth = errors.New("month must be formatted YYYY-MM")

// parseMonths accepts repeated and comma-separated values, dropping duplicates.
func parseMonths(raw []string) ([]string, error) {
	var out []string
	for _, v := range raw {
		for _, m := range strings.Split(v, ",") {
			m = strings.TrimSpace(m)
			if m == "" {
				continue
			}
			if _, err := time.Parse(calls.MonthLayout, m); err != nil {
				return nil, fmt.Errorf("%w: %q", errMonth, m)
			}
			out = append(out, m)
		}
	}
	return lo.Uniq(out), nil
}
