package server

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/atikulmunna/dnslog/internal/aggregator"
	"github.com/atikulmunna/dnslog/internal/converter"
	"github.com/atikulmunna/dnslog/internal/output"
	"github.com/atikulmunna/dnslog/internal/theme"
)

//go:embed all:web
var webFS embed.FS

// defaultMaxInput caps the size of a convert request body.
const defaultMaxInput = 32 << 20

// Server holds the Gin engine and dependencies for the web converter.
type Server struct {
	engine    *gin.Engine
	converter *converter.Converter
	themes    *theme.Store
	port      string
	maxInput  int64
	now       func() time.Time
}

// New creates a web server around conv. themes may be nil, in which case
// the theme endpoints report the system preference and refuse changes.
func New(conv *converter.Converter, themes *theme.Store, port string) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.RedirectTrailingSlash = false
	engine.RedirectFixedPath = false

	s := &Server{
		engine:    engine,
		converter: conv,
		themes:    themes,
		port:      port,
		maxInput:  defaultMaxInput,
		now:       time.Now,
	}

	s.setupRoutes()
	return s
}

// Handler exposes the engine, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// serveEmbedded reads a file from the embedded FS and writes it with the given content type.
func serveEmbedded(webContent fs.FS, name string, contentType string) gin.HandlerFunc {
	data, err := fs.ReadFile(webContent, name)
	return func(c *gin.Context) {
		if err != nil {
			c.String(http.StatusNotFound, "file not found: %s", name)
			return
		}
		c.Data(http.StatusOK, contentType, data)
	}
}

func (s *Server) setupRoutes() {
	webContent, _ := fs.Sub(webFS, "web")

	s.engine.GET("/", serveEmbedded(webContent, "index.html", "text/html; charset=utf-8"))
	s.engine.GET("/style.css", serveEmbedded(webContent, "style.css", "text/css; charset=utf-8"))
	s.engine.GET("/app.js", serveEmbedded(webContent, "app.js", "application/javascript; charset=utf-8"))

	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"records": len(s.converter.Results()),
		})
	})

	api := s.engine.Group("/api")
	api.POST("/convert", s.handleConvert)
	api.GET("/records", s.handleRecords)
	api.GET("/activity", s.handleActivity)
	api.POST("/clear", s.handleClear)
	api.GET("/download", s.handleDownload)
	api.GET("/theme", s.handleTheme)
	api.POST("/theme", s.handleSetTheme)
}

// convertResponse is returned by /api/convert.
type convertResponse struct {
	Lines     []string         `json:"lines"`
	Processed int              `json:"processed"`
	Total     int              `json:"total"`
	Stats     string           `json:"stats"`
	Filename  string           `json:"filename"`
	Activity  aggregator.Stats `json:"activity"`
}

// handleConvert processes the raw request body as log text. Bodies over
// the size limit are rejected rather than truncated.
func (s *Server) handleConvert(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, s.maxInput))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("input exceeds %d bytes", tooLarge.Limit)})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res := s.converter.Process(string(body))
	c.JSON(http.StatusOK, convertResponse{
		Lines:     converter.Texts(res.Records),
		Processed: res.Processed,
		Total:     res.Total,
		Stats:     res.Stats(),
		Filename:  s.converter.SuggestedFilename(s.now()),
		Activity:  s.converter.Activity().Snapshot(),
	})
}

// handleRecords returns the last results through a view filter.
func (s *Server) handleRecords(c *gin.Context) {
	view, err := converter.ParseView(c.Query("view"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	f, ok := s.converter.Filter(view)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"lines": []string{}, "shown": 0, "of": 0, "stats": converter.Result{}.Stats()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"lines": converter.Texts(f.Records),
		"shown": f.Shown,
		"of":    f.Of,
		"stats": f.Stats(),
	})
}

// handleActivity returns the histogram series, switching period if asked.
func (s *Server) handleActivity(c *gin.Context) {
	act := s.converter.Activity()
	if p := c.Query("period"); p != "" {
		period := aggregator.Period(p)
		if period != aggregator.PeriodHour && period != aggregator.PeriodDay {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown period %q", p)})
			return
		}
		act.SetPeriod(period)
	}

	series := act.Series()
	var fullDates []string
	if act.Period() == aggregator.PeriodDay {
		fullDates = make([]string, len(series.Labels))
		for i := range series.Labels {
			fullDates[i] = act.FullDate(i)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"series":     series,
		"full_dates": fullDates,
		"stats":      act.Snapshot(),
	})
}

func (s *Server) handleClear(c *gin.Context) {
	s.converter.Clear()
	c.JSON(http.StatusOK, gin.H{"stats": converter.Result{}.Stats()})
}

// handleDownload returns the last results as a text attachment.
func (s *Server) handleDownload(c *gin.Context) {
	records := s.converter.Results()
	if len(records) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "нет данных для сохранения"})
		return
	}

	name := s.converter.SuggestedFilename(s.now())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(output.Export(records)))
}

func (s *Server) handleTheme(c *gin.Context) {
	t := theme.SystemPreference()
	if s.themes != nil {
		t = s.themes.Theme()
	}
	c.JSON(http.StatusOK, gin.H{"theme": t})
}

// handleSetTheme applies ?theme=light|dark, or toggles when absent.
func (s *Server) handleSetTheme(c *gin.Context) {
	if s.themes == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "theme store not configured"})
		return
	}

	var (
		t   theme.Theme
		err error
	)
	if name := c.Query("theme"); name != "" {
		t, err = theme.Parse(name)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		err = s.themes.Apply(t)
	} else {
		t, err = s.themes.Toggle()
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"theme": t})
}

// Start runs the server. Blocks until the server is stopped.
func (s *Server) Start() error {
	return s.engine.Run(":" + s.port)
}
