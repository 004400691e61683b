package server

import (
	"context"
	"errors"
	"github.com/gin-gonic/gin"
	"github.com/maxaizer/job-digest/internal/metrics"
	log "github.com/sirupsen/logrus"
	"net/http"
	"sync"
	"time"
)

// RunFunc executes one pipeline run.
type RunFunc func(ctx context.Context) error

type reportStore interface {
	Latest(ctx context.Context) ([]byte, error)
	ByDate(ctx context.Context, day time.Time) ([]byte, error)
}

// Server exposes health, metrics, the stored reports and a manual run trigger.
// At most one run is in progress at a time.
type Server struct {
	router  *gin.Engine
	run     RunFunc
	reports reportStore

	runMu   sync.Mutex
	baseCtx context.Context
	wg      sync.WaitGroup
}

func New(ctx context.Context, run RunFunc, reports reportStore) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{router: gin.New(), run: run, reports: reports, baseCtx: ctx}
	s.router.Use(gin.Recovery())
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.GET("/health", s.health)
	s.router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := s.router.Group("/api")
	{
		api.GET("/report/latest", s.latestReport)
		api.GET("/report/:date", s.reportByDate)
		api.POST("/runs", s.triggerRun)
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks until ctx is done, then shuts the server down and
// waits for a triggered run to finish.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{Addr: addr, Handler: s.router, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("http server listening on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := httpServer.Shutdown(shutdownCtx)
	s.wg.Wait()
	return err
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) latestReport(c *gin.Context) {
	s.writeReport(c, func(ctx context.Context) ([]byte, error) { return s.reports.Latest(ctx) })
}

func (s *Server) reportByDate(c *gin.Context) {
	day, err := time.Parse(time.DateOnly, c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}
	s.writeReport(c, func(ctx context.Context) ([]byte, error) { return s.reports.ByDate(ctx, day) })
}

func (s *Server) writeReport(c *gin.Context, load func(ctx context.Context) ([]byte, error)) {
	data, err := load(c.Request.Context())
	if err != nil {
		log.Errorf("failed to load report: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load report"})
		return
	}
	if data == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

// triggerRun starts a run in the background and answers 409 while one is running.
func (s *Server) triggerRun(c *gin.Context) {
	if !s.runMu.TryLock() {
		c.JSON(http.StatusConflict, gin.H{"error": "a run is already in progress"})
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.runMu.Unlock()
		if err := s.run(s.baseCtx); err != nil {
			log.Errorf("triggered run failed: %v", err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "started"})
}
