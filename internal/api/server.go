package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AbdulsaboorS/fantasybasketballbot/internal/cycle"
	"github.com/AbdulsaboorS/fantasybasketballbot/internal/metrics"
	"github.com/AbdulsaboorS/fantasybasketballbot/internal/recorder"
)

var allowedOrigins = map[string]bool{
	"http://localhost:5173": true,
	"http://127.0.0.1:5173": true,
}

// Server is the dashboard HTTP API. It holds at most one pending session.
type Server struct {
	orchestrator *cycle.Orchestrator
	recorder     recorder.Recorder
	engine       *gin.Engine

	mu      sync.Mutex
	session *cycle.Session
}

// NewServer builds the router. Nil metrics disables /metrics.
func NewServer(o *cycle.Orchestrator, rec recorder.Recorder, m *metrics.Metrics) *Server {
	gin.SetMode(gin.ReleaseMode)
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	s := &Server{
		orchestrator: o,
		recorder:     rec,
		engine:       gin.New(),
	}
	s.engine.Use(gin.Recovery(), cors)

	s.engine.GET("/health", s.getHealth)
	s.engine.GET("/analyze", s.analyze)
	s.engine.POST("/execute", s.execute)
	s.engine.GET("/lineup-status", s.lineupStatus)
	s.engine.POST("/lineup/execute", s.lineupExecute)
	s.engine.GET("/quota", s.getQuota)
	s.engine.GET("/history", s.getHistory)
	if m != nil {
		s.engine.GET("/metrics", gin.WrapH(m.Handler()))
	}
	return s
}

func cors(c *gin.Context) {
	origin := c.Request.Header.Get("Origin")
	if allowedOrigins[origin] {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	}
	if c.Request.Method == http.MethodOptions {
		c.AbortWithStatus(http.StatusNoContent)
		return
	}
	c.Next()
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("[INFO] API listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		log.Println("[INFO] API stopped")
		return nil
	}
}

func (s *Server) getHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "dry_run": s.orchestrator.DryRun()})
}

// analyze returns fresh suggestions and keeps them pending for /execute. No writes.
func (s *Server) analyze(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.orchestrator.Start(c.Request.Context())
	if err != nil {
		s.session = nil
		fail(c, err)
		return
	}
	s.session = sess
	c.JSON(http.StatusOK, sess.Suggestions())
}

type executeRequest struct {
	Confirm     bool `json:"confirm"`
	GenerateNew bool `json:"generate_new"`
}

// execute confirms (runs the streaming move), regenerates, or declines.
func (s *Server) execute(c *gin.Context) {
	var req executeRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		}
	}
	ctx := c.Request.Context()

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case req.Confirm:
		var res *cycle.Result
		var err error
		if s.pending() {
			err = s.session.Decide(ctx, cycle.DecisionConfirm)
			res, _ = s.session.Result()
		} else {
			res, err = s.orchestrator.RunCycle(ctx, true)
		}
		s.session = nil
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	case req.GenerateNew:
		var err error
		if s.pending() {
			err = s.session.Decide(ctx, cycle.DecisionRegenerate)
		} else {
			s.session, err = s.orchestrator.Start(ctx)
		}
		if err != nil {
			s.session = nil
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"executed": false, "suggestions": s.session.Suggestions()})
	default:
		actions := []string{}
		if s.pending() {
			if err := s.session.Decide(ctx, cycle.DecisionDecline); err == nil {
				res, _ := s.session.Result()
				actions = res.Actions
			}
		}
		s.session = nil
		c.JSON(http.StatusOK, gin.H{"executed": false, "actions": actions})
	}
}

func (s *Server) pending() bool {
	return s.session != nil && s.session.State() == cycle.StateAwaitingConfirmation
}

func (s *Server) lineupStatus(c *gin.Context) {
	report, err := s.orchestrator.CheckLineupStatus(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	s.orchestrator.RecordLineupCheck(report)
	c.JSON(http.StatusOK, report)
}

type lineupExecuteRequest struct {
	IncludeNoGame bool `json:"include_no_game"`
}

func (s *Server) lineupExecute(c *gin.Context) {
	var req lineupExecuteRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		}
	}
	report, outcomes, err := s.orchestrator.ExecuteLineupSwaps(c.Request.Context(), req.IncludeNoGame)
	if err != nil {
		fail(c, err)
		return
	}
	if outcomes == nil {
		outcomes = []cycle.SwapOutcome{}
	}
	c.JSON(http.StatusOK, gin.H{"status": report, "swaps": outcomes})
}

func (s *Server) getQuota(c *gin.Context) {
	v, err := s.orchestrator.Quota(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (s *Server) getHistory(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "limit must be between 1 and 500"})
			return
		}
		limit = n
	}
	recs, err := s.recorder.RecentTransactions(limit)
	if err != nil {
		fail(c, err)
		return
	}
	if recs == nil {
		recs = []recorder.TransactionRecord{}
	}
	c.JSON(http.StatusOK, recs)
}

// fail maps platform rejections to 502 and everything else to 500.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if cycle.IsWriteFailure(err) {
		status = http.StatusBadGateway
	}
	log.Printf("[ERROR] %s %s: %v", c.Request.Method, c.FullPath(), err)
	c.JSON(status, gin.H{"detail": err.Error()})
}
