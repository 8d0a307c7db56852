package server

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Config for the control-plane HTTP server.
type Config struct {
	DBPath string
	Listen string // e.g. ":8787"
}

// Server serves read-only run history over HTTP. It owns no bot state:
// everything it reports comes from the sqlite run-history database that the
// bot writes after each pass.
type Server struct {
	cfg  Config
	runs *RunsRepo
}

func New(cfg Config) (*Server, error) {
	if cfg.Listen == "" {
		cfg.Listen = ":8787"
	}
	repo, err := OpenRunsRepo(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	return &Server{cfg: cfg, runs: repo}, nil
}

func (s *Server) Close() error {
	return s.runs.Close()
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	api := r.Group("/api")
	{
		api.GET("/runs", s.handleListRuns)
		api.GET("/runs/latest", s.handleLatestRun)
	}
	return r
}

// Run blocks serving HTTP until the listener fails.
func (s *Server) Run() error {
	return s.Router().Run(s.cfg.Listen)
}

func (s *Server) handleListRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	runs, err := s.runs.ListRuns(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if runs == nil {
		runs = []RunRow{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) handleLatestRun(c *gin.Context) {
	run, err := s.runs.LatestRun()
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no runs recorded"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, run)
}
