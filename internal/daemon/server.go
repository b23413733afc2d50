package daemon

import (
	"context"
	"errors"
	"memcard/internal/locate"
	"memcard/internal/logger"
	"memcard/internal/model"
	"memcard/internal/repository"
	"memcard/internal/syncer"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

type Server struct {
	echo     *echo.Echo
	manager  *Manager
	gameRepo *repository.GameRepository
	logRepo  *repository.SyncLogRepository
	port     int
	stopCh   chan struct{}
}

func NewServer(manager *Manager, port int) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:     e,
		manager:  manager,
		gameRepo: repository.NewGameRepository(),
		logRepo:  repository.NewSyncLogRepository(),
		port:     port,
		stopCh:   make(chan struct{}, 1),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	// For the entire daemon
	s.echo.GET("/status", s.handleStatus)
	s.echo.POST("/stop", s.handleStop)

	// For a specific game
	g := s.echo.Group("/games")
	g.GET("", s.handleListGames)
	g.POST("", s.handleAddGame)
	g.DELETE("/:id", s.handleRemoveGame)
	g.POST("/:id/pause", s.handlePauseGame)
	g.POST("/:id/resume", s.handleResumeGame)
	g.POST("/:id/sync", s.handleSyncGame)

	// Conflict resolution
	s.echo.POST("/resolve", s.handleResolve)

	// History and discovery
	s.echo.GET("/history", s.handleHistory)
	s.echo.GET("/history/stats", s.handleHistoryStats)
	s.echo.DELETE("/history", s.handleClearHistory)
	s.echo.GET("/locate", s.handleLocate)
}

func (s *Server) Start() {
	go func() {
		addr := ":" + strconv.Itoa(s.port)
		logger.Log.Info("daemon server started",
			zap.String("addr", addr))

		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("daemon server error", zap.Error(err))
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	s.manager.StopAll()
	return s.echo.Shutdown(ctx)
}

func (s *Server) StopCh() <-chan struct{} {
	return s.stopCh
}

func (s *Server) handleStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"games": s.manager.Snapshots(),
	})
}

func (s *Server) handleStop(c echo.Context) error {
	select {
	case s.stopCh <- struct{}{}:
	default:
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "stopping"})
}

func (s *Server) handleListGames(c echo.Context) error {
	games, err := s.gameRepo.GetAll()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	snaps := make(map[uint]GameSnapshot)
	for _, snap := range s.manager.Snapshots() {
		snaps[snap.GameID] = snap
	}

	return c.JSON(http.StatusOK, map[string]any{
		"games":   games,
		"running": snaps,
	})
}

type addGameRequest struct {
	Name       string `json:"name"`
	LocalPath  string `json:"local_path"`
	MirrorPath string `json:"mirror_path"`
	Policy     string `json:"policy"`
}

func (s *Server) handleAddGame(c echo.Context) error {
	var req addGameRequest
	if err := c.Bind(&req); err != nil || req.Name == "" || req.LocalPath == "" || req.MirrorPath == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "name, local_path and mirror_path required"})
	}

	policy, ok := syncer.ParsePolicy(req.Policy)
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown policy: " + req.Policy})
	}

	game, err := s.gameRepo.Add(req.Name, req.LocalPath, req.MirrorPath, string(policy))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	if err := s.manager.StartGame(game); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusCreated, game)
}

func (s *Server) handleRemoveGame(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}

	_ = s.manager.StopGame(uint(id))

	if err := s.gameRepo.Delete(uint(id)); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handlePauseGame(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}

	if err := s.manager.PauseGame(uint(id)); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "paused"})
}

func (s *Server) handleResumeGame(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}

	if err := s.manager.ResumeGame(uint(id)); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "resumed"})
}

func (s *Server) handleSyncGame(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}

	if err := s.manager.TriggerSync(uint(id)); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusAccepted, map[string]string{"status": "sync requested"})
}

type resolveRequest struct {
	GameID     uint   `json:"game_id"`
	LocalPath  string `json:"local_path"`
	MirrorPath string `json:"mirror_path"`
	UseLocal   bool   `json:"use_local"`
}

func (s *Server) handleResolve(c echo.Context) error {
	var req resolveRequest
	if err := c.Bind(&req); err != nil || req.LocalPath == "" || req.MirrorPath == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "local_path and mirror_path required"})
	}

	if err := s.manager.Resolve(req.GameID, req.LocalPath, req.MirrorPath, req.UseLocal); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "resolved"})
}

func (s *Server) handleHistory(c echo.Context) error {
	n := 20
	if nStr := c.QueryParam("n"); nStr != "" {
		if parsed, err := strconv.Atoi(nStr); err == nil {
			n = parsed
		}
	}

	var (
		entries []model.SyncLog
		err     error
	)

	if gameStr := c.QueryParam("game_id"); gameStr != "" {
		gameID, parseErr := strconv.ParseUint(gameStr, 10, 64)
		if parseErr != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid game_id"})
		}
		entries, err = s.logRepo.GetByGame(uint(gameID), n)
	} else {
		entries, err = s.logRepo.GetRecent(n)
	}

	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, entries)
}

func (s *Server) handleHistoryStats(c echo.Context) error {
	stats, err := s.logRepo.GetStats()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]int64{
		"total":   stats.Total,
		"success": stats.Success,
		"failed":  stats.Failed,
	})
}

func (s *Server) handleClearHistory(c echo.Context) error {
	var gameID uint64
	if gameStr := c.QueryParam("game_id"); gameStr != "" {
		parsed, err := strconv.ParseUint(gameStr, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid game_id"})
		}
		gameID = parsed
	}

	cleared, err := s.logRepo.Clear(uint(gameID))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]int64{"cleared": cleared})
}

func (s *Server) handleLocate(c echo.Context) error {
	name := c.QueryParam("name")
	if name == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "name required"})
	}

	suggestions, err := locate.FindSaveLocations(name)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, suggestions)
}
