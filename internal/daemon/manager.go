package daemon

import (
	"context"
	"errors"
	"fmt"
	"memcard/internal/config"
	"memcard/internal/logger"
	"memcard/internal/model"
	"memcard/internal/pipeline"
	"memcard/internal/repository"
	"memcard/internal/syncer"
	"memcard/internal/watcher"
	"sync"
	"time"

	"go.uber.org/zap"
)

const debounceDelay = 500 * time.Millisecond

// Manager supervises one sync loop per game: a filesystem watcher on the
// local save tree plus a periodic interval timer, both funneling into the
// orchestrator.
type Manager struct {
	mu       sync.RWMutex
	games    map[uint]*GameState
	cfg      *config.Config
	orch     *syncer.Orchestrator
	gameRepo *repository.GameRepository
	logRepo  *repository.SyncLogRepository
}

func NewManager(cfg *config.Config) *Manager {
	return &Manager{
		games: make(map[uint]*GameState),
		cfg:   cfg,
		orch: syncer.NewOrchestrator(syncer.Options{
			Tolerance:  cfg.Tolerance(),
			Parallel:   cfg.ParallelCopies,
			IgnoreList: cfg.IgnoreList,
		}),
		gameRepo: repository.NewGameRepository(),
		logRepo:  repository.NewSyncLogRepository(),
	}
}

func (m *Manager) StartGame(game model.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.games[game.ID]; exists {
		return fmt.Errorf("game %d already running", game.ID)
	}

	policy, ok := syncer.ParsePolicy(game.Policy)
	if !ok {
		policy, _ = syncer.ParsePolicy(m.cfg.ConflictPolicy)
	}

	state := NewGameState(game, policy)
	if game.Status == model.GameStatusPaused {
		state.Status = model.GameStatusPaused
	} else {
		// Sync once on startup before any event or tick arrives.
		state.SyncCh <- struct{}{}
	}

	events, w := m.newEventSource(game)

	m.games[game.ID] = state
	go m.runLoop(state, events, w)

	logger.Log.Info("game started",
		zap.Uint("id", game.ID),
		zap.String("name", game.Name),
		zap.String("local", game.LocalPath),
		zap.String("mirror", game.MirrorPath),
		zap.String("policy", string(policy)))

	return nil
}

// newEventSource builds the watch pipeline for a game. A missing local tree
// is fine; the interval timer still drives the loop.
func (m *Manager) newEventSource(game model.Game) (<-chan model.FileEvent, *watcher.Watcher) {
	w, err := watcher.New(m.cfg.BufferSize)
	if err != nil {
		logger.Log.Warn("failed to create watcher, falling back to interval sync",
			zap.Uint("id", game.ID),
			zap.Error(err))
		return nil, nil
	}

	if err := w.Watch(game.LocalPath); err != nil {
		logger.Log.Warn("failed to watch local path, falling back to interval sync",
			zap.Uint("id", game.ID),
			zap.String("path", game.LocalPath),
			zap.Error(err))
		w.Stop()
		return nil, nil
	}

	debounced := pipeline.Debounce(w.Events(), debounceDelay)
	return pipeline.Filter(debounced, m.cfg.IgnoreList), w
}

func (m *Manager) runLoop(state *GameState, events <-chan model.FileEvent, w *watcher.Watcher) {
	ticker := time.NewTicker(m.cfg.SyncInterval)

	defer func() {
		ticker.Stop()
		if w != nil {
			w.Stop()
		}

		m.mu.Lock()
		delete(m.games, state.GameID)
		m.mu.Unlock()

		logger.Log.Info("game stopped",
			zap.Uint("id", state.GameID))
	}()

	for {
		select {
		case <-state.StopCh:
			return

		case <-state.PauseCh:
			state.SetStatus(model.GameStatusPaused)
			_ = m.gameRepo.UpdateStatus(state.GameID, model.GameStatusPaused)
			logger.Log.Info("game paused",
				zap.Uint("id", state.GameID))

		case <-state.ResumeCh:
			state.SetStatus(model.GameStatusActive)
			_ = m.gameRepo.UpdateStatus(state.GameID, model.GameStatusActive)
			logger.Log.Info("game resumed",
				zap.Uint("id", state.GameID))
			m.syncGame(state)

		case <-state.SyncCh:
			m.syncGame(state)

		case <-ticker.C:
			if state.CurrentStatus() == model.GameStatusActive {
				m.syncGame(state)
			}

		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}

			if state.CurrentStatus() == model.GameStatusActive {
				logger.Log.Debug("change detected",
					zap.Uint("id", state.GameID),
					zap.String("path", event.Path))
				m.syncGame(state)
			}
		}
	}
}

func (m *Manager) syncGame(state *GameState) {
	result, err := m.orch.Run(context.Background(), syncer.Request{
		LocalPath:  state.LocalPath,
		MirrorPath: state.MirrorPath,
		Policy:     state.Policy,
	})
	if errors.Is(err, syncer.ErrSyncInProgress) {
		return
	}

	state.RecordRun(result, err)

	entry := model.SyncLog{
		GameID:      state.GameID,
		GameName:    state.Name,
		Operation:   model.OpSync,
		FilesSynced: result.FilesSynced,
		Conflicts:   len(result.Conflicts),
		Failed:      len(result.SoftErrors),
		Success:     err == nil && result.Success,
		SyncedAt:    time.Now(),
	}
	if err != nil {
		entry.ErrMsg = err.Error()
	}

	if logErr := m.logRepo.Save(entry); logErr != nil {
		logger.Log.Warn("failed to save sync log",
			zap.Error(logErr))
	}

	if len(result.Conflicts) > 0 {
		logger.Log.Warn("conflicts pending, waiting for resolution",
			zap.Uint("id", state.GameID),
			zap.String("name", state.Name),
			zap.Int("conflicts", len(result.Conflicts)))
	}
}

// Resolve applies one conflict decision for a game and clears it from the
// pending set.
func (m *Manager) Resolve(gameID uint, localPath, mirrorPath string, useLocal bool) error {
	m.mu.RLock()
	state, exists := m.games[gameID]
	m.mu.RUnlock()

	if err := m.orch.ResolveConflict(localPath, mirrorPath, useLocal); err != nil {
		return err
	}

	entry := model.SyncLog{
		GameID:      gameID,
		Operation:   model.OpResolve,
		FilesSynced: 1,
		Success:     true,
		SyncedAt:    time.Now(),
	}

	if exists {
		entry.GameName = state.Name
		state.ClearConflict(localPath)
	}

	if err := m.logRepo.Save(entry); err != nil {
		logger.Log.Warn("failed to save sync log",
			zap.Error(err))
	}

	return nil
}

func (m *Manager) TriggerSync(id uint) error {
	state, err := m.get(id)
	if err != nil {
		return err
	}

	select {
	case state.SyncCh <- struct{}{}:
	default:
	}

	return nil
}

func (m *Manager) StopGame(id uint) error {
	state, err := m.get(id)
	if err != nil {
		return err
	}

	state.StopCh <- struct{}{}
	return nil
}

func (m *Manager) StopAll() {
	m.mu.RLock()
	ids := make([]uint, 0, len(m.games))
	for id := range m.games {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	for _, id := range ids {
		_ = m.StopGame(id)
	}
}

func (m *Manager) PauseGame(id uint) error {
	state, err := m.get(id)
	if err != nil {
		return err
	}

	state.PauseCh <- struct{}{}
	return nil
}

func (m *Manager) ResumeGame(id uint) error {
	state, err := m.get(id)
	if err != nil {
		return err
	}

	state.ResumeCh <- struct{}{}
	return nil
}

func (m *Manager) Snapshots() []GameSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snaps := make([]GameSnapshot, 0, len(m.games))
	for _, state := range m.games {
		phase := m.orch.Phase(state.LocalPath, state.MirrorPath)
		snaps = append(snaps, state.Snapshot(phase))
	}

	return snaps
}

func (m *Manager) get(id uint) (*GameState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, exists := m.games[id]
	if !exists {
		return nil, fmt.Errorf("game %d not running", id)
	}

	return state, nil
}
