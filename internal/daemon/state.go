package daemon

import (
	"memcard/internal/model"
	"memcard/internal/syncer"
	"sync"
	"time"
)

// GameState tracks one supervised game inside the daemon, including the
// caller-held record of conflicts still awaiting a decision.
type GameState struct {
	mu         sync.RWMutex
	GameID     uint
	Name       string
	LocalPath  string
	MirrorPath string
	Policy     syncer.Policy
	Status     model.GameStatus
	StartedAt  time.Time
	Synced     int
	Failed     int
	LastSync   *time.Time
	Conflicts  []syncer.Conflict
	PauseCh    chan struct{}
	ResumeCh   chan struct{}
	StopCh     chan struct{}
	SyncCh     chan struct{}
}

type GameSnapshot struct {
	GameID     uint              `json:"game_id"`
	Name       string            `json:"name"`
	LocalPath  string            `json:"local_path"`
	MirrorPath string            `json:"mirror_path"`
	Policy     syncer.Policy     `json:"policy"`
	Status     model.GameStatus  `json:"status"`
	Phase      syncer.Phase      `json:"phase"`
	StartedAt  time.Time         `json:"started_at"`
	Synced     int               `json:"synced"`
	Failed     int               `json:"failed"`
	LastSync   *time.Time        `json:"last_sync"`
	Conflicts  []syncer.Conflict `json:"conflicts,omitempty"`
}

func NewGameState(game model.Game, policy syncer.Policy) *GameState {
	return &GameState{
		GameID:     game.ID,
		Name:       game.Name,
		LocalPath:  game.LocalPath,
		MirrorPath: game.MirrorPath,
		Policy:     policy,
		Status:     model.GameStatusActive,
		StartedAt:  time.Now(),
		PauseCh:    make(chan struct{}, 1),
		ResumeCh:   make(chan struct{}, 1),
		StopCh:     make(chan struct{}, 1),
		SyncCh:     make(chan struct{}, 1),
	}
}

func (s *GameState) RecordRun(result syncer.Result, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.LastSync = &now
	s.Conflicts = result.Conflicts

	if err != nil || !result.Success {
		s.Failed++
		return
	}

	s.Synced += result.FilesSynced
}

// ClearConflict drops the pending conflict matching the given absolute local
// path and reports whether one was found.
func (s *GameState) ClearConflict(localPath string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, c := range s.Conflicts {
		if c.LocalPath == localPath {
			s.Conflicts = append(s.Conflicts[:i], s.Conflicts[i+1:]...)
			return true
		}
	}

	return false
}

func (s *GameState) SetStatus(status model.GameStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = status
}

func (s *GameState) CurrentStatus() model.GameStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}

func (s *GameState) Snapshot(phase syncer.Phase) GameSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conflicts := make([]syncer.Conflict, len(s.Conflicts))
	copy(conflicts, s.Conflicts)

	return GameSnapshot{
		GameID:     s.GameID,
		Name:       s.Name,
		LocalPath:  s.LocalPath,
		MirrorPath: s.MirrorPath,
		Policy:     s.Policy,
		Status:     s.Status,
		Phase:      phase,
		StartedAt:  s.StartedAt,
		Synced:     s.Synced,
		Failed:     s.Failed,
		LastSync:   s.LastSync,
		Conflicts:  conflicts,
	}
}
