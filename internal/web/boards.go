package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joestump/variantdocs/internal/releases"
)

const visitorCookie = "variantdocs_visitor"

// maxBoards caps the number of live visitor boards; the least recently
// used one is dropped first.
const maxBoards = 1024

type visitorBoard struct {
	board    *releases.Board
	lastSeen time.Time
}

// boardSet gives every visitor an independent Board over the shared
// collection.
type boardSet struct {
	mu     sync.Mutex
	col    *releases.Collection
	source releases.ChangeLogSource
	limit  int
	boards map[string]*visitorBoard
	now    func() time.Time
}

func newBoardSet(col *releases.Collection, source releases.ChangeLogSource, limit int) *boardSet {
	return &boardSet{
		col:    col,
		source: source,
		limit:  limit,
		boards: make(map[string]*visitorBoard),
		now:    time.Now,
	}
}

// get returns the visitor's board, creating it (and a new id when id is
// not a valid uuid) on first use.
func (bs *boardSet) get(id string) (string, *releases.Board) {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	if vb, ok := bs.boards[id]; ok {
		vb.lastSeen = bs.now()
		return id, vb.board
	}

	if len(bs.boards) >= bs.limit {
		bs.evictOldest()
	}
	vb := &visitorBoard{board: releases.NewBoard(bs.col, bs.source), lastSeen: bs.now()}
	bs.boards[id] = vb
	return id, vb.board
}

func (bs *boardSet) evictOldest() {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, vb := range bs.boards {
		if oldestID == "" || vb.lastSeen.Before(oldest) {
			oldestID, oldest = id, vb.lastSeen
		}
	}
	delete(bs.boards, oldestID)
}

func (bs *boardSet) len() int {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	return len(bs.boards)
}

// boardFor resolves the visitor cookie, setting it when missing.
func (s *Server) boardFor(w http.ResponseWriter, r *http.Request) *releases.Board {
	var current string
	if c, err := r.Cookie(visitorCookie); err == nil {
		current = c.Value
	}
	id, board := s.boards.get(current)
	if id != current {
		http.SetCookie(w, &http.Cookie{
			Name:     visitorCookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return board
}
