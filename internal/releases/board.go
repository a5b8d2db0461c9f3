package releases

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrUnknownNode is returned when a node id does not exist on the board.
var ErrUnknownNode = errors.New("releases: unknown node")

// expandConcurrency bounds the change-log loads started by ExpandAll.
const expandConcurrency = 4

// displayDateLayout matches the heading format of the original docs pages.
const displayDateLayout = "Mon Jan 02 2006"

// State is the expansion state of one release node.
type State int

const (
	StateCollapsed State = iota // initial, and after a failed load
	StateLoading
	StateLoaded // text cached and visible
	StateHidden // text cached, not visible
)

func (s State) String() string {
	switch s {
	case StateCollapsed:
		return "collapsed"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateHidden:
		return "hidden"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Visible reports whether the node's text is shown.
func (s State) Visible() bool { return s == StateLoaded }

// ChangeLogSource loads the full change-log text of a release.
type ChangeLogSource interface {
	FetchChangeLog(ctx context.Context, r Release) (string, error)
}

// Node is a snapshot of one release link on the board.
type Node struct {
	ID      string
	Release Release
	State   State
	Text    string
	Err     error
}

// Panel is a snapshot of the releases published on one date.
type Panel struct {
	Anchor      string // also the date key
	Date        time.Time
	DisplayDate string
	Nodes       []Node
}

type node struct {
	id         string
	release    Release
	state      State
	text       string
	err        error
	hideOnLoad bool // collapse-all arrived while loading
}

func (n *node) snapshot() Node {
	return Node{ID: n.id, Release: n.release, State: n.state, Text: n.text, Err: n.err}
}

type panel struct {
	anchor string
	date   time.Time
	nodes  []*node
}

// Board is the interactive view over a Collection: one panel per date,
// newest first, with lazily loaded change-logs. It is safe for concurrent
// use; the collection it was built from is never modified.
type Board struct {
	mu     sync.Mutex
	source ChangeLogSource
	panels []*panel
	nodes  map[string]*node
	order  []*node
}

// NewBoard builds the panels for col. Every node starts collapsed.
func NewBoard(col *Collection, source ChangeLogSource) *Board {
	b := &Board{
		source: source,
		nodes:  make(map[string]*node),
	}
	for _, key := range col.Dates() {
		date, _ := time.Parse(dateKeyLayout, key)
		p := &panel{anchor: key, date: date}
		for _, r := range col.Releases(key) {
			n := &node{id: b.uniqueID(r.TargetVersion + "-" + string(r.Assembly)), release: r}
			b.nodes[n.id] = n
			b.order = append(b.order, n)
			p.nodes = append(p.nodes, n)
		}
		b.panels = append(b.panels, p)
	}
	return b
}

// uniqueID suffixes id when a duplicate append already claimed it.
func (b *Board) uniqueID(id string) string {
	if _, taken := b.nodes[id]; !taken {
		return id
	}
	for i := 2; ; i++ {
		alt := fmt.Sprintf("%s-%d", id, i)
		if _, taken := b.nodes[alt]; !taken {
			return alt
		}
	}
}

// Panels returns a snapshot of every panel, newest first.
func (b *Board) Panels() []Panel {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Panel, len(b.panels))
	for i, p := range b.panels {
		nodes := make([]Node, len(p.nodes))
		for j, n := range p.nodes {
			nodes[j] = n.snapshot()
		}
		out[i] = Panel{
			Anchor:      p.anchor,
			Date:        p.date,
			DisplayDate: p.date.Format(displayDateLayout),
			Nodes:       nodes,
		}
	}
	return out
}

// Node returns a snapshot of one node.
func (b *Board) Node(id string) (Node, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, ok := b.nodes[id]
	if !ok {
		return Node{}, ErrUnknownNode
	}
	return n.snapshot(), nil
}

// AnchorFor returns the panel anchor containing node id.
func (b *Board) AnchorFor(id string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, p := range b.panels {
		for _, n := range p.nodes {
			if n.id == id {
				return p.anchor
			}
		}
	}
	return ""
}

// Toggle is the click on a release link. The first click loads and shows
// the change-log; later clicks flip between loaded and hidden without
// fetching again. A click while a load is in flight does nothing. A failed
// load returns the node to collapsed with Err set so the next click retries.
func (b *Board) Toggle(ctx context.Context, id string) (Node, error) {
	b.mu.Lock()
	n, ok := b.nodes[id]
	if !ok {
		b.mu.Unlock()
		return Node{}, ErrUnknownNode
	}
	switch n.state {
	case StateLoaded:
		n.state = StateHidden
	case StateHidden:
		n.state = StateLoaded
	case StateCollapsed:
		n.state = StateLoading
		n.err = nil
		b.mu.Unlock()
		return b.load(ctx, n), nil
	}
	snap := n.snapshot()
	b.mu.Unlock()
	return snap, nil
}

// load fetches the text for a node already marked loading.
func (b *Board) load(ctx context.Context, n *node) Node {
	text, err := b.source.FetchChangeLog(ctx, n.release)

	b.mu.Lock()
	defer b.mu.Unlock()
	hide := n.hideOnLoad
	n.hideOnLoad = false
	if err != nil {
		log.Printf("board: load %s: %v", n.id, err)
		n.state = StateCollapsed
		n.err = err
		return n.snapshot()
	}
	n.text = text
	n.state = StateLoaded
	if hide {
		n.state = StateHidden
	}
	return n.snapshot()
}

// ExpandAll shows every node. Hidden nodes are shown from cache and
// collapsed nodes are loaded, one fetch each; loaded or loading nodes are
// not fetched again, and a loading node cancels a pending collapse. The
// returned error joins every failed load.
func (b *Board) ExpandAll(ctx context.Context) error {
	b.mu.Lock()
	var pending []*node
	for _, n := range b.order {
		switch n.state {
		case StateHidden:
			n.state = StateLoaded
		case StateLoading:
			n.hideOnLoad = false
		case StateCollapsed:
			n.state = StateLoading
			n.err = nil
			pending = append(pending, n)
		}
	}
	b.mu.Unlock()

	var (
		g     errgroup.Group
		errMu sync.Mutex
		errs  []error
	)
	g.SetLimit(expandConcurrency)
	for _, n := range pending {
		g.Go(func() error {
			if snap := b.load(ctx, n); snap.Err != nil {
				errMu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", snap.ID, snap.Err))
				errMu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// CollapseAll hides every loaded node. A node still loading finishes
// hidden. Nothing is fetched or discarded.
func (b *Board) CollapseAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, n := range b.order {
		switch n.state {
		case StateLoaded:
			n.state = StateHidden
		case StateLoading:
			n.hideOnLoad = true
		}
	}
}
