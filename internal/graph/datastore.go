package graph

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// stateFileName is the JSON blob holding the whole graph.
const stateFileName = "knowledge_graph.json"

type persistedState struct {
	Nodes        map[string]Node `json:"nodes"`
	LastFullSync *time.Time      `json:"last_full_sync,omitempty"`
}

// SyncStatus summarizes the datastore for the plugin's sync handshake.
type SyncStatus struct {
	LastFullSync *time.Time `json:"last_full_sync"`
	NodeCount    int        `json:"node_count"`
	BlockCount   int        `json:"block_count"`
	PageCount    int        `json:"page_count"`
}

// Datastore holds all graph nodes in memory and persists them as a single
// JSON file after each mutation. One mutex guards both the map and the file,
// so concurrent plugin pushes serialize cleanly.
type Datastore struct {
	mu     sync.Mutex
	path   string
	logger *log.Logger
	clock  func() time.Time
	state  persistedState
}

// Open loads or creates the datastore under dataDir.
func Open(dataDir string, logger *log.Logger) (*Datastore, error) {
	if logger == nil {
		logger = log.Default()
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create graph dir: %w", err)
	}
	d := &Datastore{
		path:   filepath.Join(dataDir, stateFileName),
		logger: logger,
		clock:  time.Now,
		state:  persistedState{Nodes: map[string]Node{}},
	}
	raw, err := os.ReadFile(d.path)
	if os.IsNotExist(err) {
		return d, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read graph state: %w", err)
	}
	if err := json.Unmarshal(raw, &d.state); err != nil {
		return nil, fmt.Errorf("decode graph state: %w", err)
	}
	if d.state.Nodes == nil {
		d.state.Nodes = map[string]Node{}
	}
	logger.Debug("graph state loaded", "nodes", len(d.state.Nodes))
	return d, nil
}

// UpsertBlock stores or updates one block node and persists the blob.
func (d *Datastore) UpsertBlock(b BlockData) (string, error) {
	if err := b.Validate(); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.upsertBlockLocked(b)
	if err := d.saveLocked(); err != nil {
		return "", err
	}
	return b.ID, nil
}

// UpsertBlocks stores a batch under one lock with a single save at the end.
// Invalid entries are counted as failures without aborting the batch.
func (d *Datastore) UpsertBlocks(blocks []BlockData) (stored, failed int, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, b := range blocks {
		if b.Validate() != nil {
			failed++
			continue
		}
		d.upsertBlockLocked(b)
		stored++
	}
	if stored > 0 {
		if err := d.saveLocked(); err != nil {
			return stored, failed, err
		}
	}
	return stored, failed, nil
}

// UpsertPage stores or updates one page node and persists the blob.
func (d *Datastore) UpsertPage(p PageData) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.upsertPageLocked(p)
	if err := d.saveLocked(); err != nil {
		return "", err
	}
	return p.Name, nil
}

// UpsertPages stores a batch under one lock with a single save at the end.
func (d *Datastore) UpsertPages(pages []PageData) (stored, failed int, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range pages {
		if p.Validate() != nil {
			failed++
			continue
		}
		d.upsertPageLocked(p)
		stored++
	}
	if stored > 0 {
		if err := d.saveLocked(); err != nil {
			return stored, failed, err
		}
	}
	return stored, failed, nil
}

func (d *Datastore) upsertBlockLocked(b BlockData) {
	now := d.clock().UTC()
	node, exists := d.state.Nodes[b.ID]
	if !exists {
		node = Node{ID: b.ID, Type: NodeTypeBlock, CreatedAt: now}
	}
	node.Type = NodeTypeBlock
	node.Content = b.Content
	node.ParentID = b.Parent
	node.Children = b.Children
	node.Page = b.Page
	node.Properties = b.Properties
	node.References = ExtractReferences(b.Content)
	node.UpdatedAt = now
	d.state.Nodes[b.ID] = node
}

func (d *Datastore) upsertPageLocked(p PageData) {
	now := d.clock().UTC()
	node, exists := d.state.Nodes[p.Name]
	if !exists {
		node = Node{ID: p.Name, Type: NodeTypePage, CreatedAt: now}
	}
	node.Type = NodeTypePage
	node.Content = p.Name
	node.Children = p.Blocks
	node.Properties = p.Properties
	node.UpdatedAt = now
	d.state.Nodes[p.Name] = node
}

// Node returns one node by id (pages are keyed by name).
func (d *Datastore) Node(id string) (Node, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	node, ok := d.state.Nodes[id]
	return node, ok
}

// Nodes returns all nodes sorted by id for stable output.
func (d *Datastore) Nodes() []Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Node, 0, len(d.state.Nodes))
	for _, node := range d.state.Nodes {
		out = append(out, node)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SyncStatus reports the last full sync time and node counts.
func (d *Datastore) SyncStatus() SyncStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	status := SyncStatus{
		LastFullSync: d.state.LastFullSync,
		NodeCount:    len(d.state.Nodes),
	}
	for _, node := range d.state.Nodes {
		if node.Type == NodeTypePage {
			status.PageCount++
		} else {
			status.BlockCount++
		}
	}
	return status
}

// UpdateFullSyncTimestamp records that a full sync just finished.
func (d *Datastore) UpdateFullSyncTimestamp() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.clock().UTC()
	d.state.LastFullSync = &now
	return d.saveLocked()
}

// saveLocked writes the blob atomically via a temp file rename.
func (d *Datastore) saveLocked() error {
	raw, err := json.MarshalIndent(d.state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode graph state: %w", err)
	}
	tmp := d.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write graph state: %w", err)
	}
	if err := os.Rename(tmp, d.path); err != nil {
		return fmt.Errorf("replace graph state: %w", err)
	}
	return nil
}
