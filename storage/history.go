package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/btree"
	"go.etcd.io/bbolt"

	"github.com/vartija/vartija/types"
)

// Bucket names in bbolt
var (
	bucketObservations = []byte("observations")
	bucketMeta         = []byte("meta")
)

// History stores scan runs as monotonically numbered revisions so
// consecutive inventories can be diffed.
type History struct {
	mu sync.RWMutex

	// In-memory index for fast lookups
	index *btree.BTreeG[*ResourceState]

	// On-disk storage
	db *bbolt.DB

	// Current revision number, one per scan run
	currentRev int64
}

// ResourceState tracks a resource's presence across scan revisions.
type ResourceState struct {
	ResourceID   string
	Type         string
	Region       string
	FirstSeenRev int64
	LastSeenRev  int64
}

// Open opens (or creates) the history database at path.
func Open(path string) (*History, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create storage dir: %w", err)
		}
	}

	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range [][]byte{bucketObservations, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	history := &History{
		index: btree.NewG[*ResourceState](32, func(a, b *ResourceState) bool {
			return a.ResourceID < b.ResourceID
		}),
		db: db,
	}

	history.loadRevision()

	if err := history.rebuildIndex(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return history, nil
}

// Close closes the underlying database.
func (h *History) Close() error {
	return h.db.Close()
}

// RecordScan stores one scan run's resources atomically under a new
// revision and returns that revision.
func (h *History) RecordScan(resources []types.Resource) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.currentRev++
	rev := h.currentRev

	err := h.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketObservations)

		for _, resource := range resources {
			key := makeObservationKey(rev, resource.ID)
			value, err := json.Marshal(resource)
			if err != nil {
				return err
			}
			if err := bucket.Put(key, value); err != nil {
				return err
			}
		}

		metaBucket := tx.Bucket(bucketMeta)
		return metaBucket.Put([]byte("current_revision"), int64ToBytes(rev))
	})
	if err != nil {
		h.currentRev--
		return 0, err
	}

	for _, resource := range resources {
		h.updateIndex(resource, rev)
	}

	return rev, nil
}

// CurrentRevision returns the latest scan revision, zero when empty.
func (h *History) CurrentRevision() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.currentRev
}

// ResourcesAtRevision returns all resources recorded by one scan run.
func (h *History) ResourcesAtRevision(rev int64) ([]types.Resource, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var resources []types.Resource
	prefix := []byte(fmt.Sprintf("%016d:", rev))

	err := h.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketObservations).Cursor()

		for k, v := c.Seek(prefix); k != nil && strings.HasPrefix(string(k), string(prefix)); k, v = c.Next() {
			var resource types.Resource
			if err := json.Unmarshal(v, &resource); err != nil {
				return fmt.Errorf("corrupt observation %s: %w", k, err)
			}
			resources = append(resources, resource)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return resources, nil
}

// Diff compares two scan revisions and reports exposures that appeared
// and exposures that went away.
type Diff struct {
	New      []types.Resource
	Resolved []types.Resource
}

// DiffRevisions diffs a previous scan against a later one by resource
// ID.
func (h *History) DiffRevisions(prevRev, rev int64) (Diff, error) {
	previous, err := h.ResourcesAtRevision(prevRev)
	if err != nil {
		return Diff{}, err
	}
	current, err := h.ResourcesAtRevision(rev)
	if err != nil {
		return Diff{}, err
	}

	prevByID := make(map[string]types.Resource, len(previous))
	for _, r := range previous {
		prevByID[r.ID] = r
	}
	currByID := make(map[string]types.Resource, len(current))
	for _, r := range current {
		currByID[r.ID] = r
	}

	var diff Diff
	for _, r := range current {
		if _, seen := prevByID[r.ID]; !seen {
			diff.New = append(diff.New, r)
		}
	}
	for _, r := range previous {
		if _, seen := currByID[r.ID]; !seen {
			diff.Resolved = append(diff.Resolved, r)
		}
	}

	return diff, nil
}

// GetResourceState gets the presence record of a resource.
func (h *History) GetResourceState(resourceID string) (*ResourceState, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	state, found := h.index.Get(&ResourceState{ResourceID: resourceID})
	return state, found
}

// Compact removes observations older than the last keepRevisions scan
// runs.
func (h *History) Compact(keepRevisions int64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	cutoff := h.currentRev - keepRevisions
	if cutoff <= 0 {
		return nil
	}

	return h.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketObservations)
		c := bucket.Cursor()

		var toDelete [][]byte
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			rev, _ := parseObservationKey(k)
			if rev < cutoff {
				toDelete = append(toDelete, k)
			}
		}

		for _, key := range toDelete {
			if err := bucket.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}

// Helper functions

func (h *History) updateIndex(resource types.Resource, rev int64) {
	existing, found := h.index.Get(&ResourceState{ResourceID: resource.ID})
	if !found {
		existing = &ResourceState{
			ResourceID:   resource.ID,
			Type:         resource.Type,
			Region:       resource.Region,
			FirstSeenRev: rev,
		}
	}
	existing.LastSeenRev = rev
	h.index.ReplaceOrInsert(existing)
}

func (h *History) loadRevision() {
	_ = h.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMeta)
		if bucket == nil {
			return nil
		}
		if data := bucket.Get([]byte("current_revision")); data != nil {
			h.currentRev = bytesToInt64(data)
		}
		return nil
	})
}

func (h *History) rebuildIndex() error {
	return h.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketObservations).Cursor()

		for k, v := c.First(); k != nil; k, v = c.Next() {
			rev, _ := parseObservationKey(k)
			var resource types.Resource
			if err := json.Unmarshal(v, &resource); err != nil {
				continue
			}
			h.updateIndex(resource, rev)
		}
		return nil
	})
}

func makeObservationKey(rev int64, resourceID string) []byte {
	return []byte(fmt.Sprintf("%016d:%s", rev, resourceID))
}

func parseObservationKey(key []byte) (int64, string) {
	parts := strings.SplitN(string(key), ":", 2)
	if len(parts) != 2 {
		return 0, ""
	}
	var rev int64
	_, _ = fmt.Sscanf(parts[0], "%d", &rev)
	return rev, parts[1]
}

func int64ToBytes(n int64) []byte {
	return []byte(fmt.Sprintf("%d", n))
}

func bytesToInt64(b []byte) int64 {
	var n int64
	_, _ = fmt.Sscanf(string(b), "%d", &n)
	return n
}
