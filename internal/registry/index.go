package registry

import (
	"fmt"
	"sort"

	"github.com/ShayCichocki/stratum/pkg/models"
)

// CapabilityIndex maps capabilities to the workers that declare them.
// It enforces worker uniqueness and returns lookups in a deterministic
// order.
type CapabilityIndex interface {
	// Add indexes a worker under each of its capabilities.
	// Returns an error if the worker is already indexed.
	Add(workerID string, capabilities []models.Capability) error
	// Remove drops a worker from the index.
	Remove(workerID string)
	// Lookup returns the IDs of workers declaring the capability,
	// sorted by worker ID.
	Lookup(c models.Capability) []string
}

// capabilityIndex is the default map-backed CapabilityIndex.
type capabilityIndex struct {
	// byCapability maps capability to a set of worker IDs.
	byCapability map[models.Capability]map[string]bool
	// capabilities remembers each worker's indexed capabilities for removal.
	capabilities map[string][]models.Capability
}

// NewCapabilityIndex creates an empty capability index.
func NewCapabilityIndex() CapabilityIndex {
	return &capabilityIndex{
		byCapability: make(map[models.Capability]map[string]bool),
		capabilities: make(map[string][]models.Capability),
	}
}

func (idx *capabilityIndex) Add(workerID string, capabilities []models.Capability) error {
	if _, exists := idx.capabilities[workerID]; exists {
		return fmt.Errorf("worker %s already indexed", workerID)
	}

	for _, c := range capabilities {
		if idx.byCapability[c] == nil {
			idx.byCapability[c] = make(map[string]bool)
		}
		idx.byCapability[c][workerID] = true
	}
	idx.capabilities[workerID] = append([]models.Capability(nil), capabilities...)
	return nil
}

func (idx *capabilityIndex) Remove(workerID string) {
	for _, c := range idx.capabilities[workerID] {
		delete(idx.byCapability[c], workerID)
		if len(idx.byCapability[c]) == 0 {
			delete(idx.byCapability, c)
		}
	}
	delete(idx.capabilities, workerID)
}

func (idx *capabilityIndex) Lookup(c models.Capability) []string {
	set := idx.byCapability[c]
	if len(set) == 0 {
		return nil
	}

	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
