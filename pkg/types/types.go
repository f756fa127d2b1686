// Package types holds the shared data model for the orchestrator: the
// opaque names modules agree on (DataKey), the immutable artifacts that
// flow between them (FileRef, Split), and the lifecycle enums used by the
// processor and node state machines.
package types

import (
	"fmt"
	"time"
)

// DataKey names one data stream shared between modules (e.g. "bam", "vcf",
// "ref_fasta"). The graph engine treats DataKeys as opaque names; equality
// and set membership on them drive the I/O compatibility check.
type DataKey string

// DataKeySet is a set of DataKeys, used throughout module I/O declarations.
type DataKeySet map[DataKey]struct{}

// NewDataKeySet builds a set from a slice of keys.
func NewDataKeySet(keys ...DataKey) DataKeySet {
	s := make(DataKeySet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Contains reports whether key is a member of the set.
func (s DataKeySet) Contains(key DataKey) bool {
	_, ok := s[key]
	return ok
}

// Union returns a new set containing every key from s and other.
func (s DataKeySet) Union(other DataKeySet) DataKeySet {
	out := make(DataKeySet, len(s)+len(other))
	for k := range s {
		out[k] = struct{}{}
	}
	for k := range other {
		out[k] = struct{}{}
	}
	return out
}

// Missing returns the keys in required that are not present in s.
func (s DataKeySet) Missing(required DataKeySet) []DataKey {
	var missing []DataKey
	for k := range required {
		if !s.Contains(k) {
			missing = append(missing, k)
		}
	}
	return missing
}

// FileRef is an immutable handle to a file artifact produced by a Splitter,
// Merger, or Tool module and consumed by downstream nodes. Once constructed
// (see pkg/datastore.NewFileRef) it is never mutated.
type FileRef struct {
	FileID   string
	FileType DataKey
	Path     string
	Aux      map[string]any
}

func (f *FileRef) String() string {
	return fmt.Sprintf("FileRef{id=%s type=%s path=%s}", f.FileID, f.FileType, f.Path)
}

// SplitOutput is one named sub-output of a Splitter module: a mapping of
// output key to value (FileRef, []FileRef, or a scalar), plus the optional
// visibility scope for that split.
type SplitOutput struct {
	VisibleSamples []string // nil means "all samples visible"
	Values         map[string]any
}

// Split is the full output of a Splitter module: split_id -> SplitOutput.
type Split map[string]*SplitOutput

// ProcessorStatus is the live status of a remote compute resource.
type ProcessorStatus int

const (
	ProcessorOff ProcessorStatus = iota
	ProcessorCreating
	ProcessorAvailable
	ProcessorDestroying
)

func (s ProcessorStatus) String() string {
	switch s {
	case ProcessorOff:
		return "OFF"
	case ProcessorCreating:
		return "CREATING"
	case ProcessorAvailable:
		return "AVAILABLE"
	case ProcessorDestroying:
		return "DESTROYING"
	default:
		return "UNKNOWN"
	}
}

// NodeState is the scheduling state of a graph Node.
type NodeState int

const (
	NodePending NodeState = iota
	NodeReady
	NodeRunning
	NodeFinished
	NodeFailed
)

func (s NodeState) String() string {
	switch s {
	case NodePending:
		return "pending"
	case NodeReady:
		return "ready"
	case NodeRunning:
		return "running"
	case NodeFinished:
		return "finished"
	case NodeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MainInputSentinel is the predecessor id that refers to the pipeline's
// initial inputs rather than another node's output.
const MainInputSentinel = "main_input"

// ProviderStatus is the status string family a cloud-provider collaborator
// is expected to surface from a describe() call.
type ProviderStatus string

const (
	ProviderTerminated   ProviderStatus = "TERMINATED"
	ProviderStopping     ProviderStatus = "STOPPING"
	ProviderProvisioning ProviderStatus = "PROVISIONING"
	ProviderStaging      ProviderStatus = "STAGING"
	ProviderRunning      ProviderStatus = "RUNNING"
)

// InstanceDescription is the result of the provider's describe() operation.
type InstanceDescription struct {
	Status ProviderStatus
	IP     string // empty if no reachable address is known
}

// InstanceShape is the resource shape requested of a Processor.
type InstanceShape struct {
	CPUs           int
	MemoryGB       int
	DiskGB         int
	Zone           string
	Image          string
	ServiceAccount string
	Preemptible    bool
	BootDiskSSD    bool
	LocalSSDCount  int
}

// CostRecord accumulates the price and wall-clock usage of one processor
// lifetime.
type CostRecord struct {
	PricePerHourCents float64
	StartedAt         time.Time
	StoppedAt         time.Time
}

// TotalCostCents returns the accumulated cost for a completed record.
func (c CostRecord) TotalCostCents() float64 {
	if c.StoppedAt.Before(c.StartedAt) || c.StoppedAt.IsZero() {
		return 0
	}
	hours := c.StoppedAt.Sub(c.StartedAt).Hours()
	return hours * c.PricePerHourCents
}
