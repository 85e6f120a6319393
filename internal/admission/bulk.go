package admission

import (
	"errors"
	"fmt"
	"strings"

	"github.com/soltixdb/clusterview/internal/models"
)

// Operation is a bulk index state change
type Operation string

const (
	OpOpen        Operation = "open"
	OpClose       Operation = "close"
	OpDelete      Operation = "delete"
	OpRefresh     Operation = "refresh"
	OpSetReadOnly Operation = "set_read_only"
	OpSetWritable Operation = "set_writable"
)

// Operations lists every supported bulk operation
var Operations = []Operation{OpOpen, OpClose, OpDelete, OpRefresh, OpSetReadOnly, OpSetWritable}

// ErrUnknownOperation is returned by ParseOperation for unsupported names
var ErrUnknownOperation = errors.New("unknown bulk operation")

// ParseOperation maps a wire name to an Operation. Matching ignores case and
// surrounding whitespace; "-" is accepted in place of "_".
func ParseOperation(name string) (Operation, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	for _, op := range Operations {
		if string(op) == normalized {
			return op, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownOperation, name)
}

// BulkResult partitions a selection. Every selected name appears exactly once,
// either in Approved (in selection order) or as a key of Rejected.
type BulkResult struct {
	Approved []string          `json:"approved"`
	Rejected map[string]Reason `json:"rejected"`
}

// ValidateBulk applies op's per-index rule to every selected name. Names that
// are not in universe are rejected with not_found. Repeated names collapse
// onto their first occurrence.
func ValidateBulk(op Operation, selected []string, universe []models.IndexSummary) BulkResult {
	result := BulkResult{
		Approved: make([]string, 0, len(selected)),
		Rejected: make(map[string]Reason),
	}

	byName := make(map[string]models.IndexSummary, len(universe))
	for _, idx := range universe {
		if _, exists := byName[idx.Name]; !exists {
			byName[idx.Name] = idx
		}
	}

	seen := make(map[string]struct{}, len(selected))
	for _, name := range selected {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		idx, ok := byName[name]
		if !ok {
			result.Rejected[name] = ReasonNotFound
			continue
		}

		if reason, approved := checkIndex(op, idx); approved {
			result.Approved = append(result.Approved, name)
		} else {
			result.Rejected[name] = reason
		}
	}

	return result
}

func checkIndex(op Operation, idx models.IndexSummary) (Reason, bool) {
	open := idx.Status == models.IndexOpen
	switch op {
	case OpOpen:
		if open {
			return ReasonAlreadyOpen, false
		}
	case OpClose:
		if !open {
			return ReasonAlreadyClosed, false
		}
	case OpDelete:
	case OpRefresh:
		if !open {
			return ReasonCannotRefreshClosed, false
		}
	case OpSetReadOnly:
		if !open {
			return ReasonCannotModifyClosed, false
		}
	case OpSetWritable:
		return ReasonAlreadyWritable, false
	default:
		return ReasonNotFound, false
	}
	return "", true
}
