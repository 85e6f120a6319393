// Package dispatch publishes approved relocation and index commands to the
// message queue the cluster agent consumes.
package dispatch

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RelocationCommand moves one shard copy between nodes
type RelocationCommand struct {
	ID       string    `json:"id"`
	Index    string    `json:"index"`
	Shard    int       `json:"shard"`
	FromNode string    `json:"from_node"`
	ToNode   string    `json:"to_node"`
	IssuedAt time.Time `json:"issued_at"`
}

// IndexCommand applies one state change to one index
type IndexCommand struct {
	ID        string    `json:"id"`
	Operation string    `json:"operation"`
	Index     string    `json:"index"`
	IssuedAt  time.Time `json:"issued_at"`
}

// Result is the outcome of publishing one command. Message carries the
// transport error verbatim on failure.
type Result struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	CommandID string `json:"command_id,omitempty"`
}

func newRelocationCommand(index string, shard int, from, to string, now time.Time) RelocationCommand {
	return RelocationCommand{
		ID:       uuid.New().String(),
		Index:    index,
		Shard:    shard,
		FromNode: from,
		ToNode:   to,
		IssuedAt: now.UTC(),
	}
}

func newIndexCommand(op, index string, now time.Time) IndexCommand {
	return IndexCommand{
		ID:        uuid.New().String(),
		Operation: op,
		Index:     index,
		IssuedAt:  now.UTC(),
	}
}

// RelocateSubject returns the subject relocation commands are published on
func RelocateSubject(prefix, cluster string) string {
	return fmt.Sprintf("%s.%s.shard.relocate", prefix, cluster)
}

// IndexSubject returns the subject commands for op are published on
func IndexSubject(prefix, cluster, op string) string {
	return fmt.Sprintf("%s.%s.index.%s", prefix, cluster, op)
}

func encode(cmd interface{}) ([]byte, error) {
	data, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to encode command: %w", err)
	}
	return data, nil
}
