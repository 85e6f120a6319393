// Package fetch reads the raw node, shard and index lists published by the
// cluster agent and decodes them into model records.
package fetch

import (
	"encoding/json"
	"fmt"

	"github.com/soltixdb/clusterview/internal/models"
)

// SchemaError reports a payload that does not match the wire schema.
// Position is the array offset of the offending element, or -1 when the
// payload as a whole is malformed.
type SchemaError struct {
	Kind     string
	Position int
	Field    string
	Reason   string
}

func (e *SchemaError) Error() string {
	if e.Position < 0 {
		return fmt.Sprintf("invalid %s payload: %s", e.Kind, e.Reason)
	}
	if e.Field == "" {
		return fmt.Sprintf("invalid %s[%d]: %s", e.Kind, e.Position, e.Reason)
	}
	return fmt.Sprintf("invalid %s[%d].%s: %s", e.Kind, e.Position, e.Field, e.Reason)
}

// NodeDoc is the wire shape of a node
type NodeDoc struct {
	ID               *string  `json:"id"`
	Name             *string  `json:"name"`
	IP               string   `json:"ip,omitempty"`
	Roles            []string `json:"roles"`
	HeapUsed         uint64   `json:"heap_used"`
	HeapMax          uint64   `json:"heap_max"`
	DiskUsed         uint64   `json:"disk_used"`
	DiskTotal        uint64   `json:"disk_total"`
	IsMaster         bool     `json:"is_master"`
	IsMasterEligible bool     `json:"is_master_eligible"`
}

// ShardDoc is the wire shape of a shard copy
type ShardDoc struct {
	Index     *string `json:"index"`
	Shard     *int    `json:"shard"`
	Primary   *bool   `json:"primary"`
	State     *string `json:"state"`
	Node      *string `json:"node"`
	Docs      uint64  `json:"docs"`
	SizeBytes uint64  `json:"size_bytes"`
}

// IndexDoc is the wire shape of an index
type IndexDoc struct {
	Name           *string `json:"name"`
	Health         string  `json:"health"`
	Status         *string `json:"status"`
	PrimaryShards  int     `json:"primary_shards"`
	ReplicaShards  int     `json:"replica_shards"`
	DocsCount      uint64  `json:"docs_count"`
	StoreSizeBytes uint64  `json:"store_size_bytes"`
}

var knownRoles = map[models.NodeRole]struct{}{
	models.RoleMaster:              {},
	models.RoleData:                {},
	models.RoleIngest:              {},
	models.RoleCoordinating:        {},
	models.RoleML:                  {},
	models.RoleRemoteClusterClient: {},
}

// DecodeNodes decodes a JSON array of nodes. An empty payload is an empty list.
func DecodeNodes(data []byte) ([]models.NodeRecord, error) {
	var docs []NodeDoc
	if err := unmarshal("nodes", data, &docs); err != nil {
		return nil, err
	}

	nodes := make([]models.NodeRecord, 0, len(docs))
	for i, d := range docs {
		if d.ID == nil || *d.ID == "" {
			return nil, &SchemaError{Kind: "nodes", Position: i, Field: "id", Reason: "required"}
		}
		name := *d.ID
		if d.Name != nil && *d.Name != "" {
			name = *d.Name
		}

		roles := make([]models.NodeRole, 0, len(d.Roles))
		for _, r := range d.Roles {
			role := models.NodeRole(r)
			if _, ok := knownRoles[role]; !ok {
				return nil, &SchemaError{Kind: "nodes", Position: i, Field: "roles", Reason: fmt.Sprintf("unknown role %q", r)}
			}
			roles = append(roles, role)
		}

		nodes = append(nodes, models.NodeRecord{
			ID:               *d.ID,
			Name:             name,
			IP:               d.IP,
			Roles:            roles,
			HeapUsed:         d.HeapUsed,
			HeapMax:          d.HeapMax,
			DiskUsed:         d.DiskUsed,
			DiskTotal:        d.DiskTotal,
			IsMaster:         d.IsMaster,
			IsMasterEligible: d.IsMasterEligible,
		})
	}
	return nodes, nil
}

// DecodeShards decodes a JSON array of shard copies. A node reference must be
// present exactly when the state is not UNASSIGNED.
func DecodeShards(data []byte) ([]models.ShardRecord, error) {
	var docs []ShardDoc
	if err := unmarshal("shards", data, &docs); err != nil {
		return nil, err
	}

	shards := make([]models.ShardRecord, 0, len(docs))
	for i, d := range docs {
		fail := func(field, reason string) error {
			return &SchemaError{Kind: "shards", Position: i, Field: field, Reason: reason}
		}

		switch {
		case d.Index == nil || *d.Index == "":
			return nil, fail("index", "required")
		case d.Shard == nil:
			return nil, fail("shard", "required")
		case *d.Shard < 0:
			return nil, fail("shard", "must be non-negative")
		case d.State == nil:
			return nil, fail("state", "required")
		}

		state := models.ShardState(*d.State)
		if !state.Valid() {
			return nil, fail("state", fmt.Sprintf("unknown state %q", *d.State))
		}

		node := ""
		if d.Node != nil {
			node = *d.Node
		}
		if state == models.ShardUnassigned && node != "" {
			return nil, fail("node", "must be absent for UNASSIGNED shards")
		}
		if state != models.ShardUnassigned && node == "" {
			return nil, fail("node", "required for assigned shards")
		}

		shards = append(shards, models.ShardRecord{
			Index:     *d.Index,
			ShardID:   *d.Shard,
			Primary:   d.Primary != nil && *d.Primary,
			State:     state,
			Node:      node,
			DocCount:  d.Docs,
			SizeBytes: d.SizeBytes,
		})
	}
	return shards, nil
}

// DecodeIndices decodes a JSON array of indices
func DecodeIndices(data []byte) ([]models.IndexSummary, error) {
	var docs []IndexDoc
	if err := unmarshal("indices", data, &docs); err != nil {
		return nil, err
	}

	indices := make([]models.IndexSummary, 0, len(docs))
	for i, d := range docs {
		fail := func(field, reason string) error {
			return &SchemaError{Kind: "indices", Position: i, Field: field, Reason: reason}
		}

		if d.Name == nil || *d.Name == "" {
			return nil, fail("name", "required")
		}
		if d.Status == nil {
			return nil, fail("status", "required")
		}
		status := models.IndexStatus(*d.Status)
		if status != models.IndexOpen && status != models.IndexClosed {
			return nil, fail("status", fmt.Sprintf("unknown status %q", *d.Status))
		}
		if d.PrimaryShards < 0 || d.ReplicaShards < 0 {
			return nil, fail("primary_shards", "shard counts must be non-negative")
		}

		indices = append(indices, models.IndexSummary{
			Name:              *d.Name,
			Health:            models.IndexHealth(d.Health),
			Status:            status,
			PrimaryShardCount: d.PrimaryShards,
			ReplicaShardCount: d.ReplicaShards,
			DocsCount:         d.DocsCount,
			StoreSizeBytes:    d.StoreSizeBytes,
		})
	}
	return indices, nil
}

func unmarshal(kind string, data []byte, v interface{}) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &SchemaError{Kind: kind, Position: -1, Reason: err.Error()}
	}
	return nil
}
