// Package topology turns the flat node, shard and index lists returned by the
// fetch layer into a ClusterTopologySnapshot.
//
// Build is pure and total: it never fails on well-typed input. Every input
// shard lands in exactly one bucket:
//   - state UNASSIGNED            -> Unassigned
//   - node id matches a NodeRecord -> that node's ShardsByIndex
//   - anything else               -> UnknownNode.ShardsByIndex
package topology

import (
	"sort"

	"github.com/soltixdb/clusterview/internal/models"
)

// Build creates a new snapshot from raw fetch results. The inputs are not
// modified and the returned snapshot shares no slices with them.
func Build(nodes []models.NodeRecord, shards []models.ShardRecord, indices []models.IndexSummary) *models.ClusterTopologySnapshot {
	snap := &models.ClusterTopologySnapshot{
		Nodes:       make([]models.NodeTopology, len(nodes)),
		UnknownNode: newNodeTopology(models.NodeRecord{ID: models.UnknownNodeID, Name: models.UnknownNodeID}),
		Unassigned:  make([]models.ShardRecord, 0),
		Indices:     make([]models.IndexSummary, len(indices)),
	}

	// First record wins when ids repeat; later duplicates stay listed but empty.
	byID := make(map[string]int, len(nodes))
	for i, n := range nodes {
		snap.Nodes[i] = newNodeTopology(n)
		if _, exists := byID[n.ID]; !exists {
			byID[n.ID] = i
		}
	}

	for _, sh := range shards {
		if sh.State == models.ShardUnassigned {
			snap.Unassigned = append(snap.Unassigned, sh)
			continue
		}

		target := &snap.UnknownNode
		if i, ok := byID[sh.Node]; ok {
			target = &snap.Nodes[i]
		}
		target.ShardsByIndex[sh.Index] = append(target.ShardsByIndex[sh.Index], sh)
	}

	for i := range snap.Nodes {
		sortShards(snap.Nodes[i].ShardsByIndex)
	}
	sortShards(snap.UnknownNode.ShardsByIndex)

	for i, idx := range indices {
		idx.ShardCount = idx.PrimaryShardCount + idx.ReplicaShardCount
		snap.Indices[i] = idx
	}

	return snap
}

func newNodeTopology(n models.NodeRecord) models.NodeTopology {
	if n.Roles != nil {
		roles := make([]models.NodeRole, len(n.Roles))
		copy(roles, n.Roles)
		n.Roles = roles
	}
	return models.NodeTopology{
		NodeRecord:    n,
		ShardsByIndex: make(map[string][]models.ShardRecord),
	}
}

// sortShards orders every per-index bucket by shard id, keeping input order
// for copies of the same shard.
func sortShards(byIndex map[string][]models.ShardRecord) {
	for _, shards := range byIndex {
		sort.SliceStable(shards, func(a, b int) bool {
			return shards[a].ShardID < shards[b].ShardID
		})
	}
}

// CountShards returns the total number of shard copies held in a snapshot
// across every bucket.
func CountShards(snap *models.ClusterTopologySnapshot) int {
	if snap == nil {
		return 0
	}
	total := len(snap.Unassigned) + snap.UnknownNode.ShardCount()
	for _, n := range snap.Nodes {
		total += n.ShardCount()
	}
	return total
}
