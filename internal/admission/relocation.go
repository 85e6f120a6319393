package admission

import "github.com/soltixdb/clusterview/internal/models"

// ValidateRelocation checks whether shard may move from source to dest.
// Rules are evaluated in a fixed order and the first failure wins:
//
//  1. shard must be non-nil
//  2. source must be a known node
//  3. dest must be a known node
//  4. source and dest must differ
//  5. shard must be STARTED
//  6. dest must not already hold a copy of the same shard
//  7. dest must carry the data role
//
// The unknown-node bucket never counts as a known node.
func ValidateRelocation(shard *models.ShardRecord, source, dest string, snap *models.ClusterTopologySnapshot) Result {
	if shard == nil {
		return Rejected(ReasonShardMissing)
	}
	if _, ok := snap.Node(source); !ok {
		return Rejected(ReasonSourceNotFound)
	}
	destNode, ok := snap.Node(dest)
	if !ok {
		return Rejected(ReasonDestNotFound)
	}
	if source == dest {
		return Rejected(ReasonSameNode)
	}

	switch shard.State {
	case models.ShardUnassigned:
		return Rejected(ReasonCannotRelocateUnassigned)
	case models.ShardRelocating:
		return Rejected(ReasonCannotRelocateRelocating)
	case models.ShardInitializing:
		return Rejected(ReasonCannotRelocateInitializing)
	}

	if destNode.Hosts(shard.Index, shard.ShardID) {
		return Rejected(ReasonDuplicateOnDestination)
	}
	if !destNode.HasRole(models.RoleData) {
		return Rejected(ReasonDestNotDataNode)
	}
	return Approved()
}
