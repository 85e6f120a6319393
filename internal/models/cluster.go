package models

// ShardState is the allocation state of a shard copy
type ShardState string

const (
	ShardStarted      ShardState = "STARTED"
	ShardInitializing ShardState = "INITIALIZING"
	ShardRelocating   ShardState = "RELOCATING"
	ShardUnassigned   ShardState = "UNASSIGNED"
)

// Valid reports whether s is one of the known shard states
func (s ShardState) Valid() bool {
	switch s {
	case ShardStarted, ShardInitializing, ShardRelocating, ShardUnassigned:
		return true
	}
	return false
}

// NodeRole is a role a node plays in the cluster
type NodeRole string

const (
	RoleMaster              NodeRole = "master"
	RoleData                NodeRole = "data"
	RoleIngest              NodeRole = "ingest"
	RoleCoordinating        NodeRole = "coordinating"
	RoleML                  NodeRole = "ml"
	RoleRemoteClusterClient NodeRole = "remote_cluster_client"
)

// IndexStatus is the open/close status of an index
type IndexStatus string

const (
	IndexOpen   IndexStatus = "open"
	IndexClosed IndexStatus = "close"
)

// IndexHealth is the allocation health reported for an index
type IndexHealth string

const (
	HealthGreen  IndexHealth = "green"
	HealthYellow IndexHealth = "yellow"
	HealthRed    IndexHealth = "red"
)

// UnknownNodeID identifies the synthetic bucket holding shards whose node
// reference does not match any known node.
const UnknownNodeID = "__unknown__"

// ShardRecord is one copy (primary or replica) of an index shard.
// Node is empty iff State is ShardUnassigned.
type ShardRecord struct {
	Index     string     `json:"index"`
	ShardID   int        `json:"shard"`
	Primary   bool       `json:"primary"`
	State     ShardState `json:"state"`
	Node      string     `json:"node,omitempty"`
	DocCount  uint64     `json:"docs"`
	SizeBytes uint64     `json:"size_bytes"`
}

// NodeRecord describes a cluster node as reported by the fetch layer
type NodeRecord struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	IP               string     `json:"ip,omitempty"`
	Roles            []NodeRole `json:"roles"`
	HeapUsed         uint64     `json:"heap_used"`
	HeapMax          uint64     `json:"heap_max"`
	DiskUsed         uint64     `json:"disk_used"`
	DiskTotal        uint64     `json:"disk_total"`
	IsMaster         bool       `json:"is_master"`
	IsMasterEligible bool       `json:"is_master_eligible"`
}

// HasRole reports whether the node carries the given role
func (n NodeRecord) HasRole(role NodeRole) bool {
	for _, r := range n.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HeapPercent returns heap usage in percent, 0 when the max is unknown
func (n NodeRecord) HeapPercent() float64 {
	return percent(n.HeapUsed, n.HeapMax)
}

// DiskPercent returns disk usage in percent, 0 when the total is unknown
func (n NodeRecord) DiskPercent() float64 {
	return percent(n.DiskUsed, n.DiskTotal)
}

func percent(used, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return float64(used) / float64(total) * 100
}

// NodeTopology is a node together with the shards located on it.
// Each ShardsByIndex slice is ordered by ascending shard id.
type NodeTopology struct {
	NodeRecord
	ShardsByIndex map[string][]ShardRecord `json:"shards_by_index"`
}

// ShardCount returns the number of shard copies on the node
func (n NodeTopology) ShardCount() int {
	count := 0
	for _, shards := range n.ShardsByIndex {
		count += len(shards)
	}
	return count
}

// Hosts reports whether the node holds any copy of (index, shardID)
func (n NodeTopology) Hosts(index string, shardID int) bool {
	for _, s := range n.ShardsByIndex[index] {
		if s.ShardID == shardID {
			return true
		}
	}
	return false
}

// Shard returns the copy of (index, shardID) held by the node, if any
func (n NodeTopology) Shard(index string, shardID int) (ShardRecord, bool) {
	for _, s := range n.ShardsByIndex[index] {
		if s.ShardID == shardID {
			return s, true
		}
	}
	return ShardRecord{}, false
}

// IndexSummary is the per-index view. ShardCount is derived from the
// primary and replica counts by the aggregator.
type IndexSummary struct {
	Name              string      `json:"name"`
	Health            IndexHealth `json:"health"`
	Status            IndexStatus `json:"status"`
	PrimaryShardCount int         `json:"primary_shards"`
	ReplicaShardCount int         `json:"replica_shards"`
	ShardCount        int         `json:"shard_count"`
	DocsCount         uint64      `json:"docs_count"`
	StoreSizeBytes    uint64      `json:"store_size_bytes"`
}

// ClusterTopologySnapshot is one complete, internally consistent view of the
// cluster. A snapshot is never mutated after it has been built.
type ClusterTopologySnapshot struct {
	Nodes       []NodeTopology `json:"nodes"`
	UnknownNode NodeTopology   `json:"unknown_node"`
	Unassigned  []ShardRecord  `json:"unassigned"`
	Indices     []IndexSummary `json:"indices"`
}

// Node returns the first node with the given id. The unknown-node bucket is
// never returned.
func (s *ClusterTopologySnapshot) Node(id string) (*NodeTopology, bool) {
	if s == nil {
		return nil, false
	}
	for i := range s.Nodes {
		if s.Nodes[i].ID == id {
			return &s.Nodes[i], true
		}
	}
	return nil, false
}

// Index returns the first index summary with the given name
func (s *ClusterTopologySnapshot) Index(name string) (*IndexSummary, bool) {
	if s == nil {
		return nil, false
	}
	for i := range s.Indices {
		if s.Indices[i].Name == name {
			return &s.Indices[i], true
		}
	}
	return nil, false
}

// TopologySummary holds aggregate counts over a snapshot
type TopologySummary struct {
	Nodes          int                `json:"nodes"`
	DataNodes      int                `json:"data_nodes"`
	Indices        int                `json:"indices"`
	OpenIndices    int                `json:"open_indices"`
	Shards         int                `json:"shards"`
	AssignedShards int                `json:"assigned_shards"`
	UnknownShards  int                `json:"unknown_node_shards"`
	Unassigned     int                `json:"unassigned_shards"`
	ByState        map[ShardState]int `json:"by_state"`
}

// Summary computes aggregate counts over the snapshot
func (s *ClusterTopologySnapshot) Summary() TopologySummary {
	sum := TopologySummary{ByState: make(map[ShardState]int)}
	if s == nil {
		return sum
	}

	sum.Nodes = len(s.Nodes)
	for _, n := range s.Nodes {
		if n.HasRole(RoleData) {
			sum.DataNodes++
		}
		for _, shards := range n.ShardsByIndex {
			for _, sh := range shards {
				sum.ByState[sh.State]++
			}
		}
		sum.AssignedShards += n.ShardCount()
	}
	for _, shards := range s.UnknownNode.ShardsByIndex {
		for _, sh := range shards {
			sum.ByState[sh.State]++
		}
	}
	for _, sh := range s.Unassigned {
		sum.ByState[sh.State]++
	}

	sum.UnknownShards = s.UnknownNode.ShardCount()
	sum.Unassigned = len(s.Unassigned)
	sum.Shards = sum.AssignedShards + sum.UnknownShards + sum.Unassigned

	sum.Indices = len(s.Indices)
	for _, idx := range s.Indices {
		if idx.Status == IndexOpen {
			sum.OpenIndices++
		}
	}
	return sum
}
