// Package admission decides whether shard relocations and bulk index state
// changes are legal against a topology snapshot. Every function in this
// package is pure: a rejection is returned as data, never as an error.
package admission

// Reason is a machine-readable rejection code
type Reason string

// Relocation rejections
const (
	ReasonShardMissing               Reason = "shard_missing"
	ReasonSourceNotFound             Reason = "source_not_found"
	ReasonDestNotFound               Reason = "dest_not_found"
	ReasonSameNode                   Reason = "same_node"
	ReasonCannotRelocateUnassigned   Reason = "cannot_relocate_unassigned"
	ReasonCannotRelocateRelocating   Reason = "cannot_relocate_relocating"
	ReasonCannotRelocateInitializing Reason = "cannot_relocate_initializing"
	ReasonDuplicateOnDestination     Reason = "duplicate_on_destination"
	ReasonDestNotDataNode            Reason = "dest_not_data_node"
)

// Bulk rejections. ReasonAlreadyReadOnly is part of the wire vocabulary but
// never produced: IndexSummary carries no read-only flag.
const (
	ReasonAlreadyOpen         Reason = "already_open"
	ReasonAlreadyClosed       Reason = "already_closed"
	ReasonNotFound            Reason = "not_found"
	ReasonCannotRefreshClosed Reason = "cannot_refresh_closed"
	ReasonCannotModifyClosed  Reason = "cannot_modify_closed"
	ReasonAlreadyReadOnly     Reason = "already_read_only"
	ReasonAlreadyWritable     Reason = "already_writable"
)

// Result is the outcome of a single admission check. Reason is empty when
// the request is approved.
type Result struct {
	Approved bool   `json:"approved"`
	Reason   Reason `json:"reason,omitempty"`
}

// Approved is the passing result
func Approved() Result {
	return Result{Approved: true}
}

// Rejected returns a failing result carrying reason
func Rejected(reason Reason) Result {
	return Result{Reason: reason}
}

func (r Result) String() string {
	if r.Approved {
		return "approved"
	}
	return "rejected(" + string(r.Reason) + ")"
}
