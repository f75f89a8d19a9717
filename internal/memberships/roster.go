package memberships

import (
	"github.com/google/uuid"

	dbtypes "github.com/00goop/lets-link/pkg/db/types"
)

// reconcileRoster merges the denormalized member_ids field with the active
// relational rows and the host id. The two sources can drift when written by
// different code paths, so neither is trusted alone. Order is stable: cached
// ids first, then active row ids not already present, host guaranteed.
func reconcileRoster(cached dbtypes.UUIDArray, activeRowIDs []uuid.UUID, hostID uuid.UUID) dbtypes.UUIDArray {
	seen := make(map[uuid.UUID]struct{}, len(cached)+len(activeRowIDs)+1)
	merged := make(dbtypes.UUIDArray, 0, len(cached)+len(activeRowIDs)+1)

	appendOnce := func(id uuid.UUID) {
		if id == uuid.Nil {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		merged = append(merged, id)
	}

	appendOnce(hostID)
	for _, id := range cached {
		appendOnce(id)
	}
	for _, id := range activeRowIDs {
		appendOnce(id)
	}
	return merged
}

// applyJoin returns the roster with userID present; applyLeave with it absent.
// Both are idempotent. The host id never leaves the roster.
func applyJoin(roster dbtypes.UUIDArray, userID uuid.UUID) dbtypes.UUIDArray {
	if roster.Contains(userID) {
		return roster
	}
	return append(roster, userID)
}

func applyLeave(roster dbtypes.UUIDArray, userID, hostID uuid.UUID) dbtypes.UUIDArray {
	if userID == hostID {
		return roster
	}
	return roster.Without(userID)
}
