package sgp

// CreateMasterState is the §4.G decision reached by a create-master call:
// given whatever payload (if any) is already embedded in the input image
// and the identity of the actor requesting the operation, exactly one of
// four states applies.
type CreateMasterState int

const (
	// StateCreate (A): no payload was extracted, or the extracted bytes
	// were invalid. A brand new master is created for actorUID.
	StateCreate CreateMasterState = iota
	// StateUpdate (B): a payload was extracted and its original_uid
	// matches actorUID. The master is re-embedded with actorUID's
	// current flags.
	StateUpdate
	// StateFork (C): a payload was extracted belonging to a different
	// owner, who permits derivatives. A new master is created for
	// actorUID, independent of the original owner's record.
	StateFork
	// StateReject (D): a payload was extracted belonging to a different
	// owner, who forbids derivatives. The call fails; no pixels are
	// produced.
	StateReject
)

func (s CreateMasterState) String() string {
	switch s {
	case StateCreate:
		return "create"
	case StateUpdate:
		return "update"
	case StateFork:
		return "fork"
	case StateReject:
		return "reject"
	default:
		return "unknown"
	}
}

// planCreateMaster implements spec.md §4.G's state table. existing is the
// payload already embedded in the target image, or nil if none was
// extracted (or the extracted bytes were invalid) — both fold into state
// A. Every non-reject state yields a master record (current_uid == 0)
// stamped with actorUID and the actor's own permission flags; the
// existing record's flags are never carried over, matching the table's
// "New payload" column for A/B/C, which is always `(actor_uid, 0,
// actor_flags)`.
func planCreateMaster(existing *Record, actorUID UID, allowDerivative, allowReprint bool) (CreateMasterState, Record, error) {
	next := Record{
		OriginalUID:     actorUID,
		CurrentUID:      ZeroUID,
		AllowDerivative: allowDerivative,
		AllowReprint:    allowReprint,
	}

	if existing == nil {
		return StateCreate, next, nil
	}
	if existing.OriginalUID == actorUID {
		return StateUpdate, next, nil
	}
	if existing.AllowDerivative {
		return StateFork, next, nil
	}
	return StateReject, Record{}, &DerivativeForbiddenError{OwnerUID: existing.OriginalUID}
}

// planPermissionUpdate implements the supplemented UpdatePermissions
// operation (SPEC_FULL.md component H.1, grounded on original_source's
// update_master_permissions): only a master record's permissions may be
// changed after the fact, since distribution copies must keep the
// permissions they were stamped with to remain auditable. It is distinct
// from state B above: that state re-derives the record from the actor's
// own UID during a create-master call, while this operation rewrites
// flags in place without requiring the caller to re-assert ownership.
// It returns ErrNotAMaster if existing is not a master.
func planPermissionUpdate(existing Record, allowDerivative, allowReprint bool) (Record, error) {
	if !existing.IsMaster() {
		return Record{}, ErrNotAMaster
	}
	return Record{
		OriginalUID:     existing.OriginalUID,
		CurrentUID:      existing.CurrentUID,
		AllowDerivative: allowDerivative,
		AllowReprint:    allowReprint,
	}, nil
}
