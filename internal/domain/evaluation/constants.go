package evaluation

import "perfeval/internal/domain/scoring"

const (
	TypeSelf       = scoring.SourceSelf
	TypeSupervisor = scoring.SourceSupervisor
	TypePeer       = scoring.SourcePeer
)

var Types = []string{TypeSelf, TypeSupervisor, TypePeer}

const (
	StatusPending   = "pending"
	StatusDraft     = "draft"
	StatusSubmitted = "submitted"
)

// draftRetries bounds optimistic retries of a merge when the caller sent no baseVersion.
const draftRetries = 3
