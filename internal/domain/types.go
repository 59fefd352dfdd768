package domain

import "time"

// StreamType identifies which aggregate family a stream belongs to.
// Snapshots are keyed by (streamID, StreamType), and replay picks its
// reducer based on this value.
type StreamType string

const (
	StreamChain    StreamType = "chain"
	StreamDocument StreamType = "document"
	StreamAgent    StreamType = "agent"
)

// ValidStreamType reports whether t is one of the known stream types.
func ValidStreamType(t StreamType) bool {
	switch t {
	case StreamChain, StreamDocument, StreamAgent:
		return true
	default:
		return false
	}
}

// Type tags a domain event. Every mutation to a chain, document, or agent
// is recorded under exactly one of these tags.
type Type string

const (
	TypeChainCreated Type = "CHAIN_CREATED"
	TypeChainRenamed Type = "CHAIN_RENAMED"
	TypeNodeAdded    Type = "NODE_ADDED"
	TypeNodeMoved    Type = "NODE_MOVED"
	TypeNodeRemoved  Type = "NODE_REMOVED"
	TypeEdgeAdded    Type = "EDGE_ADDED"
	TypeEdgeRemoved  Type = "EDGE_REMOVED"

	TypeDocumentCreated         Type = "DOCUMENT_CREATED"
	TypeDocumentContentUpdated  Type = "DOCUMENT_CONTENT_UPDATED"
	TypeDocumentVersionCreated  Type = "DOCUMENT_VERSION_CREATED"
	TypeDocumentVersionRestored Type = "DOCUMENT_VERSION_RESTORED"
	TypeDocumentVersionDeleted  Type = "DOCUMENT_VERSION_DELETED"
	TypeDocumentBranchCreated   Type = "DOCUMENT_BRANCH_CREATED"
	TypeDocumentBranchMerged    Type = "DOCUMENT_BRANCH_MERGED"

	TypeAgentCreated      Type = "AGENT_CREATED"
	TypeAgentConfigured   Type = "AGENT_CONFIGURED"
	TypeAgentRunCompleted Type = "AGENT_RUN_COMPLETED"
)

// StreamTypeFor maps an event type to the stream family it belongs to.
// Unknown types map to the empty StreamType.
func StreamTypeFor(t Type) StreamType {
	switch t {
	case TypeChainCreated, TypeChainRenamed,
		TypeNodeAdded, TypeNodeMoved, TypeNodeRemoved,
		TypeEdgeAdded, TypeEdgeRemoved:
		return StreamChain
	case TypeDocumentCreated, TypeDocumentContentUpdated,
		TypeDocumentVersionCreated, TypeDocumentVersionRestored,
		TypeDocumentVersionDeleted, TypeDocumentBranchCreated,
		TypeDocumentBranchMerged:
		return StreamDocument
	case TypeAgentCreated, TypeAgentConfigured, TypeAgentRunCompleted:
		return StreamAgent
	default:
		return ""
	}
}

// Event is an immutable fact. Once appended it is never mutated; the only
// physical deletion path is the administrative cleanup operation.
type Event struct {
	ID        string
	StreamID  string
	Type      Type
	Payload   Payload
	Version   int64
	UserID    string
	Timestamp time.Time
}

// Input describes an event to append. The caller supplies the intended
// Version; the store rejects the append with a ConcurrencyConflict unless
// Version is exactly one greater than the stream's current latest.
type Input struct {
	StreamID string
	Type     Type
	Payload  Payload
	Version  int64
	UserID   string
}

// Snapshot is a cached materialization of a stream's state at a known
// version. It is never authoritative: the state is always re-derivable by
// replaying the stream's events from version 1.
type Snapshot struct {
	StreamID   string
	StreamType StreamType
	Data       []byte
	Version    int64
}

// Clock provides timestamps for appended events and created versions.
// Production code uses SystemClock; tests substitute a deterministic clock.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
