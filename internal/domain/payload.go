package domain

import (
	"encoding/json"
	"fmt"
)

// Payload is the tagged union of event payloads. Each event Type has
// exactly one payload variant, so replay reducers can switch on the
// concrete type instead of poking at untyped maps.
//
// Events read back with a type this build does not know decode as Raw,
// which preserves the stored fields without interpreting them.
type Payload interface {
	EventType() Type
}

// ChainCreated starts a chain stream.
type ChainCreated struct {
	Name string `json:"name"`
}

func (ChainCreated) EventType() Type { return TypeChainCreated }

// ChainRenamed updates the chain's display name.
type ChainRenamed struct {
	Name string `json:"name"`
}

func (ChainRenamed) EventType() Type { return TypeChainRenamed }

// NodeAdded places a node on the canvas. Kind is "document" or "agent";
// RefID points at the underlying document or agent stream. Coordinates are
// grid cells, not pixels.
type NodeAdded struct {
	NodeID string `json:"nodeId"`
	Kind   string `json:"kind"`
	RefID  string `json:"refId"`
	X      int64  `json:"x"`
	Y      int64  `json:"y"`
}

func (NodeAdded) EventType() Type { return TypeNodeAdded }

// NodeMoved records a drag to a new grid position.
type NodeMoved struct {
	NodeID string `json:"nodeId"`
	X      int64  `json:"x"`
	Y      int64  `json:"y"`
}

func (NodeMoved) EventType() Type { return TypeNodeMoved }

// NodeRemoved deletes a node. Edges referencing the node are removed by
// their own EdgeRemoved events; the reducer does not cascade.
type NodeRemoved struct {
	NodeID string `json:"nodeId"`
}

func (NodeRemoved) EventType() Type { return TypeNodeRemoved }

// EdgeAdded connects two nodes.
type EdgeAdded struct {
	EdgeID     string `json:"edgeId"`
	FromNodeID string `json:"fromNodeId"`
	ToNodeID   string `json:"toNodeId"`
}

func (EdgeAdded) EventType() Type { return TypeEdgeAdded }

// EdgeRemoved disconnects two nodes.
type EdgeRemoved struct {
	EdgeID string `json:"edgeId"`
}

func (EdgeRemoved) EventType() Type { return TypeEdgeRemoved }

// DocumentCreated starts a document stream.
type DocumentCreated struct {
	Title string `json:"title"`
}

func (DocumentCreated) EventType() Type { return TypeDocumentCreated }

// DocumentContentUpdated records an in-place edit that did not checkpoint
// a version (e.g. a keystroke-debounced save).
type DocumentContentUpdated struct {
	Content string `json:"content"`
}

func (DocumentContentUpdated) EventType() Type { return TypeDocumentContentUpdated }

// DocumentVersionCreated marks that a full-content checkpoint was written
// to the version table.
type DocumentVersionCreated struct {
	VersionID string `json:"versionId"`
}

func (DocumentVersionCreated) EventType() Type { return TypeDocumentVersionCreated }

// DocumentVersionRestored marks a restore. The restore itself also produced
// a DocumentVersionCreated for the new checkpoint.
type DocumentVersionRestored struct {
	RestoredVersionID string `json:"restoredVersionId"`
	NewVersionID      string `json:"newVersionId"`
}

func (DocumentVersionRestored) EventType() Type { return TypeDocumentVersionRestored }

// DocumentVersionDeleted marks a soft delete.
type DocumentVersionDeleted struct {
	VersionID string `json:"versionId"`
}

func (DocumentVersionDeleted) EventType() Type { return TypeDocumentVersionDeleted }

// DocumentBranchCreated is recorded on the source document's stream; the
// branch document carries its own DocumentCreated / DocumentVersionCreated.
type DocumentBranchCreated struct {
	BranchDocumentID string `json:"branchDocumentId"`
	BaseVersionID    string `json:"baseVersionId"`
	BranchName       string `json:"branchName"`
}

func (DocumentBranchCreated) EventType() Type { return TypeDocumentBranchCreated }

// DocumentBranchMerged is recorded on the main document's stream.
type DocumentBranchMerged struct {
	BranchDocumentID string `json:"branchDocumentId"`
	Strategy         string `json:"strategy"`
	NewVersionID     string `json:"newVersionId"`
}

func (DocumentBranchMerged) EventType() Type { return TypeDocumentBranchMerged }

// AgentCreated starts an agent stream.
type AgentCreated struct {
	Name  string `json:"name"`
	Model string `json:"model"`
}

func (AgentCreated) EventType() Type { return TypeAgentCreated }

// AgentConfigured replaces the agent's configuration.
type AgentConfigured struct {
	Config map[string]string `json:"config"`
}

func (AgentConfigured) EventType() Type { return TypeAgentConfigured }

// AgentRunCompleted records one agent execution and the document it wrote.
type AgentRunCompleted struct {
	RunID            string `json:"runId"`
	OutputDocumentID string `json:"outputDocumentId"`
}

func (AgentRunCompleted) EventType() Type { return TypeAgentRunCompleted }

// Raw carries the payload of an event type this build does not recognize.
// Replay counts these events but does not apply them.
type Raw struct {
	Type   Type
	Fields map[string]any
}

func (r Raw) EventType() Type { return r.Type }

// MarshalPayload serializes a payload for storage.
func MarshalPayload(p Payload) ([]byte, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	if raw, ok := p.(Raw); ok {
		if raw.Fields == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(raw.Fields)
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal payload %s: %w", p.EventType(), err)
	}
	return data, nil
}

// DecodePayload deserializes stored payload bytes into the variant for t.
// Unknown types decode as Raw rather than failing, so old binaries can read
// logs written by newer ones.
func DecodePayload(t Type, data []byte) (Payload, error) {
	if len(data) == 0 {
		data = []byte("{}")
	}

	decode := func(p Payload) (Payload, error) {
		if err := json.Unmarshal(data, p); err != nil {
			return nil, fmt.Errorf("decode payload %s: %w", t, err)
		}
		return p, nil
	}

	switch t {
	case TypeChainCreated:
		return ptr(decode(&ChainCreated{}))
	case TypeChainRenamed:
		return ptr(decode(&ChainRenamed{}))
	case TypeNodeAdded:
		return ptr(decode(&NodeAdded{}))
	case TypeNodeMoved:
		return ptr(decode(&NodeMoved{}))
	case TypeNodeRemoved:
		return ptr(decode(&NodeRemoved{}))
	case TypeEdgeAdded:
		return ptr(decode(&EdgeAdded{}))
	case TypeEdgeRemoved:
		return ptr(decode(&EdgeRemoved{}))
	case TypeDocumentCreated:
		return ptr(decode(&DocumentCreated{}))
	case TypeDocumentContentUpdated:
		return ptr(decode(&DocumentContentUpdated{}))
	case TypeDocumentVersionCreated:
		return ptr(decode(&DocumentVersionCreated{}))
	case TypeDocumentVersionRestored:
		return ptr(decode(&DocumentVersionRestored{}))
	case TypeDocumentVersionDeleted:
		return ptr(decode(&DocumentVersionDeleted{}))
	case TypeDocumentBranchCreated:
		return ptr(decode(&DocumentBranchCreated{}))
	case TypeDocumentBranchMerged:
		return ptr(decode(&DocumentBranchMerged{}))
	case TypeAgentCreated:
		return ptr(decode(&AgentCreated{}))
	case TypeAgentConfigured:
		return ptr(decode(&AgentConfigured{}))
	case TypeAgentRunCompleted:
		return ptr(decode(&AgentRunCompleted{}))
	default:
		var fields map[string]any
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil, fmt.Errorf("decode payload %s: %w", t, err)
		}
		return Raw{Type: t, Fields: fields}, nil
	}
}

// ptr flattens the (Payload, error) pair from the decode closure. The
// closure already returned the concrete pointer as a Payload; this keeps
// the switch arms to one line each.
func ptr(p Payload, err error) (Payload, error) {
	if err != nil {
		return nil, err
	}
	return p, nil
}
