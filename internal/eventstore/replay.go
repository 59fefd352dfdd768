package eventstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/roach88/chainvault/internal/domain"
)

// State is a reconstructed stream state. Each stream type has its own
// reducer; all reducers are pure folds over the event sequence starting
// from the type's zero state, so replaying the same events twice yields
// identical state.
type State interface {
	StreamType() domain.StreamType

	// Apply folds one event into the state. Events whose payload the
	// reducer does not recognize are counted, not applied.
	Apply(e domain.Event)

	// canonicalMap renders the state for canonical JSON serialization.
	// Every field is always present so two equal states serialize to
	// identical bytes.
	canonicalMap() map[string]any
}

// NewState returns the zero state for a stream type.
func NewState(t domain.StreamType, streamID string) (State, error) {
	switch t {
	case domain.StreamChain:
		return &ChainState{StreamID: streamID}, nil
	case domain.StreamDocument:
		return &DocumentState{StreamID: streamID}, nil
	case domain.StreamAgent:
		return &AgentState{StreamID: streamID, Config: map[string]string{}}, nil
	default:
		return nil, fmt.Errorf("unknown stream type %q", t)
	}
}

// Replay reconstructs a stream's state by folding every event, in
// ascending version order, from version 1. This is the canonical way to
// recover state when a snapshot is stale, missing, or distrusted.
func (es *EventStore) Replay(ctx context.Context, streamID string, t domain.StreamType) (State, error) {
	state, err := NewState(t, streamID)
	if err != nil {
		return nil, err
	}

	events, err := es.Events(ctx, streamID)
	if err != nil {
		return nil, err
	}
	for _, e := range events {
		state.Apply(e)
	}

	if es.met != nil {
		es.met.ReplaysTotal.WithLabelValues(string(t)).Inc()
	}
	return state, nil
}

// CurrentState reconstructs state using the snapshot as a base when one
// exists, folding only the event tail past the snapshot's version. When
// there is no snapshot, or its data does not parse as a serialized state,
// it falls back to a full replay.
func (es *EventStore) CurrentState(ctx context.Context, streamID string, t domain.StreamType) (State, error) {
	snap, err := es.Snapshot(ctx, streamID, t)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return es.Replay(ctx, streamID, t)
	}

	state, err := UnmarshalState(t, streamID, snap.Data)
	if err != nil {
		es.log.Warn("snapshot data unreadable, replaying from scratch",
			"stream", streamID, "error", err)
		return es.Replay(ctx, streamID, t)
	}

	rows, err := es.store.EventsForStreamFrom(ctx, streamID, snap.Version)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		e, err := decodeRow(row)
		if err != nil {
			return nil, err
		}
		state.Apply(e)
	}
	return state, nil
}

// Fingerprint returns a hex SHA-256 over the state's canonical JSON.
// Two states with identical content always produce the same fingerprint,
// which is what the determinism checks compare.
func Fingerprint(s State) (string, error) {
	data, err := MarshalState(s)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// MarshalState serializes a state as canonical JSON, suitable for
// snapshot data.
func MarshalState(s State) ([]byte, error) {
	return domain.MarshalCanonical(s.canonicalMap())
}

// UnmarshalState parses serialized state bytes for the given stream type.
func UnmarshalState(t domain.StreamType, streamID string, data []byte) (State, error) {
	state, err := NewState(t, streamID)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("unmarshal %s state: %w", t, err)
	}
	return state, nil
}

// ChainNode is a node on the canvas as seen by the chain reducer.
type ChainNode struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"`
	RefID string `json:"refId"`
	X     int64  `json:"x"`
	Y     int64  `json:"y"`
}

// ChainEdge is a connection between two nodes.
type ChainEdge struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
}

// ChainState is the reconstructed state of a chain stream. Nodes and
// edges are kept sorted by id so serialization is deterministic.
type ChainState struct {
	StreamID      string      `json:"streamId"`
	Name          string      `json:"name"`
	Nodes         []ChainNode `json:"nodes"`
	Edges         []ChainEdge `json:"edges"`
	Version       int64       `json:"version"`
	UnknownEvents int64       `json:"unknownEvents"`
}

func (s *ChainState) StreamType() domain.StreamType { return domain.StreamChain }

func (s *ChainState) Apply(e domain.Event) {
	switch p := e.Payload.(type) {
	case *domain.ChainCreated:
		s.Name = p.Name
	case *domain.ChainRenamed:
		s.Name = p.Name
	case *domain.NodeAdded:
		s.Nodes = append(s.Nodes, ChainNode{
			ID: p.NodeID, Kind: p.Kind, RefID: p.RefID, X: p.X, Y: p.Y,
		})
		sort.Slice(s.Nodes, func(i, j int) bool { return s.Nodes[i].ID < s.Nodes[j].ID })
	case *domain.NodeMoved:
		for i := range s.Nodes {
			if s.Nodes[i].ID == p.NodeID {
				s.Nodes[i].X, s.Nodes[i].Y = p.X, p.Y
				break
			}
		}
	case *domain.NodeRemoved:
		for i := range s.Nodes {
			if s.Nodes[i].ID == p.NodeID {
				s.Nodes = append(s.Nodes[:i], s.Nodes[i+1:]...)
				break
			}
		}
	case *domain.EdgeAdded:
		s.Edges = append(s.Edges, ChainEdge{ID: p.EdgeID, From: p.FromNodeID, To: p.ToNodeID})
		sort.Slice(s.Edges, func(i, j int) bool { return s.Edges[i].ID < s.Edges[j].ID })
	case *domain.EdgeRemoved:
		for i := range s.Edges {
			if s.Edges[i].ID == p.EdgeID {
				s.Edges = append(s.Edges[:i], s.Edges[i+1:]...)
				break
			}
		}
	default:
		s.UnknownEvents++
	}
	s.Version = e.Version
}

func (s *ChainState) canonicalMap() map[string]any {
	nodes := make([]any, len(s.Nodes))
	for i, n := range s.Nodes {
		nodes[i] = map[string]any{
			"id": n.ID, "kind": n.Kind, "refId": n.RefID, "x": n.X, "y": n.Y,
		}
	}
	edges := make([]any, len(s.Edges))
	for i, e := range s.Edges {
		edges[i] = map[string]any{"id": e.ID, "from": e.From, "to": e.To}
	}
	return map[string]any{
		"streamId":      s.StreamID,
		"name":          s.Name,
		"nodes":         nodes,
		"edges":         edges,
		"version":       s.Version,
		"unknownEvents": s.UnknownEvents,
	}
}

// DocumentState is the reconstructed state of a document stream. Content
// here reflects content-update events; authoritative checkpoints live in
// the version table.
type DocumentState struct {
	StreamID            string   `json:"streamId"`
	Title               string   `json:"title"`
	Content             string   `json:"content"`
	CurrentVersionID    string   `json:"currentVersionId"`
	VersionCount        int64    `json:"versionCount"`
	DeletedVersionCount int64    `json:"deletedVersionCount"`
	Branches            []string `json:"branches"`
	MergeCount          int64    `json:"mergeCount"`
	Version             int64    `json:"version"`
	UnknownEvents       int64    `json:"unknownEvents"`
}

func (s *DocumentState) StreamType() domain.StreamType { return domain.StreamDocument }

func (s *DocumentState) Apply(e domain.Event) {
	switch p := e.Payload.(type) {
	case *domain.DocumentCreated:
		s.Title = p.Title
	case *domain.DocumentContentUpdated:
		s.Content = p.Content
	case *domain.DocumentVersionCreated:
		s.CurrentVersionID = p.VersionID
		s.VersionCount++
	case *domain.DocumentVersionRestored:
		s.CurrentVersionID = p.NewVersionID
	case *domain.DocumentVersionDeleted:
		s.DeletedVersionCount++
	case *domain.DocumentBranchCreated:
		s.Branches = append(s.Branches, p.BranchDocumentID)
	case *domain.DocumentBranchMerged:
		s.MergeCount++
	default:
		s.UnknownEvents++
	}
	s.Version = e.Version
}

func (s *DocumentState) canonicalMap() map[string]any {
	branches := make([]any, len(s.Branches))
	for i, b := range s.Branches {
		branches[i] = b
	}
	return map[string]any{
		"streamId":            s.StreamID,
		"title":               s.Title,
		"content":             s.Content,
		"currentVersionId":    s.CurrentVersionID,
		"versionCount":        s.VersionCount,
		"deletedVersionCount": s.DeletedVersionCount,
		"branches":            branches,
		"mergeCount":          s.MergeCount,
		"version":             s.Version,
		"unknownEvents":       s.UnknownEvents,
	}
}

// AgentState is the reconstructed state of an agent stream.
type AgentState struct {
	StreamID        string            `json:"streamId"`
	Name            string            `json:"name"`
	Model           string            `json:"model"`
	Config          map[string]string `json:"config"`
	RunCount        int64             `json:"runCount"`
	OutputDocuments []string          `json:"outputDocuments"`
	Version         int64             `json:"version"`
	UnknownEvents   int64             `json:"unknownEvents"`
}

func (s *AgentState) StreamType() domain.StreamType { return domain.StreamAgent }

func (s *AgentState) Apply(e domain.Event) {
	switch p := e.Payload.(type) {
	case *domain.AgentCreated:
		s.Name = p.Name
		s.Model = p.Model
	case *domain.AgentConfigured:
		s.Config = map[string]string{}
		for k, v := range p.Config {
			s.Config[k] = v
		}
	case *domain.AgentRunCompleted:
		s.RunCount++
		s.OutputDocuments = append(s.OutputDocuments, p.OutputDocumentID)
	default:
		s.UnknownEvents++
	}
	s.Version = e.Version
}

func (s *AgentState) canonicalMap() map[string]any {
	config := make(map[string]any, len(s.Config))
	for k, v := range s.Config {
		config[k] = v
	}
	outputs := make([]any, len(s.OutputDocuments))
	for i, o := range s.OutputDocuments {
		outputs[i] = o
	}
	return map[string]any{
		"streamId":        s.StreamID,
		"name":            s.Name,
		"model":           s.Model,
		"config":          config,
		"runCount":        s.RunCount,
		"outputDocuments": outputs,
		"version":         s.Version,
		"unknownEvents":   s.UnknownEvents,
	}
}
