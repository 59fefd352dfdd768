package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadRoundTrip(t *testing.T) {
	cases := []struct {
		name    string
		payload Payload
	}{
		{"chain created", &ChainCreated{Name: "research pipeline"}},
		{"node added", &NodeAdded{NodeID: "n1", Kind: "document", RefID: "doc-1", X: 3, Y: 7}},
		{"node moved", &NodeMoved{NodeID: "n1", X: 4, Y: 2}},
		{"edge added", &EdgeAdded{EdgeID: "e1", FromNodeID: "n1", ToNodeID: "n2"}},
		{"document created", &DocumentCreated{Title: "notes"}},
		{"content updated", &DocumentContentUpdated{Content: "line one\nline two"}},
		{"version created", &DocumentVersionCreated{VersionID: "v-abc"}},
		{"version restored", &DocumentVersionRestored{RestoredVersionID: "v-1", NewVersionID: "v-2"}},
		{"branch created", &DocumentBranchCreated{BranchDocumentID: "doc-2", BaseVersionID: "v-1", BranchName: "feat"}},
		{"branch merged", &DocumentBranchMerged{BranchDocumentID: "doc-2", Strategy: "theirs", NewVersionID: "v-3"}},
		{"agent created", &AgentCreated{Name: "summarizer", Model: "small"}},
		{"agent configured", &AgentConfigured{Config: map[string]string{"temperature": "0.2"}}},
		{"agent run", &AgentRunCompleted{RunID: "r1", OutputDocumentID: "doc-3"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := MarshalPayload(tc.payload)
			require.NoError(t, err)

			decoded, err := DecodePayload(tc.payload.EventType(), data)
			require.NoError(t, err)
			assert.Equal(t, tc.payload, decoded)
		})
	}
}

func TestDecodePayload_UnknownTypeFallsBackToRaw(t *testing.T) {
	decoded, err := DecodePayload("SOMETHING_NEW", []byte(`{"field":"value","n":3}`))
	require.NoError(t, err)

	raw, ok := decoded.(Raw)
	require.True(t, ok, "expected Raw, got %T", decoded)
	assert.Equal(t, Type("SOMETHING_NEW"), raw.EventType())
	assert.Equal(t, "value", raw.Fields["field"])
}

func TestDecodePayload_EmptyPayload(t *testing.T) {
	decoded, err := DecodePayload(TypeChainCreated, nil)
	require.NoError(t, err)
	assert.Equal(t, &ChainCreated{}, decoded)
}

func TestMarshalPayload_NilIsEmptyObject(t *testing.T) {
	data, err := MarshalPayload(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestStreamTypeFor(t *testing.T) {
	assert.Equal(t, StreamChain, StreamTypeFor(TypeNodeAdded))
	assert.Equal(t, StreamDocument, StreamTypeFor(TypeDocumentVersionCreated))
	assert.Equal(t, StreamAgent, StreamTypeFor(TypeAgentRunCompleted))
	assert.Equal(t, StreamType(""), StreamTypeFor("BOGUS"))
}
