package state

import (
	"fmt"
	"sort"
)

// Snapshot is a point-in-time description of a manager, for inspection.
type Snapshot struct {
	Pass             uint64      `json:"pass"`
	Frozen           bool        `json:"frozen"`
	PendingWrites    int         `json:"pendingWrites"`
	PendingCallbacks int         `json:"pendingCallbacks"`
	Named            []NamedInfo `json:"named"`
	Scopes           []ScopeInfo `json:"scopes"`
}

// NamedInfo describes a named state.
type NamedInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Value    string `json:"value"`
	Modified bool   `json:"modified"`
}

// ScopeInfo describes a scope and its children.
type ScopeInfo struct {
	Kind     string      `json:"kind"`
	ID       int         `json:"id"`
	Leaf     bool        `json:"leaf,omitempty"`
	Stale    bool        `json:"stale"`
	Failed   bool        `json:"failed,omitempty"`
	Deps     int         `json:"deps"`
	States   int         `json:"states,omitempty"`
	Node     string      `json:"node,omitempty"`
	Named    []NamedInfo `json:"named,omitempty"`
	Children []ScopeInfo `json:"children,omitempty"`
}

// Snapshot describes the manager without recomputing or tracking anything.
func (m *StateManager) Snapshot() Snapshot {
	snap := Snapshot{
		Pass:             m.pass,
		Frozen:           m.frozen,
		PendingWrites:    len(m.pending),
		PendingCallbacks: len(m.callbacks),
		Named:            namedInfos(m.named),
		Scopes:           make([]ScopeInfo, 0, len(m.roots)),
	}
	for _, s := range m.roots {
		snap.Scopes = append(snap.Scopes, s.info())
	}
	return snap
}

func (s *scope) info() ScopeInfo {
	info := ScopeInfo{
		Kind:   s.kind.String(),
		ID:     s.id,
		Leaf:   s.leaf,
		Stale:  s.stale(),
		Failed: s.err != nil,
		Deps:   len(s.deps),
		States: len(s.states) + len(s.locals),
		Named:  namedInfos(s.named),
	}
	if s.hasNode && s.node != nil {
		info.Node = fmt.Sprintf("%T", s.node)
	}
	for _, c := range s.children {
		info.Children = append(info.Children, c.info())
	}
	return info
}

func namedInfos(registry map[string]*namedEntry) []NamedInfo {
	if len(registry) == 0 {
		return nil
	}
	out := make([]NamedInfo, 0, len(registry))
	for name, e := range registry {
		info := NamedInfo{Name: name, Type: fmt.Sprintf("%T", e.state)}
		if st, ok := e.state.(inspectable); ok {
			info.Value = fmt.Sprint(st.peekAny())
			info.Modified = st.Modified()
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
