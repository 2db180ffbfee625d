package rpc

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/alfredjeanlab/board/internal/model"
	"github.com/alfredjeanlab/board/internal/view"
)

// ViewRequest asks for the current view, or for an ad-hoc derivation when
// either mode is set. Unset modes fall back to the stored selectors.
type ViewRequest struct {
	Grouping string `json:"grouping,omitempty"`
	Ordering string `json:"ordering,omitempty"`
}

// ViewResponse carries a view as an ordered list of groups. A struct map
// would lose the group order.
type ViewResponse struct {
	Selectors model.Selectors `json:"selectors"`
	Groups    []view.Group    `json:"groups"`
}

// NewViewResponse builds a response from v.
func NewViewResponse(sel model.Selectors, v *view.GroupedView) ViewResponse {
	groups := v.Groups()
	if groups == nil {
		groups = []view.Group{}
	}
	return ViewResponse{Selectors: sel, Groups: groups}
}

// View rebuilds the grouped view.
func (r ViewResponse) View() (*view.GroupedView, error) {
	return view.FromGroups(r.Groups)
}

// ViewBody is the HTTP form of a view: View encodes as an object whose keys
// are the group labels in display order.
type ViewBody struct {
	Selectors model.Selectors   `json:"selectors"`
	View      *view.GroupedView `json:"view"`
}

// BoardResponse carries the column projection of a view. GetBoard takes a
// ViewRequest.
type BoardResponse struct {
	Selectors model.Selectors `json:"selectors"`
	Columns   []view.Column   `json:"columns"`
}

// SelectorsUpdate is a partial selectors change. Nil fields are left as they
// are.
type SelectorsUpdate struct {
	Grouping *string `json:"grouping,omitempty"`
	Ordering *string `json:"ordering,omitempty"`
}

// Apply returns cur with the update applied. Unknown modes are rejected with
// model.ErrInvalidMode.
func (u SelectorsUpdate) Apply(cur model.Selectors) (model.Selectors, error) {
	if u.Grouping != nil {
		g, ok := model.ParseGroupingMode(*u.Grouping)
		if !ok {
			return cur, fmt.Errorf("grouping %q: %w", *u.Grouping, model.ErrInvalidMode)
		}
		cur.Grouping = g
	}
	if u.Ordering != nil {
		o, ok := model.ParseOrderingMode(*u.Ordering)
		if !ok {
			return cur, fmt.Errorf("ordering %q: %w", *u.Ordering, model.ErrInvalidMode)
		}
		cur.Ordering = o
	}
	return cur, nil
}

// RefreshResponse reports the snapshot loaded by a refresh.
type RefreshResponse struct {
	Tickets int `json:"tickets"`
	Users   int `json:"users"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

// ToStruct converts v to a Struct through its JSON form. v must encode as a
// JSON object.
func ToStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", v, err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%T is not a JSON object: %w", v, err)
	}
	return structpb.NewStruct(m)
}

// FromStruct decodes s into v through its JSON form. A nil s leaves v as is.
func FromStruct(s *structpb.Struct, v any) error {
	if s == nil {
		return nil
	}
	data, err := json.Marshal(s.AsMap())
	if err != nil {
		return fmt.Errorf("marshal struct: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}
	return nil
}
