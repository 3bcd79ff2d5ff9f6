package notebook

import (
	"encoding/json"
	"fmt"
)

// Every concrete cell implements json.Marshaler by wrapping itself with a
// "type" discriminator, so a plain []Cell marshals with camelCase fields
// and a "type" tag carrying the Kind().String() value. Decoding the other
// direction needs help, since
// encoding/json cannot pick a concrete type for an interface field on its
// own: DecodeCell and DecodeCellList do that job for every place a Cell or
// []Cell appears inside a struct with a hand-written UnmarshalJSON.

func marshalCell(kind string, alias interface{}) ([]byte, error) {
	type envelope struct {
		Type string `json:"type"`
	}
	head, err := json.Marshal(envelope{Type: kind})
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(alias)
	if err != nil {
		return nil, err
	}
	return mergeJSONObjects(head, body)
}

// mergeJSONObjects shallow-merges two JSON object byte strings, with
// fields from b winning over a on key collision.
func mergeJSONObjects(a, b []byte) ([]byte, error) {
	var ma, mb map[string]json.RawMessage
	if err := json.Unmarshal(a, &ma); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(b, &mb); err != nil {
		return nil, err
	}
	for k, v := range mb {
		ma[k] = v
	}
	return json.Marshal(ma)
}

func (c CheckboxCell) MarshalJSON() ([]byte, error) {
	type alias CheckboxCell
	return marshalCell(c.Kind().String(), alias(c))
}

func (c CodeCell) MarshalJSON() ([]byte, error) {
	type alias CodeCell
	return marshalCell(c.Kind().String(), alias(c))
}

func (c DividerCell) MarshalJSON() ([]byte, error) {
	type alias DividerCell
	return marshalCell(c.Kind().String(), alias(c))
}

func (c DiscussionCell) MarshalJSON() ([]byte, error) {
	type alias DiscussionCell
	return marshalCell(c.Kind().String(), alias(c))
}

func (c GraphCell) MarshalJSON() ([]byte, error) {
	type alias GraphCell
	return marshalCell(c.Kind().String(), alias(c))
}

func (c HeadingCell) MarshalJSON() ([]byte, error) {
	type alias HeadingCell
	return marshalCell(c.Kind().String(), alias(c))
}

func (c ImageCell) MarshalJSON() ([]byte, error) {
	type alias ImageCell
	return marshalCell(c.Kind().String(), alias(c))
}

func (c ListItemCell) MarshalJSON() ([]byte, error) {
	type alias ListItemCell
	return marshalCell(c.Kind().String(), alias(c))
}

func (c LogCell) MarshalJSON() ([]byte, error) {
	type alias LogCell
	return marshalCell(c.Kind().String(), alias(c))
}

func (c ProviderCell) MarshalJSON() ([]byte, error) {
	type alias ProviderCell
	return marshalCell(c.Kind().String(), alias(c))
}

func (c TableCell) MarshalJSON() ([]byte, error) {
	type alias TableCell
	return marshalCell(c.Kind().String(), alias(c))
}

func (c TextCell) MarshalJSON() ([]byte, error) {
	type alias TextCell
	return marshalCell(c.Kind().String(), alias(c))
}

func (c TimelineCell) MarshalJSON() ([]byte, error) {
	type alias TimelineCell
	return marshalCell(c.Kind().String(), alias(c))
}

// DecodeCell unmarshals a single JSON cell object into its concrete kind,
// keyed on the "type" discriminator written by MarshalJSON above.
func DecodeCell(raw json.RawMessage) (Cell, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("decoding cell envelope: %w", err)
	}
	switch head.Type {
	case CellCheckbox.String():
		type alias CheckboxCell
		var a alias
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, err
		}
		return CheckboxCell(a), nil
	case CellCode.String():
		type alias CodeCell
		var a alias
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, err
		}
		return CodeCell(a), nil
	case CellDivider.String():
		type alias DividerCell
		var a alias
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, err
		}
		return DividerCell(a), nil
	case CellDiscussion.String():
		type alias DiscussionCell
		var a alias
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, err
		}
		return DiscussionCell(a), nil
	case CellGraph.String():
		type alias GraphCell
		var a alias
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, err
		}
		return GraphCell(a), nil
	case CellHeading.String():
		type alias HeadingCell
		var a alias
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, err
		}
		return HeadingCell(a), nil
	case CellImage.String():
		type alias ImageCell
		var a alias
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, err
		}
		return ImageCell(a), nil
	case CellListItem.String():
		type alias ListItemCell
		var a alias
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, err
		}
		return ListItemCell(a), nil
	case CellLog.String():
		type alias LogCell
		var a alias
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, err
		}
		return LogCell(a), nil
	case CellProvider.String():
		var envelope struct {
			BaseCell
			Intent          string                    `json:"intent"`
			QueryData       *string                   `json:"queryData,omitempty"`
			Output          []json.RawMessage         `json:"output,omitempty"`
			FormattingValue json.RawMessage           `json:"formatting,omitempty"`
		}
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return nil, err
		}
		p := ProviderCell{
			baseCell:  baseCell{ID_: envelope.ID, ReadOnly_: envelope.ReadOnlyPtr},
			Intent:    envelope.Intent,
			QueryData: envelope.QueryData,
		}
		if len(envelope.FormattingValue) > 0 {
			if err := json.Unmarshal(envelope.FormattingValue, &p.FormattingValue); err != nil {
				return nil, err
			}
		}
		if len(envelope.Output) > 0 {
			cells, err := DecodeCellList(envelope.Output)
			if err != nil {
				return nil, err
			}
			p.Output = cells
		}
		return p, nil
	case CellTable.String():
		type alias TableCell
		var a alias
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, err
		}
		return TableCell(a), nil
	case CellText.String():
		type alias TextCell
		var a alias
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, err
		}
		return TextCell(a), nil
	case CellTimeline.String():
		type alias TimelineCell
		var a alias
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, err
		}
		return TimelineCell(a), nil
	default:
		return nil, fmt.Errorf("unknown cell type %q", head.Type)
	}
}

// BaseCell mirrors baseCell's wire shape for the Provider case above,
// which cannot embed the unexported baseCell directly inside a local
// struct literal type and still have json pick up its tags by promotion
// across packages-the fields are re-declared with matching tags instead.
type BaseCell struct {
	ID          string `json:"id"`
	ReadOnlyPtr *bool  `json:"readOnly,omitempty"`
}

// DecodeCellList unmarshals a JSON array of cell objects into their
// concrete kinds.
func DecodeCellList(raw []json.RawMessage) ([]Cell, error) {
	cells := make([]Cell, len(raw))
	for i, r := range raw {
		c, err := DecodeCell(r)
		if err != nil {
			return nil, fmt.Errorf("cell %d: %w", i, err)
		}
		cells[i] = c
	}
	return cells, nil
}

// DecodeCellListJSON unmarshals a raw JSON array (as bytes) into concrete
// cells, for callers that have not already split it into RawMessages.
func DecodeCellListJSON(raw json.RawMessage) ([]Cell, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	return DecodeCellList(items)
}

func (cw *CellWithIndex) UnmarshalJSON(data []byte) error {
	var raw struct {
		Cell  json.RawMessage `json:"cell"`
		Index uint32          `json:"index"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	cell, err := DecodeCell(raw.Cell)
	if err != nil {
		return err
	}
	cw.Cell = cell
	cw.Index = raw.Index
	return nil
}

func (cr *CellRefWithIndex) UnmarshalJSON(data []byte) error {
	var raw struct {
		Cell  json.RawMessage `json:"cell"`
		Index uint32          `json:"index"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	cell, err := DecodeCell(raw.Cell)
	if err != nil {
		return err
	}
	cr.Cell = cell
	cr.Index = raw.Index
	return nil
}

// UnmarshalJSON gives Notebook a concrete decoder for its Cell-typed
// fields, which plain encoding/json cannot pick a kind for on its own.
func (n *Notebook) UnmarshalJSON(data []byte) error {
	type alias Notebook
	raw := struct {
		Cells []json.RawMessage `json:"cells"`
		*alias
	}{alias: (*alias)(n)}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	cells, err := DecodeCellList(raw.Cells)
	if err != nil {
		return err
	}
	n.Cells = cells
	return nil
}
