package operations

import (
	"encoding/json"
	"fmt"
)

// Every concrete Operation implements json.Marshaler by wrapping itself
// with a "kind" discriminator carrying Kind().String(), the snake-case
// operation tag clients and servers exchange on the wire. Decode is the
// other direction: it peeks at "kind" and dispatches to the matching
// concrete type.

func marshalOperation(kind string, alias interface{}) ([]byte, error) {
	body, err := json.Marshal(alias)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	kindJSON, err := json.Marshal(kind)
	if err != nil {
		return nil, err
	}
	fields["kind"] = kindJSON
	return json.Marshal(fields)
}

func (op ReplaceCellsOperation) MarshalJSON() ([]byte, error) {
	type alias ReplaceCellsOperation
	return marshalOperation(op.Kind().String(), alias(op))
}

func (op ReplaceTextOperation) MarshalJSON() ([]byte, error) {
	type alias ReplaceTextOperation
	return marshalOperation(op.Kind().String(), alias(op))
}

func (op MoveCellsOperation) MarshalJSON() ([]byte, error) {
	type alias MoveCellsOperation
	return marshalOperation(op.Kind().String(), alias(op))
}

func (op UpdateNotebookTimeRangeOperation) MarshalJSON() ([]byte, error) {
	type alias UpdateNotebookTimeRangeOperation
	return marshalOperation(op.Kind().String(), alias(op))
}

func (op UpdateNotebookTitleOperation) MarshalJSON() ([]byte, error) {
	type alias UpdateNotebookTitleOperation
	return marshalOperation(op.Kind().String(), alias(op))
}

func (op SetSelectedDataSourceOperation) MarshalJSON() ([]byte, error) {
	type alias SetSelectedDataSourceOperation
	return marshalOperation(op.Kind().String(), alias(op))
}

func (op AddLabelOperation) MarshalJSON() ([]byte, error) {
	type alias AddLabelOperation
	return marshalOperation(op.Kind().String(), alias(op))
}

func (op ReplaceLabelOperation) MarshalJSON() ([]byte, error) {
	type alias ReplaceLabelOperation
	return marshalOperation(op.Kind().String(), alias(op))
}

func (op RemoveLabelOperation) MarshalJSON() ([]byte, error) {
	type alias RemoveLabelOperation
	return marshalOperation(op.Kind().String(), alias(op))
}

func (op InsertFrontMatterSchemaOperation) MarshalJSON() ([]byte, error) {
	type alias InsertFrontMatterSchemaOperation
	return marshalOperation(op.Kind().String(), alias(op))
}

func (op UpdateFrontMatterSchemaOperation) MarshalJSON() ([]byte, error) {
	type alias UpdateFrontMatterSchemaOperation
	return marshalOperation(op.Kind().String(), alias(op))
}

func (op MoveFrontMatterSchemaOperation) MarshalJSON() ([]byte, error) {
	type alias MoveFrontMatterSchemaOperation
	return marshalOperation(op.Kind().String(), alias(op))
}

func (op RemoveFrontMatterSchemaOperation) MarshalJSON() ([]byte, error) {
	type alias RemoveFrontMatterSchemaOperation
	return marshalOperation(op.Kind().String(), alias(op))
}

func (op ClearFrontMatterOperation) MarshalJSON() ([]byte, error) {
	type alias ClearFrontMatterOperation
	return marshalOperation(op.Kind().String(), alias(op))
}

// Decode unmarshals a single JSON operation object into its concrete
// kind, keyed on the "kind" discriminator written by MarshalJSON above.
func Decode(raw []byte) (Operation, error) {
	var head struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("decoding operation envelope: %w", err)
	}
	switch head.Kind {
	case KindReplaceCells.String():
		type alias ReplaceCellsOperation
		var a alias
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, err
		}
		return ReplaceCellsOperation(a), nil
	case KindReplaceText.String():
		type alias ReplaceTextOperation
		var a alias
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, err
		}
		return ReplaceTextOperation(a), nil
	case KindMoveCells.String():
		type alias MoveCellsOperation
		var a alias
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, err
		}
		return MoveCellsOperation(a), nil
	case KindUpdateNotebookTimeRange.String():
		type alias UpdateNotebookTimeRangeOperation
		var a alias
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, err
		}
		return UpdateNotebookTimeRangeOperation(a), nil
	case KindUpdateNotebookTitle.String():
		type alias UpdateNotebookTitleOperation
		var a alias
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, err
		}
		return UpdateNotebookTitleOperation(a), nil
	case KindSetSelectedDataSource.String():
		type alias SetSelectedDataSourceOperation
		var a alias
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, err
		}
		return SetSelectedDataSourceOperation(a), nil
	case KindAddLabel.String():
		type alias AddLabelOperation
		var a alias
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, err
		}
		return AddLabelOperation(a), nil
	case KindReplaceLabel.String():
		type alias ReplaceLabelOperation
		var a alias
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, err
		}
		return ReplaceLabelOperation(a), nil
	case KindRemoveLabel.String():
		type alias RemoveLabelOperation
		var a alias
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, err
		}
		return RemoveLabelOperation(a), nil
	case KindInsertFrontMatterSchema.String():
		type alias InsertFrontMatterSchemaOperation
		var a alias
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, err
		}
		return InsertFrontMatterSchemaOperation(a), nil
	case KindUpdateFrontMatterSchema.String():
		type alias UpdateFrontMatterSchemaOperation
		var a alias
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, err
		}
		return UpdateFrontMatterSchemaOperation(a), nil
	case KindMoveFrontMatterSchema.String():
		type alias MoveFrontMatterSchemaOperation
		var a alias
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, err
		}
		return MoveFrontMatterSchemaOperation(a), nil
	case KindRemoveFrontMatterSchema.String():
		type alias RemoveFrontMatterSchemaOperation
		var a alias
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, err
		}
		return RemoveFrontMatterSchemaOperation(a), nil
	case KindClearFrontMatter.String():
		type alias ClearFrontMatterOperation
		var a alias
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, err
		}
		return ClearFrontMatterOperation(a), nil
	default:
		return nil, fmt.Errorf("unknown operation kind %q", head.Kind)
	}
}
