package notebook

// FrontMatterValueKind is the closed set of front-matter field types.
type FrontMatterValueKind int

const (
	FrontMatterNumber FrontMatterValueKind = iota
	FrontMatterString
	FrontMatterDateTime
	FrontMatterUser
)

func (k FrontMatterValueKind) String() string {
	switch k {
	case FrontMatterNumber:
		return "number"
	case FrontMatterString:
		return "string"
	case FrontMatterDateTime:
		return "date_time"
	case FrontMatterUser:
		return "user"
	default:
		return "unknown"
	}
}

// FrontMatterValueSchema describes one schema row's accepted value shape.
// Options/DefaultValue are carried as their string rendering regardless of
// Kind, since the OT core never interprets them beyond kind-matching and
// equality for old/new comparison.
type FrontMatterValueSchema struct {
	Kind             FrontMatterValueKind `json:"type"`
	DisplayName      string               `json:"displayName,omitempty"`
	IconName         *string              `json:"iconName,omitempty"`
	AllowExtraValues bool                 `json:"allowExtraValues,omitempty"`
	Multiple         bool                 `json:"multiple,omitempty"` // meaningful for FrontMatterString only
	Options          []string             `json:"options,omitempty"`
	DefaultValue     *string              `json:"defaultValue,omitempty"`
}

// FrontMatterSchemaRow is one entry of the ordered schema vector.
type FrontMatterSchemaRow struct {
	Key    string                 `json:"key"`
	Schema FrontMatterValueSchema `json:"schema"`
}

// FrontMatterSchema is the notebook's ordered front-matter schema. Keys
// are unique within the vector.
type FrontMatterSchema []FrontMatterSchemaRow

// Index returns the position of the row with the given key, or -1.
func (s FrontMatterSchema) Index(key string) int {
	for i, row := range s {
		if row.Key == key {
			return i
		}
	}
	return -1
}

// FrontMatterValue is one stored value. A single-valued field carries
// exactly one element in Values; a Multiple-capable string field may carry
// more than one.
type FrontMatterValue struct {
	Kind   FrontMatterValueKind `json:"type"`
	Values []string             `json:"values"`
}

// FrontMatterValues maps a schema key to its current value. Every key
// present here must also appear in the notebook's schema vector, and the
// value's Kind must match the declared schema kind.
type FrontMatterValues map[string]FrontMatterValue
