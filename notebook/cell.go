// Package notebook defines the document model: the Notebook root entity,
// its closed set of Cell kinds, Formatting-bearing cells, labels, and
// front-matter schema/values.
//
// Cell is modeled the way a compiler's AST package would model a closed
// node hierarchy: a minimal interface with an unexported marker method so
// only this package can introduce new kinds, and a CellKind() method a
// switch can exhaustively match on.
package notebook

import (
	"github.com/fiberplane/fp-ot/formatting"
)

// CellKind identifies one of the closed set of cell variants a notebook
// can contain.
type CellKind int

const (
	CellCheckbox CellKind = iota
	CellCode
	CellDiscussion
	CellDivider
	CellGraph
	CellHeading
	CellImage
	CellListItem
	CellLog
	CellProvider
	CellTable
	CellTimeline
	CellText
)

func (k CellKind) String() string {
	switch k {
	case CellCheckbox:
		return "checkbox"
	case CellCode:
		return "code"
	case CellDiscussion:
		return "discussion"
	case CellDivider:
		return "divider"
	case CellGraph:
		return "graph"
	case CellHeading:
		return "heading"
	case CellImage:
		return "image"
	case CellListItem:
		return "list_item"
	case CellLog:
		return "log"
	case CellProvider:
		return "provider"
	case CellTable:
		return "table"
	case CellTimeline:
		return "timeline"
	case CellText:
		return "text"
	default:
		return "unknown"
	}
}

// Cell is a single notebook cell. Every kind below implements this
// interface; cellNode is unexported so the set of kinds stays closed to
// this package, and callers are expected to switch on Kind() exhaustively.
type Cell interface {
	cellNode()
	Kind() CellKind
	ID() string
	WithID(id string) Cell

	// Text returns the cell's plain content, if this kind carries text.
	Text() (string, bool)
	// WithText returns a copy of the cell with its content and formatting
	// replaced. It is a no-op (returns the receiver) for kinds without text.
	WithText(content string, f formatting.Formatting) Cell

	// Formatting returns the cell's annotation list, if this kind supports
	// rich formatting.
	Formatting() (formatting.Formatting, bool)

	SupportsFormatting() bool
	ReadOnly() *bool
}

// CellWithIndex pairs a cell with its position in the notebook's cell
// sequence, the shape ReplaceCells operations carry for both old and new
// cell lists.
type CellWithIndex struct {
	Cell  Cell   `json:"cell"`
	Index uint32 `json:"index"`
}

// CellRefWithIndex is the read side of the same pairing, returned by
// ApplyOperationState.AllRelevantCells without implying the cell is part of
// any particular operation.
type CellRefWithIndex struct {
	Cell  Cell   `json:"cell"`
	Index uint32 `json:"index"`
}

// baseCell holds the fields every kind carries.
type baseCell struct {
	ID_       string `json:"id"`
	ReadOnly_ *bool  `json:"readOnly,omitempty"`
}

func (b baseCell) ID() string      { return b.ID_ }
func (b baseCell) ReadOnly() *bool { return b.ReadOnly_ }

// plainTextCell is embedded by every kind that carries plain text without rich
// formatting (Code).
type plainTextCell struct {
	Content string `json:"content"`
}

func (p plainTextCell) Text() (string, bool)                                    { return p.Content, true }
func (p plainTextCell) Formatting() (formatting.Formatting, bool)               { return nil, false }
func (p plainTextCell) SupportsFormatting() bool                                { return false }

// richTextCell is embedded by every kind that carries both text and
// formatting (Checkbox, Heading, ListItem, Text).
type richTextCell struct {
	Content         string                `json:"content"`
	FormattingValue formatting.Formatting `json:"formatting,omitempty"`
}

func (r richTextCell) Text() (string, bool)                     { return r.Content, true }
func (r richTextCell) Formatting() (formatting.Formatting, bool) { return r.FormattingValue, true }
func (r richTextCell) SupportsFormatting() bool                  { return true }

// noTextCell is embedded by every kind with neither text nor formatting
// (Divider, Discussion, Graph, Image, Log, Table, Timeline).
type noTextCell struct{}

func (noTextCell) Text() (string, bool)                     { return "", false }
func (noTextCell) Formatting() (formatting.Formatting, bool) { return nil, false }
func (noTextCell) SupportsFormatting() bool                  { return false }

// --- Checkbox --------------------------------------------------------------

type CheckboxCell struct {
	baseCell
	richTextCell
	Checked bool  `json:"checked"`
	Level   *uint8 `json:"level,omitempty"`
}

func (c CheckboxCell) cellNode()      {}
func (c CheckboxCell) Kind() CellKind { return CellCheckbox }
func (c CheckboxCell) WithID(id string) Cell {
	c.ID_ = id
	return c
}
func (c CheckboxCell) WithText(content string, f formatting.Formatting) Cell {
	c.Content = content
	c.FormattingValue = f
	return c
}

// --- Code --------------------------------------------------------------

type CodeCell struct {
	baseCell
	plainTextCell
	Syntax string `json:"syntax,omitempty"`
}

func (c CodeCell) cellNode()      {}
func (c CodeCell) Kind() CellKind { return CellCode }
func (c CodeCell) WithID(id string) Cell {
	c.ID_ = id
	return c
}
func (c CodeCell) WithText(content string, _ formatting.Formatting) Cell {
	c.Content = content
	return c
}

// --- Divider --------------------------------------------------------------

type DividerCell struct {
	baseCell
	noTextCell
}

func (c DividerCell) cellNode()      {}
func (c DividerCell) Kind() CellKind { return CellDivider }
func (c DividerCell) WithID(id string) Cell {
	c.ID_ = id
	return c
}
func (c DividerCell) WithText(string, formatting.Formatting) Cell { return c }

// --- Discussion -------------------------------------------------------------

type DiscussionCell struct {
	baseCell
	noTextCell
	ThreadID string `json:"threadId,omitempty"`
}

func (c DiscussionCell) cellNode()      {}
func (c DiscussionCell) Kind() CellKind { return CellDiscussion }
func (c DiscussionCell) WithID(id string) Cell {
	c.ID_ = id
	return c
}
func (c DiscussionCell) WithText(string, formatting.Formatting) Cell { return c }

// --- Graph (referencing cell) -----------------------------------------------

type GraphCell struct {
	baseCell
	noTextCell
	DataLinks   []string `json:"dataLinks,omitempty"`
	GraphType   string   `json:"graphType,omitempty"`
	StackingType string  `json:"stackingType,omitempty"`
}

func (c GraphCell) cellNode()      {}
func (c GraphCell) Kind() CellKind { return CellGraph }
func (c GraphCell) WithID(id string) Cell {
	c.ID_ = id
	return c
}
func (c GraphCell) WithText(string, formatting.Formatting) Cell { return c }

// --- Heading --------------------------------------------------------------

type HeadingCell struct {
	baseCell
	richTextCell
	HeadingType string `json:"headingType"`
}

func (c HeadingCell) cellNode()      {}
func (c HeadingCell) Kind() CellKind { return CellHeading }
func (c HeadingCell) WithID(id string) Cell {
	c.ID_ = id
	return c
}
func (c HeadingCell) WithText(content string, f formatting.Formatting) Cell {
	c.Content = content
	c.FormattingValue = f
	return c
}

// --- Image --------------------------------------------------------------

type ImageCell struct {
	baseCell
	noTextCell
	FileID *string `json:"fileId,omitempty"`
}

func (c ImageCell) cellNode()      {}
func (c ImageCell) Kind() CellKind { return CellImage }
func (c ImageCell) WithID(id string) Cell {
	c.ID_ = id
	return c
}
func (c ImageCell) WithText(string, formatting.Formatting) Cell { return c }

// --- ListItem --------------------------------------------------------------

type ListItemCell struct {
	baseCell
	richTextCell
	ListType    string `json:"listType"`
	Level       *uint8 `json:"level,omitempty"`
	StartNumber *uint16 `json:"startNumber,omitempty"`
}

func (c ListItemCell) cellNode()      {}
func (c ListItemCell) Kind() CellKind { return CellListItem }
func (c ListItemCell) WithID(id string) Cell {
	c.ID_ = id
	return c
}
func (c ListItemCell) WithText(content string, f formatting.Formatting) Cell {
	c.Content = content
	c.FormattingValue = f
	return c
}

// --- Log (referencing cell) -------------------------------------------------

type LogCell struct {
	baseCell
	noTextCell
	DataLinks         []string `json:"dataLinks,omitempty"`
	DisplayFields     []string `json:"displayFields,omitempty"`
	HideSimilarValues *bool    `json:"hideSimilarValues,omitempty"`
}

func (c LogCell) cellNode()      {}
func (c LogCell) Kind() CellKind { return CellLog }
func (c LogCell) WithID(id string) Cell {
	c.ID_ = id
	return c
}
func (c LogCell) WithText(string, formatting.Formatting) Cell { return c }

// --- Provider --------------------------------------------------------------

// ProviderCell is the only kind whose "text" is virtual: when a field name
// is supplied, reads/writes route through the query-data codec against
// QueryData instead of a literal Content field. Output holds generated
// child cells, owned by value (not referenced by id from elsewhere per the
// cyclic cell/output design note).
type ProviderCell struct {
	baseCell
	Intent          string                `json:"intent"`
	QueryData       *string               `json:"queryData,omitempty"`
	Output          []Cell                `json:"output,omitempty"`
	FormattingValue formatting.Formatting `json:"formatting,omitempty"`
}

func (c ProviderCell) cellNode()      {}
func (c ProviderCell) Kind() CellKind { return CellProvider }
func (c ProviderCell) WithID(id string) Cell {
	c.ID_ = id
	return c
}

// Text on a ProviderCell returns the raw query-data blob (field-less
// access). ProviderCell has no field-scoped accessor of its own; field
// reads and writes go through the querydata package, via
// Notebook.CellTextAndFormatting and apply's ReplaceText handling.
func (c ProviderCell) Text() (string, bool) {
	if c.QueryData == nil {
		return "", true
	}
	return *c.QueryData, true
}
func (c ProviderCell) WithText(content string, f formatting.Formatting) Cell {
	if content == "" {
		c.QueryData = nil
	} else {
		c.QueryData = &content
	}
	c.FormattingValue = f
	return c
}
func (c ProviderCell) Formatting() (formatting.Formatting, bool) { return c.FormattingValue, true }
func (c ProviderCell) SupportsFormatting() bool                  { return true }

// --- Table (referencing cell) -----------------------------------------------

type TableColumnDefinition struct {
	Key   string `json:"key"`
	Title string `json:"title"`
}

type TableCell struct {
	baseCell
	noTextCell
	ColumnDefs []TableColumnDefinition `json:"columnDefs,omitempty"`
	DataLinks  []string                `json:"dataLinks,omitempty"`
}

func (c TableCell) cellNode()      {}
func (c TableCell) Kind() CellKind { return CellTable }
func (c TableCell) WithID(id string) Cell {
	c.ID_ = id
	return c
}
func (c TableCell) WithText(string, formatting.Formatting) Cell { return c }

// --- Text --------------------------------------------------------------

type TextCell struct {
	baseCell
	richTextCell
}

func (c TextCell) cellNode()      {}
func (c TextCell) Kind() CellKind { return CellText }
func (c TextCell) WithID(id string) Cell {
	c.ID_ = id
	return c
}
func (c TextCell) WithText(content string, f formatting.Formatting) Cell {
	c.Content = content
	c.FormattingValue = f
	return c
}

// --- Timeline (referencing cell) ---------------------------------------------

type TimelineCell struct {
	baseCell
	noTextCell
	DataLinks []string `json:"dataLinks,omitempty"`
}

func (c TimelineCell) cellNode()      {}
func (c TimelineCell) Kind() CellKind { return CellTimeline }
func (c TimelineCell) WithID(id string) Cell {
	c.ID_ = id
	return c
}
func (c TimelineCell) WithText(string, formatting.Formatting) Cell { return c }

// IsReferencingCell reports whether a cell kind names other cells as
// sources (Graph, Log, Table, Timeline per the design notes).
func IsReferencingCell(k CellKind) bool {
	switch k {
	case CellGraph, CellLog, CellTable, CellTimeline:
		return true
	default:
		return false
	}
}

// SourceIDs returns the ordered list of source cell ids a referencing cell
// names, or nil if the cell does not reference others.
func SourceIDs(c Cell) []string {
	switch v := c.(type) {
	case GraphCell:
		return v.DataLinks
	case LogCell:
		return v.DataLinks
	case TableCell:
		return v.DataLinks
	case TimelineCell:
		return v.DataLinks
	default:
		return nil
	}
}

// WithSourceIDs returns a copy of a referencing cell with its source id
// list replaced. Non-referencing cells are returned unchanged.
func WithSourceIDs(c Cell, ids []string) Cell {
	switch v := c.(type) {
	case GraphCell:
		v.DataLinks = ids
		return v
	case LogCell:
		v.DataLinks = ids
		return v
	case TableCell:
		v.DataLinks = ids
		return v
	case TimelineCell:
		v.DataLinks = ids
		return v
	default:
		return c
	}
}
