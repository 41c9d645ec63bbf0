package tracker

import (
	"fmt"
	"strings"
)

// Column names of the remote table.
const (
	ColumnID        = "id"
	ColumnName      = "name"
	ColumnCount     = "count"
	ColumnCreatedAt = "created_at"
	ColumnMethod    = "method"
	ColumnStatus    = "status"
	ColumnGame      = "game"
)

// Mutation changes exactly one field of an Item. The set of implementations
// is closed: SetCount, SetMethod, SetGame and SetStatus.
type Mutation interface {
	// Column is the remote column the mutation writes.
	Column() string
	// Value is the value written to Column, as stored remotely.
	Value() interface{}

	validate() error
	apply(*Item)
}

type SetCount struct{ Count int }

func (m SetCount) Column() string     { return ColumnCount }
func (m SetCount) Value() interface{} { return m.Count }
func (m SetCount) apply(it *Item)     { it.Count = m.Count }
func (m SetCount) validate() error {
	if m.Count < 0 {
		return &ValidationError{Field: ColumnCount, Msg: "count cannot be negative"}
	}
	return nil
}

type SetMethod struct{ Method Method }

func (m SetMethod) Column() string     { return ColumnMethod }
func (m SetMethod) Value() interface{} { return string(m.Method) }
func (m SetMethod) apply(it *Item)     { it.Method = m.Method }
func (m SetMethod) validate() error {
	if !m.Method.Valid() {
		return &ValidationError{Field: ColumnMethod, Msg: fmt.Sprintf("unknown method %q", m.Method)}
	}
	return nil
}

type SetGame struct{ Game string }

func (m SetGame) Column() string     { return ColumnGame }
func (m SetGame) Value() interface{} { return m.Game }
func (m SetGame) apply(it *Item)     { it.Game = m.Game }
func (m SetGame) validate() error    { return nil }

type SetStatus struct{ Status Status }

func (m SetStatus) Column() string     { return ColumnStatus }
func (m SetStatus) Value() interface{} { return string(m.Status) }
func (m SetStatus) apply(it *Item)     { it.Status = m.Status }
func (m SetStatus) validate() error {
	if !m.Status.Valid() {
		return &ValidationError{Field: ColumnStatus, Msg: fmt.Sprintf("unknown status %q", m.Status)}
	}
	return nil
}

// ParseMutation builds a Mutation from a column name and its textual value,
// as received from forms and the JSON API.
func ParseMutation(column, value string) (Mutation, error) {
	switch column {
	case ColumnCount:
		n, ok := parseCount(value)
		if !ok {
			return nil, &ValidationError{Field: ColumnCount, Msg: fmt.Sprintf("invalid count %q", value)}
		}
		return SetCount{Count: n}, nil
	case ColumnMethod:
		m, ok := ParseMethod(value)
		if !ok {
			return nil, &ValidationError{Field: ColumnMethod, Msg: fmt.Sprintf("unknown method %q", value)}
		}
		return SetMethod{Method: m}, nil
	case ColumnGame:
		return SetGame{Game: strings.TrimSpace(value)}, nil
	case ColumnStatus:
		s := Status(strings.ToLower(strings.TrimSpace(value)))
		if !s.Valid() {
			return nil, &ValidationError{Field: ColumnStatus, Msg: fmt.Sprintf("unknown status %q", value)}
		}
		return SetStatus{Status: s}, nil
	}
	return nil, &ValidationError{Field: column, Msg: fmt.Sprintf("field %q cannot be changed", column)}
}
