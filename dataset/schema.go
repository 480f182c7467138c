package dataset

import (
	"fmt"
)

type PatternFrequency struct {
	Pattern     string `json:"pattern"`
	Occurrences int64  `json:"occurrences"`
}

type Statistics struct {
	Valid              int64              `json:"valid"`
	Empty              int64              `json:"empty"`
	Invalid            int64              `json:"invalid"`
	PatternFrequencies []PatternFrequency `json:"patternFrequencies,omitempty"`
}

// ColumnDescriptor describes one column. ID is stable for the whole run,
// Name is the display name.
type ColumnDescriptor struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Type       Type        `json:"type"`
	Statistics *Statistics `json:"statistics,omitempty"`
}

func (c ColumnDescriptor) clone() ColumnDescriptor {
	if c.Statistics != nil {
		stats := *c.Statistics
		stats.PatternFrequencies = append([]PatternFrequency(nil), c.Statistics.PatternFrequencies...)
		c.Statistics = &stats
	}
	return c
}

// Schema is the ordered column list of a dataset. Column IDs are unique.
type Schema struct {
	columns []ColumnDescriptor
	byID    map[string]int
}

func NewSchema(columns ...ColumnDescriptor) (*Schema, error) {
	s := &Schema{byID: make(map[string]int, len(columns))}
	for _, column := range columns {
		if err := s.Add(column); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// MustSchema is NewSchema for static column lists.
func MustSchema(columns ...ColumnDescriptor) *Schema {
	s, err := NewSchema(columns...)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schema) Len() int {
	return len(s.columns)
}

func (s *Schema) Column(i int) ColumnDescriptor {
	return s.columns[i]
}

// Columns returns a copy of the column list.
func (s *Schema) Columns() []ColumnDescriptor {
	result := make([]ColumnDescriptor, len(s.columns))
	copy(result, s.columns)
	return result
}

func (s *Schema) IDs() []string {
	result := make([]string, len(s.columns))
	for i := range s.columns {
		result[i] = s.columns[i].ID
	}
	return result
}

// IndexOf returns the position of the column with the given id or -1.
func (s *Schema) IndexOf(id string) int {
	if i, ok := s.byID[id]; ok {
		return i
	}
	return -1
}

// Lookup resolves a column by id first, then by display name.
func (s *Schema) Lookup(key string) int {
	if i := s.IndexOf(key); i >= 0 {
		return i
	}
	for i := range s.columns {
		if s.columns[i].Name == key {
			return i
		}
	}
	return -1
}

func (s *Schema) Add(column ColumnDescriptor) error {
	if column.ID == "" {
		return fmt.Errorf("column at position %d has no id", len(s.columns))
	}
	if _, exists := s.byID[column.ID]; exists {
		return fmt.Errorf("duplicate column id '%s'", column.ID)
	}
	if column.Type == "" {
		column.Type = TypeString
	}
	s.byID[column.ID] = len(s.columns)
	s.columns = append(s.columns, column)
	return nil
}

// Update replaces the column stored under id. The id itself cannot change.
func (s *Schema) Update(id string, fn func(column *ColumnDescriptor)) error {
	i := s.IndexOf(id)
	if i < 0 {
		return fmt.Errorf("column '%s' not found", id)
	}
	column := s.columns[i]
	fn(&column)
	if column.ID != id {
		return fmt.Errorf("column id cannot change ('%s' -> '%s')", id, column.ID)
	}
	s.columns[i] = column
	return nil
}

func (s *Schema) Remove(id string) error {
	i := s.IndexOf(id)
	if i < 0 {
		return fmt.Errorf("column '%s' not found", id)
	}
	s.columns = append(s.columns[:i], s.columns[i+1:]...)
	s.reindex()
	return nil
}

func (s *Schema) reindex() {
	s.byID = make(map[string]int, len(s.columns))
	for i := range s.columns {
		s.byID[s.columns[i].ID] = i
	}
}

func (s *Schema) Clone() *Schema {
	clone := &Schema{
		columns: make([]ColumnDescriptor, len(s.columns)),
	}
	for i := range s.columns {
		clone.columns[i] = s.columns[i].clone()
	}
	clone.reindex()
	return clone
}
