package schema

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"

	gormschema "gorm.io/gorm/schema"
)

// SequenceColumn is the list-position column of list tables.
const SequenceColumn = "seq"

// Column type classes. They are coarser than database types so that a
// definition can be checked against any existing column.
const (
	TypeString = "string"
	TypeInt    = "int"
	TypeFloat  = "float"
	TypeBool   = "bool"
	TypeTime   = "time"
	TypeBytes  = "bytes"
	TypeText   = "text"
)

type Column struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Size       int    `yaml:"size,omitempty"`
	Nullable   bool   `yaml:"nullable"`
	PrimaryKey bool   `yaml:"primary_key,omitempty"`
}

type ForeignKey struct {
	Columns    []string `yaml:"columns"`
	RefTable   string   `yaml:"ref_table"`
	RefColumns []string `yaml:"ref_columns"`
	OnDelete   string   `yaml:"on_delete,omitempty"`
	OnUpdate   string   `yaml:"on_update,omitempty"`
}

type Table struct {
	Name        string       `yaml:"name"`
	Columns     []Column     `yaml:"columns"`
	PrimaryKey  []string     `yaml:"primary_key"`
	ForeignKeys []ForeignKey `yaml:"foreign_keys,omitempty"`

	// Owner is set on list tables: the table whose rows own the list and the
	// column of this table referencing the owner's key.
	Owner       string `yaml:"owner,omitempty"`
	OwnerColumn string `yaml:"owner_column,omitempty"`

	model reflect.Type
}

// IsList reports whether the table stores a nested list of its owner.
func (t *Table) IsList() bool { return t.Owner != "" }

// Column looks up a column by name.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// NewModel returns a pointer to a zero value of the table's model.
func (t *Table) NewModel() any {
	return reflect.New(t.model).Interface()
}

// Schema is the full set of table definitions, in registration order.
type Schema struct {
	Tables []*Table `yaml:"tables"`

	byName map[string]*Table
}

// Table looks up a table by name.
func (s *Schema) Table(name string) (*Table, bool) {
	t, ok := s.byName[name]
	return t, ok
}

// Lists returns the list tables owned by the named table.
func (s *Schema) Lists(owner string) []*Table {
	var out []*Table
	for _, t := range s.Tables {
		if t.Owner == owner {
			out = append(out, t)
		}
	}
	return out
}

// Models returns fresh model pointers for every table, in order.
func (s *Schema) Models() []any {
	out := make([]any, 0, len(s.Tables))
	for _, t := range s.Tables {
		out = append(out, t.NewModel())
	}
	return out
}

// ConflictError reports two incompatible declarations of the same column,
// either between models or between a model and an existing table.
type ConflictError struct {
	Table  string
	Column string
	Want   string
	Have   string
}

func (e *ConflictError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("schema conflict on table %s: %s vs %s", e.Table, e.Want, e.Have)
	}
	return fmt.Sprintf("schema conflict on %s.%s: declared %s, found %s", e.Table, e.Column, e.Want, e.Have)
}

// Define derives the schema from GORM models. The result only depends on
// the models and their order.
func Define(models ...any) (*Schema, error) {
	cache := &sync.Map{}
	namer := gormschema.NamingStrategy{}

	s := &Schema{byName: make(map[string]*Table)}
	parsed := make([]*gormschema.Schema, 0, len(models))

	for _, m := range models {
		gs, err := gormschema.Parse(m, cache, namer)
		if err != nil {
			return nil, fmt.Errorf("parse model %T: %w", m, err)
		}
		parsed = append(parsed, gs)

		t := tableOf(gs)
		existing, ok := s.byName[t.Name]
		if !ok {
			s.Tables = append(s.Tables, t)
			s.byName[t.Name] = t
			continue
		}
		if err := merge(existing, t); err != nil {
			return nil, err
		}
	}

	for _, gs := range parsed {
		for _, rel := range gs.Relationships.HasMany {
			child, ok := s.byName[rel.FieldSchema.Table]
			if !ok {
				return nil, fmt.Errorf("table %s references unregistered table %s", gs.Table, rel.FieldSchema.Table)
			}
			fk := ForeignKey{RefTable: gs.Table}
			for _, ref := range rel.References {
				if ref.PrimaryKey == nil || ref.ForeignKey == nil {
					continue
				}
				fk.Columns = append(fk.Columns, ref.ForeignKey.DBName)
				fk.RefColumns = append(fk.RefColumns, ref.PrimaryKey.DBName)
			}
			if c := rel.ParseConstraint(); c != nil {
				fk.OnDelete = c.OnDelete
				fk.OnUpdate = c.OnUpdate
			}
			if hasForeignKey(child, fk) {
				continue
			}
			child.ForeignKeys = append(child.ForeignKeys, fk)

			if slices.Contains(child.PrimaryKey, SequenceColumn) && len(fk.Columns) == 1 {
				if child.Owner != "" && child.Owner != gs.Table {
					return nil, &ConflictError{Table: child.Name, Want: "list of " + child.Owner, Have: "list of " + gs.Table}
				}
				child.Owner = gs.Table
				child.OwnerColumn = fk.Columns[0]
			}
		}
	}

	return s, nil
}

func tableOf(gs *gormschema.Schema) *Table {
	t := &Table{
		Name:       gs.Table,
		PrimaryKey: append([]string(nil), gs.PrimaryFieldDBNames...),
		model:      gs.ModelType,
	}
	for _, f := range gs.Fields {
		if f.DBName == "" {
			continue
		}
		t.Columns = append(t.Columns, Column{
			Name:       f.DBName,
			Type:       typeClass(f),
			Size:       f.Size,
			Nullable:   !f.NotNull && !f.PrimaryKey,
			PrimaryKey: f.PrimaryKey,
		})
	}
	return t
}

func typeClass(f *gormschema.Field) string {
	switch f.DataType {
	case gormschema.Bool:
		return TypeBool
	case gormschema.Int, gormschema.Uint:
		return TypeInt
	case gormschema.Float:
		return TypeFloat
	case gormschema.String:
		return TypeString
	case gormschema.Time:
		return TypeTime
	case gormschema.Bytes:
		return TypeBytes
	}
	return strings.ToLower(string(f.DataType))
}

func merge(into, t *Table) error {
	if !slices.Equal(into.PrimaryKey, t.PrimaryKey) {
		return &ConflictError{
			Table: into.Name,
			Want:  "primary key (" + strings.Join(into.PrimaryKey, ", ") + ")",
			Have:  "primary key (" + strings.Join(t.PrimaryKey, ", ") + ")",
		}
	}
	for _, c := range t.Columns {
		have, ok := into.Column(c.Name)
		if !ok {
			into.Columns = append(into.Columns, c)
			continue
		}
		if have.Type != c.Type {
			return &ConflictError{Table: into.Name, Column: c.Name, Want: have.Type, Have: c.Type}
		}
	}
	return nil
}

func hasForeignKey(t *Table, fk ForeignKey) bool {
	for _, existing := range t.ForeignKeys {
		if existing.RefTable == fk.RefTable && slices.Equal(existing.Columns, fk.Columns) {
			return true
		}
	}
	return false
}

var typeKeywords = map[string][]string{
	TypeString: {"char", "text", "clob", "string"},
	TypeText:   {"char", "text", "clob", "string"},
	TypeInt:    {"int", "numeric", "decimal"},
	TypeBool:   {"bool", "bit", "int", "numeric"},
	TypeFloat:  {"double", "float", "real", "decimal", "numeric"},
	TypeTime:   {"date", "time"},
	TypeBytes:  {"blob", "binary", "bytea"},
}

// Accepts reports whether an existing database column type can hold the
// column's values.
func (c Column) Accepts(dbType string) bool {
	dbType = strings.ToLower(strings.TrimSpace(dbType))
	if i := strings.IndexByte(dbType, '('); i >= 0 {
		dbType = dbType[:i]
	}
	keywords, ok := typeKeywords[c.Type]
	if !ok {
		return strings.Contains(dbType, c.Type)
	}
	for _, k := range keywords {
		if strings.Contains(dbType, k) {
			return true
		}
	}
	return false
}
