package domain

import (
	"encoding/json"
	"strings"
)

// FieldType is the JSON type of a schema field.
type FieldType string

const (
	FieldString      FieldType = "string"
	FieldStringArray FieldType = "array<string>"
)

// SchemaField describes one output field the model must produce.
type SchemaField struct {
	Name        string
	Type        FieldType
	Description string
	Required    bool
}

// RecordSchema is an ordered description of a structured model output.
// It is declared as data so prompt text can be rendered without reflection.
type RecordSchema struct {
	Name        string
	Description string
	Fields      []SchemaField
}

// SummarySchema describes SummaryResult.
var SummarySchema = RecordSchema{
	Name:        "Summary",
	Description: "Short summary of a person with interesting facts",
	Fields: []SchemaField{
		{Name: "summary", Type: FieldString, Description: "summary of the person", Required: true},
		{Name: "facts", Type: FieldStringArray, Description: "interesting facts about the person", Required: true},
	},
}

// JSONSchema renders the schema as a JSON Schema document.
// Field order is preserved, so the output is byte-stable for a given schema.
func (s RecordSchema) JSONSchema() string {
	var b strings.Builder
	b.WriteString("{\n")
	b.WriteString(`  "title": ` + quote(s.Name) + ",\n")
	if s.Description != "" {
		b.WriteString(`  "description": ` + quote(s.Description) + ",\n")
	}
	b.WriteString(`  "type": "object",` + "\n")
	b.WriteString(`  "properties": {` + "\n")

	required := make([]string, 0, len(s.Fields))
	for i, f := range s.Fields {
		b.WriteString("    " + quote(f.Name) + ": {")
		b.WriteString(`"description": ` + quote(f.Description) + ", ")
		switch f.Type {
		case FieldStringArray:
			b.WriteString(`"items": {"type": "string"}, "title": ` + quote(title(f.Name)) + `, "type": "array"`)
		default:
			b.WriteString(`"title": ` + quote(title(f.Name)) + `, "type": "string"`)
		}
		b.WriteString("}")
		if i < len(s.Fields)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
		if f.Required {
			required = append(required, quote(f.Name))
		}
	}
	b.WriteString("  },\n")
	b.WriteString(`  "required": [` + strings.Join(required, ", ") + "]\n")
	b.WriteString("}")
	return b.String()
}

// FieldNames returns the schema field names in declaration order.
func (s RecordSchema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func title(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
