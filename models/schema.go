package models

// FieldTypeFile is the schema type of file attachment fields.
const FieldTypeFile = "file"

// SchemaField describes one field of a collection schema.
type SchemaField struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// CollectionSchema is the remote description of a collection.
type CollectionSchema struct {
	ID     string        `json:"id,omitempty"`
	Name   string        `json:"name"`
	Fields []SchemaField `json:"fields"`
}

// FileFields returns the names of all file-typed fields.
func (s CollectionSchema) FileFields() []string {
	var out []string
	for _, f := range s.Fields {
		if f.Type == FieldTypeFile {
			out = append(out, f.Name)
		}
	}
	return out
}
