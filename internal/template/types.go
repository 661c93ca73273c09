package template

// DocumentTemplate describes the section scaffold for one APD type.
type DocumentTemplate struct {
	// Type identifier (set during YAML unmarshaling from the file name)
	Type string `yaml:"-" json:"type"`

	DisplayName string `yaml:"display_name" json:"display_name"`
	Description string `yaml:"description" json:"description"`

	Sections []SectionTemplate `yaml:"sections" json:"sections"`
}

// SectionTemplate seeds one section of a new document.
type SectionTemplate struct {
	ID          string            `yaml:"id" json:"id"`
	Title       string            `yaml:"title" json:"title"`
	Fields      []FieldTemplate   `yaml:"fields" json:"fields"`
	Subsections []SectionTemplate `yaml:"subsections,omitempty" json:"subsections,omitempty"`
}

// FieldTemplate seeds one content field with its default value.
type FieldTemplate struct {
	Name    string `yaml:"name" json:"name"`
	Kind    string `yaml:"kind" json:"kind"` // text, number, bool, list, table
	Default string `yaml:"default,omitempty" json:"default,omitempty"`
}
