package automation

import (
	"fmt"
	"sort"

	"example.com/commentcap/internal/domain"
)

type FieldType string

const (
	FieldBoolean   FieldType = "boolean"
	FieldNumber    FieldType = "number"
	FieldString    FieldType = "string"
	FieldParagraph FieldType = "paragraph"
)

// Field declares one configurable option.
type Field struct {
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Label    string    `json:"label"`
	HelpText string    `json:"help_text,omitempty"`
	Default  any       `json:"default,omitempty"`

	validate func(name string, v any) *domain.FieldError
}

// Schema is the configuration surface of one automation.
type Schema struct {
	Label    string  `json:"label"`
	HelpText string  `json:"help_text,omitempty"`
	Fields   []Field `json:"fields"`
}

func (s Schema) field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Normalize returns a copy of values with defaults filled in for unset fields.
func (s Schema) Normalize(values map[string]any) map[string]any {
	out := make(map[string]any, len(s.Fields))
	for k, v := range values {
		out[k] = v
	}
	for _, f := range s.Fields {
		if _, ok := out[f.Name]; !ok && f.Default != nil {
			out[f.Name] = f.Default
		}
	}
	return out
}

// Validate checks values against the schema: unknown names, value types and
// per-field rules. Errors are sorted by field name.
func (s Schema) Validate(values map[string]any) []domain.FieldError {
	var errs []domain.FieldError
	for name, v := range values {
		f, ok := s.field(name)
		if !ok {
			errs = append(errs, domain.FieldError{Field: name, Msg: "unknown setting"})
			continue
		}
		if fe := checkType(f, v); fe != nil {
			errs = append(errs, *fe)
			continue
		}
		if f.validate != nil {
			if fe := f.validate(name, v); fe != nil {
				errs = append(errs, *fe)
			}
		}
	}
	// Validated fields must be present; an absent threshold is as bad as zero.
	for _, f := range s.Fields {
		if _, ok := values[f.Name]; !ok && f.validate != nil {
			if fe := f.validate(f.Name, nil); fe != nil {
				errs = append(errs, *fe)
			}
		}
	}
	sort.Slice(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })
	return errs
}

func checkType(f Field, v any) *domain.FieldError {
	switch f.Type {
	case FieldBoolean:
		if _, ok := v.(bool); !ok {
			return &domain.FieldError{Field: f.Name, Msg: "must be a boolean"}
		}
	case FieldString, FieldParagraph:
		if _, ok := v.(string); !ok {
			return &domain.FieldError{Field: f.Name, Msg: "must be a string"}
		}
	case FieldNumber:
		if _, ok := domain.AsInt(v); !ok {
			return &domain.FieldError{Field: f.Name, Msg: "must be a whole number"}
		}
	default:
		return &domain.FieldError{Field: f.Name, Msg: fmt.Sprintf("unsupported field type %q", f.Type)}
	}
	return nil
}

const (
	defaultThreshold      = 150
	defaultModMailSubject = "Post Notification - {number_of_comments} comments"
	defaultModMailBody    = "FYA: {submission_permalink}\n\nPosted: {submission_age}\n\n[Trigger Comment.]({comment_permalink})"
)

// schemaLabels carries the wording that differs between automations.
type schemaLabels struct {
	group, help, enable, flairText, comment, lock, logging string
}

func buildSchema(n domain.SettingNames, l schemaLabels) Schema {
	return Schema{
		Label:    l.group,
		HelpText: l.help,
		Fields: []Field{
			{Name: n.Enabled, Type: FieldBoolean, Label: l.enable, Default: true},
			{Name: n.Threshold, Type: FieldNumber, Label: "Number of comments to trigger actions at", Default: defaultThreshold, validate: domain.ValidateThreshold},
			{Name: n.FlairTemplateID, Type: FieldString, Label: "Post flair template to apply"},
			{Name: n.FlairText, Type: FieldString, Label: l.flairText},
			{Name: n.OverwriteExistingFlair, Type: FieldBoolean, Label: "Overwrite existing flair", Default: false},
			{Name: n.FlairTextToIgnore, Type: FieldString, Label: "Flair text to never overwrite (comma separated)"},
			{Name: n.CommentToAdd, Type: FieldParagraph, Label: l.comment, HelpText: "Leave blank to omit a comment"},
			{Name: n.LockPost, Type: FieldBoolean, Label: l.lock, Default: false},
			{Name: n.NotifyInModMail, Type: FieldBoolean, Label: "Send a Modmail Notification", Default: false},
			{Name: n.ModMailSubject, Type: FieldString, Label: "Modmail subject", Default: defaultModMailSubject},
			{Name: n.ModMailBody, Type: FieldParagraph, Label: "Message to include in modmail", Default: defaultModMailBody},
			{Name: n.EnhancedLogging, Type: FieldBoolean, Label: l.logging, Default: false},
		},
	}
}
