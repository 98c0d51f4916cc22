package domain

import "strings"

// SettingNames maps each automation option to the key it is stored under.
// The two automations share a shape but not a namespace.
type SettingNames struct {
	Enabled                string
	Threshold              string
	FlairText              string
	FlairTemplateID        string
	OverwriteExistingFlair string
	FlairTextToIgnore      string
	CommentToAdd           string
	LockPost               string
	NotifyInModMail        string
	ModMailSubject         string
	ModMailBody            string
	EnhancedLogging        string
}

// AutomationSettings is the parsed, per-invocation view of a moderator's configuration.
type AutomationSettings struct {
	Enabled bool
	// Threshold is zero when unset or unparseable.
	Threshold              int
	FlairText              string
	FlairTemplateID        string
	OverwriteExistingFlair bool
	FlairTextToIgnore      FlairSet
	CommentToAdd           string
	LockPost               bool
	NotifyInModMail        bool
	ModMailSubject         string
	ModMailBody            string
	EnhancedLogging        bool
}

// WantsFlairChange reports whether a flair text or template id is configured.
func (s AutomationSettings) WantsFlairChange() bool {
	return s.FlairText != "" || s.FlairTemplateID != ""
}

// ParseSettings reads raw stored values into AutomationSettings.
// Missing keys and values of the wrong type fall back to zero values.
func ParseSettings(raw map[string]any, names SettingNames) AutomationSettings {
	s := AutomationSettings{
		Enabled:                asBool(raw[names.Enabled]),
		FlairText:              strings.TrimSpace(asString(raw[names.FlairText])),
		FlairTemplateID:        strings.TrimSpace(asString(raw[names.FlairTemplateID])),
		OverwriteExistingFlair: asBool(raw[names.OverwriteExistingFlair]),
		FlairTextToIgnore:      ParseFlairSet(asString(raw[names.FlairTextToIgnore])),
		CommentToAdd:           asString(raw[names.CommentToAdd]),
		LockPost:               asBool(raw[names.LockPost]),
		NotifyInModMail:        asBool(raw[names.NotifyInModMail]),
		ModMailSubject:         asString(raw[names.ModMailSubject]),
		ModMailBody:            asString(raw[names.ModMailBody]),
		EnhancedLogging:        asBool(raw[names.EnhancedLogging]),
	}
	if n, ok := AsInt(raw[names.Threshold]); ok && n > 0 {
		s.Threshold = n
	}
	return s
}

// FlairSet is a case-insensitive set of flair texts.
type FlairSet map[string]struct{}

// ParseFlairSet splits a comma separated list, trimming and lower-casing entries.
// Blank entries are dropped, so "" yields an empty set.
func ParseFlairSet(csv string) FlairSet {
	set := FlairSet{}
	for _, f := range strings.Split(csv, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" {
			set[f] = struct{}{}
		}
	}
	return set
}

// Contains matches text case-insensitively after trimming.
func (fs FlairSet) Contains(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return false
	}
	_, ok := fs[t]
	return ok
}

// With returns a copy of the set that also holds text.
func (fs FlairSet) With(text string) FlairSet {
	out := make(FlairSet, len(fs)+1)
	for k := range fs {
		out[k] = struct{}{}
	}
	if t := strings.ToLower(strings.TrimSpace(text)); t != "" {
		out[t] = struct{}{}
	}
	return out
}

func asBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(strings.TrimSpace(b), "true")
	}
	return false
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
