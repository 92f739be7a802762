package domain

// ParsedCommand is the result of resolving a text or structured request into
// an intent plus field assignments. It lives for a single request.
type ParsedCommand struct {
	Intent      Intent           `json:"intent"`
	Entity      Entity           `json:"entity"`
	Identifiers map[Field]string `json:"identifiers,omitempty"`
	Fields      map[Field]string `json:"fields,omitempty"`

	// Targets lists fields named without values, in first-seen order
	// (field-level deletion).
	Targets []Field `json:"targets,omitempty"`

	// Categories restricts a search to specific record sheets.
	Categories []string `json:"categories,omitempty"`

	Criteria *MatchCriteria `json:"criteria,omitempty"`
	RawText  string         `json:"raw_text,omitempty"`
}

// NewCommand returns a command with initialized maps.
func NewCommand(intent Intent, entity Entity, raw string) ParsedCommand {
	return ParsedCommand{
		Intent:      intent,
		Entity:      entity,
		Identifiers: make(map[Field]string),
		Fields:      make(map[Field]string),
		RawText:     raw,
	}
}

// Name returns the member name identifier, if any.
func (c ParsedCommand) Name() string {
	return c.Identifiers[FieldName]
}
