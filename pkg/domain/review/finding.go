package review

// Locator is a structured reference into the artifact. Path is required;
// either a line range or a named section narrows it down.
type Locator struct {
	Path      string `json:"path"`
	StartLine int    `json:"start_line,omitempty"`
	EndLine   int    `json:"end_line,omitempty"`
	Section   string `json:"section,omitempty"`
}

// IsZero returns true if the locator carries no reference at all.
func (l Locator) IsZero() bool {
	return l.Path == "" && l.Section == "" && l.StartLine == 0 && l.EndLine == 0
}

// Overlaps reports whether two locators refer to the same region of the
// artifact: same path, and either matching sections or intersecting line
// ranges. A locator without a range or section matches the whole file.
func (l Locator) Overlaps(other Locator) bool {
	if l.Path != other.Path {
		return false
	}
	if l.Section != "" && other.Section != "" {
		return l.Section == other.Section
	}
	if l.hasRange() && other.hasRange() {
		return l.StartLine <= other.EndLine && other.StartLine <= l.EndLine
	}
	// Path-level locators overlap anything in the same path.
	return true
}

func (l Locator) hasRange() bool {
	return l.StartLine > 0 && l.EndLine >= l.StartLine
}

// Finding is one structured observation produced by a single analyzer task.
// It is immutable once created and belongs to exactly one task.
type Finding struct {
	ID           string   `json:"id"`
	TaskID       string   `json:"task_id"`
	Category     string   `json:"category"`
	Severity     Severity `json:"severity"`
	Locator      Locator  `json:"locator"`
	Description  string   `json:"description"`
	Confidence   float64  `json:"confidence,omitempty"`
	SuggestedFix string   `json:"suggested_fix,omitempty"`
}
