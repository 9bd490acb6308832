package domain

// ChangeType represents the type of change to a source file.
type ChangeType int

const (
	// ChangeCreated indicates a new file.
	ChangeCreated ChangeType = iota

	// ChangeUpdated indicates a modified file.
	ChangeUpdated

	// ChangeDeleted indicates a removed or renamed file.
	ChangeDeleted
)

// String returns the change type name.
func (c ChangeType) String() string {
	switch c {
	case ChangeCreated:
		return "created"
	case ChangeUpdated:
		return "updated"
	case ChangeDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// PaperChange is a change event for one file below the papers directory.
type PaperChange struct {
	// Type is the kind of change.
	Type ChangeType

	// Path is the absolute path of the affected file.
	Path string
}

// NeedsExtraction reports whether the change may have produced a file to extract.
func (c PaperChange) NeedsExtraction() bool {
	return c.Type == ChangeCreated || c.Type == ChangeUpdated
}
