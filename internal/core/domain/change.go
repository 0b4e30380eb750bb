package domain

// ChangeType classifies a change to a watched file.
type ChangeType string

const (
	// ChangeCreated means a new file appeared.
	ChangeCreated ChangeType = "created"

	// ChangeUpdated means an existing file was written.
	ChangeUpdated ChangeType = "updated"

	// ChangeDeleted means the file was removed or renamed away.
	ChangeDeleted ChangeType = "deleted"
)

// FileChange is a change to a study material file on disk.
type FileChange struct {
	Type ChangeType

	// Path is the absolute file path.
	Path string

	// DocumentID is the ID the file is indexed under.
	DocumentID string
}
