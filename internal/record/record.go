package record

// NoDescription is reported in listings when a file has no stored description.
const NoDescription = "no description"

// FileRecord is the metadata kept for one file in the vault.
type FileRecord struct {
	// Filename is the basename of the stored copy and the record's identity
	Filename string `json:"filename"`

	// AddedAt is the Unix timestamp of the last add or description update
	AddedAt int64 `json:"added_at"`

	// SizeBytes is the size of the stored copy at the last add.
	// Zero for a record created by a description write before any add.
	SizeBytes int64 `json:"size_bytes"`

	// Description is nil until one is generated and stored
	Description *string `json:"description,omitempty"`
}

// DescriptionOrDefault returns the description, or NoDescription when unset or empty.
func (r *FileRecord) DescriptionOrDefault() string {
	return DescriptionText(r.Description)
}

// DescriptionText maps a nullable description to display text.
func DescriptionText(desc *string) string {
	if desc == nil || *desc == "" {
		return NoDescription
	}
	return *desc
}
