package describe

import (
	"context"
)

// Store is the metadata surface needed to attach descriptions.
// *vault.Manager satisfies it.
type Store interface {
	Description(ctx context.Context, filename string) (*string, error)
	SetDescription(ctx context.Context, filename, description string) error
}

// AttachResult reports what Attach did.
type AttachResult struct {
	Description string `json:"description"`
	Generated   bool   `json:"generated"`
}

// Attach gives filename a description after a successful add. A stored
// non-empty description is kept unless regenerate is set; otherwise d
// describes the file at path and the result is stored.
func Attach(ctx context.Context, store Store, d Describer, filename, path string, regenerate bool) (*AttachResult, error) {
	if !regenerate {
		existing, err := store.Description(ctx, filename)
		if err != nil {
			return nil, err
		}
		if existing != nil && *existing != "" {
			return &AttachResult{Description: *existing}, nil
		}
	}

	desc := d.Describe(ctx, path)
	if err := store.SetDescription(ctx, filename, desc); err != nil {
		return nil, err
	}
	return &AttachResult{Description: desc, Generated: true}, nil
}
