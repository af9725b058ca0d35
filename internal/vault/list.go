package vault

import (
	"context"

	"github.com/hpungsan/locky/internal/db"
)

// ListItem is one vault entry as reported by List.
type ListItem struct {
	Filename    string `json:"filename"`
	Description string `json:"description"`
	SizeBytes   int64  `json:"size_bytes"`
	AddedAt     int64  `json:"added_at"`
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items []ListItem `json:"items"`
}

// Filenames returns the listed names in order.
func (o *ListOutput) Filenames() []string {
	names := make([]string, len(o.Items))
	for i, item := range o.Items {
		names[i] = item.Filename
	}
	return names
}

// List returns every known file in filename order. A missing or empty
// description is reported as record.NoDescription.
func (m *Manager) List(ctx context.Context) (*ListOutput, error) {
	records, err := db.ListRecords(ctx, m.db)
	if err != nil {
		return nil, err
	}

	items := make([]ListItem, len(records))
	for i := range records {
		items[i] = ListItem{
			Filename:    records[i].Filename,
			Description: records[i].DescriptionOrDefault(),
			SizeBytes:   records[i].SizeBytes,
			AddedAt:     records[i].AddedAt,
		}
	}
	return &ListOutput{Items: items}, nil
}

// Filenames returns every known filename in order.
func (m *Manager) Filenames(ctx context.Context) ([]string, error) {
	return db.ListFiles(ctx, m.db)
}
