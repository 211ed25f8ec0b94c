package extract

import (
	"context"

	"github.com/kadirbelkuyu/pglifecycle/internal/inventory"
)

// FileSource replays an inventory saved with inventory.SaveFile.
type FileSource struct {
	Path string
}

func (s FileSource) Inventory(ctx context.Context) (*inventory.Inventory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return inventory.LoadFile(s.Path)
}

// EmptySource yields an inventory with no entries, which generates a bare
// project skeleton.
type EmptySource struct{}

func (EmptySource) Inventory(context.Context) (*inventory.Inventory, error) {
	return &inventory.Inventory{}, nil
}
