package shellbridge

import (
	"context"
	"fmt"

	"github.com/aretw0/shellbridge/internal/jsoncodec"
	"github.com/aretw0/shellbridge/pkg/domain"
	"github.com/aretw0/shellbridge/pkg/ports"
)

// SetFilterFolders publishes the folders the shell extension decorates as a JSON array
// under domain.KeyFilterFolders, then asks the folder refresher, if any, to redraw each one.
// Refresh failures are logged and do not fail the call.
func (c *Controller) SetFilterFolders(ctx context.Context, folders ...string) error {
	if folders == nil {
		folders = []string{}
	}

	data, err := jsoncodec.Marshal(folders)
	if err != nil {
		return fmt.Errorf("encode filter folders: %w", err)
	}
	if err := c.registry.Write(ctx, domain.KeyFilterFolders, data); err != nil {
		return fmt.Errorf("write filter folders: %w", err)
	}

	if c.refresher == nil {
		return nil
	}
	for _, folder := range folders {
		if err := c.refresher.RefreshFolder(folder); err != nil {
			c.logger.Warn("failed to refresh folder", "folder", folder, "err", err)
		}
	}
	return nil
}

// SetFilterFolder replaces the filter list with a single folder.
func (c *Controller) SetFilterFolder(ctx context.Context, folder string) error {
	return c.SetFilterFolders(ctx, folder)
}

// FilterFolders reads back the published filter list. It returns an empty list when nothing
// was published yet.
func (c *Controller) FilterFolders(ctx context.Context) ([]string, error) {
	data, err := c.registry.Read(ctx, domain.KeyFilterFolders)
	if err != nil {
		if ports.IsNotFound(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read filter folders: %w", err)
	}

	var folders []string
	if err := jsoncodec.Unmarshal(data, &folders); err != nil {
		return nil, fmt.Errorf("decode filter folders: %w", err)
	}
	return folders, nil
}
