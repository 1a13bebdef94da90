// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jeranaias/msgbook/internal/util"
)

// copyAssets places the Makefile and the emoji font in the output directory.
// The font is always written as DefaultFont, the name the template loads.
func (e *Exporter) copyAssets() error {
	assets := []struct{ src, dst string }{
		{e.opts.FontPath, filepath.Join(e.opts.OutputDir, DefaultFont)},
		{e.makefilePath(), filepath.Join(e.opts.OutputDir, MakefileName)},
	}
	for _, a := range assets {
		if _, err := os.Stat(a.src); err != nil {
			return fmt.Errorf("%w: %s", ErrMissingAsset, a.src)
		}
		if err := util.CopyFile(a.src, a.dst, 0644); err != nil {
			return fmt.Errorf("copy %s: %w", filepath.Base(a.src), err)
		}
	}
	return nil
}
