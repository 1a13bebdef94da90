// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"fmt"

	"github.com/jeranaias/msgbook/internal/model"
	"github.com/jeranaias/msgbook/internal/util"
)

// =============================================================================
// SNAPSHOT
// =============================================================================

// WriteSnapshot writes msgs as a JSON array to path. The file always holds
// a complete array; an empty input gives "[]".
func WriteSnapshot(path string, msgs []model.Message) error {
	if msgs == nil {
		msgs = []model.Message{}
	}
	data, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}
