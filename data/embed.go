package data

import (
	_ "embed"
)

// PendingItemTemplates seeds the pending item template table.
//
//go:embed seed/pending_item_templates.json
var PendingItemTemplates []byte
