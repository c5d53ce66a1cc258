package migrations

import (
	"github.com/optionex/binary-api/internal/types"
	"gorm.io/gorm"
)

// AddBinaryOrderIndexes creates the binary order table and the indexes the
// sweep and settlement paths query on.
func AddBinaryOrderIndexes(db *gorm.DB) error {
	if err := db.AutoMigrate(&types.BinaryOrder{}); err != nil {
		return err
	}

	// Using raw SQL for index creation to have more control over index types
	indexes := []string{
		// Sweep scans all pending orders past expiry
		`CREATE INDEX IF NOT EXISTS idx_binary_orders_status_closed_at
		 ON binary_orders(status, closed_at)`,

		// Per-user order history listing
		`CREATE INDEX IF NOT EXISTS idx_binary_orders_user_created_at
		 ON binary_orders(user_id, created_at)`,
	}

	for _, idx := range indexes {
		if err := db.Exec(idx).Error; err != nil {
			return err
		}
	}

	return nil
}
