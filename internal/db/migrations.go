package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE INDEX IF NOT EXISTS idx_operations_status ON operations (status);`,
	`CREATE INDEX IF NOT EXISTS idx_operations_date ON operations (date);`,
	`CREATE INDEX IF NOT EXISTS idx_operations_producer ON operations (producer);`,
	`CREATE INDEX IF NOT EXISTS idx_operations_buyer ON operations (buyer);`,
	`CREATE INDEX IF NOT EXISTS idx_truck_tickets_operation ON truck_tickets (operation_id, position);`,
	`CREATE INDEX IF NOT EXISTS idx_contacts_type ON contacts (type);`,
	`CREATE INDEX IF NOT EXISTS idx_contacts_name ON contacts (name);`,
}

func Migrate(database *gorm.DB) error {
	if err := database.AutoMigrate(
		&OperationRow{},
		&TruckTicketRow{},
		&ContactRow{},
		&SettingsRow{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	for i, stmt := range migrationStatements {
		if err := database.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
