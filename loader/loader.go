package loader

import (
	"fmt"
	"log"
	"os"

	"github.com/jmoiron/sqlx"
)

// InitDatabase applies the schema and reports the loaded row counts.
func InitDatabase(db *sqlx.DB) error {
	log.Println("Applying database schema...")
	if err := applySchema(db); err != nil {
		return fmt.Errorf("failed to apply schema.sql: %w", err)
	}
	log.Println("Schema applied successfully.")

	var inventoryCount, logCount int
	if err := db.Get(&inventoryCount, `SELECT COUNT(*) FROM inventory`); err != nil {
		return fmt.Errorf("failed to count inventory rows: %w", err)
	}
	if err := db.Get(&logCount, `SELECT COUNT(*) FROM transactions_log`); err != nil {
		return fmt.Errorf("failed to count log rows: %w", err)
	}
	log.Printf("Store ready: %d inventory rows, %d log rows.", inventoryCount, logCount)
	return nil
}

// applySchema reads and executes schema.sql.
func applySchema(db *sqlx.DB) error {
	schemaBytes, err := os.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("could not read schema.sql: %w", err)
	}
	if _, err := db.Exec(string(schemaBytes)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}
