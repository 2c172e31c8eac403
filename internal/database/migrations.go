package database

import (
	"fmt"
	"log"

	"github.com/taskflow/task-tracker-api/internal/models"
	"gorm.io/gorm"
)

type index struct {
	model  interface{}
	name   string
	fields []string
}

// indexes backs the list, board and audit queries. They are declared here
// rather than in struct tags so composite ones stay readable.
var indexes = []index{
	{&models.Task{}, "idx_tasks_organization_id", []string{"organization_id"}},
	{&models.Task{}, "idx_tasks_created_by", []string{"created_by"}},
	{&models.Task{}, "idx_tasks_assigned_to", []string{"assigned_to"}},
	{&models.Task{}, "idx_tasks_status", []string{"status"}},
	{&models.Task{}, "idx_tasks_created_at", []string{"created_at"}},

	{&models.AuditLog{}, "idx_audit_logs_org_created", []string{"organization_id", "created_at"}},
	{&models.AuditLog{}, "idx_audit_logs_user_created", []string{"user_id", "created_at"}},
	{&models.AuditLog{}, "idx_audit_logs_resource", []string{"resource", "resource_id"}},
}

// AddIndexes creates any missing secondary index. It is safe to run repeatedly.
func AddIndexes(db *gorm.DB) error {
	for _, idx := range indexes {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(idx.model); err != nil {
			return fmt.Errorf("failed to parse model for %s: %w", idx.name, err)
		}
		table := stmt.Schema.Table

		if db.Migrator().HasIndex(idx.model, idx.name) {
			continue
		}

		columns := idx.fields[0]
		for _, f := range idx.fields[1:] {
			columns += ", " + f
		}
		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, table, columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Printf("Created index %s on %s(%s)", idx.name, table, columns)
	}

	return nil
}
