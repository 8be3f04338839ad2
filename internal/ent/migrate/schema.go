// Package migrate declares the journal tables in ent's migration model. The
// declarations mirror internal/ent/schema.
package migrate

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

var (
	// ActionsColumns holds the columns for the "actions" table.
	ActionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Unique: true},
		{Name: "stream", Type: field.TypeString},
		{Name: "seq", Type: field.TypeInt64},
		{Name: "type", Type: field.TypeString},
		{Name: "payload", Type: field.TypeBytes, Nullable: true},
		{Name: "created_at", Type: field.TypeTime, SchemaType: map[string]string{dialect.Postgres: "TIMESTAMPTZ", dialect.SQLite: "DATETIME"}},
	}
	// ActionsTable holds the schema information for the "actions" table.
	ActionsTable = &schema.Table{
		Name:       "actions",
		Columns:    ActionsColumns,
		PrimaryKey: []*schema.Column{ActionsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "action_stream_seq",
				Unique:  true,
				Columns: []*schema.Column{ActionsColumns[1], ActionsColumns[2]},
			},
		},
	}
	// SnapshotsColumns holds the columns for the "snapshots" table.
	SnapshotsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Unique: true},
		{Name: "stream", Type: field.TypeString},
		{Name: "upto_seq", Type: field.TypeInt64},
		{Name: "state", Type: field.TypeBytes, Nullable: true},
		{Name: "created_at", Type: field.TypeTime, SchemaType: map[string]string{dialect.Postgres: "TIMESTAMPTZ", dialect.SQLite: "DATETIME"}},
	}
	// SnapshotsTable holds the schema information for the "snapshots" table.
	SnapshotsTable = &schema.Table{
		Name:       "snapshots",
		Columns:    SnapshotsColumns,
		PrimaryKey: []*schema.Column{SnapshotsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "snapshot_stream_upto_seq",
				Unique:  true,
				Columns: []*schema.Column{SnapshotsColumns[1], SnapshotsColumns[2]},
			},
		},
	}
	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		ActionsTable,
		SnapshotsTable,
	}
)

// Create runs the migration for Tables against drv.
func Create(ctx context.Context, drv dialect.Driver, opts ...schema.MigrateOption) error {
	m, err := schema.NewMigrate(drv, opts...)
	if err != nil {
		return fmt.Errorf("ent/migrate: %w", err)
	}
	return m.Create(ctx, Tables...)
}
