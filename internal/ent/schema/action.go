package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Action holds the schema definition for a journaled action.
type Action struct{ ent.Schema }

// Fields of the Action.
func (Action) Fields() []ent.Field {
	return []ent.Field{
		// Stable record ID; appends are idempotent on it.
		field.String("id").NotEmpty().Unique().Immutable(),
		// Journal stream, one per store.
		field.String("stream").NotEmpty(),
		// Monotonic sequence per stream.
		field.Int64("seq").Positive(),
		field.String("type").NotEmpty(),
		field.Bytes("payload").Optional(),
		field.Time("created_at").Default(time.Now).Immutable().SchemaType(map[string]string{
			dialect.Postgres: "TIMESTAMPTZ",
			dialect.SQLite:   "DATETIME",
		}),
	}
}

// Indexes of the Action.
func (Action) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("stream", "seq").Unique(),
	}
}
