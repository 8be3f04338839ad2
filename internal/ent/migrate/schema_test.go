package migrate

import (
	"testing"

	"entgo.io/ent"
	entschema "github.com/wilhg/redux/internal/ent/schema"
)

func columnNames(t *testing.T, fields []ent.Field) []string {
	t.Helper()
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		d := f.Descriptor()
		if d.Err != nil {
			t.Fatalf("field %s: %v", d.Name, d.Err)
		}
		out = append(out, d.Name)
	}
	return out
}

func TestTablesMatchSchema(t *testing.T) {
	cases := []struct {
		name   string
		fields []ent.Field
		table  string
	}{
		{"action", entschema.Action{}.Fields(), ActionsTable.Name},
		{"snapshot", entschema.Snapshot{}.Fields(), SnapshotsTable.Name},
	}
	for _, tc := range cases {
		var cols []string
		for _, tbl := range Tables {
			if tbl.Name == tc.table {
				for _, c := range tbl.Columns {
					cols = append(cols, c.Name)
				}
			}
		}
		want := columnNames(t, tc.fields)
		if len(cols) != len(want) {
			t.Fatalf("%s: columns %v, schema fields %v", tc.name, cols, want)
		}
		for i := range want {
			if cols[i] != want[i] {
				t.Fatalf("%s: column %d is %q, schema field is %q", tc.name, i, cols[i], want[i])
			}
		}
	}
}
