package partition

import (
	"context"
	"fmt"
	"time"

	"pgslice/core/calendar"
	"pgslice/core/database"

	"gorm.io/gorm"
)

// Create attaches one partition per range to a declaratively
// partitioned parent table. Existing partitions are skipped.
// It returns the tables that were targeted, in range order.
func Create(ctx context.Context, db *gorm.DB, parent database.Table, s *Settings, ranges []calendar.Range) ([]database.Table, error) {
	existing, err := database.NewInspector(db).Partitions(ctx, parent)
	if err != nil {
		return nil, err
	}
	have := make(map[string]struct{}, len(existing))
	for _, p := range existing {
		have[p.Name] = struct{}{}
	}

	var created []database.Table
	for _, r := range ranges {
		child := database.Table{Schema: parent.Schema, Name: parent.Name + "_" + r.Suffix}
		if _, ok := have[child.Name]; ok {
			continue
		}

		stmt := fmt.Sprintf(
			"CREATE TABLE IF NOT EXISTS %s PARTITION OF %s FOR VALUES FROM ('%s') TO ('%s')",
			child.Ident(), parent.Ident(),
			boundary(s.Cast, r.Start), boundary(s.Cast, r.End),
		)
		if err := db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return created, fmt.Errorf("failed to create partition %s: %w", child, err)
		}
		created = append(created, child)
	}
	return created, nil
}

func boundary(cast string, t time.Time) string {
	if cast == "date" {
		return t.UTC().Format("2006-01-02")
	}
	return t.UTC().Format("2006-01-02 15:04:05 MST")
}
