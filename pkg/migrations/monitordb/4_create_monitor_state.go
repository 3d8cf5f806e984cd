package monitordb

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/chainsafe/deposit-monitor/pkg/depositstore"
	mghelper "github.com/chainsafe/deposit-monitor/pkg/pgutil/migrations"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		if err := mghelper.CreateSchema(ctx, db, &depositstore.MonitorStateDao{}); err != nil {
			return err
		}
		_, err := db.ExecContext(ctx, "ALTER TABLE monitor_state ADD CONSTRAINT monitor_state_singleton CHECK (id = 1)")
		if err != nil {
			return err
		}
		_, err = db.NewInsert().
			Model(&depositstore.MonitorStateDao{ID: 1}).
			On("CONFLICT (id) DO NOTHING").
			Exec(ctx)
		return err
	}, func(ctx context.Context, db *bun.DB) error {
		return mghelper.DropTables(ctx, db, &depositstore.MonitorStateDao{})
	})
}
