package monitordb

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/chainsafe/deposit-monitor/pkg/depositstore"
	mghelper "github.com/chainsafe/deposit-monitor/pkg/pgutil/migrations"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		return mghelper.CreateSchema(ctx, db, &depositstore.WebhookDao{})
	}, func(ctx context.Context, db *bun.DB) error {
		return mghelper.DropTables(ctx, db, &depositstore.WebhookDao{})
	})
}
