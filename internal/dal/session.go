package dal

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// setTenantConfig publishes the verified organization id to the storage
// engine's row-level security policies. set_config(..., is_local=true)
// scopes the value to the current transaction, so a pooled connection
// handed to another request never carries it over.
func (d *DAL) setTenantConfig(tx *gorm.DB) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	return tx.Exec("SELECT set_config('app.current_org_id', ?, true)", d.tc.OrgID.String()).Error
}

// Tx runs fn inside one explicit transaction with the tenant session
// config set first. The transaction guarantees the config and every
// dependent statement share one physical connection; outside it,
// session-scoped state is unreliable under pooling.
func (d *DAL) Tx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := d.setTenantConfig(tx); err != nil {
			return fmt.Errorf("setting tenant session config: %w", err)
		}
		return fn(tx)
	})
}
