package tolerance

import "context"

type ToleranceSettingRepository interface {
	// GetActiveByScope returns active settings for a scope+value ordered
	// by priority ascending.
	GetActiveByScope(ctx context.Context, scope Scope, scopeValue string) ([]ToleranceSetting, error)
	Upsert(ctx context.Context, setting ToleranceSetting) (ToleranceSetting, error)
}
