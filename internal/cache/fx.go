package cache

import (
	"context"

	"go.uber.org/fx"
)

var Module = fx.Module("cache",
	fx.Provide(NewSnapshotStore),
	fx.Invoke(registerClose),
)

func registerClose(lc fx.Lifecycle, store *SnapshotStore) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return store.Close()
		},
	})
}
