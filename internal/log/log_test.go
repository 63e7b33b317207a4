package log_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slok/glmcp/internal/log"
)

func TestCtxWithValues(t *testing.T) {
	tests := map[string]struct {
		ctx   func() context.Context
		kv    log.Kv
		expKv log.Kv
	}{
		"Empty context should return the values.": {
			ctx:   context.Background,
			kv:    log.Kv{"a": 1},
			expKv: log.Kv{"a": 1},
		},

		"Values should be merged with the ones already on the context.": {
			ctx: func() context.Context {
				return log.CtxWithValues(context.Background(), log.Kv{"a": 1, "b": 2})
			},
			kv:    log.Kv{"b": 3, "c": 4},
			expKv: log.Kv{"a": 1, "b": 3, "c": 4},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ctx := log.CtxWithValues(test.ctx(), test.kv)
			assert.Equal(t, test.expKv, log.ValuesFromCtx(ctx))
		})
	}
}

func TestValuesFromCtxWithoutValues(t *testing.T) {
	assert.Equal(t, log.Kv{}, log.ValuesFromCtx(context.Background()))
}
