package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/colonyops/taskmanager/internal/core/item"
	"github.com/rs/zerolog"
)

func TestContextHook_Run(t *testing.T) {
	tests := []struct {
		name      string
		setupCtx  func() context.Context
		wantKeys  []string
		wantEmpty []string
	}{
		{
			name: "both item_id and status",
			setupCtx: func() context.Context {
				ctx := context.Background()
				ctx = WithItemID(ctx, 13)
				ctx = WithStatus(ctx, item.StatusDefined)
				return ctx
			},
			wantKeys: []string{"item_id", "status"},
		},
		{
			name: "only item_id",
			setupCtx: func() context.Context {
				return WithItemID(context.Background(), 13)
			},
			wantKeys:  []string{"item_id"},
			wantEmpty: []string{"status"},
		},
		{
			name: "only status",
			setupCtx: func() context.Context {
				return WithStatus(context.Background(), item.StatusDone)
			},
			wantKeys:  []string{"status"},
			wantEmpty: []string{"item_id"},
		},
		{
			name:      "no context values",
			setupCtx:  context.Background,
			wantEmpty: []string{"item_id", "status"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			ctx := tt.setupCtx()

			logger := zerolog.New(&buf).Hook(ContextHook{})
			logger.Info().Ctx(ctx).Msg("test")

			var logEntry map[string]interface{}
			if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
				t.Fatalf("failed to parse log: %v", err)
			}

			for _, key := range tt.wantKeys {
				if _, ok := logEntry[key]; !ok {
					t.Errorf("expected %s to be present in log", key)
				}
			}

			for _, key := range tt.wantEmpty {
				if _, ok := logEntry[key]; ok {
					t.Errorf("expected %s to be absent from log", key)
				}
			}
		})
	}
}
