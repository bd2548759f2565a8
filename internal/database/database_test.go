package database

import (
	"context"
	"testing"
	"time"
)

func TestPool_WithDefaults(t *testing.T) {
	tests := []struct {
		name string
		in   Pool
		want Pool
	}{
		{"zero", Pool{}, DefaultPool},
		{"custom", Pool{MaxOpenConns: 50, MaxIdleConns: 10, ConnMaxLifetime: time.Hour, ConnMaxIdleTime: time.Minute},
			Pool{MaxOpenConns: 50, MaxIdleConns: 10, ConnMaxLifetime: time.Hour, ConnMaxIdleTime: time.Minute}},
		{"idle above open", Pool{MaxOpenConns: 2, MaxIdleConns: 8},
			Pool{MaxOpenConns: 2, MaxIdleConns: 2, ConnMaxLifetime: DefaultPool.ConnMaxLifetime, ConnMaxIdleTime: DefaultPool.ConnMaxIdleTime}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.withDefaults(); got != tt.want {
				t.Errorf("withDefaults() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestConnect_EmptyURL(t *testing.T) {
	if _, err := Connect(context.Background(), "", Pool{}); err == nil {
		t.Error("expected error for empty database url")
	}
}
