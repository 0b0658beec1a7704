package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestToRedisLimit(t *testing.T) {
	l := toRedisLimit(Limit{Rate: 10, Period: time.Second, Burst: 20})
	assert.Equal(t, 10, l.Rate)
	assert.Equal(t, time.Second, l.Period)
	assert.Equal(t, 20, l.Burst)

	// 未配置突发容量时与速率一致
	l = toRedisLimit(Limit{Rate: 5, Period: time.Second})
	assert.Equal(t, 5, l.Burst)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "ratelimit:ecommerce:10.0.0.1", Key("ecommerce", "10.0.0.1"))
	assert.Equal(t, "ratelimit:ecommerce:::1", Key(" ecommerce ", "::1"))
}

func TestRetryAfterSeconds(t *testing.T) {
	tests := []struct {
		wait time.Duration
		want int64
	}{
		{0, 1},
		{300 * time.Millisecond, 1},
		{time.Second, 1},
		{1500 * time.Millisecond, 2},
		{3 * time.Second, 3},
	}
	for _, tt := range tests {
		r := &Result{RetryAfter: tt.wait}
		assert.Equal(t, tt.want, r.RetryAfterSeconds(), tt.wait.String())
	}
}
