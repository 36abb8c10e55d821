package identity_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoutdeck/enricher/internal/identity"
)

func TestHeadersWithoutReferer(t *testing.T) {
	h := identity.Headers("")

	assert.NotEmpty(t, h["User-Agent"])
	assert.True(t, strings.HasPrefix(h["User-Agent"], "Mozilla/5.0"))
	assert.NotEmpty(t, h["Accept-Language"])
	assert.Equal(t, "none", h["Sec-Fetch-Site"])
	assert.NotContains(t, h, "Referer")
}

func TestHeadersWithReferer(t *testing.T) {
	h := identity.Headers("https://www.transfermarkt.es/")

	assert.Equal(t, "https://www.transfermarkt.es/", h["Referer"])
	assert.Equal(t, "same-origin", h["Sec-Fetch-Site"])
}

func TestRandomDelayWithinBounds(t *testing.T) {
	for i := 0; i < 100; i++ {
		d := identity.RandomDelay(5*time.Millisecond, 15*time.Millisecond)
		assert.GreaterOrEqual(t, d, 5*time.Millisecond)
		assert.LessOrEqual(t, d, 15*time.Millisecond)
	}
}

func TestRandomDelayDegenerateRange(t *testing.T) {
	assert.Equal(t, 10*time.Millisecond, identity.RandomDelay(10*time.Millisecond, 10*time.Millisecond))
	assert.Equal(t, 10*time.Millisecond, identity.RandomDelay(10*time.Millisecond, 5*time.Millisecond))
}

func TestSleepHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := identity.Sleep(ctx, time.Minute, 2*time.Minute)
	require.ErrorIs(t, err, context.Canceled)
}
