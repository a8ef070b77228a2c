package authcore_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/userstore/memory"
)

const (
	testEmail    = "alice@example.com"
	testPassword = "Str0ng!Pass"
	wrongPass    = "Wr0ng!Pass"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// fastConfig keeps argon2id at its minimum cost so tests stay quick.
func fastConfig() authcore.Config {
	cfg := authcore.DefaultConfig()
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	return cfg
}

type fixture struct {
	engine *authcore.Engine
	users  *memory.Store
	clock  *testClock
}

func buildFixture(cfg authcore.Config, configure func(*authcore.Builder)) (*fixture, error) {
	clock := newTestClock()
	users := memory.New().WithClock(clock.Now)

	b := authcore.New().
		WithConfig(cfg).
		WithUserStore(users).
		WithClock(clock.Now)
	if configure != nil {
		configure(b)
	}

	engine, err := b.Build()
	if err != nil {
		return nil, err
	}
	return &fixture{engine: engine, users: users, clock: clock}, nil
}

func newFixture(t *testing.T, configure func(*authcore.Builder)) *fixture {
	t.Helper()

	f, err := buildFixture(fastConfig(), configure)
	require.NoError(t, err)
	t.Cleanup(f.engine.Close)
	return f
}
