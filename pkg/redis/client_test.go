package redis

import (
	"context"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
)

func TestConfigAddr(t *testing.T) {
	assert.Equal(t, "cache.internal:6380", Config{Host: "cache.internal", Port: 6380}.Addr())
}

func TestUnreachableServer(t *testing.T) {
	client := NewClient(Config{Host: "127.0.0.1", Port: 1}, ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}))
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	assert.Error(t, client.Connect(ctx))

	_, err := client.Get(ctx, "fern:schema:account")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}
