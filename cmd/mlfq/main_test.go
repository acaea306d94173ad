package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeMetrics_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serveMetrics(ctx, "127.0.0.1:0", prometheus.NewRegistry()) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("metrics server still running after cancel")
	}
}

func TestServeMetrics_BadAddress(t *testing.T) {
	err := serveMetrics(context.Background(), "127.0.0.1:-1", prometheus.NewRegistry())
	assert.Error(t, err)
}

func TestAlgorithmsCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"algorithms"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "adv\ncfs\nmq\n", out.String())
}
