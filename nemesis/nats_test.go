package nemesis_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dawmd/scylla-cluster-tests/cluster"
	"github.com/dawmd/scylla-cluster-tests/nemesis"
	"github.com/dawmd/scylla-cluster-tests/test/testutil"
)

// drainUpdates drains a disruption update channel in the background.
func drainUpdates(ch <-chan nemesis.Update) {
	go func() {
		for range ch {
			_ = struct{}{} // consume item
		}
	}()
}

// createTestKV creates a test KV bucket.
func createTestKV(t *testing.T, js jetstream.JetStream, bucket string) jetstream.KeyValue {
	t.Helper()

	ctx := context.Background()
	kv, err := js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket: bucket,
	})
	require.NoError(t, err)

	return kv
}

func testNodes() []*cluster.Node {
	return []*cluster.Node{cluster.NewNode("node-1"), cluster.NewNode("node-2")}
}

func putDisruption(t *testing.T, ctx context.Context, kv jetstream.KeyValue, key string, config nemesis.DisruptionConfig) {
	t.Helper()

	data, err := json.Marshal(config)
	require.NoError(t, err)
	_, err = kv.Put(ctx, key, data)
	require.NoError(t, err)
}

func TestNewNATSValidation(t *testing.T) {
	_, err := nemesis.NewNATS(nil, testNodes())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KeyValue store is nil")
}

func TestNewNATSDefaults(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping embedded NATS test in short mode")
	}

	js := testutil.StartEmbeddedNATS(t)
	kv := createTestKV(t, js, "test-defaults")

	_, err := nemesis.NewNATS(kv, nil)
	require.Error(t, err)

	watcher, err := nemesis.NewNATS(kv, testNodes())
	require.NoError(t, err)
	defer watcher.Close()

	assert.Equal(t, "sct.nemesis.disruption", watcher.Config().Key)
	assert.Equal(t, 5*time.Second, watcher.Config().PollInterval)
	assert.Equal(t, 10*time.Second, watcher.Config().InitialFetchTimeout)
}

func TestNewNATSOptions(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping embedded NATS test in short mode")
	}

	js := testutil.StartEmbeddedNATS(t)
	kv := createTestKV(t, js, "test-options")

	watcher, err := nemesis.NewNATS(kv, testNodes(),
		nemesis.WithKey("custom.disruption.key"),
		nemesis.WithPollInterval(10*time.Second),
		nemesis.WithInitialFetchTimeout(30*time.Second),
	)
	require.NoError(t, err)
	defer watcher.Close()

	assert.Equal(t, "custom.disruption.key", watcher.Config().Key)
	assert.Equal(t, 10*time.Second, watcher.Config().PollInterval)
	assert.Equal(t, 30*time.Second, watcher.Config().InitialFetchTimeout)
}

func TestNATSDisruptsNode(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping embedded NATS test in short mode")
	}

	js := testutil.StartEmbeddedNATS(t)
	kv := createTestKV(t, js, "test-disrupt")

	nodes := testNodes()
	watcher, err := nemesis.NewNATS(kv, nodes)
	require.NoError(t, err)
	defer watcher.Close()

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	updates := watcher.Watch(ctx)

	// Initially healthy
	assert.False(t, watcher.IsDisrupted("node-1"))
	assert.False(t, watcher.IsDisrupted("node-2"))

	putDisruption(t, ctx, kv, "sct.nemesis.disruption", nemesis.DisruptionConfig{
		Nodes:  []string{"node-2"},
		Reason: "TerminateAndReplaceNode",
	})

	select {
	case update := <-updates:
		assert.Equal(t, "node-2", update.Node)
		assert.True(t, update.Disrupted)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for disruption update")
	}

	assert.False(t, watcher.IsDisrupted("node-1"))
	assert.True(t, watcher.IsDisrupted("node-2"))

	// The node flag the runner classifies against must flip too.
	assert.True(t, nodes[1].IsDisrupted())
}

func TestNATSClearDisruption(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping embedded NATS test in short mode")
	}

	js := testutil.StartEmbeddedNATS(t)
	kv := createTestKV(t, js, "test-clear")

	watcher, err := nemesis.NewNATS(kv, testNodes())
	require.NoError(t, err)
	defer watcher.Close()

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Second)
	defer cancel()

	// Pre-set disruption before watching
	putDisruption(t, ctx, kv, "sct.nemesis.disruption", nemesis.DisruptionConfig{
		Nodes:  []string{"node-1"},
		Reason: "RollingRestart",
	})

	updates := watcher.Watch(ctx)

	// Wait for initial disruption update
	select {
	case update := <-updates:
		assert.Equal(t, "node-1", update.Node)
		assert.True(t, update.Disrupted)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for initial update")
	}

	// Delete the key to clear the disruption
	err = kv.Delete(ctx, "sct.nemesis.disruption")
	require.NoError(t, err)

	select {
	case update := <-updates:
		assert.Equal(t, "node-1", update.Node)
		assert.False(t, update.Disrupted)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for clear update")
	}

	assert.False(t, watcher.IsDisrupted("node-1"))
}

func TestNATSEmptyNodeList(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping embedded NATS test in short mode")
	}

	js := testutil.StartEmbeddedNATS(t)
	kv := createTestKV(t, js, "test-empty")

	watcher, err := nemesis.NewNATS(kv, testNodes())
	require.NoError(t, err)
	defer watcher.Close()

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	putDisruption(t, ctx, kv, "sct.nemesis.disruption", nemesis.DisruptionConfig{
		Nodes:  []string{"node-1"},
		Reason: "test",
	})

	updates := watcher.Watch(ctx)

	select {
	case <-updates:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for initial update")
	}

	assert.True(t, watcher.IsDisrupted("node-1"))

	// Clear by publishing an empty node list
	putDisruption(t, ctx, kv, "sct.nemesis.disruption", nemesis.DisruptionConfig{})

	select {
	case update := <-updates:
		assert.Equal(t, "node-1", update.Node)
		assert.False(t, update.Disrupted)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for clear update")
	}

	assert.False(t, watcher.IsDisrupted("node-1"))
}

func TestNATSInvalidJSON(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping embedded NATS test in short mode")
	}

	js := testutil.StartEmbeddedNATS(t)
	kv := createTestKV(t, js, "test-invalid-json")

	watcher, err := nemesis.NewNATS(kv, testNodes())
	require.NoError(t, err)
	defer watcher.Close()

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	_ = watcher.Watch(ctx)

	_, err = kv.Put(ctx, "sct.nemesis.disruption", []byte("not valid json"))
	require.NoError(t, err)

	// Invalid JSON is treated as no disruption; the state stays clear.
	require.Eventually(t, func() bool {
		return !watcher.IsDisrupted("node-1") && !watcher.IsDisrupted("node-2")
	}, 2*time.Second, 50*time.Millisecond)
}

func TestNATSReason(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping embedded NATS test in short mode")
	}

	js := testutil.StartEmbeddedNATS(t)
	kv := createTestKV(t, js, "test-reason")

	watcher, err := nemesis.NewNATS(kv, testNodes())
	require.NoError(t, err)
	defer watcher.Close()

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	updates := watcher.Watch(ctx)
	defer drainUpdates(updates)

	assert.Empty(t, watcher.Reason())

	putDisruption(t, ctx, kv, "sct.nemesis.disruption", nemesis.DisruptionConfig{
		Nodes:  []string{"node-2"},
		Reason: "Scheduled maintenance window",
	})

	require.Eventually(t, func() bool {
		return watcher.Reason() == "Scheduled maintenance window"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestNATSClose(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping embedded NATS test in short mode")
	}

	js := testutil.StartEmbeddedNATS(t)
	kv := createTestKV(t, js, "test-close")

	watcher, err := nemesis.NewNATS(kv, testNodes())
	require.NoError(t, err)

	ctx := t.Context()
	updates := watcher.Watch(ctx)

	err = watcher.Close()
	require.NoError(t, err)

	// Double close should be safe
	err = watcher.Close()
	require.NoError(t, err)

	// Channel should eventually close
	select {
	case _, ok := <-updates:
		if ok {
			drainUpdates(updates)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after Close()")
	}
}

func TestNATSMultipleWatchCalls(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping embedded NATS test in short mode")
	}

	js := testutil.StartEmbeddedNATS(t)
	kv := createTestKV(t, js, "test-multi-watch")

	watcher, err := nemesis.NewNATS(kv, testNodes())
	require.NoError(t, err)
	defer watcher.Close()

	ctx := t.Context()

	updates1 := watcher.Watch(ctx)
	updates2 := watcher.Watch(ctx)

	// Both should be the same channel
	assert.Equal(t, updates1, updates2)

	putDisruption(t, ctx, kv, "sct.nemesis.disruption", nemesis.DisruptionConfig{
		Nodes: []string{"node-1"},
	})

	select {
	case update := <-updates1:
		assert.Equal(t, "node-1", update.Node)
		assert.True(t, update.Disrupted)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for update")
	}
}
