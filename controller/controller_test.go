package controller

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

func writeLedger(t *testing.T, path, content string) {
	t.Helper()
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestControllerInitialBuild(t *testing.T) {
	root := filepath.Join(t.TempDir(), "main.zhang")
	writeLedger(t, root, "1970-01-01 open Assets:Cash USD\n")

	ctl := New(root, WithoutWatch())
	assert.NoError(t, ctl.Start(context.Background()))
	defer func() { _ = ctl.Close() }()

	snapshot := ctl.Snapshot()
	assert.NotZero(t, snapshot)
	assert.Equal(t, uint64(1), snapshot.Version)
	assert.Equal(t, 1, len(snapshot.Accounts))
}

func TestControllerRebuildBumpsVersion(t *testing.T) {
	root := filepath.Join(t.TempDir(), "main.zhang")
	writeLedger(t, root, "1970-01-01 open Assets:Cash USD\n")

	ctl := New(root, WithoutWatch())
	assert.NoError(t, ctl.Start(context.Background()))

	writeLedger(t, root, "1970-01-01 open Assets:Cash USD\n1970-01-01 open Expenses:Food USD\n")
	assert.NoError(t, ctl.Rebuild(context.Background()))

	snapshot := ctl.Snapshot()
	assert.Equal(t, uint64(2), snapshot.Version)
	assert.Equal(t, 2, len(snapshot.Accounts))
}

func TestControllerKeepsSnapshotOnIOError(t *testing.T) {
	root := filepath.Join(t.TempDir(), "main.zhang")
	writeLedger(t, root, "1970-01-01 open Assets:Cash USD\n")

	ctl := New(root, WithoutWatch())
	assert.NoError(t, ctl.Start(context.Background()))
	before := ctl.Snapshot()

	assert.NoError(t, os.Remove(root))
	assert.Error(t, ctl.Rebuild(context.Background()))

	// Previous snapshot stays in place
	assert.Equal(t, before.Version, ctl.Snapshot().Version)
}

func TestControllerInitialBuildFailure(t *testing.T) {
	ctl := New(filepath.Join(t.TempDir(), "missing.zhang"), WithoutWatch())
	assert.Error(t, ctl.Start(context.Background()))
}

func TestControllerWatcherRebuilds(t *testing.T) {
	root := filepath.Join(t.TempDir(), "main.zhang")
	writeLedger(t, root, "1970-01-01 open Assets:Cash USD\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctl := New(root)
	assert.NoError(t, ctl.Start(ctx))
	defer func() { _ = ctl.Close() }()

	assert.Equal(t, uint64(1), ctl.Version())

	writeLedger(t, root, "1970-01-01 open Assets:Cash USD\n1970-01-01 open Expenses:Food USD\n")

	waitCtx, waitCancel := context.WithTimeout(ctx, 5*time.Second)
	defer waitCancel()
	snapshot, err := ctl.WaitForVersion(waitCtx, 1)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(snapshot.Accounts))
}

func TestControllerSubscribe(t *testing.T) {
	root := filepath.Join(t.TempDir(), "main.zhang")
	writeLedger(t, root, "1970-01-01 open Assets:Cash USD\n")

	ctl := New(root, WithoutWatch())
	assert.NoError(t, ctl.Start(context.Background()))

	ch := ctl.Subscribe()
	defer ctl.Unsubscribe(ch)

	assert.NoError(t, ctl.Rebuild(context.Background()))

	select {
	case version := <-ch:
		assert.Equal(t, uint64(2), version)
	case <-time.After(time.Second):
		t.Fatal("expected a version notification")
	}
}

func TestWaitForVersionHonorsContext(t *testing.T) {
	root := filepath.Join(t.TempDir(), "main.zhang")
	writeLedger(t, root, "1970-01-01 open Assets:Cash USD\n")

	ctl := New(root, WithoutWatch())
	assert.NoError(t, ctl.Start(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := ctl.WaitForVersion(ctx, 1)
	assert.Error(t, err)
}
