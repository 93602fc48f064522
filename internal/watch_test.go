package internal_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/brodo/wasmpack-pages/internal"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestShouldIgnore(t *testing.T) {
	for path, ignored := range map[string]bool{
		"/repo/src/lib.rs":          false,
		"/repo/src/.lib.rs.swp":     true,
		"/repo/src/lib.rs~":         true,
		"/repo/src/#lib.rs#":        true,
		"/repo/src/.git":            true,
		"/repo/examples/a/index.js": false,
	} {
		require.Equal(t, ignored, internal.ShouldIgnore(path), path)
	}
}

func TestWatcher_PackagesFor(t *testing.T) {
	root := t.TempDir()
	configs, err := internal.Generate(root, []string{"todomvc", "counter"})
	require.NoError(t, err)

	w, err := internal.NewWatcher(configs, zerolog.Nop(), func(context.Context, []string) {})
	require.NoError(t, err)

	require.Equal(t, []string{"counter", "todomvc"}, w.PackagesFor(filepath.Join(root, "src", "reconcile.rs")))
	require.Equal(t, []string{"todomvc"}, w.PackagesFor(filepath.Join(root, "examples", "todomvc", "src", "lib.rs")))
	require.Equal(t, []string{"counter"}, w.PackagesFor(filepath.Join(root, "examples", "counter", "static", "index.html")))
	require.Empty(t, w.PackagesFor(filepath.Join(root, "examples", "todomvc", "pkg", "index.js")))
	require.Empty(t, w.PackagesFor(filepath.Join(root, "srcx", "lib.rs")))
}

func TestWatcher_RebuildsOnChange(t *testing.T) {
	root := t.TempDir()
	shared := filepath.Join(root, "src")
	require.NoError(t, os.MkdirAll(shared, 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "examples", "todomvc", "src"), 0o755))

	configs, err := internal.Generate(root, []string{"todomvc"})
	require.NoError(t, err)

	var mu sync.Mutex
	var rebuilt [][]string
	w, err := internal.NewWatcher(configs, zerolog.Nop(), func(_ context.Context, packages []string) {
		mu.Lock()
		defer mu.Unlock()
		rebuilt = append(rebuilt, packages)
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// several quick edits collapse into one rebuild
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(shared, "lib.rs"), []byte{byte('a' + i)}, 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(shared, ".lib.rs.swp"), nil, 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(rebuilt) == 1
	}, 5*time.Second, 20*time.Millisecond)

	time.Sleep(500 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, [][]string{{"todomvc"}}, rebuilt)
}

func TestWatcher_PicksUpRootCreatedLater(t *testing.T) {
	root := t.TempDir()
	configs, err := internal.Generate(root, []string{"todomvc"})
	require.NoError(t, err)

	var mu sync.Mutex
	var rebuilt [][]string
	count := func() int {
		mu.Lock()
		defer mu.Unlock()
		return len(rebuilt)
	}
	w, err := internal.NewWatcher(configs, zerolog.Nop(), func(_ context.Context, packages []string) {
		mu.Lock()
		defer mu.Unlock()
		rebuilt = append(rebuilt, packages)
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	shared := filepath.Join(root, "src")
	require.NoError(t, os.Mkdir(shared, 0o755))
	require.Eventually(t, func() bool { return count() == 1 }, 5*time.Second, 20*time.Millisecond)

	// edits inside the new directory are seen once it is being watched
	i := 0
	require.Eventually(t, func() bool {
		i++
		if err := os.WriteFile(filepath.Join(shared, "lib.rs"), []byte{byte('a' + i%26)}, 0o644); err != nil {
			return false
		}
		return count() >= 2
	}, 5*time.Second, 500*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for _, packages := range rebuilt {
		require.Equal(t, []string{"todomvc"}, packages)
	}
}
