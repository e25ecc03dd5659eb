package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func startWatcher(t *testing.T, artifact string, fired *atomic.Int32) (cancel func()) {
	t.Helper()
	w, err := NewArtifactWatcher(artifact, 30*time.Millisecond, func(ev ChangeEvent) {
		fired.Add(1)
	})
	if err != nil {
		t.Fatalf("create watcher: %v", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = w.Run(ctx)
		close(done)
	}()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	return func() {
		stop()
		<-done
	}
}

func waitFired(t *testing.T, fired *atomic.Int32, msg string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for fired.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal(msg)
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestArtifactWatcher_FiresOnArtifactWrite(t *testing.T) {
	dir := t.TempDir()
	artifact := filepath.Join(dir, "PaymentForm.tsx")
	if err := os.WriteFile(artifact, []byte("v1"), 0600); err != nil {
		t.Fatal(err)
	}

	var fired atomic.Int32
	stop := startWatcher(t, artifact, &fired)
	defer stop()

	if err := os.WriteFile(artifact, []byte("v2"), 0600); err != nil {
		t.Fatal(err)
	}
	waitFired(t, &fired, "watcher never fired for the artifact write")
}

func TestArtifactWatcher_SeesAtomicReplace(t *testing.T) {
	dir := t.TempDir()
	artifact := filepath.Join(dir, "PaymentForm.tsx")
	if err := os.WriteFile(artifact, []byte("v1"), 0600); err != nil {
		t.Fatal(err)
	}

	var fired atomic.Int32
	stop := startWatcher(t, artifact, &fired)
	defer stop()

	// Editor-style save: write a temp file and rename it over the artifact.
	tmp := filepath.Join(dir, ".PaymentForm.tsx.tmp")
	if err := os.WriteFile(tmp, []byte("v2"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, artifact); err != nil {
		t.Fatal(err)
	}
	waitFired(t, &fired, "watcher never fired for an atomic replace")
}

func TestArtifactWatcher_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	artifact := filepath.Join(dir, "PaymentForm.tsx")
	if err := os.WriteFile(artifact, []byte("v1"), 0600); err != nil {
		t.Fatal(err)
	}

	var fired atomic.Int32
	stop := startWatcher(t, artifact, &fired)
	defer stop()

	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("noise"), 0600); err != nil {
		t.Fatal(err)
	}

	time.Sleep(300 * time.Millisecond)
	if fired.Load() != 0 {
		t.Errorf("watcher fired %d times for an unrelated file", fired.Load())
	}
}

func TestArtifactWatcher_IgnoresRemove(t *testing.T) {
	dir := t.TempDir()
	artifact := filepath.Join(dir, "PaymentForm.tsx")
	if err := os.WriteFile(artifact, []byte("v1"), 0600); err != nil {
		t.Fatal(err)
	}

	var fired atomic.Int32
	stop := startWatcher(t, artifact, &fired)
	defer stop()

	if err := os.Remove(artifact); err != nil {
		t.Fatal(err)
	}

	time.Sleep(300 * time.Millisecond)
	if fired.Load() != 0 {
		t.Errorf("watcher fired %d times for a removed artifact", fired.Load())
	}
}
