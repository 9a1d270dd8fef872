package imagery

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func tempArtifact(t *testing.T) Artifact {
	t.Helper()
	path := filepath.Join(t.TempDir(), "animation.gif")
	if err := os.WriteFile(path, []byte("GIF89a"), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return Artifact{Path: path, Format: FormatGIF, Frames: 1}
}

func TestReplaceArtifactAfterClose(t *testing.T) {
	sess := NewSession("s1", time.Now())
	sess.Close()

	art := tempArtifact(t)
	sess.ReplaceArtifact(art)

	if _, ok := sess.Artifact(); ok {
		t.Fatalf("closed session must not adopt an artifact")
	}
	if _, err := os.Stat(art.Path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected late artifact to be deleted, stat err: %v", err)
	}
}

func TestReplaceArtifactSamePathKeepsFile(t *testing.T) {
	sess := NewSession("s1", time.Now())
	art := tempArtifact(t)

	sess.ReplaceArtifact(art)
	sess.ReplaceArtifact(art)

	if _, err := os.Stat(art.Path); err != nil {
		t.Fatalf("artifact removed while still current: %v", err)
	}
}
