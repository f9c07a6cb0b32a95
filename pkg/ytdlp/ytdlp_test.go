package ytdlp

import (
	"context"
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeBin writes a stand-in yt-dlp that creates the named file in its
// working folder and prints the name, like --print after_move:filepath
// does.
func fakeBin(t *testing.T, name string) string {
	t.Helper()
	bin := filepath.Join(t.TempDir(), "yt-dlp")
	script := fmt.Sprintf("#!/bin/sh\n: > '%s'\necho '%s'\n", name, name)
	if err := os.WriteFile(bin, []byte(script), 0755); err != nil {
		t.Fatalf("couldn't write fake binary: %v", err)
	}
	return bin
}

func TestFetchDir(t *testing.T) {
	dir := t.TempDir()
	y := New(fakeBin(t, "voice_Some_Title.mp3"), dir, false)
	path, err := y.Fetch(context.Background(), "https://example.com/watch?v=1", "voice")
	if err != nil {
		t.Fatalf("Fetch() err = %v; want nil", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("Fetch() = %q; want a file in %q", path, dir)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("returned path not usable from the working directory: %v", err)
	}
}

func TestFetchDirLongName(t *testing.T) {
	dir := t.TempDir()
	long := "voice_" + strings.Repeat("a", 220) + ".mp3"
	y := New(fakeBin(t, long), dir, false)
	path, err := y.Fetch(context.Background(), "https://example.com/watch?v=1", "voice")
	if err != nil {
		t.Fatalf("Fetch() err = %v; want nil", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("Fetch() = %q; want a file in %q", path, dir)
	}
	want := SafeName(long, "voice")
	if filepath.Base(path) != want {
		t.Errorf("Fetch() base = %q; want %q", filepath.Base(path), want)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("renamed file missing: %v", err)
	}
}

func TestSafeName(t *testing.T) {
	long := "voice_" + strings.Repeat("a", 250) + ".mp3"
	tests := []struct {
		name    string
		in      string
		purpose string
		want    string
	}{
		{
			name:    "short name unchanged",
			in:      "voice_Some Title.mp3",
			purpose: "voice",
			want:    "voice_Some Title.mp3",
		},
		{
			name:    "long name hashed",
			in:      long,
			purpose: "voice",
			want:    fmt.Sprintf("voice_%x.mp3", md5.Sum([]byte(long))),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SafeName(tt.in, tt.purpose)
			if got != tt.want {
				t.Errorf("SafeName(%q) = %q; want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSafeNameDeterministic(t *testing.T) {
	long := "instrumental_" + strings.Repeat("x", 300) + ".mp3"
	first := SafeName(long, "instrumental")
	second := SafeName(long, "instrumental")
	if first != second {
		t.Errorf("SafeName not deterministic: %q != %q", first, second)
	}
	if len(first) > maxNameLength {
		t.Errorf("SafeName result too long: %d", len(first))
	}
	if !strings.HasPrefix(first, "instrumental_") || !strings.HasSuffix(first, ".mp3") {
		t.Errorf("SafeName result malformed: %q", first)
	}
}
