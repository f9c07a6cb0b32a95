package ytdlp

import (
	"bytes"
	"context"
	"crypto/md5"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// maxNameLength is the filename length above which the output is renamed to
// a hashed name to avoid filesystem errors.
const maxNameLength = 200

type YTDLP struct {
	bin   string
	dir   string
	debug bool
}

// New returns a yt-dlp wrapper. If bin is empty, "yt-dlp" is looked up in
// PATH. Downloads are written to dir, or the working directory if empty.
func New(bin, dir string, debug bool) *YTDLP {
	if bin == "" {
		bin = "yt-dlp"
	}
	return &YTDLP{bin: bin, dir: dir, debug: debug}
}

// Fetch downloads the best available audio track of the given URL, converts
// it to mp3 and returns the path of the resulting file. The purpose tag is
// only used to name the output file.
func (y *YTDLP) Fetch(ctx context.Context, url, purpose string) (string, error) {
	if url == "" {
		return "", fmt.Errorf("ytdlp: url is empty")
	}
	tmpl := fmt.Sprintf("%s_%%(title).50s.%%(ext)s", purpose)
	args := []string{
		"-x",
		"--audio-format", "mp3",
		"--audio-quality", "192K",
		"-o", tmpl,
		"--no-simulate",
		"--print", "after_move:filepath",
		"-q",
		url,
	}
	cmd := exec.CommandContext(ctx, y.bin, args...)
	if y.dir != "" {
		cmd.Dir = y.dir
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ytdlp: couldn't fetch %s audio: %w: %s", purpose, err, stderr.String())
	}
	path := strings.TrimSpace(stdout.String())
	if path == "" {
		return "", fmt.Errorf("ytdlp: no file produced for %s", url)
	}
	// yt-dlp prints the path relative to its working folder.
	if y.dir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(y.dir, path)
	}
	base := filepath.Base(path)
	if safe := SafeName(base, purpose); safe != base {
		target := filepath.Join(filepath.Dir(path), safe)
		if err := os.Rename(path, target); err != nil {
			return "", fmt.Errorf("ytdlp: couldn't rename %q: %w", path, err)
		}
		path = target
	}
	return path, nil
}

// SafeName returns the file name unchanged when it fits the length limit.
// Longer names are replaced with a deterministic hash of the original name
// so repeated fetches of the same video resolve to the same file. The rule
// applies to the name only, never to the folder it lives in.
func SafeName(name, purpose string) string {
	if len(name) <= maxNameLength {
		return name
	}
	return fmt.Sprintf("%s_%x.mp3", purpose, md5.Sum([]byte(name)))
}
