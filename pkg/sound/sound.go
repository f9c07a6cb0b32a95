package sound

import (
	"bytes"
	"fmt"
	"io"
	"time"

	mp3 "github.com/hajimehoshi/go-mp3"
)

// Duration decodes an mp3 byte stream and returns its play time. 16-bit
// stereo samples are assumed, which is what the generation endpoint
// produces.
func Duration(audio []byte) (time.Duration, error) {
	decoder, err := mp3.NewDecoder(bytes.NewReader(audio))
	if err != nil {
		return 0, fmt.Errorf("sound: couldn't create decoder: %w", err)
	}
	var n int64
	buf := make([]byte, 32*1024)
	for {
		read, err := decoder.Read(buf)
		n += int64(read)
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("sound: couldn't read samples: %w", err)
		}
	}
	// 4 bytes per frame: 2 channels, 2 bytes per sample.
	samples := n / 4
	seconds := float64(samples) / float64(decoder.SampleRate())
	return time.Duration(seconds * float64(time.Second)), nil
}
