package codec

import (
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WriteWAV writes a 16-bit PCM WAV file of frames frames, where value(frame,
// channel) gives each sample. It exists for tests in this and other
// packages.
func WriteWAV(path string, sampleRate, channels, frames int, value func(frame, channel int) int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{SampleRate: sampleRate, NumChannels: channels},
		Data:           make([]int, frames*channels),
		SourceBitDepth: 16,
	}
	for i := range frames {
		for c := range channels {
			buf.Data[i*channels+c] = value(i, c)
		}
	}

	if err := enc.Write(buf); err != nil {
		f.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
