// Package audio handles the WAV container returned by every synthesizer.
package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	ContentTypeWAV = "audio/wav"
	Extension      = ".wav"

	BitsPerSample = 16
	headerSize    = 44
)

var ErrNotWAV = errors.New("not a WAV container")

// Info describes a parsed WAV stream.
type Info struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
	DataBytes     int
}

// Duration returns the playback length in seconds.
func (i Info) Duration() float64 {
	frame := i.Channels * i.BitsPerSample / 8
	if frame == 0 || i.SampleRate == 0 {
		return 0
	}
	return float64(i.DataBytes) / float64(frame) / float64(i.SampleRate)
}

// EncodePCM16 wraps little-endian signed 16-bit PCM in a WAV header.
func EncodePCM16(pcm []byte, sampleRate, channels int) []byte {
	if channels <= 0 {
		channels = 1
	}
	blockAlign := channels * BitsPerSample / 8
	byteRate := sampleRate * blockAlign
	dataSize := len(pcm) - len(pcm)%blockAlign

	buf := bytes.NewBuffer(make([]byte, 0, headerSize+dataSize))
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(buf, binary.LittleEndian, uint16(channels))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(buf, binary.LittleEndian, uint16(BitsPerSample))

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataSize))
	buf.Write(pcm[:dataSize])

	return buf.Bytes()
}

// Inspect walks the RIFF chunks of data and returns the format and data
// chunk sizes. Chunks other than "fmt " and "data" are skipped.
func Inspect(data []byte) (*Info, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, ErrNotWAV
	}

	var info Info
	var haveFmt, haveData bool
	for off := 12; off+8 <= len(data); {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8

		switch id {
		case "fmt ":
			if size < 16 || body+16 > len(data) {
				return nil, fmt.Errorf("%w: truncated fmt chunk", ErrNotWAV)
			}
			info.Channels = int(binary.LittleEndian.Uint16(data[body+2:]))
			info.SampleRate = int(binary.LittleEndian.Uint32(data[body+4:]))
			info.BitsPerSample = int(binary.LittleEndian.Uint16(data[body+14:]))
			haveFmt = true
		case "data":
			// Streaming encoders may leave the size at 0 or 0xFFFFFFFF.
			if size == 0 || body+size > len(data) {
				size = len(data) - body
			}
			info.DataBytes = size
			haveData = true
		}

		if haveFmt && haveData {
			return &info, nil
		}
		off = body + size + size%2
	}

	if !haveFmt {
		return nil, fmt.Errorf("%w: missing fmt chunk", ErrNotWAV)
	}
	return nil, fmt.Errorf("%w: missing data chunk", ErrNotWAV)
}
