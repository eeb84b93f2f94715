package ingest

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

type wavHeader struct {
	sampleRate    int
	channels      int
	bitsPerSample int
	samples       int64
	peak          int
}

// inspectWAV reads the RIFF header of a PCM WAV file and scans its samples
// for the peak amplitude. A data chunk size of zero or one that overruns the
// file (as left by streaming writers) is replaced by the bytes actually
// present.
func inspectWAV(path string) (wavHeader, error) {
	var header wavHeader
	file, err := os.Open(path)
	if err != nil {
		return header, fmt.Errorf("open decoded audio: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return header, fmt.Errorf("stat decoded audio: %w", err)
	}

	reader := bufio.NewReaderSize(file, 64*1024)
	var riff [12]byte
	if _, err := io.ReadFull(reader, riff[:]); err != nil {
		return header, fmt.Errorf("read wav header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return header, errors.New("decoded audio is not a RIFF/WAVE file")
	}
	offset := int64(12)

	haveFormat := false
	for {
		var chunk [8]byte
		if _, err := io.ReadFull(reader, chunk[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return header, errors.New("wav data chunk missing")
			}
			return header, fmt.Errorf("read wav chunk: %w", err)
		}
		offset += 8
		id := string(chunk[0:4])
		size := int64(binary.LittleEndian.Uint32(chunk[4:8]))

		switch id {
		case "fmt ":
			if size < 16 {
				return header, fmt.Errorf("wav fmt chunk too small (%d bytes)", size)
			}
			body := make([]byte, size)
			if _, err := io.ReadFull(reader, body); err != nil {
				return header, fmt.Errorf("read wav fmt chunk: %w", err)
			}
			format := binary.LittleEndian.Uint16(body[0:2])
			header.channels = int(binary.LittleEndian.Uint16(body[2:4]))
			header.sampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			header.bitsPerSample = int(binary.LittleEndian.Uint16(body[14:16]))
			if format != 1 && format != 0xFFFE {
				return header, fmt.Errorf("wav format %d is not PCM", format)
			}
			if header.bitsPerSample != BitDepth || header.channels < 1 {
				return header, fmt.Errorf("unexpected wav layout: %d channels, %d bits", header.channels, header.bitsPerSample)
			}
			haveFormat = true
			offset += size
			if size%2 == 1 {
				if _, err := reader.Discard(1); err != nil {
					return header, fmt.Errorf("read wav fmt padding: %w", err)
				}
				offset++
			}
		case "data":
			if !haveFormat {
				return header, errors.New("wav data chunk precedes fmt chunk")
			}
			remaining := info.Size() - offset
			if size == 0 || size > remaining {
				size = remaining
			}
			frame := int64(header.channels * header.bitsPerSample / 8)
			header.samples = size / frame
			peak, err := scanPeak(io.LimitReader(reader, header.samples*frame))
			if err != nil {
				return header, err
			}
			header.peak = peak
			return header, nil
		default:
			skip := size + size%2
			if _, err := reader.Discard(int(skip)); err != nil {
				return header, fmt.Errorf("skip wav chunk %q: %w", id, err)
			}
			offset += skip
		}
	}
}

func scanPeak(r io.Reader) (int, error) {
	buf := make([]byte, 32*1024)
	peak := 0
	for {
		n, err := io.ReadFull(r, buf)
		for i := 0; i+1 < n; i += 2 {
			v := int(int16(binary.LittleEndian.Uint16(buf[i : i+2])))
			if v < 0 {
				v = -v
			}
			if v > peak {
				peak = v
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return peak, nil
			}
			return peak, fmt.Errorf("read wav samples: %w", err)
		}
	}
}
