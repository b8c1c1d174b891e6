package main

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"flag"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// WAV header is 44 bytes for standard PCM files
const wavHeaderSize = 44

func main() {
	audioFile := flag.String("audio", "testdata/sample.wav", "Path to an audio file (any format ffmpeg reads)")
	apiAddr := flag.String("api", "http://localhost:4000", "HTTP API base URL")
	timeout := flag.Duration("timeout", 2*time.Minute, "Request timeout")
	flag.Parse()

	f, err := os.Open(*audioFile)
	if err != nil {
		log.Fatalf("Failed to open audio file: %v", err)
	}
	defer f.Close()

	describeWAV(f)
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		log.Fatalf("Failed to rewind audio file: %v", err)
	}

	// Stream the multipart body so large recordings are never held in memory.
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("audio", filepath.Base(*audioFile))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, f); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, *apiAddr+"/api/asr", pr)
	if err != nil {
		log.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	log.Printf("Uploading %s to %s", *audioFile, *apiAddr)
	start := time.Now()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("Upload failed: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("Failed to read response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Transcription failed: status=%d body=%s", resp.StatusCode, data)
	}

	var out struct {
		Text  string `json:"text"`
		Empty bool   `json:"empty"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		log.Fatalf("Failed to decode response: %v", err)
	}

	if out.Empty {
		log.Printf("Transcription finished in %v with no text", time.Since(start).Round(time.Millisecond))
		return
	}
	log.Printf("Transcription finished in %v: %s", time.Since(start).Round(time.Millisecond), out.Text)
}

// describeWAV logs the format of PCM WAV input. Other containers are sent as is.
func describeWAV(f *os.File) {
	header := make([]byte, wavHeaderSize)
	if _, err := io.ReadFull(f, header); err != nil {
		return
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		log.Printf("Input is not WAV, the server will convert it")
		return
	}

	audioFormat := binary.LittleEndian.Uint16(header[20:22])
	numChannels := binary.LittleEndian.Uint16(header[22:24])
	sampleRate := binary.LittleEndian.Uint32(header[24:28])
	bitsPerSample := binary.LittleEndian.Uint16(header[34:36])

	log.Printf("WAV file: format=%d channels=%d sampleRate=%d bitsPerSample=%d",
		audioFormat, numChannels, sampleRate, bitsPerSample)

	if audioFormat == 1 && numChannels == 1 && sampleRate == 16000 && bitsPerSample == 16 {
		log.Printf("Input already matches the recognizer format")
	}
}
