// Package ingest moves frames across the video boundary with ffmpeg:
// decoding an input file into a JPEG frame stream and encoding annotated
// frames back into an output video. Decode/encode internals stay outside
// the core engine.
package ingest

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
)

// maxFrameBytes caps a single decoded JPEG frame.
const maxFrameBytes = 10 * 1024 * 1024

// FrameFunc is called for each decoded JPEG frame, in decode order.
type FrameFunc func(frameData []byte) error

// Probe returns width, height and frames-per-second of a video file
// using ffprobe. An unopenable source is a fatal input error.
func Probe(ctx context.Context, path string) (width, height int, fps float64, err error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate",
		"-of", "csv=p=0",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, 0, 0, fmt.Errorf("probe video %s: %w", path, err)
	}

	fields := strings.Split(strings.TrimSpace(string(out)), ",")
	if len(fields) < 3 {
		return 0, 0, 0, fmt.Errorf("probe video %s: unexpected output %q", path, out)
	}

	width, err = strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("probe width: %w", err)
	}
	height, err = strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("probe height: %w", err)
	}
	fps, err = parseRate(fields[2])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("probe frame rate: %w", err)
	}

	return width, height, fps, nil
}

// parseRate parses ffprobe's rational frame rate, e.g. "30000/1001".
func parseRate(s string) (float64, error) {
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0, err
		}
		d, err := strconv.ParseFloat(den, 64)
		if err != nil {
			return 0, err
		}
		if d == 0 {
			return 0, fmt.Errorf("zero denominator in rate %q", s)
		}
		return n / d, nil
	}
	return strconv.ParseFloat(s, 64)
}

// ReadFrames decodes every frame of the input file as JPEG and feeds it
// to fn in decode order. A callback error stops decoding and is returned.
func ReadFrames(ctx context.Context, path string, fn FrameFunc) error {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-hide_banner",
		"-loglevel", "warning",
		"-i", path,
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-q:v", "2",
		"pipe:1",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			slog.Warn("ffmpeg", "output", scanner.Text())
		}
	}()

	if err := scanJPEGStream(ctx, stdout, fn); err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg: %w", err)
	}
	return nil
}

// scanJPEGStream splits a concatenated MJPEG stream on SOI/EOI markers.
func scanJPEGStream(ctx context.Context, r io.Reader, fn FrameFunc) error {
	reader := bufio.NewReaderSize(r, 512*1024)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err := seekJPEGStart(reader); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		frame, err := readToJPEGEnd(reader)
		if err != nil {
			if err == io.EOF {
				return nil // stream ended mid-frame; drop the partial
			}
			return err
		}

		if err := fn(frame); err != nil {
			return err
		}
	}
}

// seekJPEGStart consumes bytes until the FF D8 start-of-image marker.
func seekJPEGStart(r *bufio.Reader) error {
	for {
		b, err := r.ReadByte()
		if err != nil {
			return err
		}
		if b != 0xFF {
			continue
		}
		b, err = r.ReadByte()
		if err != nil {
			return err
		}
		if b == 0xD8 {
			return nil
		}
	}
}

// readToJPEGEnd reads one frame up to and including the FF D9 marker.
func readToJPEGEnd(r *bufio.Reader) ([]byte, error) {
	data := []byte{0xFF, 0xD8}

	for {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		data = append(data, b)

		if b == 0xFF {
			next, err := r.ReadByte()
			if err != nil {
				return nil, err
			}
			data = append(data, next)
			if next == 0xD9 {
				return data, nil
			}
		}

		if len(data) > maxFrameBytes {
			return nil, fmt.Errorf("jpeg frame exceeds %d bytes", maxFrameBytes)
		}
	}
}

// Writer encodes a stream of JPEG frames into an H.264 video file via an
// ffmpeg image2pipe input.
type Writer struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
}

// NewWriter starts the encoder for the output path at the given frame
// rate.
func NewWriter(ctx context.Context, path string, fps float64) (*Writer, error) {
	if fps <= 0 {
		fps = 25
	}
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-r", strconv.FormatFloat(fps, 'f', -1, 64),
		"-i", "pipe:0",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		path,
	)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdin pipe: %w", err)
	}

	w := &Writer{cmd: cmd, stdin: stdin}
	cmd.Stderr = &w.stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg encoder: %w", err)
	}
	return w, nil
}

// WriteFrame appends one JPEG-encoded frame to the output video.
func (w *Writer) WriteFrame(frameData []byte) error {
	if _, err := w.stdin.Write(frameData); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Close finishes the encode and waits for ffmpeg to exit.
func (w *Writer) Close() error {
	if err := w.stdin.Close(); err != nil {
		return fmt.Errorf("close encoder input: %w", err)
	}
	if err := w.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg encoder: %w (%s)", err, strings.TrimSpace(w.stderr.String()))
	}
	return nil
}
