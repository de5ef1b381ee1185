package calltree

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// maxLogLine bounds a single log line; solver output can be long.
const maxLogLine = 4 << 20

// ReadLog reads every line of r without terminators.
func ReadLog(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLogLine)
	var lines []string
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// WriteTo writes the rendered trace to w.
func (r *Result) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var total int64
	for _, l := range r.Lines() {
		n, err := bw.WriteString(l + "\n")
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, bw.Flush()
}

// ReconstructFile reads the log at in and writes the trace to out.
// An empty out skips writing.
func ReconstructFile(in, out string, opts Options) (*Result, error) {
	// #nosec G304 -- path is provided by the caller
	f, err := os.Open(in)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", in, err)
	}
	lines, err := ReadLog(f)
	closeErr := f.Close()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", in, err)
	}
	if closeErr != nil {
		return nil, fmt.Errorf("close %s: %w", in, closeErr)
	}

	res := Reconstruct(lines, opts)
	if out == "" {
		return res, nil
	}

	dst, err := os.Create(out)
	if err != nil {
		return res, fmt.Errorf("create %s: %w", out, err)
	}
	if _, err := res.WriteTo(dst); err != nil {
		_ = dst.Close()
		return res, fmt.Errorf("write %s: %w", out, err)
	}
	if err := dst.Close(); err != nil {
		return res, fmt.Errorf("close %s: %w", out, err)
	}
	return res, nil
}
