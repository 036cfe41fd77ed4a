package helpers

import (
	"expvar"
	"io"
)

// StatReader adds every successful read size plus Overhead to V.
// Overhead approximates per-packet transport cost, zero length reads are free.
type StatReader struct {
	R        io.Reader
	V        *expvar.Int
	Overhead int64
}

var _ io.Reader = &StatReader{}

func NewStatReader(r io.Reader, v *expvar.Int, overhead int64) io.Reader {
	return &StatReader{R: r, V: v, Overhead: overhead}
}

func (sr *StatReader) Read(p []byte) (int, error) {
	n, err := sr.R.Read(p)
	if n > 0 {
		sr.V.Add(int64(n) + sr.Overhead)
	}
	return n, err
}

type StatWriter struct {
	W        io.Writer
	V        *expvar.Int
	Overhead int64
}

var _ io.Writer = &StatWriter{}

func NewStatWriter(w io.Writer, v *expvar.Int, overhead int64) io.Writer {
	return &StatWriter{W: w, V: v, Overhead: overhead}
}

func (sw *StatWriter) Write(p []byte) (int, error) {
	n, err := sw.W.Write(p)
	if n > 0 {
		sw.V.Add(int64(n) + sw.Overhead)
	}
	return n, err
}
