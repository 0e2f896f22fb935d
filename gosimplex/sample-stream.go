package gosimplex

import (
	"io"

	"github.com/pkg/errors"
)

// SampleStream is a pipeline stage carrying run samples.
// Samples are values, so stages never share mutable state with the network that produced them.
type SampleStream struct {
	Outlet chan Sample
	err    error // first error of this or an upstream stage, set before Outlet closes
}

func NewSampleStream() *SampleStream {
	stream := &SampleStream{
		Outlet: make(chan Sample, 1),
	}
	return stream
}

func (stream *SampleStream) Close() {
	if stream.Outlet != nil {
		close(stream.Outlet)
	}
}

// Err returns the first error recorded by this stage or any stage upstream of it.
// Only valid once Outlet has been drained.
func (stream *SampleStream) Err() error {
	return stream.err
}

// closeAfter closes this stream, carrying along the error of the stage it was fed from.
func (stream *SampleStream) closeAfter(from *SampleStream) {
	if stream.err == nil {
		stream.err = from.err
	}
	stream.Close()
}

func (stream *SampleStream) PushSample(s Sample) {
	stream.Outlet <- s
}

// PullAll drains the stream and returns the number of samples that passed through it.
func (stream *SampleStream) PullAll() int {
	count := int(0)
	for range stream.Outlet {
		count++
	}
	return count
}

// Print writes each sample as a CSV row to out (closing out when the stream ends) and passes it along.
//
// After the first write error no further rows are written, samples still pass through,
// and the error is reported by Err() on the returned stream.
func (stream *SampleStream) Print(
	out io.WriteCloser,
	opts PrintOpts) *SampleStream {

	next := NewSampleStream()

	go func() {
		var (
			buf []byte
			err error
		)
		if opts.Header {
			buf = AppendHeader(buf[:0], opts)
			_, err = out.Write(buf)
		}

		for s := range stream.Outlet {
			if err == nil {
				buf = s.AppendRow(buf[:0], opts)
				_, err = out.Write(buf)
			}
			next.Outlet <- s
		}
		if closeErr := out.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			next.err = errors.Wrap(err, "writing samples")
		}
		next.closeAfter(stream)
	}()

	return next
}

// AddTo offers each sample to target and passes along only those that were newly added.
func (stream *SampleStream) AddTo(target SampleAdder) *SampleStream {
	next := NewSampleStream()

	go func() {
		for s := range stream.Outlet {
			if target.TryAddSample(s) {
				next.Outlet <- s
			}
		}
		next.closeAfter(stream)
	}()

	return next
}

// Observe calls fn with each sample before passing it along.
func (stream *SampleStream) Observe(fn func(s Sample)) *SampleStream {
	next := NewSampleStream()

	go func() {
		for s := range stream.Outlet {
			fn(s)
			next.Outlet <- s
		}
		next.closeAfter(stream)
	}()

	return next
}

// SelectFromLog streams samples from the given log in ascending step order.
func SelectFromLog(log SampleLog, minStep, maxStep int64) (*SampleStream, <-chan error) {
	next := NewSampleStream()
	errs := make(chan error, 1)

	go func() {
		err := log.Select(minStep, maxStep, next.Outlet)
		next.Close()
		errs <- err
		close(errs)
	}()

	return next, errs
}
