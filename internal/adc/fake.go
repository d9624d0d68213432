package adc

import "fmt"

// FakeReader is a test double that returns configured samples.
type FakeReader struct {
	// Values holds the sample returned for each channel.
	Values [NumChannels]int

	// Sources, if set for a channel, overrides Values. Each Read calls it.
	Sources [NumChannels]func() int

	// Reference is the currently selected reference.
	Reference Reference

	// References records every SetReference call in order.
	References []Reference

	// Reads counts Read calls per channel.
	Reads [NumChannels]int

	// ReadError, if set, will be returned by Read()
	ReadError error

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeReader creates a FakeReader with every channel at zero.
func NewFakeReader() *FakeReader {
	return &FakeReader{}
}

// Read returns the configured sample for ch.
func (f *FakeReader) Read(ch Channel) (int, error) {
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	if ch < 0 || ch >= NumChannels {
		return 0, fmt.Errorf("read %s: no such channel", ch)
	}
	f.Reads[ch]++
	if src := f.Sources[ch]; src != nil {
		return src(), nil
	}
	return f.Values[ch], nil
}

// SetReference records the reference switch.
func (f *FakeReader) SetReference(ref Reference) error {
	f.Reference = ref
	f.References = append(f.References, ref)
	return nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// Sequence returns a source that yields values in order, then repeats the
// last one.
func Sequence(values ...int) func() int {
	i := 0
	return func() int {
		if len(values) == 0 {
			return 0
		}
		v := values[i]
		if i < len(values)-1 {
			i++
		}
		return v
	}
}

// Held returns a source that yields pressed for n reads, then released.
func Held(pressed, released, n int) func() int {
	count := 0
	return func() int {
		count++
		if count <= n {
			return pressed
		}
		return released
	}
}
