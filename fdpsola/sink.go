package fdpsola

// Sink receives converted samples in order.
type Sink interface {
	WriteBlock(block []float64) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(block []float64) error

func (f SinkFunc) WriteBlock(block []float64) error { return f(block) }

// BufferSink collects every block in memory.
type BufferSink struct {
	Samples []float64
}

func (b *BufferSink) WriteBlock(block []float64) error {
	b.Samples = append(b.Samples, block...)
	return nil
}

// blockWriter groups flushed samples into fixed-size blocks and stops
// at limit samples.
type blockWriter struct {
	sink    Sink
	size    int
	limit   int
	buf     []float64
	written int
}

func newBlockWriter(sink Sink, size, limit int) *blockWriter {
	return &blockWriter{sink: sink, size: size, limit: limit, buf: make([]float64, 0, size)}
}

// accepted returns how many of n further samples fit under the limit.
func (b *blockWriter) accepted(n int) int {
	room := b.limit - b.written - len(b.buf)
	if room < 0 {
		room = 0
	}
	if n > room {
		return room
	}
	return n
}

func (b *blockWriter) write(samples []float64) error {
	samples = samples[:b.accepted(len(samples))]
	for len(samples) > 0 {
		n := copy(b.buf[len(b.buf):b.size], samples)
		b.buf = b.buf[:len(b.buf)+n]
		samples = samples[n:]
		if len(b.buf) == b.size {
			if err := b.emit(); err != nil {
				return err
			}
		}
	}
	return nil
}

// pad writes zeros up to the limit.
func (b *blockWriter) pad() error {
	n := b.accepted(b.limit)
	if n == 0 {
		return nil
	}
	return b.write(make([]float64, n))
}

func (b *blockWriter) close() error {
	if len(b.buf) == 0 {
		return nil
	}
	return b.emit()
}

func (b *blockWriter) emit() error {
	block := make([]float64, len(b.buf))
	copy(block, b.buf)
	b.written += len(block)
	b.buf = b.buf[:0]
	return b.sink.WriteBlock(block)
}
