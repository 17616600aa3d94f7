// Package pcm holds the decoded-audio data model: a format description and
// an immutable PCM sample buffer, plus the helpers used to concatenate and
// silence-pad buckets of audio along composition time.
package pcm

import "github.com/timelineio/tlplay/internal/rationaltime"

// DataType tags the sample layout of a Block's buffer.
type DataType int

const (
	DataTypeNone DataType = iota
	DataTypeS16
	DataTypeS32
	DataTypeF32
)

// String renders a DataType the way an info command or log line wants it.
func (d DataType) String() string {
	switch d {
	case DataTypeS16:
		return "S16"
	case DataTypeS32:
		return "S32"
	case DataTypeF32:
		return "F32"
	default:
		return "none"
	}
}

// BytesPerSample returns the storage width of one sample, one channel.
func (d DataType) BytesPerSample() int {
	switch d {
	case DataTypeS16:
		return 2
	case DataTypeS32, DataTypeF32:
		return 4
	default:
		return 0
	}
}

// Info describes a PCM stream's format.
type Info struct {
	Channels   int
	SampleRate int
	DataType   DataType
}

// BytesPerSampleFrame returns the byte stride of one sample across all channels.
func (i Info) BytesPerSampleFrame() int {
	return i.Channels * i.DataType.BytesPerSample()
}

// SampleCount returns the number of whole sample-frames that duration
// implies at this Info's sample rate.
func (i Info) SampleCount(duration rationaltime.Time) int {
	return int(duration.Seconds() * float64(i.SampleRate))
}

// Block is an immutable PCM sample buffer covering a known time range.
type Block struct {
	Info Info
	Data []byte
}

// Silence returns a zero-filled Block of the given Info and sample count.
func Silence(info Info, samples int) Block {
	return Block{Info: info, Data: make([]byte, samples*info.BytesPerSampleFrame())}
}

// SampleCount returns the number of sample-frames held in the block.
func (b Block) SampleCount() int {
	stride := b.Info.BytesPerSampleFrame()
	if stride == 0 {
		return 0
	}
	return len(b.Data) / stride
}

// TrimOrPad returns a Block with exactly n sample-frames: truncated if it
// holds more, zero-padded at the end if it holds fewer. Matches the
// contract that read_audio results are trimmed/padded to the exact sample
// count implied by duration * sample_rate.
func (b Block) TrimOrPad(n int) Block {
	stride := b.Info.BytesPerSampleFrame()
	want := n * stride
	if len(b.Data) == want {
		return b
	}
	out := make([]byte, want)
	copy(out, b.Data)
	return Block{Info: b.Info, Data: out}
}

// Concat joins blocks in order with no gap and no overlap: used to build a
// one-second AudioData bucket out of per-clip reads within that second.
func Concat(blocks ...Block) Block {
	if len(blocks) == 0 {
		return Block{}
	}
	info := blocks[0].Info
	total := 0
	for _, b := range blocks {
		total += len(b.Data)
	}
	out := make([]byte, 0, total)
	for _, b := range blocks {
		out = append(out, b.Data...)
	}
	return Block{Info: info, Data: out}
}
