package retarget

// Sample channels in matrix order: rotation w, x, y, z, then
// translation x, y, z.
const (
	ChanRotW = iota
	ChanRotX
	ChanRotY
	ChanRotZ
	ChanLocX
	ChanLocY
	ChanLocZ

	ChannelCount = 7
)

var channelNames = [ChannelCount]string{
	"rot_w", "rot_x", "rot_y", "rot_z",
	"loc_x", "loc_y", "loc_z",
}

// ChannelName returns the short label of a sample channel.
func ChannelName(c int) string {
	return channelNames[c]
}

// Matrix is a dense frames-by-bones-by-channels sample block. One
// matrix holds either the raw world-space samples of a sequence or
// the converted local-space samples; the stages never share storage.
type Matrix struct {
	frames int
	bones  int
	data   []float64
}

// NewMatrix returns a zeroed sample matrix.
func NewMatrix(frames, bones int) *Matrix {
	return &Matrix{
		frames: frames,
		bones:  bones,
		data:   make([]float64, frames*bones*ChannelCount),
	}
}

// Frames returns the frame count.
func (m *Matrix) Frames() int { return m.frames }

// Bones returns the bone track count.
func (m *Matrix) Bones() int { return m.bones }

func (m *Matrix) index(frame, bone, channel int) int {
	return (frame*m.bones+bone)*ChannelCount + channel
}

// At returns one sample value.
func (m *Matrix) At(frame, bone, channel int) float64 {
	return m.data[m.index(frame, bone, channel)]
}

// Set stores one sample value.
func (m *Matrix) Set(frame, bone, channel int, v float64) {
	m.data[m.index(frame, bone, channel)] = v
}

// KeepMatrix marks which samples of a Matrix survive thinning. Shape
// mirrors the sample matrix it was built from.
type KeepMatrix struct {
	frames int
	bones  int
	data   []bool
}

// NewKeepMatrix returns a keep matrix with every sample dropped.
func NewKeepMatrix(frames, bones int) *KeepMatrix {
	return &KeepMatrix{
		frames: frames,
		bones:  bones,
		data:   make([]bool, frames*bones*ChannelCount),
	}
}

// KeepAll returns a keep matrix retaining every sample.
func KeepAll(frames, bones int) *KeepMatrix {
	k := NewKeepMatrix(frames, bones)
	for i := range k.data {
		k.data[i] = true
	}
	return k
}

// Frames returns the frame count.
func (k *KeepMatrix) Frames() int { return k.frames }

// Bones returns the bone track count.
func (k *KeepMatrix) Bones() int { return k.bones }

func (k *KeepMatrix) index(frame, bone, channel int) int {
	return (frame*k.bones+bone)*ChannelCount + channel
}

// At reports whether one sample is kept.
func (k *KeepMatrix) At(frame, bone, channel int) bool {
	return k.data[k.index(frame, bone, channel)]
}

// Set marks one sample kept or dropped.
func (k *KeepMatrix) Set(frame, bone, channel int, kept bool) {
	k.data[k.index(frame, bone, channel)] = kept
}

// ClearBone drops every sample of one bone track.
func (k *KeepMatrix) ClearBone(bone int) {
	for frame := 0; frame < k.frames; frame++ {
		for c := 0; c < ChannelCount; c++ {
			k.data[k.index(frame, bone, c)] = false
		}
	}
}

// KeptFrames lists the frames kept for one bone channel, in order.
func (k *KeepMatrix) KeptFrames(bone, channel int) []int {
	var frames []int
	for frame := 0; frame < k.frames; frame++ {
		if k.At(frame, bone, channel) {
			frames = append(frames, frame)
		}
	}
	return frames
}

// KeptCount returns how many samples the matrix retains.
func (k *KeepMatrix) KeptCount() int {
	n := 0
	for _, kept := range k.data {
		if kept {
			n++
		}
	}
	return n
}

// Total returns the sample capacity of the matrix.
func (k *KeepMatrix) Total() int {
	return len(k.data)
}
