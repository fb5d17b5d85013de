package retarget

import stdmath "math"

// Thin builds the keep matrix for a converted sample block. Frame 0
// of every channel always survives; a later frame survives only when
// its value moved at least epsilon away from the last surviving frame
// of the same channel. Channels thin independently, so a bone may
// keep a rotation key at a frame where its translation keys drop.
//
// The bounded error between consecutive kept samples is epsilon per
// channel. An epsilon of zero keeps every frame.
func Thin(m *Matrix, epsilon float64) *KeepMatrix {
	keep := NewKeepMatrix(m.Frames(), m.Bones())
	if m.Frames() == 0 {
		return keep
	}

	for bone := 0; bone < m.Bones(); bone++ {
		for c := 0; c < ChannelCount; c++ {
			keep.Set(0, bone, c, true)
			last := m.At(0, bone, c)
			for frame := 1; frame < m.Frames(); frame++ {
				v := m.At(frame, bone, c)
				if stdmath.Abs(v-last) >= epsilon {
					keep.Set(frame, bone, c, true)
					last = v
				}
			}
		}
	}
	return keep
}
