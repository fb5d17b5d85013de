package converter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/skelmesh/actorx/pkg/retarget"
)

// curveFile is the on-disk form of one converted sequence. Bones keep
// track order and channels keep the rotation-then-translation order,
// so two runs over the same input produce identical files.
type curveFile struct {
	Sequence        string      `yaml:"sequence"`
	FramesPerSecond float64     `yaml:"fps"`
	Frames          int         `yaml:"frames"`
	Bones           []curveBone `yaml:"bones"`
}

type curveBone struct {
	Bone     string         `yaml:"bone"`
	Channels []curveChannel `yaml:"channels"`
}

type curveChannel struct {
	Channel string          `yaml:"channel"`
	Keys    map[int]float64 `yaml:"keys"`
}

// curveDocument flattens a conversion result to its output form,
// keeping only the frames that survived thinning. Tracks that never
// mapped carry no kept frames and drop out entirely.
func curveDocument(res *retarget.Result) curveFile {
	doc := curveFile{
		Sequence:        res.Name,
		FramesPerSecond: res.FramesPerSecond,
		Frames:          res.Local.Frames(),
	}
	for track, name := range res.BoneNames {
		bone := curveBone{Bone: name}
		for c := 0; c < retarget.ChannelCount; c++ {
			kept := res.Keep.KeptFrames(track, c)
			if len(kept) == 0 {
				continue
			}
			keys := make(map[int]float64, len(kept))
			for _, frame := range kept {
				keys[frame] = res.Local.At(frame, track, c)
			}
			bone.Channels = append(bone.Channels, curveChannel{
				Channel: retarget.ChannelName(c),
				Keys:    keys,
			})
		}
		if len(bone.Channels) == 0 {
			continue
		}
		doc.Bones = append(doc.Bones, bone)
	}
	return doc
}

// writeCurves writes one sequence's curve file into dir and returns
// its path.
func writeCurves(dir string, res *retarget.Result) (string, error) {
	doc := curveDocument(res)
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return "", fmt.Errorf("encoding curves for %q: %w", res.Name, err)
	}
	path := filepath.Join(dir, curveFileName(res.Name))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// curveFileName maps a sequence name from an untrusted file to a safe
// output file name.
func curveFileName(sequence string) string {
	mapped := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':':
			return '_'
		}
		return r
	}, sequence)
	if mapped == "" {
		mapped = "sequence"
	}
	return mapped + ".yaml"
}
