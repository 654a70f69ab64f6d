package loader

import (
	"github.com/ember-forge/pipeline/asset"
	"github.com/ember-forge/pipeline/assetmanager"
	"github.com/ember-forge/pipeline/ioblob"
	"github.com/ember-forge/pipeline/refl"
)

var AudioClassTag = refl.Intern("audio")

// AudioPayload is a decoded PCM clip, ready for a GPU/audio driver to
// stream or upload in full depending on Streaming.
type AudioPayload struct {
	Channels      int32
	SampleRate    int32
	BitsPerSample int32
	PCM           []byte
}

type AudioLoader struct{}

func (AudioLoader) Load(req *assetmanager.LoadRequest) (*asset.Asset, error) {
	tree, err := readArtifact(req)
	if err != nil {
		return nil, err
	}
	c := tree.Cursor()

	channels, _ := ioblob.ReadInt32(c, "channels")
	sampleRate, _ := ioblob.ReadInt32(c, "sample_rate")
	bits, _ := ioblob.ReadInt32(c, "bits_per_sample")
	pcm, err := ioblob.ReadString(c, "pcm")
	if err != nil {
		return nil, err
	}

	payload := &AudioPayload{
		Channels: channels, SampleRate: sampleRate, BitsPerSample: bits,
		PCM: []byte(pcm),
	}
	return asset.NewAsset(req.Id, AudioClassTag, payload), nil
}
