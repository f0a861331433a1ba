package audiopipe

import "gopkg.in/hraban/opus.v2"

// Preset selects an Opus encoder profile, per spec §4.4's table. Grounded
// on the original codec.cpp's EncoderPreset enum (there Voise/Sounds;
// renamed here to match the bitrates and flags spec.md actually specifies,
// which differ from the original's constants).
type Preset int

const (
	// PresetVoice uses the VOIP application, forces mono, and enables
	// in-band FEC — tuned for speech over a lossy link.
	PresetVoice Preset = iota
	// PresetMusic uses the AUDIO application with no forced channel count
	// or FEC, favoring fidelity over loss resilience.
	PresetMusic
)

// presetParams describes one preset's Opus configuration. NewEncoder
// looks these up by Preset instead of branching inline, so adding a
// preset means adding a table row, not touching encoder construction.
type presetParams struct {
	application  opus.Application
	bitrate      int // bit/s
	forceMono    bool
	inbandFEC    bool
	maxBlockSize int
}

var presetTable = map[Preset]presetParams{
	PresetVoice: {
		application:  opus.AppVoIP,
		bitrate:      24576,
		forceMono:    true,
		inbandFEC:    true,
		maxBlockSize: MaxVoicePacketBytes,
	},
	PresetMusic: {
		application:  opus.AppAudio,
		bitrate:      98304,
		forceMono:    false,
		inbandFEC:    false,
		maxBlockSize: MaxMusicPacketBytes,
	},
}

func (p Preset) params() presetParams {
	return presetTable[p]
}

func (p Preset) maxBlockSize() int {
	return p.params().maxBlockSize
}
