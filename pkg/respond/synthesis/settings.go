package synthesis

import "fmt"

// VoiceSettings tunes the synthesized voice. All float fields are in
// [0, 1].
type VoiceSettings struct {
	Stability       float64 `json:"stability" mapstructure:"stability"`
	SimilarityBoost float64 `json:"similarity_boost" mapstructure:"similarity_boost"`
	Style           float64 `json:"style" mapstructure:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost" mapstructure:"use_speaker_boost"`
}

// DefaultVoiceSettings favors stable, deliberate speech over expressiveness.
func DefaultVoiceSettings() VoiceSettings {
	return VoiceSettings{
		Stability:       0.9,
		SimilarityBoost: 0.85,
		Style:           0.2,
		UseSpeakerBoost: true,
	}
}

func (v VoiceSettings) Validate() error {
	for name, val := range map[string]float64{
		"stability":        v.Stability,
		"similarity_boost": v.SimilarityBoost,
		"style":            v.Style,
	} {
		if val < 0 || val > 1 {
			return fmt.Errorf("voice setting %s out of range [0,1]: %v", name, val)
		}
	}
	return nil
}
