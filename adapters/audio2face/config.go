package audio2face

import "time"

const defaultTimeout = 60 * time.Second

// Config holds the audio-to-animation endpoints. A local endpoint, when enabled,
// takes priority over the cloud one. APIKey is mandatory for the cloud endpoint and
// sent to the local one only when set.
type Config struct {
	CloudURL       string
	APIKey         string
	UseLocal       bool
	LocalURL       string
	Timeout        time.Duration
	ForceSimulated bool
}

func (c Config) localEnabled() bool {
	return c.UseLocal && c.LocalURL != ""
}
