package asr

import "github.com/skillsenselab/meetscribe/provider"

// NewRegistry creates a registry for speech-recognition providers.
func NewRegistry() *provider.Registry[Provider] {
	return provider.NewRegistry[Provider]()
}
