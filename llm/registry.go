package llm

import "github.com/skillsenselab/meetscribe/provider"

// NewRegistry creates a registry for text-generation providers.
func NewRegistry() *provider.Registry[Provider] {
	return provider.NewRegistry[Provider]()
}
