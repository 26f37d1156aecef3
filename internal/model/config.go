package model

import (
	"maps"
	"sort"
	"strings"
)

type CardFormat string

const (
	FormatChat       CardFormat = "chat"
	FormatCompletion CardFormat = "completion"
)

// ModelCard describes how to reach one completion model.
type ModelCard struct {
	Name       string            `json:"name" yaml:"name"`
	Model      string            `json:"model" yaml:"model"`
	Format     CardFormat        `json:"format" yaml:"format"`
	Endpoint   string            `json:"endpoint" yaml:"endpoint"`
	Parameters map[string]any    `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Headers    map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`

	// Service names the API key entry used for this card.
	Service string `json:"service,omitempty" yaml:"service,omitempty"`
}

func (c ModelCard) KeyService() string {
	if s := strings.TrimSpace(c.Service); s != "" {
		return s
	}
	return DefaultService
}

type NavigationConfig struct {
	CircularSiblings bool `json:"circularSiblings" yaml:"circularSiblings"`
}

type Config struct {
	Navigation NavigationConfig     `json:"navigation" yaml:"navigation"`
	APIKeys    map[string]string    `json:"-" yaml:"apiKeys,omitempty"`
	ModelCards map[string]ModelCard `json:"modelCards" yaml:"modelCards,omitempty"`

	// DefaultCount and MaxCount bound how many completions one model call requests.
	DefaultCount int `json:"defaultCount" yaml:"defaultCount,omitempty"`
	MaxCount     int `json:"maxCount" yaml:"maxCount,omitempty"`
}

const (
	DefaultService      = "openrouter"
	defaultCount        = 4
	maxCount            = 8
	defaultCardName     = "go"
	defaultCardEndpoint = "https://openrouter.ai/api/v1/chat/completions"
)

func DefaultConfig() Config {
	return Config{
		Navigation: NavigationConfig{CircularSiblings: true},
		APIKeys:    map[string]string{},
		ModelCards: map[string]ModelCard{
			defaultCardName: {
				Name:     "Llama 3.3 70B Instruct",
				Model:    "meta-llama/llama-3.3-70b-instruct:free",
				Format:   FormatChat,
				Endpoint: defaultCardEndpoint,
				Parameters: map[string]any{
					"temperature": 0.7,
					"max_tokens":  1000,
				},
				Service: DefaultService,
			},
		},
		DefaultCount: defaultCount,
		MaxCount:     maxCount,
	}
}

// Card looks up a model card by its short name.
func (c Config) Card(name string) (ModelCard, bool) {
	card, ok := c.ModelCards[strings.TrimSpace(name)]
	return card, ok
}

func (c Config) CardNames() []string {
	out := make([]string, 0, len(c.ModelCards))
	for k := range c.ModelCards {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (c Config) APIKey(service string) string {
	return c.APIKeys[strings.TrimSpace(service)]
}

// ClampCount maps a requested completion count onto [1, MaxCount]; zero means default.
func (c Config) ClampCount(n int) int {
	def := c.DefaultCount
	if def <= 0 {
		def = defaultCount
	}
	max := c.MaxCount
	if max <= 0 {
		max = maxCount
	}
	if n <= 0 {
		n = def
	}
	if n > max {
		n = max
	}
	return n
}

// Clone returns a copy whose maps can be changed without affecting c.
func (c Config) Clone() Config {
	out := c
	out.APIKeys = maps.Clone(c.APIKeys)
	out.ModelCards = maps.Clone(c.ModelCards)
	if out.APIKeys == nil {
		out.APIKeys = map[string]string{}
	}
	return out
}
