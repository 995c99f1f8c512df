// Package catalog holds the static library of base generation models and
// style modifiers (LoRAs) the service knows how to use. The catalog is loaded
// once at startup and never mutated.
package catalog

import "strings"

// DefaultStrength is applied to a modifier whenever the source that selected
// it did not specify one.
const DefaultStrength = 0.75

// ModifierConfig is the per-modifier payload sent to the generation provider.
type ModifierConfig struct {
	Type     string  `json:"type"`
	Strength float64 `json:"strength"`
}

// ModifierSelection maps a fully-qualified modifier URN to its config. Keys
// must be URNs, never human-readable names, by the time a selection reaches
// the provider.
type ModifierSelection map[string]ModifierConfig

// BaseModel is a checkpoint the provider can generate with.
type BaseModel struct {
	Name  string
	URN   string
	Type  string
	URL   string
	Style string
}

// StyleModifier is a LoRA overlay: a named style biaser addressed by URN and
// nominated by trigger words found in a prompt.
type StyleModifier struct {
	Name         string
	URN          string
	BaseModel    string
	TriggerWords []string
	URL          string
}

// Catalog indexes base models and style modifiers for lookup by name.
type Catalog struct {
	baseModels map[string]BaseModel
	modifiers  []StyleModifier
	byName     map[string]StyleModifier
}

// New builds a catalog from static entries.
func New(baseModels []BaseModel, modifiers []StyleModifier) *Catalog {
	c := &Catalog{
		baseModels: make(map[string]BaseModel, len(baseModels)),
		modifiers:  modifiers,
		byName:     make(map[string]StyleModifier, len(modifiers)),
	}
	for _, m := range baseModels {
		c.baseModels[m.Name] = m
	}
	for _, m := range modifiers {
		c.byName[m.Name] = m
	}
	return c
}

// BaseModel looks up a base model by its human-readable name.
func (c *Catalog) BaseModel(name string) (BaseModel, bool) {
	m, ok := c.baseModels[name]
	return m, ok
}

// ModifierByName looks up a style modifier by its human-readable name.
func (c *Catalog) ModifierByName(name string) (StyleModifier, bool) {
	m, ok := c.byName[name]
	return m, ok
}

// Modifiers returns all style modifiers in catalog order.
func (c *Catalog) Modifiers() []StyleModifier {
	return c.modifiers
}

// ResolveModifierKey normalizes a modifier key coming from an external source
// into a URN. A key that already looks like a modifier URN passes through
// unchanged; a key matching a catalog name resolves to that entry's URN;
// anything else is rejected.
func (c *Catalog) ResolveModifierKey(key string) (string, bool) {
	if IsModifierURN(key) {
		return key, true
	}
	if m, ok := c.byName[key]; ok {
		return m.URN, true
	}
	return "", false
}

// IsModifierURN reports whether key is a fully-qualified LoRA reference.
func IsModifierURN(key string) bool {
	return strings.Contains(key, ":lora:")
}

// Default returns the catalog shipped with the service.
func Default() *Catalog {
	return New(
		[]BaseModel{
			{
				Name:  "SD 1.5",
				URN:   "urn:air:sd1:checkpoint:civitai:15003@1460987",
				Type:  "checkpoint",
				URL:   "https://civitai.com/models/15003/cyberrealistic?modelVersionId=1460987",
				Style: "realistic",
			},
			{
				Name:  "Prefect illustrious XL",
				URN:   "urn:air:sdxl:checkpoint:civitai:1224788@1379960",
				Type:  "checkpoint",
				URL:   "https://civitai.com/models/1224788/prefect-illustrious-xl",
				Style: "realistic",
			},
		},
		[]StyleModifier{
			{
				Name:         "watercolor",
				URN:          "urn:air:sd1:lora:civitai:105784@113556",
				BaseModel:    "SD 1.5",
				TriggerWords: []string{"watercolor"},
				URL:          "https://civitai.com/models/105784/watercolor-or",
			},
			{
				Name:      "neeko",
				URN:       "urn:air:sd1:lora:civitai:52525@56990",
				BaseModel: "SD 1.5",
				TriggerWords: []string{
					"neeko",
					"facial marks, hair ornaments, hair flower, necklace, brown shorts, crop top, lizard tail",
				},
				URL: "https://civitai.com/models/52525/neeko-league-of-legends-lora",
			},
		},
	)
}
