package catalog

import "strings"

// FindModifiers scans a prompt for known trigger words and returns the
// modifiers they nominate at default strength. Matching is a case-insensitive
// substring check, so "Watercolor sunset" nominates the watercolor modifier.
func (c *Catalog) FindModifiers(prompt string) ModifierSelection {
	selection := make(ModifierSelection)
	lowered := strings.ToLower(prompt)

	for _, m := range c.modifiers {
		for _, word := range m.TriggerWords {
			if strings.Contains(lowered, strings.ToLower(word)) {
				selection[m.URN] = ModifierConfig{Type: "Lora", Strength: DefaultStrength}
				break
			}
		}
	}

	return selection
}
