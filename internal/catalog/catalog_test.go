package catalog

import "testing"

func testCatalog() *Catalog {
	return New(
		[]BaseModel{
			{Name: "SD 1.5", URN: "urn:air:sd1:checkpoint:civitai:15003@1460987"},
		},
		[]StyleModifier{
			{Name: "watercolor", URN: "urn:air:sd1:lora:civitai:105784@113556", TriggerWords: []string{"watercolor"}},
			{Name: "neeko", URN: "urn:air:sd1:lora:civitai:52525@56990", TriggerWords: []string{"neeko", "lizard tail"}},
		},
	)
}

func TestBaseModelLookup(t *testing.T) {
	t.Parallel()
	c := testCatalog()

	m, ok := c.BaseModel("SD 1.5")
	if !ok {
		t.Fatal("expected SD 1.5 to be found")
	}
	if m.URN != "urn:air:sd1:checkpoint:civitai:15003@1460987" {
		t.Fatalf("URN = %q", m.URN)
	}

	if _, ok := c.BaseModel("SDXL Turbo"); ok {
		t.Fatal("unknown model should not be found")
	}
}

func TestResolveModifierKey(t *testing.T) {
	t.Parallel()
	c := testCatalog()

	cases := []struct {
		name string
		key  string
		want string
		ok   bool
	}{
		{name: "urn_passthrough", key: "urn:air:sd1:lora:civitai:105784@113556", want: "urn:air:sd1:lora:civitai:105784@113556", ok: true},
		{name: "foreign_urn_passthrough", key: "urn:air:sd1:lora:civitai:99999@11111", want: "urn:air:sd1:lora:civitai:99999@11111", ok: true},
		{name: "name_resolves", key: "watercolor", want: "urn:air:sd1:lora:civitai:105784@113556", ok: true},
		{name: "unknown_dropped", key: "oil-painting", want: "", ok: false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := c.ResolveModifierKey(tc.key)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if got != tc.want {
				t.Fatalf("urn = %q, want %q", got, tc.want)
			}
		})
	}
}
