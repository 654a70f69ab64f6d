package importer

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/ember-forge/pipeline/corelog"
)

// presetFragment is the on-disk shape of an optional "<name>.presets.toml"
// file sitting next to a source asset: author-editable overrides for an
// importer's hardcoded default/ui-sprite-style presets (spec §4.6:
// presets(path) -> named starting points for an importer's settings). A
// fragment is entirely optional; its absence just means "use the
// importer's built-in presets unchanged".
type presetFragment struct {
	Presets []presetEntry `toml:"presets"`
}

type presetEntry struct {
	Name      string            `toml:"name"`
	Technique string            `toml:"technique"` // shader presets only
	Pass      string            `toml:"pass"`       // shader presets only
	Options   map[string]string `toml:"options"`
}

// loadPresetFragment reads path's sibling "<name>.presets.toml" file, if
// any, and returns its entries. A missing file is not an error: it means
// the caller's built-in presets apply unmodified. A malformed file is
// logged and treated the same as a missing one, since Importer.Presets
// returns no error the framework could otherwise surface.
func loadPresetFragment(sourcePath string) []presetEntry {
	fragPath := presetFragmentPath(sourcePath)
	data, err := os.ReadFile(fragPath)
	if err != nil {
		return nil
	}
	var frag presetFragment
	if err := toml.Unmarshal(data, &frag); err != nil {
		corelog.Warn("malformed preset fragment %q, ignoring: %v", fragPath, err)
		return nil
	}
	return frag.Presets
}

func presetFragmentPath(sourcePath string) string {
	name := sourcePath[:len(sourcePath)-len(filepath.Ext(sourcePath))]
	return name + ".presets.toml"
}

// boolOption looks up a named key in a preset entry's options map,
// reporting whether it was set. Used by the boolean settings fields the
// built-in importers expose (GenerateMips, Streaming, FlipWindingOrder, ...).
func (e presetEntry) boolOption(key string) (bool, bool) {
	v, ok := e.Options[key]
	if !ok {
		return false, false
	}
	return v == "true", true
}

func (e presetEntry) stringOption(key string) (string, bool) {
	v, ok := e.Options[key]
	return v, ok
}
