// Package manifest loads and validates the declarative bundle manifest.
//
// The manifest is a YAML document describing the parts that contribute
// built files to the bundle and the apps that run out of it. Declaration
// order is semantically meaningful in three places - the parts mapping
// (merge precedence), each part's organize mapping (first match wins), and
// each app's environment mapping (save-before-overwrite) - so those
// mappings are decoded through yaml.Node into ordered slices rather than
// Go maps.
package manifest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/danieljhkim/partforge/internal/rules"
)

// Manifest is the parsed bundle manifest.
type Manifest struct {
	// Name is the bundle name.
	Name string

	// Version is the bundle version string (inert, carried verbatim).
	Version string

	// Parts is the ordered list of part declarations. Order determines
	// merge precedence: later parts win path conflicts.
	Parts []Part

	// Apps is the ordered list of app declarations.
	Apps []App
}

// Part is one declared unit of build output.
type Part struct {
	// Name is the part's unique identifier.
	Name string

	// Source and Plugin describe how the part is fetched and built.
	// Both are inert to the assembly engine and carried verbatim for
	// the external fetch/build collaborators.
	Source string
	Plugin string

	// StagePackages lists system packages the part's build pulls in.
	// Inert passthrough, like Source and Plugin.
	StagePackages []string

	// StageRules is the ordered include/exclude list controlling which
	// built files are carried into the bundle.
	StageRules []rules.StageRule

	// OrganizeRules is the ordered rename/move list applied after
	// staging.
	OrganizeRules []rules.OrganizeRule
}

// App is one declared runnable entry point.
type App struct {
	// Name is the app's unique identifier.
	Name string

	// Command is the bundle-relative path of the executable.
	Command string

	// Daemon is the daemon type ("simple", "forking", ...), empty for
	// non-daemon apps. The value is opaque to the engine.
	Daemon string

	// RestartPolicy is the daemon restart condition, passed through
	// verbatim to the process supervisor.
	RestartPolicy string

	// Environment is the app's ordered environment variable list.
	Environment []EnvVar
}

// IsDaemon reports whether the app is declared as a long-running daemon.
func (a App) IsDaemon() bool {
	return a.Daemon != ""
}

// EnvVar is one ordered environment entry. Value is a raw expression that
// may reference other variables ($NAME or ${NAME}); the engine never
// expands it.
type EnvVar struct {
	Name  string
	Value string
}

// rawManifest mirrors the YAML document shape. Order-sensitive mappings
// stay as yaml.Node for manual decoding.
type rawManifest struct {
	Name    string    `yaml:"name"`
	Version string    `yaml:"version"`
	Parts   yaml.Node `yaml:"parts"`
	Apps    yaml.Node `yaml:"apps"`
}

type rawPart struct {
	Source        string    `yaml:"source"`
	Plugin        string    `yaml:"plugin"`
	StagePackages []string  `yaml:"stage-packages"`
	Stage         []string  `yaml:"stage"`
	Organize      yaml.Node `yaml:"organize"`
}

type rawApp struct {
	Command          string    `yaml:"command"`
	Daemon           string    `yaml:"daemon"`
	RestartCondition string    `yaml:"restart-condition"`
	Environment      yaml.Node `yaml:"environment"`
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return m, nil
}

// Parse parses manifest YAML and validates its structural shape.
func Parse(data []byte) (*Manifest, error) {
	var raw rawManifest
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	m := &Manifest{
		Name:    raw.Name,
		Version: raw.Version,
	}

	if err := eachMappingEntry(&raw.Parts, "parts", func(name string, node *yaml.Node) error {
		part, err := decodePart(name, node)
		if err != nil {
			return err
		}
		m.Parts = append(m.Parts, part)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := eachMappingEntry(&raw.Apps, "apps", func(name string, node *yaml.Node) error {
		app, err := decodeApp(name, node)
		if err != nil {
			return err
		}
		m.Apps = append(m.Apps, app)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func decodePart(name string, node *yaml.Node) (Part, error) {
	var raw rawPart
	if err := node.Decode(&raw); err != nil {
		return Part{}, fmt.Errorf("part %q: %w", name, err)
	}

	part := Part{
		Name:          name,
		Source:        raw.Source,
		Plugin:        raw.Plugin,
		StagePackages: raw.StagePackages,
	}

	for _, entry := range raw.Stage {
		rule, err := rules.ParseStageRule(entry)
		if err != nil {
			return Part{}, fmt.Errorf("part %q: stage entry %q: %w", name, entry, err)
		}
		part.StageRules = append(part.StageRules, rule)
	}

	if err := eachMappingEntry(&raw.Organize, "organize", func(src string, destNode *yaml.Node) error {
		var dest string
		if err := destNode.Decode(&dest); err != nil {
			return fmt.Errorf("organize entry %q: %w", src, err)
		}
		rule, err := rules.ParseOrganizeRule(src, dest)
		if err != nil {
			return err
		}
		part.OrganizeRules = append(part.OrganizeRules, rule)
		return nil
	}); err != nil {
		return Part{}, fmt.Errorf("part %q: %w", name, err)
	}

	return part, nil
}

func decodeApp(name string, node *yaml.Node) (App, error) {
	var raw rawApp
	if err := node.Decode(&raw); err != nil {
		return App{}, fmt.Errorf("app %q: %w", name, err)
	}

	app := App{
		Name:          name,
		Command:       raw.Command,
		Daemon:        raw.Daemon,
		RestartPolicy: raw.RestartCondition,
	}

	if err := eachMappingEntry(&raw.Environment, "environment", func(key string, valNode *yaml.Node) error {
		var val string
		if err := valNode.Decode(&val); err != nil {
			return fmt.Errorf("environment entry %q: %w", key, err)
		}
		app.Environment = append(app.Environment, EnvVar{Name: key, Value: val})
		return nil
	}); err != nil {
		return App{}, fmt.Errorf("app %q: %w", name, err)
	}

	return app, nil
}

// eachMappingEntry iterates a YAML mapping node in document order.
// A zero (absent) node is treated as an empty mapping.
func eachMappingEntry(node *yaml.Node, what string, fn func(key string, value *yaml.Node) error) error {
	if node.Kind == 0 || node.Tag == "!!null" {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("%s must be a mapping", what)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := node.Content[i]
		var key string
		if err := keyNode.Decode(&key); err != nil {
			return fmt.Errorf("%s key at line %d: %w", what, keyNode.Line, err)
		}
		if err := fn(key, node.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}
