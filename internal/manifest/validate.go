package manifest

import (
	"fmt"
	"strings"
)

// Validate checks the manifest's structural shape. Business meaning beyond
// shape (restart policy values, source URLs, plugin names) is not
// interpreted here.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("manifest has no name")
	}
	if len(m.Parts) == 0 {
		return fmt.Errorf("manifest %q declares no parts", m.Name)
	}

	seenParts := make(map[string]bool, len(m.Parts))
	for _, part := range m.Parts {
		if err := validateName(part.Name); err != nil {
			return fmt.Errorf("part name: %w", err)
		}
		if seenParts[part.Name] {
			return fmt.Errorf("duplicate part %q", part.Name)
		}
		seenParts[part.Name] = true
	}

	seenApps := make(map[string]bool, len(m.Apps))
	for _, app := range m.Apps {
		if err := validateName(app.Name); err != nil {
			return fmt.Errorf("app name: %w", err)
		}
		if seenApps[app.Name] {
			return fmt.Errorf("duplicate app %q", app.Name)
		}
		seenApps[app.Name] = true

		if app.Command == "" {
			return fmt.Errorf("app %q has no command", app.Name)
		}
		if strings.HasPrefix(app.Command, "/") {
			return fmt.Errorf("app %q: command %q must be bundle-relative", app.Name, app.Command)
		}

		seenVars := make(map[string]bool, len(app.Environment))
		for _, env := range app.Environment {
			if env.Name == "" {
				return fmt.Errorf("app %q has an environment entry with an empty name", app.Name)
			}
			if seenVars[env.Name] {
				return fmt.Errorf("app %q: duplicate environment variable %q", app.Name, env.Name)
			}
			seenVars[env.Name] = true
		}
	}

	return nil
}

// validateName validates a part or app identifier.
func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("empty name")
	}
	if strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("name %q must not contain path separators", name)
	}
	if name == "." || name == ".." {
		return fmt.Errorf("name %q is reserved", name)
	}
	return nil
}
