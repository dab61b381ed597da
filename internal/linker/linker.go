// Package linker cross-references declared apps against the merged bundle
// tree and emits self-contained app descriptors for an external process
// supervisor.
package linker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/danieljhkim/partforge/internal/manifest"
	"github.com/danieljhkim/partforge/internal/merger"
)

var (
	// ErrMissingCommand indicates an app's command path does not exist
	// in the merged tree.
	ErrMissingCommand = errors.New("missing command")

	// ErrEnvironmentOrder indicates a save-before-overwrite environment
	// ordering violation.
	ErrEnvironmentOrder = errors.New("environment order violation")

	// ErrValidation indicates an invalid app declaration.
	ErrValidation = errors.New("validation failed")
)

// MissingCommandError names the app whose command is absent from the
// merged tree. A bundle shipped with an app pointing at a nonexistent
// file is unusable, so this is always fatal.
type MissingCommandError struct {
	// App is the app's name.
	App string

	// Path is the missing command path.
	Path string
}

func (e *MissingCommandError) Error() string {
	return fmt.Sprintf("app %q: command %q not found in merged tree", e.App, e.Path)
}

func (e *MissingCommandError) Unwrap() error {
	return ErrMissingCommand
}

// EnvironmentOrderError names an environment entry that reads a variable
// already redefined by an earlier entry of the same app.
type EnvironmentOrderError struct {
	// App is the app's name.
	App string

	// Entry is the variable whose expression holds the late reference.
	Entry string

	// Variable is the referenced variable redefined earlier.
	Variable string
}

func (e *EnvironmentOrderError) Error() string {
	return fmt.Sprintf("app %q: %q references $%s after %s was redefined; move it before the redefinition",
		e.App, e.Entry, e.Variable, e.Variable)
}

func (e *EnvironmentOrderError) Unwrap() error {
	return ErrEnvironmentOrder
}

// LinkedApp is a fully resolved app descriptor: the command path is
// guaranteed present in the merged tree and the environment list is
// guaranteed ordering-valid. Ready for an external process supervisor.
type LinkedApp struct {
	// Name is the app's name.
	Name string `json:"name"`

	// Command is the bundle-relative command path.
	Command string `json:"command"`

	// CommandPart is the part that contributed the command file.
	CommandPart string `json:"command_part"`

	// Daemon is the daemon type, empty for one-shot apps.
	Daemon string `json:"daemon,omitempty"`

	// RestartPolicy is the opaque restart condition for daemons.
	RestartPolicy string `json:"restart_policy,omitempty"`

	// Environment is the ordered, validated environment list.
	Environment []manifest.EnvVar `json:"environment,omitempty"`
}

// Link verifies every declared app against the frozen merged tree and
// returns one LinkedApp per app, in declaration order.
func Link(tree *merger.Tree, apps []manifest.App) ([]LinkedApp, error) {
	linked := make([]LinkedApp, 0, len(apps))
	for _, app := range apps {
		la, err := linkApp(tree, app)
		if err != nil {
			return nil, err
		}
		linked = append(linked, la)
	}
	return linked, nil
}

func linkApp(tree *merger.Tree, app manifest.App) (LinkedApp, error) {
	entry, ok := tree.Lookup(app.Command)
	if !ok {
		return LinkedApp{}, &MissingCommandError{App: app.Name, Path: app.Command}
	}

	if app.IsDaemon() && app.RestartPolicy == "" {
		return LinkedApp{}, fmt.Errorf("%w: daemon app %q has no restart policy", ErrValidation, app.Name)
	}

	if err := checkEnvironmentOrder(app); err != nil {
		return LinkedApp{}, err
	}

	return LinkedApp{
		Name:          app.Name,
		Command:       app.Command,
		CommandPart:   entry.Part,
		Daemon:        app.Daemon,
		RestartPolicy: app.RestartPolicy,
		Environment:   app.Environment,
	}, nil
}

// checkEnvironmentOrder enforces the save-before-overwrite invariant: an
// entry whose expression references $V, where V is defined by a different
// entry of the same app, must appear strictly before that definition.
// References capture pre-existing values (the engine never expands them),
// so a reference after the redefinition can no longer mean the original.
// Self-references (PATH: $PATH:...) are always legal.
func checkEnvironmentOrder(app manifest.App) error {
	definedAt := make(map[string]int, len(app.Environment))
	for i, env := range app.Environment {
		definedAt[env.Name] = i
	}

	for i, env := range app.Environment {
		for _, ref := range References(env.Value) {
			j, ok := definedAt[ref]
			if !ok || ref == env.Name {
				continue
			}
			if j < i {
				return &EnvironmentOrderError{App: app.Name, Entry: env.Name, Variable: ref}
			}
		}
	}
	return nil
}

// References extracts the variable names referenced by a value expression,
// in order of appearance. Both $NAME and ${NAME} forms are recognized.
func References(expr string) []string {
	var refs []string
	for i := 0; i < len(expr); i++ {
		if expr[i] != '$' {
			continue
		}
		rest := expr[i+1:]
		if len(rest) == 0 {
			break
		}
		if rest[0] == '{' {
			if end := strings.IndexByte(rest, '}'); end > 1 {
				refs = append(refs, rest[1:end])
				i += end + 1
			}
			continue
		}
		end := 0
		for end < len(rest) && isVarChar(rest[end]) {
			end++
		}
		if end > 0 {
			refs = append(refs, rest[:end])
			i += end
		}
	}
	return refs
}

func isVarChar(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}
