package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/partforge/internal/assembler"
	"github.com/danieljhkim/partforge/internal/clock"
	"github.com/danieljhkim/partforge/internal/config"
	"github.com/danieljhkim/partforge/internal/fsops"
	"github.com/danieljhkim/partforge/internal/hash"
	"github.com/danieljhkim/partforge/internal/observability"
)

// newAssembler creates an assembler with real implementations of all
// dependencies, plus the tool configuration its request defaults come from.
func newAssembler() (*assembler.Assembler, config.Config, error) {
	var cfg config.Config
	var err error
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return nil, config.Config{}, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := observability.InitLogger(verbose)
	fs := fsops.NewRealFS()
	hasher := hash.NewSHA256Hasher()
	clk := &clock.RealClock{}

	return assembler.New(fs, hasher, clk, logger), cfg, nil
}

// stringFlag returns the flag value when set on the command line,
// otherwise the configured fallback.
func stringFlag(cmd *cobra.Command, name, value, fallback string) string {
	if cmd.Flags().Changed(name) || fallback == "" {
		return value
	}
	return fallback
}

// outputJSON outputs a value as JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
