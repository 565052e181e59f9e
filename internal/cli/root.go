// Package cli wires the slicerctl diagnostic commands: inspect a definition
// chain, resolve setting names, validate values, and preview expression
// evaluation without invoking the slicing engine.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	settings "github.com/goliatone/go-slicer-settings"
)

type rootFlags struct {
	definitionsDir string
	printer        string
	boundsFile     string
	presetsFile    string
}

// NewRootCmd wires the cobra root command.
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "slicerctl",
		Short:         "Inspect and exercise a slicer settings registry",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.definitionsDir, "definitions", ".", "directory holding <id>.def.json documents")
	root.PersistentFlags().StringVar(&flags.printer, "printer", "", "root printer definition id")
	root.PersistentFlags().StringVar(&flags.boundsFile, "bounds", "", "optional YAML bounds-override file")
	root.PersistentFlags().StringVar(&flags.presetsFile, "presets", "", "optional YAML custom presets file")
	_ = root.MarkPersistentFlagRequired("printer")

	root.AddCommand(newResolveCommand(flags))
	root.AddCommand(newValidateCommand(flags))
	root.AddCommand(newEvalCommand(flags))
	root.AddCommand(newPresetsCommand(flags))
	root.AddCommand(newExportCommand(flags))
	return root
}

// engine bundles the read-only components every command needs.
type engine struct {
	registry  *settings.Registry
	resolver  *settings.Resolver
	validator *settings.Validator
	evaluator *settings.Evaluator
	presets   *settings.PresetStore
}

func buildEngine(flags *rootFlags) (*engine, error) {
	registry, err := settings.Load(settings.DirSource(os.DirFS(flags.definitionsDir)), flags.printer)
	if err != nil {
		return nil, err
	}

	var validatorOpts []settings.ValidatorOption
	if flags.boundsFile != "" {
		f, err := os.Open(flags.boundsFile)
		if err != nil {
			return nil, err
		}
		bounds, err := settings.LoadBoundsOverrides(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		validatorOpts = append(validatorOpts, settings.WithBoundsOverrides(bounds))
	}
	validator := settings.NewValidator(registry, validatorOpts...)

	presets := settings.NewPresetStore(validator)
	if flags.presetsFile != "" {
		f, err := os.Open(flags.presetsFile)
		if err != nil {
			return nil, err
		}
		collisions, err := presets.LoadCustom(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		for _, name := range collisions {
			fmt.Fprintf(os.Stderr, "warning: custom preset %q collides with a built-in preset and was ignored\n", name)
		}
	}

	return &engine{
		registry:  registry,
		resolver:  settings.NewResolver(registry),
		validator: validator,
		evaluator: settings.NewEvaluator(registry),
		presets:   presets,
	}, nil
}

func newResolveCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <query>",
		Short: "Resolve free-form text to canonical setting keys",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := buildEngine(flags)
			if err != nil {
				return err
			}
			resolution := eng.resolver.Resolve(args[0])
			switch resolution.Kind {
			case settings.MatchUnique:
				defn := resolution.Candidates[0]
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s, %s)\n", defn.Key, defn.Label, defn.Type)
			case settings.MatchAmbiguous:
				fmt.Fprintln(cmd.OutOrStdout(), "ambiguous, candidates:")
				for _, defn := range resolution.Candidates {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s (%s)\n", defn.Key, defn.Label)
				}
			default:
				fmt.Fprintln(cmd.OutOrStdout(), "no match")
			}
			return nil
		},
	}
}

func newValidateCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <key> <value>",
		Short: "Validate a raw value against a setting definition",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := buildEngine(flags)
			if err != nil {
				return err
			}
			result := eng.validator.Validate(args[0], args[1])
			switch result.Status {
			case settings.Accepted:
				fmt.Fprintf(cmd.OutOrStdout(), "accepted: %s\n", result.Value)
			case settings.AcceptedWithWarning:
				fmt.Fprintf(cmd.OutOrStdout(), "accepted with warning: %s (%s)\n", result.Value, result.Reason)
			default:
				fmt.Fprintf(cmd.OutOrStdout(), "rejected: %s\n", result.Reason)
			}
			return nil
		},
	}
}

func newEvalCommand(flags *rootFlags) *cobra.Command {
	var pins []string

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Preview expression-backed defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := buildEngine(flags)
			if err != nil {
				return err
			}
			overrides := map[string]string{}
			for _, pin := range pins {
				key, value, ok := strings.Cut(pin, "=")
				if !ok {
					return fmt.Errorf("invalid --set %q, expected key=value", pin)
				}
				overrides[key] = value
			}
			result := eng.evaluator.EvaluateAll(overrides)
			out := cmd.OutOrStdout()
			for _, key := range sortedKeys(result.Values) {
				fmt.Fprintf(out, "%s = %v\n", key, result.Values[key])
			}
			for _, key := range sortedKeys(result.Errors) {
				fmt.Fprintf(out, "%s: %v\n", key, result.Errors[key])
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&pins, "set", nil, "pin a setting as key=value (repeatable)")
	return cmd
}

func newPresetsCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := buildEngine(flags)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, name := range eng.presets.Names() {
				preset, _ := eng.presets.Get(name)
				fmt.Fprintf(out, "%s: %s (%d settings)\n", preset.Name, preset.Description, len(preset.Settings))
			}
			return nil
		},
	}
}

func newExportCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Export the registry document as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := buildEngine(flags)
			if err != nil {
				return err
			}
			doc := eng.registry.Export(settings.WithPresets(eng.presets))
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(doc)
		},
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
