package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/LynnGuo666/ai-switch-cli/internal/config"
	"github.com/LynnGuo666/ai-switch-cli/internal/envfile"
	"github.com/LynnGuo666/ai-switch-cli/internal/errors"
	"github.com/LynnGuo666/ai-switch-cli/internal/ui"
)

// Command-specific flags
var (
	listKindFlag string

	applyKindFlag  string
	applyIndexFlag int
	applyNameFlag  string
	applyModeFlag  string

	clearKindFlag    string
	clearPersistFlag bool

	addKindFlag string
)

// listCmd prints the profile table for a kind.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List profiles for a kind",
	Long: `Print the stored and custom profiles for a credential kind.

Examples:
  aisw list
  aisw list --kind codex`,
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := config.ParseKind(listKindFlag)
		if err != nil {
			return errors.New(errors.ErrInput, err.Error(), "Use --kind claude or --kind codex")
		}

		profiles, err := loadMerged(kind)
		if err != nil {
			return err
		}
		if len(profiles) == 0 {
			fmt.Printf("no profiles for %s\n", kind)
			return nil
		}

		table := ui.NewTable("#", "NAME", "GROUP", "ENDPOINT")
		for i, p := range profiles {
			name := p.Name
			if p.IsCustom {
				name += " *"
			}
			table.AddRow(fmt.Sprintf("%d", i+1), name, p.Group, p.Endpoint)
		}
		fmt.Print(table.Render(columnBudget()))
		return nil
	},
}

// applyCmd applies a profile selected by index or name.
var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply a profile's credentials",
	Long: `Apply a profile by 1-based index or by name.

Name matching is case-insensitive substring; an ambiguous name lists the
candidates instead of guessing.

Modes:
  temp       print export lines to eval in the current shell
  permanent  write the exports into the shell startup file (default)

Examples:
  aisw apply --index 2
  aisw apply --kind codex --name work
  eval "$(aisw apply --name work --mode temp)"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := config.ParseKind(applyKindFlag)
		if err != nil {
			return errors.New(errors.ErrInput, err.Error(), "Use --kind claude or --kind codex")
		}
		if applyModeFlag != "temp" && applyModeFlag != "permanent" {
			return errors.New(errors.ErrInput,
				"Unknown mode: "+applyModeFlag, "Use --mode temp or --mode permanent")
		}

		profiles, err := loadMerged(kind)
		if err != nil {
			return err
		}
		profile, err := pickProfile(profiles, applyIndexFlag, applyNameFlag)
		if err != nil {
			return err
		}

		vars := profile.EnvVars()
		if applyModeFlag == "temp" {
			fmt.Println(envfile.ExportLines(vars))
			return nil
		}

		applier := &envfile.Applier{}
		path, err := applier.WriteEnv(vars)
		if err != nil {
			return err
		}
		fmt.Printf("applied %s -> %s\n", profile.Name, path)
		fmt.Printf("restart your shell or run: source %s\n", path)
		return nil
	},
}

// clearCmd removes a kind's environment variables.
var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear a kind's environment variables",
	Long: `Print unset lines for the kind's environment variables, and with
--persist also remove their exports from the shell startup file.

Examples:
  eval "$(aisw clear)"
  aisw clear --kind codex --persist`,
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := config.ParseKind(clearKindFlag)
		if err != nil {
			return errors.New(errors.ErrInput, err.Error(), "Use --kind claude or --kind codex")
		}

		secret, endpoint := kind.EnvVars()
		fmt.Printf("unset %s\nunset %s\n", secret, endpoint)

		if clearPersistFlag {
			applier := &envfile.Applier{}
			path, err := applier.RemoveEnv([]string{secret, endpoint})
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "removed exports from %s\n", path)
		}
		return nil
	},
}

// addCmd appends a custom profile to settings via a guided form.
var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a custom profile",
	Long: `Add a custom profile to the settings file via a guided form.

Custom profiles are merged into the profile list at load time and marked
with an asterisk in listings.

Examples:
  aisw add
  aisw add --kind codex`,
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := config.ParseKind(addKindFlag)
		if err != nil {
			return errors.New(errors.ErrInput, err.Error(), "Use --kind claude or --kind codex")
		}

		var name, secret, endpoint string
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Profile name").
					Value(&name).
					Validate(requireNonEmpty("name")),
				huh.NewInput().
					Title("API key").
					EchoMode(huh.EchoModePassword).
					Value(&secret).
					Validate(requireNonEmpty("key")),
				huh.NewInput().
					Title("Endpoint URL (optional)").
					Value(&endpoint),
			),
		)
		if err := form.Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrInput, "Cancelled", "")
		}

		store := config.NewStore(configDirFlag)
		settings, err := store.LoadSettings()
		if err != nil {
			return err
		}
		settings.AddCustomProfile(config.Profile{
			Name:     strings.TrimSpace(name),
			Kind:     kind,
			Secret:   strings.TrimSpace(secret),
			Endpoint: strings.TrimSpace(endpoint),
		})
		if err := store.SaveSettings(settings); err != nil {
			return err
		}
		fmt.Printf("added custom profile %s (%s)\n", strings.TrimSpace(name), kind)
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listKindFlag, "kind", "claude", "credential kind (claude or codex)")

	applyCmd.Flags().StringVar(&applyKindFlag, "kind", "claude", "credential kind (claude or codex)")
	applyCmd.Flags().IntVar(&applyIndexFlag, "index", 0, "1-based profile index from 'aisw list'")
	applyCmd.Flags().StringVar(&applyNameFlag, "name", "", "profile name (substring match)")
	applyCmd.Flags().StringVar(&applyModeFlag, "mode", "permanent", "apply mode: temp or permanent")

	clearCmd.Flags().StringVar(&clearKindFlag, "kind", "claude", "credential kind (claude or codex)")
	clearCmd.Flags().BoolVar(&clearPersistFlag, "persist", false, "also remove exports from the shell startup file")

	addCmd.Flags().StringVar(&addKindFlag, "kind", "claude", "credential kind (claude or codex)")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(addCmd)
}

// loadMerged loads the stored profiles for a kind merged with the
// settings-held custom profiles.
func loadMerged(kind config.Kind) ([]config.Profile, error) {
	store := config.NewStore(configDirFlag)
	stored, err := store.LoadProfiles(kind)
	if err != nil {
		return nil, err
	}
	settings, err := store.LoadSettings()
	if err != nil {
		return nil, err
	}
	return config.MergeProfiles(kind, stored, settings), nil
}

// pickProfile selects a profile by 1-based index or by name. Name selection
// tries an exact match first, then case-insensitive substring; multiple
// substring matches are an error listing the candidates.
func pickProfile(profiles []config.Profile, index int, name string) (*config.Profile, error) {
	if index > 0 {
		if index > len(profiles) {
			return nil, errors.New(errors.ErrInput,
				fmt.Sprintf("Index %d out of range (%d profiles)", index, len(profiles)),
				"Run 'aisw list' to see valid indexes")
		}
		p := profiles[index-1]
		return &p, nil
	}

	if name == "" {
		return nil, errors.New(errors.ErrInput,
			"No profile selected", "Pass --index or --name")
	}

	for _, p := range profiles {
		if p.Name == name {
			match := p
			return &match, nil
		}
	}

	needle := strings.ToLower(name)
	var matches []config.Profile
	for _, p := range profiles {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			matches = append(matches, p)
		}
	}
	switch len(matches) {
	case 0:
		return nil, errors.New(errors.ErrInput,
			"No profile matches "+name, "Run 'aisw list' to see profile names")
	case 1:
		return &matches[0], nil
	default:
		names := make([]string, len(matches))
		for i, p := range matches {
			names[i] = p.Name
		}
		return nil, errors.New(errors.ErrInput,
			"Ambiguous name "+name+": "+strings.Join(names, ", "),
			"Use the full profile name or --index")
	}
}

// requireNonEmpty is a huh validator for required fields.
func requireNonEmpty(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

// columnBudget caps table columns to a share of the terminal width, falling
// back to a fixed width when stdout is not a terminal.
func columnBudget() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 48
	}
	budget := width / 2
	if budget < 24 {
		budget = 24
	}
	return budget
}
