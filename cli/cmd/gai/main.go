// Command gai generates a git commit message from the staged diff with a
// local (Ollama) or hosted (OpenAI) model and drives the interactive
// apply/edit/regenerate/quit decision loop around the suggestion.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"gai/cli/internal/approve"
	"gai/cli/internal/commitmsg"
	"gai/cli/internal/config"
	"gai/cli/internal/diff"
	"gai/cli/internal/git"
	"gai/cli/internal/provider"
	"gai/cli/internal/secrets"
	"gai/cli/internal/version"
)

// errExit is an error that carries an exit code for the CLI. Use errors.As
// to detect it.
type errExit int

func (e errExit) Error() string {
	return "exit " + strconv.Itoa(int(e))
}

func main() {
	os.Exit(runCLI(os.Args[1:]))
}

func runCLI(args []string) int {
	rootCmd := &cobra.Command{
		Use:     "gai [model]",
		Short:   "AI-powered git commit message generator",
		Long:    "gai sends the staged diff to a language model, suggests a Conventional Commits message, and lets you apply, edit, or regenerate it.",
		Version: version.String(),
		Args:    cobra.MaximumNArgs(1),
		RunE:    runRoot,
	}
	rootCmd.Flags().StringP("provider", "p", "", "Provider: ollama (local, default) or openai")
	rootCmd.Flags().Bool("oneline", false, "Generate a single-line commit message with no body")
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newDoctorCmd())
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		var exitErr errExit
		if errors.As(err, &exitErr) {
			return int(exitErr)
		}
		fmt.Fprintln(os.Stderr, err)
		if u := errors.Unwrap(err); u != nil {
			fmt.Fprintf(os.Stderr, "Details: %v\n", u)
		}
		return 1
	}
	return 0
}

// overridesFromFlags maps the provider flag and the positional model
// argument onto config overrides.
func overridesFromFlags(cmd *cobra.Command, args []string) *config.Overrides {
	o := &config.Overrides{}
	if v, _ := cmd.Flags().GetString("provider"); v != "" {
		o.Provider = &v
	}
	if len(args) > 0 && args[0] != "" {
		o.Model = &args[0]
	}
	return o
}

func runRoot(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	// .env in the working directory feeds the same keys as the process
	// environment; absence is fine.
	_ = godotenv.Load()

	g := git.New(nil, "")
	d, err := diff.Staged(ctx, g)
	if err != nil {
		return err
	}

	cfg, err := config.Load(config.LoadOptions{Overrides: overridesFromFlags(cmd, args)})
	if err != nil {
		return err
	}

	if warnings := secrets.Scan(d.Text()); len(warnings) > 0 {
		ok, err := confirmSecrets(os.Stdin, os.Stderr, warnings)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(os.Stderr, "Commit aborted.")
			return nil
		}
	}

	if cfg.Provider == "openai" && cfg.APIKey == "" {
		key, err := promptAPIKey(os.Stdin, os.Stderr)
		if err != nil {
			return err
		}
		cfg.APIKey = key
	}

	gen, err := newGenerator(cfg)
	if err != nil {
		return err
	}

	oneline, _ := cmd.Flags().GetBool("oneline")
	opts := provider.Options{Oneline: oneline, Temperature: cfg.Temperature}

	color.New(color.FgBlue).Fprintf(os.Stderr, "ℹ ")
	fmt.Fprintf(os.Stderr, "Contacting %s model %q to generate a commit message...\n", gen.Name(), cfg.EffectiveModel())

	raw, err := gen.Generate(ctx, d.ForPrompt(), opts)
	if err != nil {
		return err
	}
	cand, err := commitmsg.Sanitize(raw, oneline)
	if err != nil {
		return err
	}

	loop := &approve.Loop{
		In:         os.Stdin,
		Out:        os.Stdout,
		Generator:  gen,
		GenOptions: opts,
		DiffText:   d.ForPrompt(),
		Editor:     &approve.GitEditor{Git: g},
		Committer:  g,
	}
	outcome, err := loop.Run(ctx, cand)
	if err != nil {
		return err
	}
	if outcome == approve.Failed {
		return errExit(1)
	}
	return nil
}

func newGenerator(cfg *config.Config) (provider.Generator, error) {
	pc := provider.Config{
		Model:   cfg.EffectiveModel(),
		APIKey:  cfg.APIKey,
		Timeout: cfg.Timeout,
	}
	switch cfg.Provider {
	case "openai":
		pc.BaseURL = cfg.OpenAIBaseURL
	default:
		pc.BaseURL = cfg.OllamaBaseURL
	}
	return provider.New(cfg.Provider, pc)
}

// confirmSecrets shows the credential warnings and asks whether to continue.
// Returns false on "n" and on EOF.
func confirmSecrets(in io.Reader, out io.Writer, warnings []string) (bool, error) {
	color.New(color.FgRed, color.Bold).Fprintln(out, "⚠ SECURITY WARNING")
	color.New(color.FgYellow).Fprintln(out, "Potential credentials or sensitive information detected:")
	fmt.Fprintln(out)
	for _, w := range warnings {
		fmt.Fprintf(out, "  • %s\n", w)
	}
	fmt.Fprintln(out, "\nThis could expose sensitive information in your commit history.")

	reader := bufio.NewReader(in)
	for {
		fmt.Fprint(out, "\nDo you want to continue anyway? (y/n) ")
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(out)
			return false, nil
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		default:
			fmt.Fprintln(out, "Please enter 'y' for yes or 'n' for no.")
		}
	}
}

// promptAPIKey asks once for the OpenAI key. An empty answer surfaces the
// missing-credential error from the provider constructor.
func promptAPIKey(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, "Enter your OpenAI API key: ")
	reader := bufio.NewReader(in)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(out)
		return "", nil
	}
	return strings.TrimSpace(line), nil
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or persist the default provider and model",
	}
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Save provider and/or model defaults to the global config file",
		RunE:  runConfigSet,
	}
	setCmd.Flags().String("provider", "", "Default provider: ollama or openai")
	setCmd.Flags().String("model", "", "Default model identifier")
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE:  runConfigShow,
	}
	cmd.AddCommand(setCmd)
	cmd.AddCommand(showCmd)
	return cmd
}

func runConfigSet(cmd *cobra.Command, _ []string) error {
	providerName, _ := cmd.Flags().GetString("provider")
	model, _ := cmd.Flags().GetString("model")
	if providerName == "" && model == "" {
		return errors.New("Nothing to save; pass --provider and/or --model.")
	}
	path, err := config.GlobalPath()
	if err != nil {
		return err
	}
	if err := config.Save(path, providerName, model); err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✔ Saved to %s\n", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	_ = godotenv.Load()
	cfg, err := config.Load(config.LoadOptions{})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "provider:        %s\n", cfg.Provider)
	fmt.Fprintf(out, "model:           %s\n", cfg.EffectiveModel())
	fmt.Fprintf(out, "ollama_base_url: %s\n", cfg.OllamaBaseURL)
	fmt.Fprintf(out, "openai_base_url: %s\n", cfg.OpenAIBaseURL)
	fmt.Fprintf(out, "timeout:         %s\n", cfg.Timeout)
	fmt.Fprintf(out, "temperature:     %g\n", cfg.Temperature)
	if cfg.APIKey != "" {
		fmt.Fprintln(out, "api_key:         (set)")
	} else {
		fmt.Fprintln(out, "api_key:         (not set)")
	}
	return nil
}

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that the local Ollama endpoint is reachable and the model is pulled",
		RunE:  runDoctor,
	}
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	_ = godotenv.Load()
	cfg, err := config.Load(config.LoadOptions{})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	o := provider.NewOllama(provider.Config{
		Model:   cfg.EffectiveModel(),
		BaseURL: cfg.OllamaBaseURL,
		Timeout: cfg.Timeout,
	})
	res, err := o.Check(cmd.Context())
	if err != nil {
		fmt.Fprintf(out, "✗ Ollama server at %s is not reachable.\n", cfg.OllamaBaseURL)
		fmt.Fprintf(os.Stderr, "Details: %v\n", err)
		return errExit(1)
	}
	color.New(color.FgGreen).Fprintf(out, "✔ Ollama server at %s is reachable.\n", cfg.OllamaBaseURL)
	if !res.ModelPresent {
		fmt.Fprintf(out, "✗ Model %q is not pulled. Available: %s\n", cfg.EffectiveModel(), strings.Join(res.ModelNames, ", "))
		fmt.Fprintf(out, "Run: ollama pull %s\n", cfg.EffectiveModel())
		return errExit(1)
	}
	color.New(color.FgGreen).Fprintf(out, "✔ Model %q is available.\n", cfg.EffectiveModel())
	return nil
}
