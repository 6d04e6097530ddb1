// Package main provides the CLI entrypoint for rapidkeys.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rapidkeys/rapidkeys/internal/api"
	"github.com/rapidkeys/rapidkeys/internal/config"
	"github.com/rapidkeys/rapidkeys/internal/model"
	"github.com/rapidkeys/rapidkeys/internal/room"
	"github.com/rapidkeys/rapidkeys/internal/stats"
	"github.com/rapidkeys/rapidkeys/internal/statsui"
	"github.com/rapidkeys/rapidkeys/internal/store"
	"github.com/rapidkeys/rapidkeys/internal/tui"
	"github.com/rapidkeys/rapidkeys/internal/words"
)

const (
	defaultMode        = "words"
	defaultWords       = 25
	defaultSeconds     = 30
	defaultCaps        = 0.0
	defaultPunct       = 0.0
	defaultCurveWindow = 20
	defaultServerURL   = "http://localhost:8000"
	defaultLimit       = 10
)

const defaultPunctSet = ".,!?;:\"'{}()[]-=/<>`"

var (
	practiceMode       string
	practiceWords      int
	practiceSeconds    int
	practiceWordList   string
	practiceCaps       float64
	practicePunct      float64
	practicePunctSet   string
	practiceWordRevert bool

	statsMode        string
	statsSince       string
	statsLast        int
	statsCurveWindow int

	serverURL string

	raceMode  string
	raceValue int

	authUsername string
	authEmail    string

	leaderboardLimit int

	profileEmail string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "rapidkeys",
		Short:         "TUI typing trainer with multiplayer races",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	rootCmd.Flags().StringVar(&practiceMode, "mode", defaultMode, "session mode: words or time")
	rootCmd.Flags().IntVar(&practiceWords, "words", defaultWords, "words per session (words mode)")
	rootCmd.Flags().IntVar(&practiceSeconds, "seconds", defaultSeconds, "session duration (time mode)")
	rootCmd.Flags().StringVar(&practiceWordList, "wordlist", "", "path to a custom word list")
	rootCmd.Flags().Float64Var(&practiceCaps, "caps", defaultCaps, "probability of capitalized first letter (0-1)")
	rootCmd.Flags().Float64Var(&practicePunct, "punct", defaultPunct, "punctuation probability per word (0-1)")
	rootCmd.Flags().StringVar(&practicePunctSet, "punct-set", defaultPunctSet, "punctuation set")
	rootCmd.Flags().BoolVar(&practiceWordRevert, "word-revert", true, "allow backspacing into the previous word")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newSignupCmd())
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newRaceCmd())
	rootCmd.AddCommand(newRoomsCmd())
	rootCmd.AddCommand(newLeaderboardCmd())
	rootCmd.AddCommand(newProfileCmd())

	return rootCmd
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "mode", &practiceMode, fileCfg.Practice.Mode)
	applyIntConfig(cmd, "words", &practiceWords, fileCfg.Practice.Words)
	applyIntConfig(cmd, "seconds", &practiceSeconds, fileCfg.Practice.Seconds)
	applyStringConfig(cmd, "wordlist", &practiceWordList, fileCfg.Practice.WordList)
	applyFloatConfig(cmd, "caps", &practiceCaps, fileCfg.Practice.CapsPct)
	applyFloatConfig(cmd, "punct", &practicePunct, fileCfg.Practice.PunctPct)
	applyStringConfig(cmd, "punct-set", &practicePunctSet, fileCfg.Practice.PunctSet)
	applyBoolConfig(cmd, "word-revert", &practiceWordRevert, fileCfg.Practice.WordRevert)

	cfg := model.Config{
		Mode:         model.Mode(practiceMode),
		Words:        practiceWords,
		Seconds:      practiceSeconds,
		WordListPath: practiceWordList,
		CapsPct:      practiceCaps,
		PunctPct:     practicePunct,
		PunctSet:     practicePunctSet,
		WordRevert:   practiceWordRevert,
	}

	if err := validateConfig(cfg); err != nil {
		return err
	}

	table, err := words.LoadList(cfg.WordListPath)
	if err != nil {
		return fmt.Errorf("failed to load word list: %w", err)
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	practice := tui.NewPractice(cfg, st, words.New(), table)
	program := tea.NewProgram(practice, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats",
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsMode, "mode", "", "mode filter: words or time")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	return cmd
}

func runStatsCmd(_ *cobra.Command, _ []string) error {
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}

	switch statsMode {
	case "", string(model.ModeWords), string(model.ModeTime):
	default:
		return fmt.Errorf("--mode must be words or time")
	}

	cfg := model.StatsConfig{
		Mode:        model.Mode(statsMode),
		Since:       sinceTime,
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	ui := statsui.NewModel(st, cfg)
	program := tea.NewProgram(ui, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func newSignupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account on the race server",
		Args:  cobra.NoArgs,
		RunE:  runSignupCmd,
	}
	cmd.Flags().StringVar(&serverURL, "server", "", "race server URL")
	cmd.Flags().StringVar(&authUsername, "username", "", "account username")
	cmd.Flags().StringVar(&authEmail, "email", "", "account email")
	return cmd
}

func runSignupCmd(cmd *cobra.Command, _ []string) error {
	base, err := resolveServerURL(cmd)
	if err != nil {
		return err
	}
	username, err := resolveUsername(cmd)
	if err != nil {
		return err
	}
	if authEmail == "" {
		authEmail, err = promptLine("Email: ")
		if err != nil {
			return err
		}
	}
	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}

	client := api.New(base, "")
	available, err := client.CheckUsername(context.Background(), username)
	if err != nil {
		return fmt.Errorf("failed to check username: %w", err)
	}
	if !available {
		return fmt.Errorf("username %q is already taken", username)
	}

	session, err := client.Signup(context.Background(), username, authEmail, password)
	if err != nil {
		return fmt.Errorf("signup failed: %w", err)
	}
	if err := config.SaveToken(config.DefaultCredentialsPath(), session.Token); err != nil {
		return err
	}
	fmt.Printf("Signed up as %s\n", session.Username)
	return nil
}

func newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the race server",
		Args:  cobra.NoArgs,
		RunE:  runLoginCmd,
	}
	cmd.Flags().StringVar(&serverURL, "server", "", "race server URL")
	cmd.Flags().StringVar(&authUsername, "username", "", "account username")
	return cmd
}

func runLoginCmd(cmd *cobra.Command, _ []string) error {
	base, err := resolveServerURL(cmd)
	if err != nil {
		return err
	}
	username, err := resolveUsername(cmd)
	if err != nil {
		return err
	}
	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}

	client := api.New(base, "")
	session, err := client.Login(context.Background(), username, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if err := config.SaveToken(config.DefaultCredentialsPath(), session.Token); err != nil {
		return err
	}
	fmt.Printf("Logged in as %s\n", session.Username)
	return nil
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored race server credentials",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := config.ClearToken(config.DefaultCredentialsPath()); err != nil {
				return err
			}
			fmt.Println("Logged out")
			return nil
		},
	}
}

func newRaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "race [code]",
		Short: "Create or join a multiplayer race room",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runRaceCmd,
	}
	cmd.Flags().StringVar(&serverURL, "server", "", "race server URL")
	cmd.Flags().StringVar(&raceMode, "mode", defaultMode, "race mode: words or time")
	cmd.Flags().IntVar(&raceValue, "value", defaultWords, "word count or seconds for the race")
	return cmd
}

func runRaceCmd(cmd *cobra.Command, args []string) error {
	base, err := resolveServerURL(cmd)
	if err != nil {
		return err
	}
	token, err := config.LoadToken(config.DefaultCredentialsPath())
	if err != nil {
		return err
	}
	if token == "" {
		return fmt.Errorf("not logged in; run: rapidkeys login")
	}

	var code string
	if len(args) == 1 {
		code = strings.ToUpper(strings.TrimSpace(args[0]))
	} else {
		settings := model.Settings{Mode: model.Mode(raceMode), Value: raceValue}
		if !settings.Mode.ValidValue(settings.Value) {
			return fmt.Errorf("invalid race settings: %s/%d", settings.Mode, settings.Value)
		}
		client := api.New(base, token)
		code, err = client.CreateRoom(context.Background(), settings)
		if err != nil {
			return fmt.Errorf("failed to create room: %w", err)
		}
		fmt.Printf("Created room %s\n", code)
	}

	conn, err := room.Connect(context.Background(), base, code, token)
	if err != nil {
		return fmt.Errorf("failed to join room %s: %w", code, err)
	}

	program := tea.NewProgram(tui.NewRace(conn), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to run race TUI: %w", err)
	}
	conn.Close()
	return nil
}

func newRoomsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rooms",
		Short: "List joinable race rooms",
		Args:  cobra.NoArgs,
		RunE:  runRoomsCmd,
	}
	cmd.Flags().StringVar(&serverURL, "server", "", "race server URL")
	return cmd
}

func runRoomsCmd(cmd *cobra.Command, _ []string) error {
	base, err := resolveServerURL(cmd)
	if err != nil {
		return err
	}
	client := api.New(base, "")
	rooms, err := client.ActiveRooms(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list rooms: %w", err)
	}
	if len(rooms) == 0 {
		fmt.Println("No active rooms.")
		return nil
	}
	for _, r := range rooms {
		state := "waiting"
		if r.RaceStarted {
			state = "racing"
		}
		fmt.Printf("%s  %s/%d  %d players  %s\n", r.Code, r.Settings.Mode, r.Settings.Value, r.UserCount, state)
	}
	return nil
}

func newLeaderboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the global race leaderboard",
		Args:  cobra.NoArgs,
		RunE:  runLeaderboardCmd,
	}
	cmd.Flags().StringVar(&serverURL, "server", "", "race server URL")
	cmd.Flags().IntVar(&leaderboardLimit, "limit", defaultLimit, "number of entries")
	return cmd
}

func runLeaderboardCmd(cmd *cobra.Command, _ []string) error {
	base, err := resolveServerURL(cmd)
	if err != nil {
		return err
	}
	client := api.New(base, "")
	entries, err := client.Leaderboard(context.Background(), leaderboardLimit)
	if err != nil {
		return fmt.Errorf("failed to fetch leaderboard: %w", err)
	}
	return stats.RenderLeaderboard(os.Stdout, entries)
}

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show the logged-in account's race profile",
		Args:  cobra.NoArgs,
		RunE:  runProfileCmd,
	}
	cmd.Flags().StringVar(&serverURL, "server", "", "race server URL")
	cmd.Flags().StringVar(&profileEmail, "email", "", "set a new email address")
	return cmd
}

func runProfileCmd(cmd *cobra.Command, _ []string) error {
	base, err := resolveServerURL(cmd)
	if err != nil {
		return err
	}
	token, err := config.LoadToken(config.DefaultCredentialsPath())
	if err != nil {
		return err
	}
	if token == "" {
		return fmt.Errorf("not logged in; run: rapidkeys login")
	}
	client := api.New(base, token)
	var profile model.Profile
	if profileEmail != "" {
		profile, err = client.UpdateEmail(context.Background(), profileEmail)
		if err != nil {
			return fmt.Errorf("failed to update profile: %w", err)
		}
	} else {
		profile, err = client.Profile(context.Background())
		if err != nil {
			return fmt.Errorf("failed to fetch profile: %w", err)
		}
	}
	fmt.Printf("Username: %s\n", profile.Username)
	fmt.Printf("Email:    %s\n", profile.Email)
	fmt.Printf("Best WPM: %d\n", profile.BestWPM)
	fmt.Printf("Races:    %d\n", profile.Races)
	return nil
}

// resolveServerURL picks the race server: the --server flag wins, then
// the config file, then the default.
func resolveServerURL(cmd *cobra.Command) (string, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "server", &serverURL, fileCfg.Race.ServerURL)
	if serverURL == "" {
		serverURL = defaultServerURL
	}
	return strings.TrimRight(serverURL, "/"), nil
}

func resolveUsername(cmd *cobra.Command) (string, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "username", &authUsername, fileCfg.Race.Username)
	if authUsername != "" {
		return authUsername, nil
	}
	return promptLine("Username: ")
}

func promptLine(prompt string) (string, error) {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", fmt.Errorf("input must not be empty")
	}
	return line, nil
}

func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	data, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("password must not be empty")
	}
	return string(data), nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# rapidkeys configuration
# Uncomment a value to enable it. CLI flags override config values.

[practice]
# mode = %q            # Session mode: words or time
# words = %d              # Words per session (words mode)
# seconds = %d            # Session duration (time mode)
# wordlist = ""           # Path to a custom word list
# caps = %.2f             # Probability of capitalized first letter (0-1)
# punct = %.2f            # Punctuation probability per word (0-1)
# punct-set = %q          # Punctuation set
# word-revert = true      # Allow backspacing into the previous word

[race]
# server-url = %q
# username = ""
`,
		defaultMode,
		defaultWords,
		defaultSeconds,
		defaultCaps,
		defaultPunct,
		defaultPunctSet,
		defaultServerURL,
	)
}

func validateConfig(cfg model.Config) error {
	switch cfg.Mode {
	case model.ModeWords, model.ModeTime:
	default:
		return fmt.Errorf("--mode must be words or time")
	}
	if cfg.Words <= 0 {
		return fmt.Errorf("--words must be > 0")
	}
	if cfg.Seconds <= 0 {
		return fmt.Errorf("--seconds must be > 0")
	}
	if cfg.CapsPct < 0 || cfg.CapsPct > 1 {
		return fmt.Errorf("--caps must be between 0 and 1")
	}
	if cfg.PunctPct < 0 || cfg.PunctPct > 1 {
		return fmt.Errorf("--punct must be between 0 and 1")
	}
	if cfg.PunctSet == "" {
		return fmt.Errorf("--punct-set must not be empty")
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
