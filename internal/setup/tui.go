package setup

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/fundledger/config"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// Answers is what the wizard collects, kept as entered.
type Answers struct {
	WALDir           string
	SegmentThreshold string
	HTTPAddr         string
	TLSDomain        string
	TLSCacheDir      string
	Currency         string
	LogLevel         string
}

// DefaultAnswers pre-fills the wizard from the default configuration.
func DefaultAnswers() Answers {
	cfg := config.Default()
	return Answers{
		WALDir:      cfg.WALDir,
		HTTPAddr:    cfg.HTTPAddr,
		TLSCacheDir: "cert-cache",
		Currency:    cfg.Currency,
		LogLevel:    cfg.LogLevel,
	}
}

// Build turns answers into a validated configuration.
func (a Answers) Build() (config.Config, error) {
	cfg := config.Default()
	cfg.WALDir = strings.TrimSpace(a.WALDir)
	cfg.HTTPAddr = strings.TrimSpace(a.HTTPAddr)
	cfg.Currency = strings.ToUpper(strings.TrimSpace(a.Currency))
	cfg.LogLevel = strings.TrimSpace(a.LogLevel)

	if s := strings.TrimSpace(a.SegmentThreshold); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return config.Config{}, fmt.Errorf("segment threshold must be a positive integer, got %q", s)
		}
		cfg.WALSegmentThreshold = n
	}
	if domain := strings.TrimSpace(a.TLSDomain); domain != "" {
		cfg.TLSDomain = domain
		cfg.TLSCacheDir = strings.TrimSpace(a.TLSCacheDir)
	}

	if err := validateAddr(cfg.HTTPAddr); err != nil {
		return config.Config{}, err
	}
	return cfg, cfg.Validate()
}

// Summary renders the configuration for the confirmation step.
func Summary(cfg config.Config) string {
	var b strings.Builder
	fmt.Fprintf(&b, "WAL dir: %s\n", cfg.WALDir)
	if cfg.WALSegmentThreshold > 0 {
		fmt.Fprintf(&b, "Segment threshold: %d\n", cfg.WALSegmentThreshold)
	}
	fmt.Fprintf(&b, "HTTP: %s\n", cfg.HTTPAddr)
	if cfg.TLSDomain != "" {
		fmt.Fprintf(&b, "TLS: %s (cache %s)\n", cfg.TLSDomain, cfg.TLSCacheDir)
	}
	fmt.Fprintf(&b, "Currency: %s\n", cfg.Currency)
	fmt.Fprintf(&b, "Log level: %s", cfg.LogLevel)
	return b.String()
}

// RunTUI launches the terminal configuration wizard and writes the result to path.
func RunTUI(path string) error {
	answers := DefaultAnswers()
	var confirm bool

	step := func(title string) {
		fmt.Print("\033[H\033[2J")
		fmt.Println(headerStyle.Render("FUNDLEDGER CONFIG WIZARD"))
		fmt.Println(stepStyle.Render(title))
	}

	step("STEP 1: STORAGE")
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Every ledger change is appended to a write-ahead log.\n"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("WAL directory").
				Value(&answers.WALDir).
				Validate(notEmpty("WAL directory")),
			huh.NewInput().
				Title("Segment threshold").
				Description("Records per WAL segment, empty for the default").
				Value(&answers.SegmentThreshold),
		),
	).Run()
	if err != nil {
		return err
	}

	step("STEP 2: SERVER")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("HTTP listen address").
				Description("host:port, e.g. :8080").
				Value(&answers.HTTPAddr).
				Validate(validateAddr),
			huh.NewInput().
				Title("TLS domain").
				Description("Leave empty to serve plain HTTP").
				Value(&answers.TLSDomain),
			huh.NewInput().
				Title("Certificate cache directory").
				Value(&answers.TLSCacheDir),
		),
	).Run()
	if err != nil {
		return err
	}

	step("STEP 3: DISPLAY")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Currency").
				Description("ISO 4217 code used to format amounts").
				Value(&answers.Currency).
				Validate(validateCurrency),
			huh.NewSelect[string]().
				Title("Log level").
				Options(
					huh.NewOption("Debug", "debug"),
					huh.NewOption("Info", "info"),
					huh.NewOption("Warn", "warn"),
					huh.NewOption("Error", "error"),
				).
				Value(&answers.LogLevel).
				Validate(validateLogLevel),
		),
	).Run()
	if err != nil {
		return err
	}

	cfg, err := answers.Build()
	if err != nil {
		return err
	}

	step("FINAL CONFIRMATION")
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(Summary(cfg)))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}
	if !confirm {
		return errors.New("setup cancelled by user")
	}

	if err := config.Save(path, cfg); err != nil {
		return err
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\n✓ Configuration saved to %s", path)))
	time.Sleep(500 * time.Millisecond)
	return nil
}

func notEmpty(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s cannot be empty", name)
		}
		return nil
	}
}

func validateAddr(s string) error {
	if _, _, err := net.SplitHostPort(strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("invalid listen address %q: must be host:port", s)
	}
	return nil
}

func validateCurrency(s string) error {
	if money.GetCurrency(strings.ToUpper(strings.TrimSpace(s))) == nil {
		return fmt.Errorf("unknown currency %q", s)
	}
	return nil
}

func validateLogLevel(s string) error {
	_, err := zap.ParseAtomicLevel(s)
	return err
}
