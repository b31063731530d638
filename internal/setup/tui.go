// Package setup provides the interactive configuration wizard.
package setup

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
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
			MarginTop(1)
)

type fileConfig struct {
	Anchors        []string `yaml:"anchors"`
	RouteAnchors   []string `yaml:"route_anchors"`
	DataFile       string   `yaml:"data_file"`
	GatherInterval string   `yaml:"gather_interval"`
}

// RunTUI walks the user through initial configuration. It writes tracker
// settings to config.yaml and the credential pair to .env.
func RunTUI() error {
	var (
		apiKey    string
		apiSecret string
		confirm   bool
	)

	anchorsStr := "BTC,USDC"
	dataFile := "database.json"
	intervalStr := "1h"

	fmt.Print("\033[H\033[2J") // Clear screen
	fmt.Println(headerStyle.Render("PORTFOLIO TRACKER SETUP"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Connect your Binance account and pick report currencies."))

	fmt.Println(stepStyle.Render("STEP 1: CREDENTIALS"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Binance API Key").
				Description("Read-only permissions are enough").
				Value(&apiKey).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("api key cannot be empty")
					}
					return nil
				}),
			huh.NewInput().
				Title("Binance API Secret").
				Value(&apiSecret).
				EchoMode(huh.EchoModePassword).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("api secret cannot be empty")
					}
					return nil
				}),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("PORTFOLIO TRACKER SETUP"))
	fmt.Println(stepStyle.Render("STEP 2: REPORTING"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Anchor Currencies").
				Description("Comma separated, totals are reported in each of them").
				Value(&anchorsStr).
				Validate(func(s string) error {
					if len(splitList(s)) == 0 {
						return fmt.Errorf("at least one anchor currency is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("History File").
				Description("Where snapshot history is stored").
				Value(&dataFile),
			huh.NewInput().
				Title("Gather Interval").
				Description("Minimum time between snapshots, e.g. 1h").
				Value(&intervalStr).
				Validate(func(s string) error {
					_, err := time.ParseDuration(s)
					return err
				}),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("PORTFOLIO TRACKER SETUP"))
	fmt.Println(stepStyle.Render("FINAL CONFIRMATION"))

	summary := fmt.Sprintf("Anchors:         %s\nHistory file:    %s\nGather interval: %s",
		anchorsStr, dataFile, intervalStr)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1).Render(summary))

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
		return fmt.Errorf("setup cancelled by user")
	}

	cfg := fileConfig{
		Anchors:        splitList(anchorsStr),
		RouteAnchors:   []string{"USDC", "USDT"},
		DataFile:       dataFile,
		GatherInterval: intervalStr,
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to generate yaml: %w", err)
	}
	if err := os.WriteFile("config.yaml", data, 0644); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}

	env := fmt.Sprintf("BINANCE_API_KEY=%s\nBINANCE_API_SECRET=%s\n", apiKey, apiSecret)
	if err := os.WriteFile(".env", []byte(env), 0600); err != nil {
		return fmt.Errorf("failed to save credentials file: %w", err)
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render("\nConfiguration saved to config.yaml, credentials to .env"))
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, strings.ToUpper(part))
		}
	}
	return out
}
