package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lumisync/lumi/pkg/calibration"
	"github.com/lumisync/lumi/pkg/config"
	"github.com/lumisync/lumi/pkg/levels"
	"github.com/lumisync/lumi/pkg/types"
)

type statusData struct {
	health     *types.Health
	brightness int
	config     *config.RawFileConfig
}

// fetchStatusData gathers all data required for the status command from the daemon.
func fetchStatusData() (*statusData, error) {
	health, err := apiClient.GetHealth()
	if err != nil {
		return nil, fmt.Errorf("failed to get daemon health: %w", err)
	}

	brightness, err := apiClient.GetBrightness()
	if err != nil {
		return nil, fmt.Errorf("failed to get brightness: %w", err)
	}

	conf, err := apiClient.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to get config: %w", err)
	}

	return &statusData{
		health:     health,
		brightness: brightness,
		config:     conf,
	}, nil
}

func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		GroupID: gBasic,
		Short:   "Get the current status of lumi",
		Long:    `Get lumi daemon health, display brightness, and configuration.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Get various info first.
			data, err := fetchStatusData()
			if err != nil {
				return err
			}

			config := config.NewFileFromConfig(data.config, "")

			// Daemon health.
			cmd.Println(bold("Daemon status:"))

			healthy := data.health.Status == "ok"
			cmd.Println("  Healthy: " + bool2Text(healthy))
			if !healthy && data.health.LastError != "" {
				cmd.Printf("    Last error: %s\n", color.RedString(data.health.LastError))
			}
			cmd.Printf("  Driver: %s\n", bold("%s", data.health.Driver))
			cmd.Printf("  Version: %s\n", bold("%s", data.health.Version))
			uptime := time.Duration(data.health.UptimeSeconds) * time.Second
			cmd.Printf("  Uptime: %s\n", bold("%s", uptime))

			cmd.Println()

			// Display.
			cmd.Println(bold("Display status:"))

			cmd.Printf("  Current brightness: %s\n", bold("%d%%", data.brightness))
			now := levels.TimeOfDayFrom(time.Now())
			lvl, err := levels.ResolveTimeBased(now, config.Windows())
			if err != nil {
				lvl = config.DefaultLevel()
			}
			if pct, err := config.LevelTable().Resolve(lvl); err == nil {
				target := calibratedPercent(config, pct)
				cmd.Printf("  Level for this time of day: %s\n", bold("%s (%d%%)", lvl, target))
			}

			cmd.Println()

			// Config.
			cmd.Println(bold("Brightness configuration:"))
			cmd.Printf("  Calibration method: %s\n", bold("%s", config.Profile().Method))
			cmd.Printf("  Default level: %s\n", bold("%s", config.DefaultLevel()))
			cmd.Printf("  Smooth transitions: %s\n", bool2Text(config.SmoothTransition()))
			tr := config.Transition()
			cmd.Printf("  Transition: %s\n", bold("%s in %d steps (max %d%% per step)", tr.Duration, tr.Steps, tr.MaxStepDelta))
			cmd.Printf("  Brightness range: %s\n", bold("%d%% to %d%%", config.MinPercent(), config.MaxPercent()))
			if sched := config.AutoSchedule(); sched != "" {
				cmd.Printf("  Auto schedule: %s\n", bold("%s", sched))
			} else {
				cmd.Println("  Auto schedule: " + bool2Text(false))
			}

			cmd.Println()

			cmd.Println(bold("Levels:"))
			table := config.LevelTable()
			names := make([]levels.Level, 0, len(table))
			for name := range table {
				names = append(names, name)
			}
			sort.Slice(names, func(i, j int) bool { return table[names[i]] < table[names[j]] })
			for _, name := range names {
				target := calibratedPercent(config, table[name])
				cmd.Printf("  %-12s %.2f (%d%% on this display)\n", name, table[name], target)
			}

			if windows := config.Windows(); len(windows) > 0 {
				cmd.Println()
				cmd.Println(bold("Time windows:"))
				for _, w := range windows {
					name := w.Name
					if name == "" {
						name = "-"
					}
					cmd.Printf("  %s-%s  %-12s (%s)\n", w.Start, w.End, w.Level, name)
				}
			}

			return nil
		},
	}
}

// calibratedPercent mirrors the daemon's level resolution so status can
// show what a level would produce on this display.
func calibratedPercent(conf config.Config, normalized float64) int {
	p := calibration.Calibrate(normalized, conf.Profile())
	if p < conf.MinPercent() {
		return conf.MinPercent()
	}
	if p > conf.MaxPercent() {
		return conf.MaxPercent()
	}
	return p
}

func bool2Text(b bool) string {
	if b {
		return color.New(color.Bold, color.FgGreen).Sprint("✔")
	}
	return color.New(color.Bold, color.FgRed).Sprint("✘")
}

func bold(format string, a ...interface{}) string {
	return color.New(color.Bold).Sprintf(format, a...)
}
