package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lumisync/lumi/pkg/levels"
	"github.com/lumisync/lumi/pkg/types"
	"github.com/lumisync/lumi/pkg/utils/ptr"
	"github.com/lumisync/lumi/pkg/version"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("%s %s\n", version.Version, version.GitCommit)
		},
	}
}

func NewSetCommand() *cobra.Command {
	var (
		lux      float64
		percent  int
		noSmooth bool
	)

	cmd := &cobra.Command{
		Use:     "set [brightness]",
		Short:   "Set display brightness",
		GroupID: gBasic,
		Long: `Set display brightness.

The positional argument is a normalized brightness from 0 to 1, the scale
phones report. The daemon maps it through the active calibration profile
before touching the display.

Alternatively, pass exactly one of:
  --lux      ambient light in lux, mapped to brightness logarithmically
  --percent  a raw backlight percentage, bypassing calibration entirely`,
		Example: `  lumi set 0.75
  lumi set --lux 320
  lumi set --percent 40 --no-smooth`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var smooth *bool
			if noSmooth {
				smooth = ptr.To(false)
			}

			sources := len(args)
			if cmd.Flags().Changed("lux") {
				sources++
			}
			if cmd.Flags().Changed("percent") {
				sources++
			}
			if sources != 1 {
				return fmt.Errorf("exactly one of [brightness], --lux or --percent is required")
			}

			var (
				ret *types.BrightnessResult
				err error
			)
			switch {
			case cmd.Flags().Changed("percent"):
				ret, err = apiClient.SetPercent(percent, smooth)
				if err != nil {
					return fmt.Errorf("failed to set brightness: %v", err)
				}
			case cmd.Flags().Changed("lux"):
				ret, err = apiClient.SetLux(lux, smooth)
				if err != nil {
					return fmt.Errorf("failed to set brightness: %v", err)
				}
			default:
				value, err2 := parseFloatArg(args, "brightness")
				if err2 != nil {
					return err2
				}
				ret, err = apiClient.SetNormalized(value, smooth)
				if err != nil {
					return fmt.Errorf("failed to set brightness: %v", err)
				}
			}

			logrus.Infof("successfully set brightness to %d%%", ret.BrightnessSet)

			return nil
		},
	}

	f := cmd.Flags()
	f.Float64Var(&lux, "lux", 0, "ambient light level in lux")
	f.IntVar(&percent, "percent", 0, "raw backlight percentage (0-100), bypasses calibration")
	f.BoolVar(&noSmooth, "no-smooth", false, "apply the change immediately instead of ramping")

	return cmd
}

func NewLevelCommand() *cobra.Command {
	noSmooth := false

	names := make([]string, 0, len(levels.All()))
	for _, l := range levels.All() {
		names = append(names, string(l))
	}

	cmd := &cobra.Command{
		Use:       "level [name]",
		Short:     "Set brightness to a named level",
		GroupID:   gBasic,
		ValidArgs: names,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		Long: `Set brightness to a named level.

Levels map to normalized brightness through the daemon configuration, so
"dim" on an OLED panel and "dim" on an office monitor can land on
different percentages.`,
		Example: `  lumi level dim
  lumi level very_bright --no-smooth`,
		RunE: func(_ *cobra.Command, args []string) error {
			var smooth *bool
			if noSmooth {
				smooth = ptr.To(false)
			}

			ret, err := apiClient.SetLevel(args[0], smooth)
			if err != nil {
				return fmt.Errorf("failed to set level: %v", err)
			}

			logrus.Infof("successfully set level %s, brightness is now %d%%", args[0], ret.BrightnessSet)

			return nil
		},
	}

	cmd.Flags().BoolVar(&noSmooth, "no-smooth", false, "apply the change immediately instead of ramping")

	return cmd
}

func NewAutoCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "auto",
		Short:   "Set brightness from the time of day",
		GroupID: gBasic,
		Long: `Set brightness from the time of day.

Picks the level whose configured time window contains the current time
and applies it, the same resolution the daemon runs on its own schedule.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			ret, err := apiClient.Auto()
			if err != nil {
				return fmt.Errorf("failed to set auto brightness: %v", err)
			}

			logrus.Infof("successfully set level %s, brightness is now %d%%", ret.Level, ret.BrightnessSet)

			return nil
		},
	}
}

func NewGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "get",
		Short:   "Print current display brightness",
		GroupID: gBasic,
		RunE: func(cmd *cobra.Command, _ []string) error {
			percent, err := apiClient.GetBrightness()
			if err != nil {
				return fmt.Errorf("failed to get brightness: %v", err)
			}

			cmd.Printf("%d%%\n", percent)

			return nil
		},
	}
}
