// Package tray implements the system tray UI. It talks to the daemon
// over the HTTP API and follows brightness changes live through the
// websocket event feed.
package tray

import (
	"context"
	"fmt"
	"time"

	"github.com/getlantern/systray"
	"github.com/sirupsen/logrus"

	"github.com/lumisync/lumi/pkg/client"
	"github.com/lumisync/lumi/pkg/events"
)

var quickSets = []int{10, 25, 50, 75, 100}

var apiClient *client.Client

// Run starts the tray UI talking to the daemon at addr. It blocks until
// Quit is chosen.
func Run(addr string) {
	apiClient = client.NewClient(addr)
	systray.Run(onReady, onExit)
}

func onReady() {
	systray.SetTitle("☀ ...")
	systray.SetTooltip("lumi - Display Brightness")

	mBrightness := systray.AddMenuItem("Brightness: -", "Current display brightness")
	mBrightness.Disable()

	systray.AddSeparator()

	quickItems := make([]*systray.MenuItem, len(quickSets))
	for i, p := range quickSets {
		quickItems[i] = systray.AddMenuItem(
			fmt.Sprintf("Set %d%%", p),
			fmt.Sprintf("Set brightness to %d percent", p))
	}

	mAuto := systray.AddMenuItem("Auto (time of day)", "Apply the level for the current time")

	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Quit the tray")

	ctx, cancel := context.WithCancel(context.Background())
	evCh := apiClient.SubscribeEvents(ctx)

	go func() {
		percentChan := make(chan int)
		for i, item := range quickItems {
			go func(p int, clicked <-chan struct{}) {
				for range clicked {
					percentChan <- p
				}
			}(quickSets[i], item.ClickedCh)
		}

		for {
			select {
			case p := <-percentChan:
				systray.SetTitle(fmt.Sprintf("☀ %d%%...", p))
				if _, err := apiClient.SetPercent(p, nil); err != nil {
					logrus.Errorf("failed to set brightness: %v", err)
					showOffline(mBrightness)
				}

			case <-mAuto.ClickedCh:
				res, err := apiClient.Auto()
				if err != nil {
					logrus.Errorf("failed to trigger auto brightness: %v", err)
					showOffline(mBrightness)
					continue
				}
				showBrightness(mBrightness, res.BrightnessSet)

			case ev, ok := <-evCh:
				if !ok {
					evCh = nil
					continue
				}
				handleEvent(mBrightness, ev)

			case <-time.After(30 * time.Second):
				refresh(mBrightness)

			case <-mQuit.ClickedCh:
				cancel()
				systray.Quit()
				return
			}
		}
	}()

	refresh(mBrightness)
}

func onExit() {
	logrus.Info("lumi tray exiting")
}

func handleEvent(mBrightness *systray.MenuItem, ev events.Event) {
	switch ev.Name {
	case events.BrightnessChanged, "state_init":
		payload, err := events.DecodeAs[events.BrightnessChangedEvent](ev)
		if err != nil {
			logrus.Debugf("failed to decode %s event: %v", ev.Name, err)
			return
		}
		showBrightness(mBrightness, payload.Percent)
	case events.TransitionFailed:
		payload, err := events.DecodeAs[events.TransitionEvent](ev)
		if err != nil {
			return
		}
		logrus.Warnf("transition failed: %s", payload.Message)
	}
}

func refresh(mBrightness *systray.MenuItem) {
	current, err := apiClient.GetBrightness()
	if err != nil {
		logrus.Debugf("cannot reach daemon: %v", err)
		showOffline(mBrightness)
		return
	}
	showBrightness(mBrightness, current)
}

func showBrightness(mBrightness *systray.MenuItem, percent int) {
	systray.SetTitle(fmt.Sprintf("☀ %d%%", percent))
	mBrightness.SetTitle(fmt.Sprintf("Brightness: %d%%", percent))
}

func showOffline(mBrightness *systray.MenuItem) {
	systray.SetTitle("🚫 Offline")
	mBrightness.SetTitle("Brightness: daemon offline")
}
