package client

import (
	"encoding/json"
	"fmt"

	pkgerrors "github.com/pkg/errors"

	"github.com/lumisync/lumi/pkg/config"
	"github.com/lumisync/lumi/pkg/types"
)

// SetBrightness posts a full brightness request and returns the daemon's
// result. Requests with no source field are rejected before the network
// round trip.
func (c *Client) SetBrightness(req types.BrightnessRequest) (*types.BrightnessResult, error) {
	if req.Empty() {
		return nil, pkgerrors.New("brightness request carries no source field")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	ret, err := c.Post("/brightness", string(payload))
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to set brightness")
	}
	return parseResult(ret)
}

// SetNormalized drives the display from a normalized [0, 1] source value.
func (c *Client) SetNormalized(v float64, smooth *bool) (*types.BrightnessResult, error) {
	return c.SetBrightness(types.BrightnessRequest{Brightness: &v, Smooth: smooth})
}

// SetLevel drives the display from a symbolic level name.
func (c *Client) SetLevel(level string, smooth *bool) (*types.BrightnessResult, error) {
	return c.SetBrightness(types.BrightnessRequest{Level: &level, Smooth: smooth})
}

// SetLux drives the display from an ambient light reading.
func (c *Client) SetLux(lux float64, smooth *bool) (*types.BrightnessResult, error) {
	return c.SetBrightness(types.BrightnessRequest{Lux: &lux, Smooth: smooth})
}

// SetPercent drives the display to a raw percent, bypassing calibration.
func (c *Client) SetPercent(percent int, smooth *bool) (*types.BrightnessResult, error) {
	req := types.RawSetRequest{Percent: &percent, Smooth: smooth}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	ret, err := c.Put("/brightness", string(payload))
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to set brightness percent")
	}
	return parseResult(ret)
}

// Auto applies the daemon's time-based level.
func (c *Client) Auto() (*types.BrightnessResult, error) {
	ret, err := c.Post("/auto", "")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to trigger auto brightness")
	}
	return parseResult(ret)
}

// GetBrightness reads the current display brightness.
func (c *Client) GetBrightness() (int, error) {
	ret, err := c.Get("/brightness")
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "failed to get brightness")
	}

	var cur types.CurrentBrightness
	if err := json.Unmarshal([]byte(ret), &cur); err != nil {
		return 0, pkgerrors.Wrapf(err, "failed to unmarshal brightness")
	}
	return cur.Brightness, nil
}

// GetHealth fetches the daemon health summary.
func (c *Client) GetHealth() (*types.Health, error) {
	ret, err := c.Get("/health")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get health")
	}

	var h types.Health
	if err := json.Unmarshal([]byte(ret), &h); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal health")
	}
	return &h, nil
}

func (c *Client) GetConfig() (*config.RawFileConfig, error) {
	ret, err := c.Get("/config")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get config")
	}

	var conf config.RawFileConfig
	if err := json.Unmarshal([]byte(ret), &conf); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal config")
	}

	return &conf, nil
}

func (c *Client) GetVersion() (string, error) {
	ret, err := c.Get("/version")
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to get version")
	}
	// Remove "" around JSON string. I don't want to use a JSON decoder just for this.
	ret = ret[1 : len(ret)-1] // remove the surrounding quotes
	return ret, nil
}

func parseResult(body string) (*types.BrightnessResult, error) {
	var res types.BrightnessResult
	if err := json.Unmarshal([]byte(body), &res); err != nil {
		return nil, fmt.Errorf("failed to unmarshal brightness result: %w", err)
	}
	return &res, nil
}
