package daemon

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/lumisync/lumi/pkg/config"
	"github.com/lumisync/lumi/pkg/levels"
	"github.com/lumisync/lumi/pkg/types"
	"github.com/lumisync/lumi/pkg/version"
)

// statusFor maps dispatch errors onto HTTP status codes: bad input is the
// client's fault, anything else is a driver failure.
func statusFor(err error) int {
	if errors.Is(err, ErrInvalidInput) || errors.Is(err, levels.ErrUnknownLevel) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func setBrightness(c *gin.Context) {
	var req types.BrightnessRequest
	if err := c.BindJSON(&req); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	res, err := controller.Dispatch(req)
	if err != nil {
		code := statusFor(err)
		if code == http.StatusInternalServerError {
			logrus.Errorf("setBrightness failed: %v", err)
		}
		c.IndentedJSON(code, err.Error())
		_ = c.AbortWithError(code, err)
		return
	}

	c.IndentedJSON(http.StatusOK, resultToWire(res))
}

func setBrightnessRaw(c *gin.Context) {
	var req types.RawSetRequest
	if err := c.BindJSON(&req); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	if req.Percent == nil {
		err := fmt.Errorf("%w: missing percent", ErrInvalidInput)
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	res, err := controller.SetPercent(*req.Percent, req.Smooth)
	if err != nil {
		code := statusFor(err)
		if code == http.StatusInternalServerError {
			logrus.Errorf("setBrightnessRaw failed: %v", err)
		}
		c.IndentedJSON(code, err.Error())
		_ = c.AbortWithError(code, err)
		return
	}

	c.IndentedJSON(http.StatusOK, resultToWire(res))
}

func getBrightness(c *gin.Context) {
	current, err := controller.Current()
	if err != nil {
		logrus.Errorf("getBrightness failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	c.IndentedJSON(http.StatusOK, types.CurrentBrightness{
		Brightness: current,
		Timestamp:  time.Now().Format(time.RFC3339),
	})
}

func autoBrightness(c *gin.Context) {
	res, err := controller.Auto()
	if err != nil {
		code := statusFor(err)
		if code == http.StatusInternalServerError {
			logrus.Errorf("autoBrightness failed: %v", err)
		}
		c.IndentedJSON(code, err.Error())
		_ = c.AbortWithError(code, err)
		return
	}

	c.IndentedJSON(http.StatusOK, resultToWire(res))
}

func getHealth(c *gin.Context) {
	h := types.Health{
		Status:        "ok",
		Version:       version.Version,
		Driver:        conf.Driver(),
		UptimeSeconds: int64(time.Since(startedAt).Seconds()),
	}

	if current, err := controller.Current(); err == nil {
		h.Brightness = &current
	} else {
		h.Status = "degraded"
		h.LastError = err.Error()
	}

	if _, _, lastErr := transitioner.Status(); lastErr != nil {
		h.Status = "degraded"
		h.LastError = lastErr.Error()
	}

	c.IndentedJSON(http.StatusOK, h)
}

func getConfig(c *gin.Context) {
	fc, err := config.NewRawFileConfigFromConfig(conf)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.IndentedJSON(http.StatusOK, fc)
}

func getVersion(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, version.Version)
}

func resultToWire(res DispatchResult) types.BrightnessResult {
	out := types.BrightnessResult{
		Status:        "success",
		BrightnessSet: res.Percent,
		Source:        res.Source,
		Level:         string(res.Level),
		Smooth:        res.Smooth,
		Timestamp:     time.Now().Format(time.RFC3339),
	}
	if res.Previous >= 0 {
		prev := res.Previous
		out.PreviousBrightness = &prev
	}
	return out
}
