package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gait.config")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 3000, cfg.TickInterval)
	assert.Equal(t, 0.75, cfg.InitialThreshold)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
# door unit in the hallway
STRATEGY=classifier
DATASET_BACKEND=csv
DATASET_DIR=/var/lib/gait
ACTIVE_METRICS=jaccard, MSQ
ACTUATORS=serial,log
SENSOR_AXIS=accel_mag
TARGET_RATE_HZ=50
CLASSIFIER_MODE=per_dimension
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "classifier", cfg.Strategy)
	assert.Equal(t, []string{"jaccard", "msq"}, cfg.ActiveMetrics)
	assert.Equal(t, []string{"serial", "log"}, cfg.Actuators)
	assert.Equal(t, "accel_mag", cfg.SensorAxis)
	assert.Equal(t, 50.0, cfg.TargetRateHz)
	assert.Equal(t, "per_dimension", cfg.ClassifierMode)
	assert.Equal(t, 8888, cfg.ControlPort)
}

func TestEnvOverride(t *testing.T) {
	path := writeConfig(t, "TICK_INTERVAL=1000\n")
	t.Setenv("GAIT_TICK_INTERVAL", "2500")
	t.Setenv("GAIT_DEVICE_ID", "front-door")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2500, cfg.TickInterval)
	assert.Equal(t, "front-door", cfg.DeviceID)
}

func TestLoadErrors(t *testing.T) {
	cases := map[string]string{
		"unknown key":         "NOPE=1\n",
		"bad int":             "TICK_INTERVAL=soon\n",
		"negative":            "BUFFER_CAPACITY=-3\n",
		"bad enum":            "STRATEGY=vibes\n",
		"classifier no store": "STRATEGY=classifier\n",
		"too many bins":       "FEATURE_BINS=64\n",
		"unknown actuator":    "ACTUATORS=bluetooth\n",
		"gpio without pin":    "ACTUATORS=gpio\n",
		"empty metrics":       "ACTIVE_METRICS= , \n",
		"http without url":    "SENSOR_URL=\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.config"))
	assert.Error(t, err)
}

func TestShippedConfigMatchesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "gait_config.txt"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
