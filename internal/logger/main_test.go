package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog/log"

	"github.com/ajo-platform/ajo-admin/internal/logger"
)

func TestInit(t *testing.T) {
	testCases := []struct {
		name          string
		cfg           logger.Log
		expectError   bool
		expectOutput  bool
		expectJSONOut bool
	}{
		{
			name: "missing service name",
			cfg: logger.Log{
				LogLevel: "info",
				AppName:  "ajo-admin",
			},
			expectError: true,
		},
		{
			name: "missing app name",
			cfg: logger.Log{
				LogLevel:    "info",
				ServiceName: "test",
			},
			expectError: true,
		},
		{
			name: "unknown log level",
			cfg: logger.Log{
				LogLevel:    "loud",
				ServiceName: "test",
				AppName:     "ajo-admin",
			},
			expectError: true,
		},
		{
			name: "console json output",
			cfg: logger.Log{
				LogLevel:    "info",
				ServiceName: "test",
				AppName:     "ajo-admin",
				Console:     logger.Console{Enabled: true},
			},
			expectOutput:  true,
			expectJSONOut: true,
		},
		{
			name: "console writer output",
			cfg: logger.Log{
				LogLevel:    "info",
				ServiceName: "test",
				AppName:     "ajo-admin",
				Console:     logger.Console{Enabled: true, UseConsoleWriter: true},
			},
			expectOutput: true,
		},
		{
			name: "trace level with caller",
			cfg: logger.Log{
				LogLevel:     "trace",
				ServiceName:  "test",
				AppName:      "ajo-admin",
				ReportCaller: true,
				Console:      logger.Console{Enabled: true},
			},
			expectOutput:  true,
			expectJSONOut: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := captureInitOutput(t, tc.cfg)

			if tc.expectError {
				if err == nil {
					t.Fatal("expected an init error")
				}

				return
			}

			if err != nil {
				t.Fatal(err)
			}

			if tc.expectOutput && out == "" {
				t.Error("expected console output but got none")
			}

			if tc.expectJSONOut {
				for _, line := range strings.Split(out, "\n") {
					if line == "" {
						continue
					}

					var decoded map[string]interface{}
					if err := json.Unmarshal([]byte(line), &decoded); err != nil {
						t.Errorf("expected json output but got: %s", line)
					}
				}
			}
		})
	}
}

func alwaysErrFunc() error {
	return errors.New("a test error") //nolint:goerr113
}

// captureInitOutput initializes the logger with cfg, emits one message per
// level and returns whatever landed on stdout and stderr.
func captureInitOutput(t *testing.T, cfg logger.Log) (string, error) {
	t.Helper()

	stdout := os.Stdout
	stderr := os.Stderr

	r, w, _ := os.Pipe()
	os.Stdout = w
	os.Stderr = w

	initErr := logger.Init(cfg)

	if initErr == nil {
		log.Info().Msg("this info message should be seen...")
		log.Error().Err(alwaysErrFunc()).Msg("this err message should be seen...")
		log.Trace().Err(alwaysErrFunc()).Msg("this trace message should be seen...")
	}

	outC := make(chan string)

	go func() {
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, r); err != nil {
			t.Error(err)
		}
		outC <- buf.String()
	}()

	_ = w.Close()
	os.Stdout = stdout
	os.Stderr = stderr

	return <-outC, initErr
}
