package testutil

import (
	"io"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
)

func init() {
	var isVerbose bool
	for _, arg := range os.Args {
		if arg == "-test.v=true" {
			isVerbose = true
		}
	}

	logrus.SetLevel(logrus.TraceLevel)

	if !isVerbose {
		logrus.StandardLogger().Out = io.Discard
	}
}

// CaptureLogs records every entry written to the standard logger until the
// test completes.
func CaptureLogs(t *testing.T) *logrustest.Hook {
	logger := logrus.StandardLogger()

	original := make(logrus.LevelHooks)
	for level, hooks := range logger.Hooks {
		original[level] = append(original[level], hooks...)
	}

	hook := logrustest.NewLocal(logger)
	t.Cleanup(func() {
		logger.ReplaceHooks(original)
	})
	return hook
}
