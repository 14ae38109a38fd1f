package main

import (
	"os"

	"github.com/sirupsen/logrus"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		logrus.StandardLogger().WithError(err).Debug("command failed")
		os.Exit(1)
	}
}
