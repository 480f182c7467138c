package main

import (
	"os"

	"github.com/duffpl/go-dtp/cmd"
	"github.com/sirupsen/logrus"
)

func init() {
	lvl, ok := os.LookupEnv("LOG_LEVEL")
	// LOG_LEVEL not set, let's default to info
	if !ok {
		lvl = "info"
	}
	ll, err := logrus.ParseLevel(lvl)
	if err != nil {
		ll = logrus.InfoLevel
	}
	logrus.SetLevel(ll)
}

func main() {
	cmd.Execute()
}
