package main

import (
	"github.com/sirupsen/logrus"

	"github.com/code-payments/nft-staking/pkg/app"
)

func main() {
	if err := app.Run(&node{}); err != nil {
		logrus.WithError(err).Fatal("error running node")
	}
}
