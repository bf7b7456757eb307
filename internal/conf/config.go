package conf

import (
	"os"

	"github.com/golang/glog"
)

const devModeEnv = "GO_ENV"

type config struct {
	DevMode bool
}

var Config config

func Init() {
	initFromEnv()
}

func initFromEnv() {
	env := os.Getenv(devModeEnv)
	Config.DevMode = env == "development" || env == "dev"
	glog.Infof("Config.DevMode:%t", Config.DevMode)
}

func GetDevMode() bool {
	return Config.DevMode
}
