package bridge

import (
	"github.com/Masterminds/semver/v3"
	"github.com/golang/glog"
)

// minBridgeVersion is the oldest bridge protocol this client speaks.
const minBridgeVersion = "1.0.0"

// versionSupported reports whether the bridge protocol version is recent
// enough for this client. An unparseable version is treated as unsupported.
func versionSupported(bridgeVersion string) bool {
	vBridge, err := semver.NewVersion(bridgeVersion)
	if err != nil {
		glog.Warningf("invalid bridge version:%s %s", bridgeVersion, err.Error())
		return false
	}

	vMin, err := semver.NewVersion(minBridgeVersion)
	if err != nil {
		glog.Warningf("invalid min version:%s %s", minBridgeVersion, err.Error())
		return false
	}

	return !vBridge.LessThan(vMin)
}
