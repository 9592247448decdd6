package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/superalgorithm/superalgorithm/pkg/errors"
)

// CheckConfigVersion checks that a run configuration written for
// configVersion can be loaded by a binary at binaryVersion.
//
// Compatibility rules:
//   - "main" on either side (development build) skips the check
//   - major versions must match
//   - the config's minor version must not be newer than the binary's
//   - patch versions may differ
//
// Examples:
//   - binary 0.4.0, config 0.4.2 -> OK
//   - binary 0.4.0, config 0.3.0 -> OK (older config)
//   - binary 0.4.0, config 0.5.0 -> ERROR (config is newer)
//   - binary 1.0.0, config 0.4.0 -> ERROR (major differs)
func CheckConfigVersion(binaryVersion, configVersion string) error {
	binaryVersion = strings.TrimPrefix(binaryVersion, "v")
	configVersion = strings.TrimPrefix(configVersion, "v")

	if binaryVersion == "main" || configVersion == "main" {
		return nil
	}

	binary, err := semver.NewVersion(binaryVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid binary version '%s'", binaryVersion)
	}

	config, err := semver.NewVersion(configVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid config version '%s'", configVersion)
	}

	if binary.Major() != config.Major() {
		return errors.Newf(errors.ErrCodeInvalidConfiguration,
			"major version mismatch: binary is %d.x.x but config requires %d.x.x", binary.Major(), config.Major())
	}

	if config.Minor() > binary.Minor() {
		return errors.Newf(errors.ErrCodeInvalidConfiguration,
			"minor version too new: binary is %d.%d.x but config requires %d.%d.x",
			binary.Major(), binary.Minor(), config.Major(), config.Minor())
	}

	return nil
}
