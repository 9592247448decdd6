package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/superalgorithm/superalgorithm/pkg/errors"
)

func TestCheckConfigVersion(t *testing.T) {
	tests := []struct {
		name          string
		binaryVersion string
		configVersion string
		expectError   bool
		errorContains string
	}{
		{name: "exact match", binaryVersion: "0.4.0", configVersion: "0.4.0"},
		{name: "binary patch higher", binaryVersion: "0.4.3", configVersion: "0.4.0"},
		{name: "config patch higher", binaryVersion: "0.4.0", configVersion: "0.4.7"},
		{name: "older config minor", binaryVersion: "0.4.0", configVersion: "0.2.0"},
		{
			name:          "newer config minor",
			binaryVersion: "0.4.0",
			configVersion: "0.5.0",
			expectError:   true,
			errorContains: "minor version too new",
		},
		{
			name:          "major differs",
			binaryVersion: "1.0.0",
			configVersion: "0.4.0",
			expectError:   true,
			errorContains: "major version mismatch",
		},
		{name: "binary is main", binaryVersion: "main", configVersion: "9.9.9"},
		{name: "config is main", binaryVersion: "0.4.0", configVersion: "main"},
		{name: "v prefix on both", binaryVersion: "v0.4.0", configVersion: "v0.4.1"},
		{name: "prerelease binary", binaryVersion: "0.4.0-rc.1", configVersion: "0.4.0"},
		{name: "build metadata", binaryVersion: "0.4.0+abc", configVersion: "0.4.0"},
		{
			name:          "invalid binary version",
			binaryVersion: "not-a-version",
			configVersion: "0.4.0",
			expectError:   true,
			errorContains: "invalid binary version",
		},
		{
			name:          "empty config version",
			binaryVersion: "0.4.0",
			configVersion: "",
			expectError:   true,
			errorContains: "invalid config version",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckConfigVersion(tt.binaryVersion, tt.configVersion)
			if !tt.expectError {
				assert.NoError(t, err)

				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorContains)
			assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
		})
	}
}

func TestGetVersion(t *testing.T) {
	original := Version
	defer func() { Version = original }()

	Version = "v1.2.3"
	assert.Equal(t, "v1.2.3", GetVersion())
}
