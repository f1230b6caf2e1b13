package version

import (
	"testing"

	"github.com/rxtech-lab/argo-pulse/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckReportCompatibility(t *testing.T) {
	tests := []struct {
		name          string
		binaryVersion string
		reportVersion string
		expectCode    errors.ErrorCode
		errorContains string
	}{
		{
			name:          "exact match",
			binaryVersion: "1.2.0",
			reportVersion: "1.2.0",
		},
		{
			name:          "report patch higher",
			binaryVersion: "1.2.0",
			reportVersion: "1.2.7",
		},
		{
			name:          "binary patch higher",
			binaryVersion: "1.2.9",
			reportVersion: "1.2.0",
		},
		{
			name:          "older report minor",
			binaryVersion: "1.3.0",
			reportVersion: "1.2.0",
		},
		{
			name:          "newer report minor",
			binaryVersion: "1.2.0",
			reportVersion: "1.3.0",
			expectCode:    errors.ErrCodeIncompatibleVersion,
			errorContains: "newer than binary",
		},
		{
			name:          "major version differs",
			binaryVersion: "2.0.0",
			reportVersion: "1.2.0",
			expectCode:    errors.ErrCodeIncompatibleVersion,
			errorContains: "major version mismatch",
		},
		{
			name:          "binary is main",
			binaryVersion: "main",
			reportVersion: "4.0.0",
		},
		{
			name:          "report is main",
			binaryVersion: "1.2.0",
			reportVersion: "main",
		},
		{
			name:          "report without version",
			binaryVersion: "1.2.0",
			reportVersion: "",
		},
		{
			name:          "v prefix on both",
			binaryVersion: "v1.2.0",
			reportVersion: "v1.2.3",
		},
		{
			name:          "prerelease report",
			binaryVersion: "1.2.0",
			reportVersion: "1.2.0-rc.1",
		},
		{
			name:          "build metadata",
			binaryVersion: "1.2.0+build123",
			reportVersion: "1.2.0",
		},
		{
			name:          "invalid binary version",
			binaryVersion: "not-a-version",
			reportVersion: "1.2.0",
			expectCode:    errors.ErrCodeInvalidParameter,
			errorContains: "invalid binary version",
		},
		{
			name:          "invalid report version",
			binaryVersion: "1.2.0",
			reportVersion: "not-a-version",
			expectCode:    errors.ErrCodeInvalidParameter,
			errorContains: "invalid report version",
		},
		{
			name:          "empty binary version",
			binaryVersion: "",
			reportVersion: "1.2.0",
			expectCode:    errors.ErrCodeInvalidParameter,
			errorContains: "invalid binary version",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckReportCompatibility(tt.binaryVersion, tt.reportVersion)

			if tt.expectCode == 0 {
				require.NoError(t, err)

				return
			}

			require.Error(t, err)
			assert.True(t, errors.IsCode(err, tt.expectCode))
			assert.Contains(t, err.Error(), tt.errorContains)
		})
	}
}

func TestGetVersion(t *testing.T) {
	v := GetVersion()
	assert.Equal(t, Version, v)
}
