package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rxtech-lab/argo-pulse/pkg/errors"
)

// DevelopmentVersion marks a build without a release tag.
const DevelopmentVersion = "main"

// CheckReportCompatibility checks whether a report written by reportVersion can
// be read by a binary at binaryVersion.
//
// Compatibility Rules:
//   - If either version is "main" or the report carries no version, the check is skipped
//   - Major versions must match exactly
//   - The report's minor version must not be newer than the binary's
//   - Patch versions can differ
//
// Examples:
//   - Binary 1.2.0, Report 1.2.0 -> OK
//   - Binary 1.2.0, Report 1.2.7 -> OK (patch differs)
//   - Binary 1.3.0, Report 1.2.0 -> OK (older report)
//   - Binary 1.2.0, Report 1.3.0 -> ERROR (report written by a newer minor)
//   - Binary 2.0.0, Report 1.2.0 -> ERROR (major differs)
func CheckReportCompatibility(binaryVersion, reportVersion string) error {
	binaryVersion = strings.TrimPrefix(binaryVersion, "v")
	reportVersion = strings.TrimPrefix(reportVersion, "v")

	if binaryVersion == DevelopmentVersion || reportVersion == DevelopmentVersion || reportVersion == "" {
		return nil
	}

	binarySemver, err := semver.NewVersion(binaryVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid binary version '%s'", binaryVersion)
	}

	reportSemver, err := semver.NewVersion(reportVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid report version '%s'", reportVersion)
	}

	if binarySemver.Major() != reportSemver.Major() {
		return errors.Newf(errors.ErrCodeIncompatibleVersion,
			"major version mismatch: binary is %d.x.x but report was written by %d.x.x",
			binarySemver.Major(), reportSemver.Major())
	}

	if reportSemver.Minor() > binarySemver.Minor() {
		return errors.Newf(errors.ErrCodeIncompatibleVersion,
			"report was written by %d.%d.x which is newer than binary %d.%d.x",
			reportSemver.Major(), reportSemver.Minor(),
			binarySemver.Major(), binarySemver.Minor())
	}

	return nil
}
