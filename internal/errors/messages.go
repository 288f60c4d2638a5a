package errors

import "fmt"

// Common error messages for the relnote CLI.
// These templates ensure consistent, actionable error messages.

// MetadataNotFound reports a missing or unreadable project header.
func MetadataNotFound(path string, err error) *CLIError {
	return WrapWithMessage(err, Prerequisite,
		fmt.Sprintf("cannot read project metadata from %s", path),
		"Run relnote from the top of a configured source tree (after ./configure)",
		"Or point config_header at the generated header: RELNOTE_CONFIG_HEADER=build/config.h",
	)
}

// MetadataIncomplete reports a header that lacks PACKAGE_NAME or PACKAGE_VERSION.
func MetadataIncomplete(path string, err error) *CLIError {
	return WrapWithMessage(err, Prerequisite,
		fmt.Sprintf("incomplete project metadata in %s", path),
		"Check that configure defines PACKAGE_NAME and PACKAGE_VERSION",
	)
}

// ConfigParseError creates an error for an invalid config file.
func ConfigParseError(err error) *CLIError {
	return WrapWithMessage(err, Configuration,
		"failed to load configuration",
		"Check .relnote/config.yml and ~/.config/relnote/config.yml for typos",
		"Print a commented template with: relnote config template",
	)
}

// GitNotRepository creates an error when the repository path is not a git repository.
func GitNotRepository(path string) *CLIError {
	return NewPrerequisiteError(
		fmt.Sprintf("not a git repository: %s", path),
		"Run relnote inside the project checkout",
		"Or pass --repo <path>",
	)
}

// TagNotFound reports a boundary tag that does not exist.
func TagNotFound(tag string, err error) *CLIError {
	return WrapWithMessage(err, Argument,
		fmt.Sprintf("previous release tag %q is unusable", tag),
		"List tags with: git tag --sort=-creatordate",
		"Pass the right one with --prev-tag <tag>",
	)
}

// TagAlreadyExists reports that the release tag was already created.
func TagAlreadyExists(tag string) *CLIError {
	return NewPrerequisiteError(
		fmt.Sprintf("tag %s already exists", tag),
		"Bump PACKAGE_VERSION in configure and re-run configure",
		"Or delete the tag if it was created by mistake: git tag -d "+tag,
	)
}

// TaggerMissing reports that no tagger identity is configured.
func TaggerMissing() *CLIError {
	return NewConfigError(
		"no tagger identity configured",
		"Set it with: git config --global user.name \"Your Name\"",
		"And: git config --global user.email you@example.org",
	)
}

// UploadFailed wraps a failed scp/install-module step.
func UploadFailed(err error) *CLIError {
	return WrapWithMessage(err, Runtime,
		"tarball upload failed",
		"Check your SSH access with: ssh <username>@<server>",
		"Set upload.username if it differs from your local user",
	)
}

// MailFailed wraps a failed mail submission.
func MailFailed(err error) *CLIError {
	return WrapWithMessage(err, Runtime,
		"announcement could not be sent",
		"Check that the mail command works: echo test | sendmail -t",
		"Or change mail.command in the configuration",
	)
}

// NewsWriteFailed wraps a failure to update the NEWS file.
func NewsWriteFailed(path string, err error) *CLIError {
	return WrapWithMessage(err, Runtime,
		fmt.Sprintf("cannot update %s", path),
		"Check file permissions: ls -la "+path,
	)
}

// NewsVersionNotFound reports a NEWS lookup for a version that has no entry.
func NewsVersionNotFound(version string, available []string) *CLIError {
	remediation := []string{"Generate it with: relnote --write-news"}
	if len(available) > 0 {
		remediation = append(remediation, fmt.Sprintf("Versions in NEWS: %v", available))
	}
	return NewArgumentError(fmt.Sprintf("no NEWS entry for version %s", version), remediation...)
}

// InvalidFormat reports an unknown --format value.
func InvalidFormat(format string, valid []string) *CLIError {
	return NewArgumentErrorWithUsage(
		fmt.Sprintf("invalid output format: %s", format),
		"relnote --changelog --format text|color|yaml",
		fmt.Sprintf("Valid formats: %v", valid),
	)
}
