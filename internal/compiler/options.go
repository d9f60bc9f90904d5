package compiler

import "golang.org/x/mod/semver"

// OutputFormat is the closed set of ways a compile's artifact may be
// rendered for the driver.
type OutputFormat string

const (
	FormatBinary   OutputFormat = "binary"
	FormatHex      OutputFormat = "hex"
	FormatAssembly OutputFormat = "assembly"
	FormatJSON     OutputFormat = "json"
)

// MinTargetVersion and MaxTargetVersion bound the accepted target_version
// range.
const (
	MinTargetVersion = "3.0"
	MaxTargetVersion = "3.5"
)

// Options is the compiler's closed option set.
type Options struct {
	OptimizationLevel int          // 0..=3
	TargetVersion     string       // "3.0".."3.5"
	OutputFormat      OutputFormat // what Compile's Rendered field holds
	IncludeSourceMap  bool
	IncludeDebugInfo  bool
	ContractName      string
	ABIExportPrefix   string
}

// DefaultOptions returns the option set a bare invocation uses: no
// optimization, the earliest target version, binary output, no optional
// products.
func DefaultOptions() Options {
	return Options{
		OptimizationLevel: 0,
		TargetVersion:     MinTargetVersion,
		OutputFormat:      FormatBinary,
		ContractName:      "Contract",
		ABIExportPrefix:   "external_",
	}
}

// validateTargetVersion reports whether v falls within
// [MinTargetVersion, MaxTargetVersion], comparing as semver so "3.10"
// (were it ever introduced) would correctly sort after "3.5" instead of
// before it as a plain string compare would.
func validateTargetVersion(v string) bool {
	cur := "v" + v
	if !semver.IsValid(cur) {
		return false
	}
	return semver.Compare(cur, "v"+MinTargetVersion) >= 0 && semver.Compare(cur, "v"+MaxTargetVersion) <= 0
}
