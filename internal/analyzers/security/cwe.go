package security

// CWE tier classification drives the severity multiplier in spec.md §4.7.
// Grounded verbatim on seraph/core/security.py's _CWE_TIER_0/_1/_2 frozensets.
var (
	tier0 = map[string]bool{"CWE-703": true, "CWE-390": true}
	tier1 = map[string]bool{"CWE-20": true, "CWE-79": true, "CWE-89": true, "CWE-117": true}
	tier2 = map[string]bool{"CWE-78": true, "CWE-94": true, "CWE-259": true, "CWE-798": true, "CWE-327": true}
)

// cweWeight returns the tier multiplier for a CWE id.
func cweWeight(cweID string) float64 {
	switch {
	case tier0[cweID]:
		return 0.1
	case tier1[cweID]:
		return 3
	case tier2[cweID]:
		return 2
	default:
		return 1
	}
}

// gosecCWEMap maps gosec rule IDs to CWE identifiers, retargeting
// seraph/core/security.py's BANDIT_CWE_MAP to the Go ecosystem's gosec.
var gosecCWEMap = map[string]string{
	"G201": "CWE-89",  // SQL string formatting
	"G202": "CWE-89",  // SQL string concatenation
	"G204": "CWE-78",  // subprocess with variable
	"G401": "CWE-327", // weak crypto (MD5/DES/etc)
	"G501": "CWE-327", // import crypto/md5
	"G502": "CWE-327", // import crypto/des
	"G101": "CWE-798", // hardcoded credentials
	"G104": "CWE-703", // unhandled error (noise tier)
	"G404": "CWE-330", // weak random source
	"G301": "CWE-259", // poor file permissions
	"G302": "CWE-259",
	"G306": "CWE-259",
}

// cweFor resolves a finding's CWE id: the tool-supplied value if present,
// else the static mapping-table lookup, else empty.
func cweFor(toolCWE, gosecCode string) string {
	if toolCWE != "" {
		return toolCWE
	}
	return gosecCWEMap[gosecCode]
}
