package secret

import (
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"
)

var bracedVar = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ExpandEnvStrict expands $VAR and ${VAR} in s like os.ExpandEnv, except
// that a braced reference to an unset variable is an error listing every
// such name. "$$" is a literal "$".
func ExpandEnvStrict(s string) (string, error) {
	segments := strings.Split(s, "$$")

	var missing []string
	for i, seg := range segments {
		for _, m := range bracedVar.FindAllStringSubmatch(seg, -1) {
			if _, ok := os.LookupEnv(m[1]); !ok {
				missing = append(missing, m[1])
			}
		}
		segments[i] = os.ExpandEnv(seg)
	}

	if len(missing) > 0 {
		slices.Sort(missing)
		return "", fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(slices.Compact(missing), ", "))
	}
	return strings.Join(segments, "$"), nil
}
