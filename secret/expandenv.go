package secret

import (
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/jonwraymond/agentops/faults"
)

var bracedVar = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

const dollarSentinel = "\x00AGENTOPS_DOLLAR\x00"

// ExpandEnvStrict expands $VAR and ${VAR} in s from the environment.
// A ${VAR} that is not set is an error listing every missing name; a bare
// $VAR that is not set expands to "". $$ produces a literal $.
func ExpandEnvStrict(s string) (string, error) {
	return expand(s, os.LookupEnv)
}

func expand(s string, lookup func(string) (string, bool)) (string, error) {
	s = strings.ReplaceAll(s, "$$", dollarSentinel)

	var missing []string
	for _, m := range bracedVar.FindAllStringSubmatch(s, -1) {
		if _, ok := lookup(m[1]); !ok && !slices.Contains(missing, m[1]) {
			missing = append(missing, m[1])
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return "", faults.New("missing required environment variables: "+strings.Join(missing, ", "),
			faults.WithCategory(faults.CategoryConfiguration),
			faults.WithComponent("secret"),
			faults.WithOperation("expand_env"),
		)
	}

	s = os.Expand(s, func(name string) string {
		v, _ := lookup(name)
		return v
	})
	return strings.ReplaceAll(s, dollarSentinel, "$"), nil
}
