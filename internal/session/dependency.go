package session

import (
	"errors"
	"regexp"
	"strings"

	"github.com/itsmostafa/evalctl/internal/engine"
)

// WildcardSpec is the version specification used when none is given.
const WildcardSpec = "*"

var depPattern = regexp.MustCompile(`^([^=\s]+)\s*(=\s*(.+))?$`)

var (
	errDepMissingArgs = errors.New(":add-dependency requires arguments")
	errDepInvalid     = errors.New("invalid :add-dependency command. Expected: name = ... or just name")
)

// ParseDependency parses "name [= spec]". One pair of surrounding double
// quotes is stripped from spec; an absent spec becomes WildcardSpec.
func ParseDependency(args *string) (engine.Dependency, error) {
	if args == nil {
		return engine.Dependency{}, errDepMissingArgs
	}
	m := depPattern.FindStringSubmatch(strings.TrimSpace(*args))
	if m == nil {
		return engine.Dependency{}, errDepInvalid
	}
	spec := WildcardSpec
	if m[2] != "" {
		spec = unquote(strings.TrimSpace(m[3]))
	}
	return engine.Dependency{Name: m[1], Spec: spec}, nil
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

func (s *Session) addDependency(args *string, mode engine.ApplyMode) (engine.Outputs, error) {
	dep, err := ParseDependency(args)
	if err != nil {
		return engine.Outputs{}, err
	}
	if err := s.engine.AddDependency(dep.Name, dep.Spec, mode); err != nil {
		return engine.Outputs{}, err
	}
	s.logger.Debug("dependency added",
		"name", dep.Name,
		"spec", dep.Spec,
		"mode", mode.String(),
	)
	return engine.NewOutputs(), nil
}
