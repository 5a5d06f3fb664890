package patterns

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default_library.yaml
var defaultLibrary []byte

const embeddedSource = "<embedded>"

// libraryFile is the on-disk shape of a pattern library.
type libraryFile struct {
	Version string `yaml:"version"`
	Rules   []Rule `yaml:"rules"`
}

// Default returns the built-in FP-01 library. It panics if the embedded table
// is invalid, which is caught by the package tests.
func Default() *Library {
	lib, err := parse(bytes.NewReader(defaultLibrary), embeddedSource)
	if err != nil {
		panic(fmt.Sprintf("embedded pattern library is invalid: %v", err))
	}
	return lib
}

// LoadFile reads and validates a pattern library from a YAML file.
func LoadFile(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, newConfigError(path, -1, "", "failed to read file", err)
	}
	return parse(bytes.NewReader(data), path)
}

// Load reads and validates a pattern library from r.
func Load(r io.Reader) (*Library, error) {
	return parse(r, "<reader>")
}

// New builds a library directly from rules, applying the same validation as
// Load.
func New(version string, rules []Rule) (*Library, error) {
	return build(version, rules, "<inline>")
}

func parse(r io.Reader, source string) (*Library, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file libraryFile
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, newConfigError(source, -1, "", "library is empty", nil)
		}
		return nil, newConfigError(source, -1, "", "failed to parse YAML", err)
	}

	return build(file.Version, file.Rules, source)
}

func build(version string, rules []Rule, source string) (*Library, error) {
	if len(rules) == 0 {
		return nil, newConfigError(source, -1, "", "library contains no rules", nil)
	}
	if strings.TrimSpace(version) == "" {
		version = "unversioned"
	}

	seen := make(map[string]int, len(rules))
	lib := &Library{
		version:  version,
		rules:    make([]Rule, 0, len(rules)),
		compiled: make([]CompiledRule, 0, len(rules)),
	}

	for i, rule := range rules {
		rule.Name = strings.TrimSpace(rule.Name)
		if rule.Name == "" {
			return nil, newConfigError(source, i, "", "rule name is empty", nil)
		}
		if prev, dup := seen[rule.Name]; dup {
			return nil, newConfigError(source, i, rule.Name,
				fmt.Sprintf("duplicate rule name (first defined at rule %d)", prev), nil)
		}
		seen[rule.Name] = i

		if strings.TrimSpace(rule.Matcher) == "" {
			return nil, newConfigError(source, i, rule.Name, "matcher is empty", nil)
		}
		if rule.Kind == "" {
			rule.Kind = KindPhrase
		}
		if !rule.Category.Valid() {
			return nil, newConfigError(source, i, rule.Name,
				fmt.Sprintf("unknown category %q", rule.Category), nil)
		}

		expr, err := compileMatcher(rule)
		if err != nil {
			return nil, newConfigError(source, i, rule.Name, "invalid matcher", err)
		}
		if expr.MatchString("") {
			return nil, newConfigError(source, i, rule.Name, "matcher matches empty text", nil)
		}

		lib.rules = append(lib.rules, rule)
		lib.compiled = append(lib.compiled, CompiledRule{Rule: rule, Expr: expr})
	}

	return lib, nil
}

// compileMatcher turns a rule into a case-insensitive expression that runs
// against whitespace-collapsed text.
func compileMatcher(rule Rule) (*regexp.Regexp, error) {
	switch rule.Kind {
	case KindRegex:
		return regexp.Compile(`(?i)` + rule.Matcher)
	case KindPhrase:
		return regexp.Compile(`(?i)` + phraseExpr(rule.Matcher))
	default:
		return nil, fmt.Errorf("unknown kind %q", rule.Kind)
	}
}

// phraseExpr quotes each word of the phrase and joins them with a single
// space. The phrase matches anywhere, including inside longer words, so
// plurals and suffixed forms ("system recommendations") still count.
func phraseExpr(phrase string) string {
	words := strings.Fields(phrase)
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(quoted, " ")
}
