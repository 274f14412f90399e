package signatures

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

//go:embed signatures.json
var embedded []byte

// Default returns the embedded base signature document
func Default() []byte { return embedded }

// CorruptSignaturesError is a fatal load-time validation failure.
// A run must not start while the signature set cannot be trusted
type CorruptSignaturesError struct {
	msg string
}

// Error implements the error interface
func (e *CorruptSignaturesError) Error() string { return e.msg }

func corruptf(format string, a ...any) error {
	return &CorruptSignaturesError{msg: fmt.Sprintf(format, a...)}
}

// IsCorrupt reports whether err is a CorruptSignaturesError
func IsCorrupt(err error) bool {
	var ce *CorruptSignaturesError
	return errors.As(err, &ce)
}

// Set is an immutable, validated signature library. Construct once before a
// scan and share read-only across workers; matching needs no locking
type Set struct {
	sigs   []Signature
	ignore []IgnoreRule
}

// Signatures returns the loaded rules in document order
func (s *Set) Signatures() []Signature { return s.sigs }

// IgnoreRules returns the loaded suppression rules in document order
func (s *Set) IgnoreRules() []IgnoreRule { return s.ignore }

// Len reports how many signatures are loaded
func (s *Set) Len() int { return len(s.sigs) }

var (
	vOnce sync.Once
	vld   *validator.Validate
)

// validate returns the singleton validator with json tag names surfaced
// in field errors
func validate() *validator.Validate {
	vOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("json")
			if tag == "-" || tag == "" {
				return fld.Name
			}
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			return tag
		})
		vld = v
	})
	return vld
}

// rawSignature carries one record through validation before compilation
type rawSignature struct {
	Part        string `json:"part"        validate:"required,oneof=path filename extension"`
	Type        string `json:"type"        validate:"required,oneof=match regex"`
	Pattern     string `json:"pattern"     validate:"required"`
	Caption     string `json:"caption"     validate:"required"`
	Description string `json:"description" validate:"required"`
}

// rawIgnore is the reduced shape for ignore-list records
type rawIgnore struct {
	Part    string `json:"part"    validate:"required,oneof=path filename extension"`
	Type    string `json:"type"    validate:"required,oneof=match regex"`
	Pattern string `json:"pattern" validate:"required"`
}

// Load builds a Set from a base document, an optional custom document merged
// after it, and an optional ignore document. Any validation failure aborts
// with a CorruptSignaturesError; nothing half-loaded is ever returned
func Load(base, custom, ignore []byte) (*Set, error) {
	s := &Set{}

	sigs, err := parseSignatures(base)
	if err != nil {
		return nil, err
	}
	s.sigs = sigs

	if len(custom) > 0 {
		more, err := parseSignatures(custom)
		if err != nil {
			return nil, err
		}
		s.sigs = append(s.sigs, more...)
	}

	if len(ignore) > 0 {
		rules, err := parseIgnore(ignore)
		if err != nil {
			return nil, err
		}
		s.ignore = rules
	}
	return s, nil
}

// LoadFiles is Load over file paths; an empty basePath selects the embedded
// default document, empty custom/ignore paths are skipped
func LoadFiles(basePath, customPath, ignorePath string) (*Set, error) {
	base := Default()
	if basePath != "" {
		b, err := os.ReadFile(basePath)
		if err != nil {
			return nil, corruptf("could not read signature file: %v", err)
		}
		base = b
	}
	var custom, ignore []byte
	if customPath != "" {
		b, err := os.ReadFile(customPath)
		if err != nil {
			return nil, corruptf("could not read custom signature file: %v", err)
		}
		custom = b
	}
	if ignorePath != "" {
		b, err := os.ReadFile(ignorePath)
		if err != nil {
			return nil, corruptf("could not read ignore signature file: %v", err)
		}
		ignore = b
	}
	return Load(base, custom, ignore)
}

func parseSignatures(doc []byte) ([]Signature, error) {
	var raw []rawSignature
	if err := json.Unmarshal(doc, &raw); err != nil {
		return nil, corruptf("could not parse signature file")
	}
	if len(raw) == 0 {
		return nil, corruptf("signature file contains no signatures")
	}
	out := make([]Signature, 0, len(raw))
	for i, r := range raw {
		if err := validateRecord(r, i); err != nil {
			return nil, err
		}
		sig := Signature{
			Part:        Part(r.Part),
			Kind:        Kind(r.Type),
			Pattern:     r.Pattern,
			Caption:     r.Caption,
			Description: r.Description,
		}
		if sig.Kind == KindRegex {
			re, err := compileCI(r.Pattern)
			if err != nil {
				return nil, corruptf("could not compile signature pattern %q (signature %d)", r.Pattern, i+1)
			}
			sig.re = re
		}
		out = append(out, sig)
	}
	return out, nil
}

func parseIgnore(doc []byte) ([]IgnoreRule, error) {
	var raw []rawIgnore
	if err := json.Unmarshal(doc, &raw); err != nil {
		return nil, corruptf("could not parse ignore signature file")
	}
	out := make([]IgnoreRule, 0, len(raw))
	for i, r := range raw {
		if err := validateRecord(r, i); err != nil {
			return nil, err
		}
		rule := IgnoreRule{Part: Part(r.Part), Kind: Kind(r.Type), Pattern: r.Pattern}
		if rule.Kind == KindRegex {
			re, err := compileCI(r.Pattern)
			if err != nil {
				return nil, corruptf("could not compile ignore pattern %q (signature %d)", r.Pattern, i+1)
			}
			rule.re = re
		}
		out = append(out, rule)
	}
	return out, nil
}

// validateRecord maps the first validator failure to a CorruptSignaturesError
// naming the offending key and the 1-based record index
func validateRecord(rec any, idx int) error {
	err := validate().Struct(rec)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return corruptf("invalid signature record (signature %d)", idx+1)
	}
	fe := verrs[0]
	if fe.Tag() == "required" {
		return corruptf("missing required signature key: %s (signature %d)", fe.Field(), idx+1)
	}
	return corruptf("invalid signature %s: %q (signature %d)", fe.Field(), fe.Value(), idx+1)
}

// compileCI compiles a pattern for case-insensitive unanchored search
func compileCI(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile("(?i)" + pattern)
}
