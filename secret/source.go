package secret

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// SourceKind identifies where a secret value came from.
type SourceKind string

const (
	SourceFile    SourceKind = "file"
	SourceEnv     SourceKind = "env"
	SourceDefault SourceKind = "default"
)

// LookupEnvFunc looks up an environment variable, like os.LookupEnv.
type LookupEnvFunc func(key string) (string, bool)

// ReadFileFunc reads a whole file, like os.ReadFile.
type ReadFileFunc func(path string) ([]byte, error)

// OSEnv reads the process environment.
var OSEnv LookupEnvFunc = os.LookupEnv

// MapEnv returns a LookupEnvFunc backed by a map. Useful in tests and for
// configuration that was captured up front.
func MapEnv(m map[string]string) LookupEnvFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

// Source yields a candidate value for a single secret.
//
// Contract:
//   - Fetch returns (value, nil) with a non-empty value on success.
//   - Errors matching ErrSourceUnavailable mean "try the next source".
//   - Any other error is fatal and stops resolution.
type Source interface {
	Kind() SourceKind
	Fetch(ctx context.Context) (string, error)
}

// FileSource reads a secret from a file and trims surrounding whitespace.
type FileSource struct {
	Secret   string
	Path     string
	ReadFile ReadFileFunc
}

// Kind returns SourceFile.
func (s FileSource) Kind() SourceKind { return SourceFile }

// Fetch reads the file. Read failures are reported as *FileUnreadableError.
func (s FileSource) Fetch(_ context.Context) (string, error) {
	if s.Path == "" {
		return "", fmt.Errorf("%w: no file configured", ErrSourceUnavailable)
	}
	read := s.ReadFile
	if read == nil {
		read = os.ReadFile
	}
	b, err := read(s.Path)
	if err != nil {
		return "", &FileUnreadableError{Name: s.Secret, Path: s.Path, Err: err}
	}
	value := strings.TrimSpace(string(b))
	if value == "" {
		return "", fmt.Errorf("%w: file %q is empty", ErrSourceUnavailable, s.Path)
	}
	return value, nil
}

// EnvSource reads a secret from an environment variable. Set-but-empty
// variables are treated the same as unset ones.
type EnvSource struct {
	Var       string
	LookupEnv LookupEnvFunc
}

// Kind returns SourceEnv.
func (s EnvSource) Kind() SourceKind { return SourceEnv }

// Fetch returns the variable's value verbatim.
func (s EnvSource) Fetch(_ context.Context) (string, error) {
	if s.Var == "" {
		return "", fmt.Errorf("%w: no environment variable configured", ErrSourceUnavailable)
	}
	lookup := s.LookupEnv
	if lookup == nil {
		lookup = OSEnv
	}
	value, ok := lookup(s.Var)
	if !ok || value == "" {
		return "", fmt.Errorf("%w: %s is not set", ErrSourceUnavailable, s.Var)
	}
	return value, nil
}

// DefaultSource yields a literal fallback value.
type DefaultSource struct {
	Value string
}

// Kind returns SourceDefault.
func (s DefaultSource) Kind() SourceKind { return SourceDefault }

// Fetch returns the literal, or ErrSourceUnavailable when it is empty.
func (s DefaultSource) Fetch(_ context.Context) (string, error) {
	if s.Value == "" {
		return "", fmt.Errorf("%w: no default", ErrSourceUnavailable)
	}
	return s.Value, nil
}
