package secret

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/employeesvc/observe"
)

// Definition lists the candidate sources for one secret.
// Empty fields mean the corresponding source is not configured.
type Definition struct {
	// Name is the logical secret name, e.g. "database_password".
	Name string

	// FilePath is a file whose trimmed contents hold the value.
	FilePath string

	// EnvVar is an environment variable holding the value.
	EnvVar string

	// Default is a literal used when no other source yields a value.
	Default string
}

// Conventional builds a Definition for a secret exposed as the environment
// variable envVar, honouring the envVar+"_FILE" convention for file-based
// secrets. The _FILE variable is read once, here.
func Conventional(name, envVar string, env LookupEnvFunc) Definition {
	if env == nil {
		env = OSEnv
	}
	path, _ := env(envVar + "_FILE")
	return Definition{
		Name:     name,
		FilePath: strings.TrimSpace(path),
		EnvVar:   envVar,
	}
}

// Config enumerates the secrets a Resolver knows about.
type Config struct {
	Definitions []Definition
}

// Validate checks that every definition is named and names are unique.
func (c Config) Validate() error {
	seen := make(map[string]struct{}, len(c.Definitions))
	for i, def := range c.Definitions {
		name := strings.TrimSpace(def.Name)
		if name == "" {
			return fmt.Errorf("%w: definition %d has no name", ErrInvalidDefinition, i)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: duplicate secret %q", ErrInvalidDefinition, name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// Resolution is the outcome of a successful lookup.
type Resolution struct {
	Name   string
	Value  string
	Source SourceKind
}

// String never includes the value.
func (r Resolution) String() string {
	return fmt.Sprintf("%s (from %s)", r.Name, r.Source)
}

// Getter is implemented by anything that can produce a secret value by name.
type Getter interface {
	Resolve(ctx context.Context, name string) (string, error)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for diagnostics. Values are never logged.
func WithLogger(l observe.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithEnv sets the environment lookup used by env sources.
func WithEnv(fn LookupEnvFunc) Option {
	return func(r *Resolver) {
		if fn != nil {
			r.env = fn
		}
	}
}

// WithReadFile sets the file reader used by file sources.
func WithReadFile(fn ReadFileFunc) Option {
	return func(r *Resolver) {
		if fn != nil {
			r.readFile = fn
		}
	}
}

// Resolver resolves secrets from their configured sources.
//
// Contract:
//   - Concurrency: safe for concurrent use; holds no mutable state.
//   - Context: cancellation is checked before each source.
//   - Errors: unresolvable secrets return *NotConfiguredError.
type Resolver struct {
	defs     map[string]Definition
	env      LookupEnvFunc
	readFile ReadFileFunc
	logger   observe.Logger
}

// NewResolver creates a resolver for the secrets in cfg.
func NewResolver(cfg Config, opts ...Option) (*Resolver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Resolver{
		defs:   make(map[string]Definition, len(cfg.Definitions)),
		env:    OSEnv,
		logger: observe.NopLogger(),
	}
	for _, def := range cfg.Definitions {
		def.Name = strings.TrimSpace(def.Name)
		r.defs[def.Name] = def
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Names returns the configured secret names in sorted order.
func (r *Resolver) Names() []string {
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the value of the named secret.
func (r *Resolver) Resolve(ctx context.Context, name string) (string, error) {
	res, err := r.Lookup(ctx, name)
	if err != nil {
		return "", err
	}
	return res.Value, nil
}

// Lookup resolves the named secret and reports which source supplied it.
func (r *Resolver) Lookup(ctx context.Context, name string) (Resolution, error) {
	def, ok := r.defs[name]
	if !ok {
		return Resolution{}, &NotConfiguredError{Name: name}
	}
	return r.lookupSources(ctx, name, r.sources(def))
}

// lookupSources tries srcs in order.
func (r *Resolver) lookupSources(ctx context.Context, name string, srcs []Source) (Resolution, error) {
	for _, src := range srcs {
		if err := ctx.Err(); err != nil {
			return Resolution{}, err
		}

		value, err := src.Fetch(ctx)
		if err == nil {
			r.logger.Debug(ctx, "secret resolved",
				observe.Field{Key: "secret.name", Value: name},
				observe.Field{Key: "secret.source", Value: string(src.Kind())},
			)
			return Resolution{Name: name, Value: value, Source: src.Kind()}, nil
		}
		if !errors.Is(err, ErrSourceUnavailable) {
			return Resolution{}, fmt.Errorf("secret %q: %s source: %w", name, src.Kind(), err)
		}

		var unreadable *FileUnreadableError
		if errors.As(err, &unreadable) {
			r.logger.Warn(ctx, "secret file unreadable, trying next source",
				observe.Field{Key: "secret.name", Value: name},
				observe.Field{Key: "secret.file", Value: unreadable.Path},
				observe.Field{Key: "error", Value: unreadable.Err.Error()},
			)
		}
	}

	return Resolution{}, &NotConfiguredError{Name: name}
}

// ResolveAll resolves the named secrets concurrently. The first failure
// cancels the remaining lookups and is returned.
func (r *Resolver) ResolveAll(ctx context.Context, names ...string) (map[string]string, error) {
	var (
		mu  sync.Mutex
		out = make(map[string]string, len(names))
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, name := range names {
		g.Go(func() error {
			value, err := r.Resolve(gctx, name)
			if err != nil {
				return err
			}
			mu.Lock()
			out[name] = value
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Resolver) sources(def Definition) []Source {
	srcs := make([]Source, 0, 3)
	if def.FilePath != "" {
		srcs = append(srcs, FileSource{Secret: def.Name, Path: def.FilePath, ReadFile: r.readFile})
	}
	if def.EnvVar != "" {
		srcs = append(srcs, EnvSource{Var: def.EnvVar, LookupEnv: r.env})
	}
	if def.Default != "" {
		srcs = append(srcs, DefaultSource{Value: def.Default})
	}
	return srcs
}

var _ Getter = (*Resolver)(nil)
