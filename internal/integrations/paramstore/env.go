package paramstore

import (
	"context"
	"fmt"
	"os"
	"strings"
)

var (
	_ Getter = (*Client)(nil)
	_ Getter = (*Env)(nil)
)

// Env reads parameters from process environment variables at call time.
type Env struct {
	lookup func(string) (string, bool)
}

func NewEnv() *Env {
	return &Env{lookup: os.LookupEnv}
}

func (e *Env) GetParameter(_ context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("paramstore: name is required")
	}
	lookup := os.LookupEnv
	if e != nil && e.lookup != nil {
		lookup = e.lookup
	}
	v, ok := lookup(name)
	if !ok || strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("paramstore: env %q: %w", name, ErrNotFound)
	}
	return v, nil
}
