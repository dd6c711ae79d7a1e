// Package validation checks request bodies against compiled JSON Schemas.
package validation

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/garnizeh/devmarket/internal/apperr"
	"github.com/qri-io/jsonschema"
)

// Validator holds compiled schemas keyed by file name without extension.
type Validator struct {
	src   fs.FS
	mu    sync.RWMutex
	cache map[string]*jsonschema.Schema
}

// New compiles every *.json file at the root of schemaFS.
func New(schemaFS fs.FS) (*Validator, error) {
	v := &Validator{src: schemaFS, cache: make(map[string]*jsonschema.Schema)}
	if err := v.Reload(); err != nil {
		return nil, err
	}

	return v, nil
}

// Reload recompiles all schemas. The previous set stays in place on error.
func (v *Validator) Reload() error {
	files, err := fs.Glob(v.src, "*.json")
	if err != nil {
		return fmt.Errorf("list schemas: %w", err)
	}

	newCache := make(map[string]*jsonschema.Schema, len(files))
	for _, f := range files {
		b, err := fs.ReadFile(v.src, f)
		if err != nil {
			return fmt.Errorf("read schema %s: %w", f, err)
		}

		rs := &jsonschema.Schema{}
		if err := json.Unmarshal(b, rs); err != nil {
			return fmt.Errorf("compile schema %s: %w", f, err)
		}
		newCache[strings.TrimSuffix(f, path.Ext(f))] = rs
	}

	v.mu.Lock()
	v.cache = newCache
	v.mu.Unlock()

	return nil
}

// Names lists the loaded schemas in order.
func (v *Validator) Names() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make([]string, 0, len(v.cache))
	for n := range v.cache {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Validate checks data against the named schema. Malformed JSON and schema
// violations are reported as apperr.ErrValidation; an unknown schema name is
// a plain error.
func (v *Validator) Validate(ctx context.Context, name string, data []byte) error {
	v.mu.RLock()
	s, ok := v.cache[name]
	v.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no schema named %q", name)
	}

	if !json.Valid(data) {
		return apperr.Validationf("request body is not valid JSON")
	}

	verrs, err := s.ValidateBytes(ctx, data)
	if err != nil {
		return apperr.Validationf("request body: %v", err)
	}
	if len(verrs) > 0 {
		msgs := make([]string, 0, len(verrs))
		for _, e := range verrs {
			if e.PropertyPath != "" && e.PropertyPath != "/" {
				msgs = append(msgs, e.PropertyPath+": "+e.Message)
				continue
			}
			msgs = append(msgs, e.Message)
		}
		return apperr.Validationf("%s", strings.Join(msgs, "; "))
	}

	return nil
}
