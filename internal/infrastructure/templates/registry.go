// Package templates implements filesystem template discovery, validation,
// and installation of the bundled default set.
package templates

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	texttemplate "text/template"
	"text/template/parse"

	"github.com/mtp/newsletter/internal/domain/shared"
	tmpl "github.com/mtp/newsletter/internal/domain/template"
	"github.com/mtp/newsletter/internal/infrastructure/rendering"
)

// templatePattern matches the <name>_<language>.html naming convention
var templatePattern = regexp.MustCompile(`^(.+)_(de|en)\.html$`)

// Registry discovers and validates templates in a directory. Discovery is
// recomputed on every call: templates may change between invocations, so
// nothing is cached.
type Registry struct {
	dir string
}

// NewRegistry creates a registry over the given template directory
func NewRegistry(dir string) *Registry {
	return &Registry{dir: dir}
}

// Dir returns the configured template directory
func (r *Registry) Dir() string {
	return r.dir
}

// List scans the template directory and returns one descriptor per
// discovered (name, language) pair, sorted by file name. A missing
// directory yields an empty list, not an error.
func (r *Registry) List() ([]tmpl.Descriptor, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning template directory %s: %w", r.dir, err)
	}

	var descriptors []tmpl.Descriptor
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := templatePattern.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		descriptors = append(descriptors, tmpl.Descriptor{
			Name:     match[1],
			Language: match[2],
			Path:     filepath.Join(r.dir, entry.Name()),
		})
	}
	sort.Slice(descriptors, func(i, j int) bool {
		return descriptors[i].Filename() < descriptors[j].Filename()
	})
	return descriptors, nil
}

// Resolve returns the descriptor for an exact (name, language) match. No
// fuzzy matching: ambiguous template selection must not happen in
// unattended runs.
func (r *Registry) Resolve(name, language string) (tmpl.Descriptor, error) {
	descriptor := tmpl.Descriptor{Name: name, Language: language}
	descriptor.Path = filepath.Join(r.dir, descriptor.Filename())
	if _, err := os.Stat(descriptor.Path); err != nil {
		return tmpl.Descriptor{}, fmt.Errorf("%w: template %s (expected file %s)",
			shared.ErrNotFound, descriptor.Filename(), descriptor.Path)
	}
	return descriptor, nil
}

// Validate checks that the template parses and that every placeholder it
// references is a known context field. Unknown placeholders are reported as
// errors, never silently substituted with blanks.
func (r *Registry) Validate(descriptor tmpl.Descriptor) (tmpl.ValidationResult, error) {
	result := tmpl.ValidationResult{Descriptor: descriptor, Valid: true}

	content, err := os.ReadFile(descriptor.Path)
	if err != nil {
		return tmpl.ValidationResult{}, fmt.Errorf("%w: template file %s", shared.ErrNotFound, descriptor.Path)
	}

	parsed, err := texttemplate.New(descriptor.Filename()).
		Funcs(texttemplate.FuncMap(rendering.FuncMap())).
		Parse(string(content))
	if err != nil {
		result.AddError("template syntax error: %v", err)
		return result, nil
	}

	checkPlaceholders(parsed.Tree.Root, rendering.KnownGlobalFields(), &result)
	return result, nil
}

// checkPlaceholders walks the parse tree and verifies field references
// against the known field set of the current scope. Ranging over .Products
// switches the scope to the per-product field set.
func checkPlaceholders(node parse.Node, scope map[string]bool, result *tmpl.ValidationResult) {
	if node == nil {
		return
	}
	switch n := node.(type) {
	case *parse.ListNode:
		for _, child := range n.Nodes {
			checkPlaceholders(child, scope, result)
		}
	case *parse.ActionNode:
		checkPipe(n.Pipe, scope, result)
	case *parse.IfNode:
		checkPipe(n.Pipe, scope, result)
		checkPlaceholders(n.List, scope, result)
		checkPlaceholders(n.ElseList, scope, result)
	case *parse.WithNode:
		checkPipe(n.Pipe, scope, result)
		checkPlaceholders(n.List, scope, result)
		checkPlaceholders(n.ElseList, scope, result)
	case *parse.RangeNode:
		checkPipe(n.Pipe, scope, result)
		inner := scope
		if rangesOverProducts(n.Pipe) {
			inner = rendering.KnownProductFields()
		}
		checkPlaceholders(n.List, inner, result)
		checkPlaceholders(n.ElseList, scope, result)
	case *parse.TemplateNode:
		checkPipe(n.Pipe, scope, result)
	}
}

func checkPipe(pipe *parse.PipeNode, scope map[string]bool, result *tmpl.ValidationResult) {
	if pipe == nil {
		return
	}
	for _, cmd := range pipe.Cmds {
		for _, arg := range cmd.Args {
			switch a := arg.(type) {
			case *parse.FieldNode:
				if len(a.Ident) > 0 && !scope[a.Ident[0]] {
					result.AddError("unknown placeholder .%s", a.Ident[0])
				}
			case *parse.ChainNode:
				if field, ok := a.Node.(*parse.FieldNode); ok && len(field.Ident) > 0 && !scope[field.Ident[0]] {
					result.AddError("unknown placeholder .%s", field.Ident[0])
				}
			case *parse.PipeNode:
				checkPipe(a, scope, result)
			}
		}
	}
}

// rangesOverProducts reports whether a range pipe iterates .Products
func rangesOverProducts(pipe *parse.PipeNode) bool {
	for _, cmd := range pipe.Cmds {
		for _, arg := range cmd.Args {
			if field, ok := arg.(*parse.FieldNode); ok {
				if len(field.Ident) == 1 && field.Ident[0] == "Products" {
					return true
				}
			}
		}
	}
	return false
}
