package launch

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

// ErrNoDestination reports that neither a routing rule nor the default
// view produced a destination. It indicates misconfiguration, not a bad
// request.
var ErrNoDestination = errors.New("launch: no destination")

// placeholder marks a positional argument slot in a view path template.
const placeholder = "{}"

// ViewSet maps view names to path templates. Templates carry one "{}"
// placeholder per positional argument, e.g. "/courses/{}/units/{}".
type ViewSet map[string]string

// Resolve renders the named view with the given positional arguments.
// Arity must match the template's placeholder count exactly; arguments are
// path-escaped.
func (vs ViewSet) Resolve(name string, args []string) (string, error) {
	tmpl, ok := vs[name]
	if !ok {
		return "", fmt.Errorf("launch: unknown view %q", name)
	}
	if want := strings.Count(tmpl, placeholder); want != len(args) {
		return "", fmt.Errorf("launch: view %q takes %d arguments, got %d", name, want, len(args))
	}
	out := tmpl
	for _, a := range args {
		out = strings.Replace(out, placeholder, url.PathEscape(a), 1)
	}
	return out, nil
}

// Rule routes a launch to a view when every named parameter is present in
// the request's custom parameters. Parameter values become the view's
// positional arguments, in declaration order.
type Rule struct {
	Params []string `yaml:"params"`
	View   string   `yaml:"view"`
}

// ViewRef names a view with fixed arguments; used for the default and
// failure destinations.
type ViewRef struct {
	View string   `yaml:"view"`
	Args []string `yaml:"args"`
}

// Resolver picks a destination for a launch from the ordered routing
// rules, falling back to the default view.
type Resolver struct {
	views ViewSet
	rules []Rule
	deflt ViewRef
	log   *slog.Logger
}

// NewResolver constructs a Resolver. The default view must resolve; rules
// are taken as-is and vetted per request.
func NewResolver(views ViewSet, rules []Rule, deflt ViewRef, log *slog.Logger) (*Resolver, error) {
	if log == nil {
		log = slog.Default()
	}
	if _, err := views.Resolve(deflt.View, deflt.Args); err != nil {
		return nil, fmt.Errorf("launch: default view: %w", err)
	}
	return &Resolver{views: views, rules: rules, deflt: deflt, log: log}, nil
}

// Resolve returns the destination for the given custom parameters. Rule
// order is significant: the first rule whose parameters are all present
// and non-empty wins. A matched rule that fails to render is skipped with
// a warning and the next rule is tried. With no surviving rule the default
// view is returned.
func (r *Resolver) Resolve(custom map[string]string) (string, error) {
next:
	for _, rule := range r.rules {
		args := make([]string, 0, len(rule.Params))
		for _, p := range rule.Params {
			v := custom[p]
			if v == "" {
				continue next
			}
			args = append(args, v)
		}
		dest, err := r.views.Resolve(rule.View, args)
		if err != nil {
			r.log.Warn("launch.route.skip", "view", rule.View, "err", err)
			continue
		}
		return dest, nil
	}

	dest, err := r.views.Resolve(r.deflt.View, r.deflt.Args)
	if err != nil {
		// NewResolver vetted the default; reaching this means the view set
		// was mutated after construction.
		return "", fmt.Errorf("%w: %v", ErrNoDestination, err)
	}
	return dest, nil
}
