package gen

import (
	"strings"

	"github.com/weftui/weft/internal/dom"
	"github.com/weftui/weft/internal/expr"
	"github.com/weftui/weft/internal/lexer"
	"github.com/weftui/weft/internal/parser"
	"github.com/weftui/weft/internal/view"
)

// dynEntry is a dynamic attribute slot evaluated per render.
type dynEntry struct {
	name string // attribute name, category key or event type
	e    *expr.Expr
	pos  lexer.Position
}

// attrPlan is the compile-time classification of an element's
// attributes. Static parts are computed once; dynamic parts carry
// expressions evaluated per render. Categories follow the patch-time
// diff policy: scalar attributes live together, the object-valued
// style, dataset and aria categories are kept apart so they can be
// diffed key by key.
type attrPlan struct {
	plainStatic   map[string]string
	styleStatic   map[string]string
	datasetStatic map[string]string
	ariaStatic    map[string]string

	dynPlain   []dynEntry
	dynDataset []dynEntry
	dynAria    []dynEntry

	styleWhole   *dynEntry // style={expr}: map or declaration string
	datasetWhole *dynEntry // dataset={expr}: map
	ariaWhole    *dynEntry // aria={expr}: map

	events []dynEntry
}

func planAttrs(attrs []parser.Attr) (*attrPlan, error) {
	p := &attrPlan{}
	for _, a := range attrs {
		switch {
		case strings.HasPrefix(a.Name, "on:"):
			event := strings.TrimPrefix(a.Name, "on:")
			if event == "" {
				return nil, syntaxErrorf(a.ValuePos, "event binding has no event name")
			}
			if a.Expr == nil {
				return nil, syntaxErrorf(a.ValuePos, "on:%s requires an interpolated handler value", event)
			}
			p.events = append(p.events, dynEntry{name: event, e: a.Expr, pos: a.ValuePos})

		case a.Name == "style":
			if a.Expr != nil {
				p.styleWhole = &dynEntry{name: "style", e: a.Expr, pos: a.ValuePos}
				continue
			}
			p.styleStatic = dom.ParseStyle(a.Value)

		case a.Name == "dataset" || a.Name == "aria":
			if a.Expr == nil {
				return nil, syntaxErrorf(a.ValuePos, "%s attribute takes an object expression", a.Name)
			}
			entry := &dynEntry{name: a.Name, e: a.Expr, pos: a.ValuePos}
			if a.Name == "dataset" {
				p.datasetWhole = entry
			} else {
				p.ariaWhole = entry
			}

		case strings.HasPrefix(a.Name, "data-"):
			key := strings.TrimPrefix(a.Name, "data-")
			if a.Expr != nil {
				p.dynDataset = append(p.dynDataset, dynEntry{name: key, e: a.Expr, pos: a.ValuePos})
				continue
			}
			if p.datasetStatic == nil {
				p.datasetStatic = map[string]string{}
			}
			p.datasetStatic[key] = a.Value

		case strings.HasPrefix(a.Name, "aria-"):
			key := strings.TrimPrefix(a.Name, "aria-")
			if a.Expr != nil {
				p.dynAria = append(p.dynAria, dynEntry{name: key, e: a.Expr, pos: a.ValuePos})
				continue
			}
			if p.ariaStatic == nil {
				p.ariaStatic = map[string]string{}
			}
			p.ariaStatic[key] = a.Value

		default:
			// class, id, label for and plain passthrough attributes.
			if a.Expr != nil {
				p.dynPlain = append(p.dynPlain, dynEntry{name: a.Name, e: a.Expr, pos: a.ValuePos})
				continue
			}
			if p.plainStatic == nil {
				p.plainStatic = map[string]string{}
			}
			p.plainStatic[a.Name] = a.Value // bare attributes store ""
		}
	}
	return p, nil
}

// emit produces the attribute set for one render. Categories with no
// dynamic parts share their static map across renders.
func (p *attrPlan) emit(s *expr.Scope) (*view.AttrSet, error) {
	out := &view.AttrSet{}

	plain, err := emitScalar(s, p.plainStatic, p.dynPlain)
	if err != nil {
		return nil, err
	}
	out.Plain = plain

	style, err := emitObject(s, p.styleStatic, nil, p.styleWhole, true)
	if err != nil {
		return nil, err
	}
	out.Style = style

	dataset, err := emitObject(s, p.datasetStatic, p.dynDataset, p.datasetWhole, false)
	if err != nil {
		return nil, err
	}
	out.Dataset = dataset

	aria, err := emitObject(s, p.ariaStatic, p.dynAria, p.ariaWhole, false)
	if err != nil {
		return nil, err
	}
	out.Aria = aria

	if len(p.events) > 0 {
		out.Events = make(map[string]dom.Handler, len(p.events))
		for _, ev := range p.events {
			v, err := ev.e.Eval(s)
			if err != nil {
				return nil, err
			}
			h, err := adaptHandler(ev.pos, ev.name, v)
			if err != nil {
				return nil, err
			}
			out.Events[ev.name] = h
		}
	}
	return out, nil
}

func emitScalar(s *expr.Scope, static map[string]string, dyn []dynEntry) (map[string]string, error) {
	if len(dyn) == 0 {
		return static, nil
	}
	out := make(map[string]string, len(static)+len(dyn))
	for k, v := range static {
		out[k] = v
	}
	for _, d := range dyn {
		v, err := d.e.Eval(s)
		if err != nil {
			return nil, err
		}
		out[d.name] = expr.Stringify(v)
	}
	return out, nil
}

// emitObject merges an object-valued category: static keys first, then
// a whole-map expression, then individual keyed expressions. asStyle
// additionally accepts a declaration string for the whole-map value.
func emitObject(s *expr.Scope, static map[string]string, dyn []dynEntry, whole *dynEntry, asStyle bool) (map[string]string, error) {
	if len(dyn) == 0 && whole == nil {
		return static, nil
	}
	out := make(map[string]string, len(static)+len(dyn))
	for k, v := range static {
		out[k] = v
	}
	if whole != nil {
		v, err := whole.e.Eval(s)
		if err != nil {
			return nil, err
		}
		var m map[string]string
		if str, ok := v.(string); ok && asStyle {
			m = dom.ParseStyle(str)
		} else {
			m, err = expr.StringMap(whole.pos, v)
			if err != nil {
				return nil, err
			}
		}
		for k, val := range m {
			out[k] = val
		}
	}
	for _, d := range dyn {
		v, err := d.e.Eval(s)
		if err != nil {
			return nil, err
		}
		out[d.name] = expr.Stringify(v)
	}
	return out, nil
}
