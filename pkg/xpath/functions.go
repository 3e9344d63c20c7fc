package xpath

import (
	"math"
	"strings"
)

// evalCall evaluates a call to one of the required XPath 1.0 core
// functions. id() is always an error because DTD processing is
// disabled.
func evalCall(ctx *evalContext, call *CallExpr) (Value, error) {
	args := make([]Value, 0, len(call.Args))
	for _, argExpr := range call.Args {
		arg, err := evalExpr(ctx, argExpr)
		if err != nil {
			return Value{}, err
		}
		args = append(args, arg)
	}

	switch call.Name {
	// Node-set functions.
	case "position":
		if err := arity(ctx, call, args, 0, 0); err != nil {
			return Value{}, err
		}
		return Number(float64(ctx.pos)), nil

	case "last":
		if err := arity(ctx, call, args, 0, 0); err != nil {
			return Value{}, err
		}
		return Number(float64(ctx.size)), nil

	case "count":
		if err := arity(ctx, call, args, 1, 1); err != nil {
			return Value{}, err
		}
		if args[0].Kind != KindNodeSet {
			return Value{}, ctx.errorf("count() requires a node-set")
		}
		return Number(float64(len(args[0].Nodes))), nil

	case "id":
		return Value{}, ctx.errorf("id() is unavailable: DTD processing is disabled")

	case "local-name":
		name, err := nameArg(ctx, call, args)
		if err != nil {
			return Value{}, err
		}
		return String(name.local), nil

	case "namespace-uri":
		name, err := nameArg(ctx, call, args)
		if err != nil {
			return Value{}, err
		}
		return String(name.namespace), nil

	case "name":
		name, err := nameArg(ctx, call, args)
		if err != nil {
			return Value{}, err
		}
		return String(name.full), nil

	// String functions.
	case "string":
		if err := arity(ctx, call, args, 0, 1); err != nil {
			return Value{}, err
		}
		if len(args) == 0 {
			return String(ctx.doc.StringValue(ctx.node)), nil
		}
		return String(args[0].StringValue(ctx.doc)), nil

	case "concat":
		if len(args) < 2 {
			return Value{}, ctx.errorf("concat() requires at least two arguments")
		}
		var b strings.Builder
		for _, arg := range args {
			b.WriteString(arg.StringValue(ctx.doc))
		}
		return String(b.String()), nil

	case "starts-with":
		if err := arity(ctx, call, args, 2, 2); err != nil {
			return Value{}, err
		}
		return Boolean(strings.HasPrefix(args[0].StringValue(ctx.doc), args[1].StringValue(ctx.doc))), nil

	case "contains":
		if err := arity(ctx, call, args, 2, 2); err != nil {
			return Value{}, err
		}
		return Boolean(strings.Contains(args[0].StringValue(ctx.doc), args[1].StringValue(ctx.doc))), nil

	case "substring-before":
		if err := arity(ctx, call, args, 2, 2); err != nil {
			return Value{}, err
		}
		s := args[0].StringValue(ctx.doc)
		sep := args[1].StringValue(ctx.doc)
		if idx := strings.Index(s, sep); idx >= 0 {
			return String(s[:idx]), nil
		}
		return String(""), nil

	case "substring-after":
		if err := arity(ctx, call, args, 2, 2); err != nil {
			return Value{}, err
		}
		s := args[0].StringValue(ctx.doc)
		sep := args[1].StringValue(ctx.doc)
		if idx := strings.Index(s, sep); idx >= 0 {
			return String(s[idx+len(sep):]), nil
		}
		return String(""), nil

	case "substring":
		if err := arity(ctx, call, args, 2, 3); err != nil {
			return Value{}, err
		}
		s := args[0].StringValue(ctx.doc)
		start := args[1].NumberValue(ctx.doc)
		length := math.Inf(1)
		if len(args) == 3 {
			length = args[2].NumberValue(ctx.doc)
		}
		return String(substring(s, start, length)), nil

	case "string-length":
		if err := arity(ctx, call, args, 0, 1); err != nil {
			return Value{}, err
		}
		s := ctx.doc.StringValue(ctx.node)
		if len(args) == 1 {
			s = args[0].StringValue(ctx.doc)
		}
		return Number(float64(len([]rune(s)))), nil

	case "normalize-space":
		if err := arity(ctx, call, args, 0, 1); err != nil {
			return Value{}, err
		}
		s := ctx.doc.StringValue(ctx.node)
		if len(args) == 1 {
			s = args[0].StringValue(ctx.doc)
		}
		return String(strings.Join(strings.Fields(s), " ")), nil

	case "translate":
		if err := arity(ctx, call, args, 3, 3); err != nil {
			return Value{}, err
		}
		return String(translate(
			args[0].StringValue(ctx.doc),
			args[1].StringValue(ctx.doc),
			args[2].StringValue(ctx.doc),
		)), nil

	// Boolean functions.
	case "boolean":
		if err := arity(ctx, call, args, 1, 1); err != nil {
			return Value{}, err
		}
		return Boolean(args[0].BoolValue()), nil

	case "not":
		if err := arity(ctx, call, args, 1, 1); err != nil {
			return Value{}, err
		}
		return Boolean(!args[0].BoolValue()), nil

	case "true":
		if err := arity(ctx, call, args, 0, 0); err != nil {
			return Value{}, err
		}
		return Boolean(true), nil

	case "false":
		if err := arity(ctx, call, args, 0, 0); err != nil {
			return Value{}, err
		}
		return Boolean(false), nil

	case "lang":
		if err := arity(ctx, call, args, 1, 1); err != nil {
			return Value{}, err
		}
		return Boolean(lang(ctx, args[0].StringValue(ctx.doc))), nil

	// Number functions.
	case "number":
		if err := arity(ctx, call, args, 0, 1); err != nil {
			return Value{}, err
		}
		if len(args) == 0 {
			return Number(StringToNumber(ctx.doc.StringValue(ctx.node))), nil
		}
		return Number(args[0].NumberValue(ctx.doc)), nil

	case "sum":
		if err := arity(ctx, call, args, 1, 1); err != nil {
			return Value{}, err
		}
		if args[0].Kind != KindNodeSet {
			return Value{}, ctx.errorf("sum() requires a node-set")
		}
		total := 0.0
		for _, node := range args[0].Nodes {
			total += StringToNumber(ctx.doc.StringValue(node))
		}
		return Number(total), nil

	case "floor":
		if err := arity(ctx, call, args, 1, 1); err != nil {
			return Value{}, err
		}
		return Number(math.Floor(args[0].NumberValue(ctx.doc))), nil

	case "ceiling":
		if err := arity(ctx, call, args, 1, 1); err != nil {
			return Value{}, err
		}
		return Number(math.Ceil(args[0].NumberValue(ctx.doc))), nil

	case "round":
		if err := arity(ctx, call, args, 1, 1); err != nil {
			return Value{}, err
		}
		return Number(xpathRound(args[0].NumberValue(ctx.doc))), nil

	default:
		return Value{}, ctx.errorf("unknown function %s()", call.Name)
	}
}

func arity(ctx *evalContext, call *CallExpr, args []Value, min, max int) error {
	if len(args) < min || len(args) > max {
		return ctx.errorf("wrong number of arguments to %s()", call.Name)
	}
	return nil
}

type nodeName struct {
	full      string
	local     string
	namespace string
}

// nameArg resolves the optional node-set argument shared by name(),
// local-name(), and namespace-uri(): the first node in document order,
// defaulting to the context node.
func nameArg(ctx *evalContext, call *CallExpr, args []Value) (nodeName, error) {
	if err := arity(ctx, call, args, 0, 1); err != nil {
		return nodeName{}, err
	}
	node := ctx.node
	if len(args) == 1 {
		if args[0].Kind != KindNodeSet {
			return nodeName{}, ctx.errorf("%s() requires a node-set", call.Name)
		}
		if len(args[0].Nodes) == 0 {
			return nodeName{}, nil
		}
		node = args[0].Nodes[0]
	}
	return nodeName{
		full:      ctx.doc.Name(node),
		local:     ctx.doc.LocalName(node),
		namespace: ctx.doc.NamespaceURI(node),
	}, nil
}

// substring implements the XPath substring() rounding rules:
// substring("12345", 1.5, 2.6) is "234".
func substring(s string, start, length float64) string {
	runes := []rune(s)
	begin := xpathRound(start)
	if math.IsNaN(begin) || math.IsNaN(length) {
		return ""
	}
	end := math.Inf(1)
	if !math.IsInf(length, 1) {
		end = begin + xpathRound(length)
	}
	var out []rune
	for i, r := range runes {
		pos := float64(i + 1)
		if pos >= begin && pos < end {
			out = append(out, r)
		}
	}
	return string(out)
}

func translate(s, from, to string) string {
	fromRunes := []rune(from)
	toRunes := []rune(to)
	mapping := make(map[rune]rune, len(fromRunes))
	deleted := make(map[rune]struct{})
	for i, r := range fromRunes {
		if _, seen := mapping[r]; seen {
			continue
		}
		if _, gone := deleted[r]; gone {
			continue
		}
		if i < len(toRunes) {
			mapping[r] = toRunes[i]
		} else {
			deleted[r] = struct{}{}
		}
	}
	var b strings.Builder
	for _, r := range s {
		if _, gone := deleted[r]; gone {
			continue
		}
		if repl, ok := mapping[r]; ok {
			b.WriteRune(repl)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// lang walks the ancestor-or-self axis for an xml:lang attribute and
// matches case-insensitively, either exactly or as a hyphenated
// subtag prefix ("en" matches "en-US").
func lang(ctx *evalContext, want string) bool {
	var attrBuf []NodeID
	node := ctx.node
	for {
		attrBuf = ctx.doc.Attributes(node, attrBuf[:0])
		for _, attr := range attrBuf {
			if ctx.doc.Name(attr) != "xml:lang" {
				continue
			}
			have := ctx.doc.StringValue(attr)
			if strings.EqualFold(have, want) {
				return true
			}
			if len(have) > len(want) && have[len(want)] == '-' &&
				strings.EqualFold(have[:len(want)], want) {
				return true
			}
			return false
		}
		parent, ok := ctx.doc.Parent(node)
		if !ok {
			return false
		}
		node = parent
	}
}

// xpathRound rounds half toward positive infinity, the round() rule.
func xpathRound(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	return math.Floor(f + 0.5)
}

// xpathMod matches the XPath mod operator, which truncates toward
// zero like Go's math.Mod.
func xpathMod(a, b float64) float64 {
	return math.Mod(a, b)
}
