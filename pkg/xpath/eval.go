package xpath

import (
	"fmt"
	"slices"

	xmlerrors "github.com/xmlkit/xmlkit/errors"
)

// evalContext carries the evaluation state threaded through each step:
// the context node, its position, and the context size.
type evalContext struct {
	doc    Document
	source string
	node   NodeID
	pos    int
	size   int
}

func (ctx *evalContext) errorf(format string, args ...any) error {
	return &xmlerrors.EvalError{Message: fmt.Sprintf(format, args...), Expr: ctx.source}
}

// Evaluate evaluates a compiled expression with the document root as
// the context node.
func Evaluate(doc Document, compiled *Compiled) (Value, error) {
	return EvaluateAt(doc, compiled, doc.Root())
}

// EvaluateAt evaluates a compiled expression from a specific context
// node.
func EvaluateAt(doc Document, compiled *Compiled, node NodeID) (Value, error) {
	ctx := &evalContext{doc: doc, source: compiled.source, node: node, pos: 1, size: 1}
	return evalExpr(ctx, compiled.root)
}

func evalExpr(ctx *evalContext, e Expr) (Value, error) {
	switch expr := e.(type) {
	case *NumberExpr:
		return Number(expr.Value), nil

	case *StringExpr:
		return String(expr.Value), nil

	case *VarExpr:
		return Value{}, ctx.errorf("variable $%s is not supported", expr.Name)

	case *NegateExpr:
		operand, err := evalExpr(ctx, expr.Operand)
		if err != nil {
			return Value{}, err
		}
		return Number(-operand.NumberValue(ctx.doc)), nil

	case *BinaryExpr:
		return evalBinary(ctx, expr)

	case *UnionExpr:
		return evalUnion(ctx, expr)

	case *CallExpr:
		return evalCall(ctx, expr)

	case *PathExpr:
		nodes, err := evalPath(ctx, expr)
		if err != nil {
			return Value{}, err
		}
		return NodeSet(nodes), nil

	default:
		return Value{}, ctx.errorf("unsupported expression")
	}
}

func evalBinary(ctx *evalContext, expr *BinaryExpr) (Value, error) {
	// Boolean operators short-circuit.
	switch expr.Op {
	case OpOr, OpAnd:
		left, err := evalExpr(ctx, expr.Left)
		if err != nil {
			return Value{}, err
		}
		lb := left.BoolValue()
		if expr.Op == OpOr && lb {
			return Boolean(true), nil
		}
		if expr.Op == OpAnd && !lb {
			return Boolean(false), nil
		}
		right, err := evalExpr(ctx, expr.Right)
		if err != nil {
			return Value{}, err
		}
		return Boolean(right.BoolValue()), nil
	}

	left, err := evalExpr(ctx, expr.Left)
	if err != nil {
		return Value{}, err
	}
	right, err := evalExpr(ctx, expr.Right)
	if err != nil {
		return Value{}, err
	}

	switch expr.Op {
	case OpEq, OpNotEq:
		return Boolean(compareEquality(ctx.doc, left, right, expr.Op == OpNotEq)), nil
	case OpLt, OpLtEq, OpGt, OpGtEq:
		return Boolean(compareRelational(ctx.doc, left, right, expr.Op)), nil
	case OpAdd:
		return Number(left.NumberValue(ctx.doc) + right.NumberValue(ctx.doc)), nil
	case OpSub:
		return Number(left.NumberValue(ctx.doc) - right.NumberValue(ctx.doc)), nil
	case OpMul:
		return Number(left.NumberValue(ctx.doc) * right.NumberValue(ctx.doc)), nil
	case OpDiv:
		return Number(left.NumberValue(ctx.doc) / right.NumberValue(ctx.doc)), nil
	case OpMod:
		return Number(xpathMod(left.NumberValue(ctx.doc), right.NumberValue(ctx.doc))), nil
	default:
		return Value{}, ctx.errorf("unsupported operator")
	}
}

// compareEquality implements the XPath 1.0 '=' and '!=' rules, which
// existentially quantify over node-sets.
func compareEquality(doc Document, left, right Value, negate bool) bool {
	cmp := func(equal bool) bool {
		if negate {
			return !equal
		}
		return equal
	}

	if left.Kind == KindNodeSet && right.Kind == KindNodeSet {
		for _, l := range left.Nodes {
			ls := doc.StringValue(l)
			for _, r := range right.Nodes {
				if cmp(ls == doc.StringValue(r)) {
					return true
				}
			}
		}
		return false
	}

	if left.Kind == KindNodeSet || right.Kind == KindNodeSet {
		nodes, other := left, right
		if right.Kind == KindNodeSet {
			nodes, other = right, left
		}
		switch other.Kind {
		case KindBoolean:
			return cmp(nodes.BoolValue() == other.Bool)
		case KindNumber:
			for _, n := range nodes.Nodes {
				if cmp(StringToNumber(doc.StringValue(n)) == other.Num) {
					return true
				}
			}
			return false
		default:
			for _, n := range nodes.Nodes {
				if cmp(doc.StringValue(n) == other.Str) {
					return true
				}
			}
			return false
		}
	}

	switch {
	case left.Kind == KindBoolean || right.Kind == KindBoolean:
		return cmp(left.BoolValue() == right.BoolValue())
	case left.Kind == KindNumber || right.Kind == KindNumber:
		return cmp(left.NumberValue(doc) == right.NumberValue(doc))
	default:
		return cmp(left.StringValue(doc) == right.StringValue(doc))
	}
}

// compareRelational implements '<', '<=', '>', '>=': node-sets are
// existentially quantified, everything else compares as numbers.
func compareRelational(doc Document, left, right Value, op BinaryOp) bool {
	numCmp := func(a, b float64) bool {
		switch op {
		case OpLt:
			return a < b
		case OpLtEq:
			return a <= b
		case OpGt:
			return a > b
		default:
			return a >= b
		}
	}

	leftNums := relationalOperands(doc, left)
	rightNums := relationalOperands(doc, right)
	for _, a := range leftNums {
		for _, b := range rightNums {
			if numCmp(a, b) {
				return true
			}
		}
	}
	return false
}

func relationalOperands(doc Document, v Value) []float64 {
	if v.Kind == KindNodeSet {
		nums := make([]float64, 0, len(v.Nodes))
		for _, n := range v.Nodes {
			nums = append(nums, StringToNumber(doc.StringValue(n)))
		}
		return nums
	}
	return []float64{v.NumberValue(doc)}
}

func evalUnion(ctx *evalContext, expr *UnionExpr) (Value, error) {
	left, err := evalExpr(ctx, expr.Left)
	if err != nil {
		return Value{}, err
	}
	right, err := evalExpr(ctx, expr.Right)
	if err != nil {
		return Value{}, err
	}
	if left.Kind != KindNodeSet || right.Kind != KindNodeSet {
		return Value{}, ctx.errorf("union requires two node-sets")
	}
	merged := make([]NodeID, 0, len(left.Nodes)+len(right.Nodes))
	merged = append(merged, left.Nodes...)
	merged = append(merged, right.Nodes...)
	return NodeSet(sortDocOrder(ctx.doc, merged)), nil
}

// evalPath evaluates a location path: establish the start set, then
// thread every step, keeping the working set deduplicated and in
// document order between steps.
func evalPath(ctx *evalContext, path *PathExpr) ([]NodeID, error) {
	var current []NodeID
	switch {
	case path.Absolute:
		current = []NodeID{ctx.doc.Root()}
	case path.Base != nil:
		base, err := evalExpr(ctx, path.Base)
		if err != nil {
			return nil, err
		}
		if base.Kind != KindNodeSet {
			return nil, ctx.errorf("predicates and path steps require a node-set")
		}
		current = slices.Clone(base.Nodes)
		for i := range path.compiledBase {
			current, err = applyPredicate(ctx, current, &path.compiledBase[i])
			if err != nil {
				return nil, err
			}
		}
	default:
		current = []NodeID{ctx.node}
	}

	for _, step := range path.Steps {
		next, err := evalStep(ctx, current, step)
		if err != nil {
			return nil, err
		}
		current = next
	}
	return current, nil
}

func evalStep(ctx *evalContext, seeds []NodeID, step *Step) ([]NodeID, error) {
	var result []NodeID
	var axisBuf []NodeID
	for _, seed := range seeds {
		axisBuf = appendAxis(ctx.doc, step.Axis, seed, axisBuf[:0])

		filtered := make([]NodeID, 0, len(axisBuf))
		for _, candidate := range axisBuf {
			if matchesTest(ctx.doc, candidate, step.Test, step.Axis) {
				filtered = append(filtered, candidate)
			}
		}

		var err error
		for i := range step.compiled {
			filtered, err = applyPredicate(ctx, filtered, &step.compiled[i])
			if err != nil {
				return nil, err
			}
		}
		result = append(result, filtered...)
	}

	if len(seeds) > 1 || step.Axis.isReverse() {
		result = sortDocOrder(ctx.doc, result)
	}
	return result, nil
}

// applyPredicate filters nodes by one predicate. The node list is in
// axis order, so position() observes the axis direction.
func applyPredicate(ctx *evalContext, nodes []NodeID, pred *predicate) ([]NodeID, error) {
	switch pred.kind {
	case predPosition:
		if pred.position > len(nodes) {
			return nodes[:0], nil
		}
		return nodes[pred.position-1 : pred.position], nil

	case predAttrEq:
		filtered := nodes[:0]
		var attrBuf []NodeID
		for _, node := range nodes {
			attrBuf = ctx.doc.Attributes(node, attrBuf[:0])
			for _, attr := range attrBuf {
				if ctx.doc.Name(attr) == pred.attrName && ctx.doc.StringValue(attr) == pred.literal {
					filtered = append(filtered, node)
					break
				}
			}
		}
		return filtered, nil

	default:
		size := len(nodes)
		filtered := make([]NodeID, 0, size)
		for i, node := range nodes {
			predCtx := &evalContext{
				doc:    ctx.doc,
				source: ctx.source,
				node:   node,
				pos:    i + 1,
				size:   size,
			}
			value, err := evalExpr(predCtx, pred.expr)
			if err != nil {
				return nil, err
			}
			include := false
			if value.Kind == KindNumber {
				include = value.Num == float64(i+1)
			} else {
				include = value.BoolValue()
			}
			if include {
				filtered = append(filtered, node)
			}
		}
		return filtered, nil
	}
}

// sortDocOrder sorts nodes into document order and removes duplicates.
func sortDocOrder(doc Document, nodes []NodeID) []NodeID {
	if len(nodes) < 2 {
		return nodes
	}
	slices.SortFunc(nodes, func(a, b NodeID) int {
		return doc.Compare(a, b)
	})
	out := nodes[:1]
	for _, node := range nodes[1:] {
		if node != out[len(out)-1] {
			out = append(out, node)
		}
	}
	return out
}
