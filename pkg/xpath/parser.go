package xpath

import "strings"

// parser is a recursive-descent XPath 1.0 parser with the standard
// precedence chain: or, and, equality, relational, additive,
// multiplicative, unary minus, union, path.
type parser struct {
	lex    *lexer
	cur    token
	peeked *token
}

// Parse parses an XPath expression into its AST.
func Parse(input string) (Expr, error) {
	p := &parser{lex: newLexer(input)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.cur.kind != tokEOF {
		return nil, compileErrorf(p.cur.pos, "unexpected trailing content")
	}
	return expr, nil
}

func (p *parser) advance() error {
	if p.peeked != nil {
		p.cur = *p.peeked
		p.peeked = nil
		return nil
	}
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.cur = tok
	return nil
}

func (p *parser) peek() (token, error) {
	if p.peeked == nil {
		tok, err := p.lex.next()
		if err != nil {
			return token{}, err
		}
		p.peeked = &tok
	}
	return *p.peeked, nil
}

func (p *parser) expect(kind tokenKind, what string) error {
	if p.cur.kind != kind {
		return compileErrorf(p.cur.pos, "expected %s", what)
	}
	return p.advance()
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.cur.kind == tokOr {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: OpOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.cur.kind == tokAnd {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: OpAnd, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseEquality() (Expr, error) {
	left, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for {
		var op BinaryOp
		switch p.cur.kind {
		case tokEq:
			op = OpEq
		case tokNotEq:
			op = OpNotEq
		default:
			return left, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseRelational() (Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		var op BinaryOp
		switch p.cur.kind {
		case tokLt:
			op = OpLt
		case tokLtEq:
			op = OpLtEq
		case tokGt:
			op = OpGt
		case tokGtEq:
			op = OpGtEq
		default:
			return left, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseAdditive() (Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		var op BinaryOp
		switch p.cur.kind {
		case tokPlus:
			op = OpAdd
		case tokMinus:
			op = OpSub
		default:
			return left, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseMultiplicative() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op BinaryOp
		switch p.cur.kind {
		case tokStar:
			op = OpMul
		case tokDiv:
			op = OpDiv
		case tokMod:
			op = OpMod
		default:
			return left, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseUnary() (Expr, error) {
	if p.cur.kind == tokMinus {
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &NegateExpr{Operand: operand}, nil
	}
	return p.parseUnion()
}

func (p *parser) parseUnion() (Expr, error) {
	left, err := p.parsePath()
	if err != nil {
		return nil, err
	}
	for p.cur.kind == tokPipe {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parsePath()
		if err != nil {
			return nil, err
		}
		left = &UnionExpr{Left: left, Right: right}
	}
	return left, nil
}

// parsePath parses a location path or a filter expression with an
// optional path continuation.
func (p *parser) parsePath() (Expr, error) {
	switch p.cur.kind {
	case tokSlash:
		if err := p.advance(); err != nil {
			return nil, err
		}
		path := &PathExpr{Absolute: true}
		if !p.startsStep() {
			return path, nil
		}
		if err := p.parseRelativeSteps(path); err != nil {
			return nil, err
		}
		return path, nil

	case tokDoubleSlash:
		if err := p.advance(); err != nil {
			return nil, err
		}
		path := &PathExpr{Absolute: true}
		path.Steps = append(path.Steps, &Step{Axis: AxisDescendantOrSelf, Test: NodeTest{Kind: TestNode}})
		if !p.startsStep() {
			return nil, compileErrorf(p.cur.pos, "expected step after '//'")
		}
		if err := p.parseRelativeSteps(path); err != nil {
			return nil, err
		}
		return path, nil
	}

	if p.cur.kind == tokName {
		// A name followed by '(' is a function call, not a step.
		next, err := p.peek()
		if err != nil {
			return nil, err
		}
		if next.kind == tokLParen {
			return p.parseFilter()
		}
	}
	if p.startsStep() {
		path := &PathExpr{}
		if err := p.parseRelativeSteps(path); err != nil {
			return nil, err
		}
		return path, nil
	}
	return p.parseFilter()
}

// parseFilter parses a primary expression, its predicates, and an
// optional '/…' continuation.
func (p *parser) parseFilter() (Expr, error) {
	primary, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	var predicates []Expr
	for p.cur.kind == tokLBracket {
		pred, err := p.parsePredicate()
		if err != nil {
			return nil, err
		}
		predicates = append(predicates, pred)
	}

	if p.cur.kind != tokSlash && p.cur.kind != tokDoubleSlash {
		if len(predicates) == 0 {
			return primary, nil
		}
		return &PathExpr{Base: primary, BasePredicates: predicates}, nil
	}

	path := &PathExpr{Base: primary, BasePredicates: predicates}
	for {
		switch p.cur.kind {
		case tokSlash:
			if err := p.advance(); err != nil {
				return nil, err
			}
		case tokDoubleSlash:
			if err := p.advance(); err != nil {
				return nil, err
			}
			path.Steps = append(path.Steps, &Step{Axis: AxisDescendantOrSelf, Test: NodeTest{Kind: TestNode}})
		default:
			return path, nil
		}
		step, err := p.parseStep()
		if err != nil {
			return nil, err
		}
		path.Steps = append(path.Steps, step)
	}
}

// startsStep reports whether the current token can begin a location
// step.
func (p *parser) startsStep() bool {
	switch p.cur.kind {
	case tokDot, tokDoubleDot, tokAt, tokStar, tokName, tokNodeType, tokAxis:
		return true
	default:
		return false
	}
}

func (p *parser) parseRelativeSteps(path *PathExpr) error {
	for {
		step, err := p.parseStep()
		if err != nil {
			return err
		}
		path.Steps = append(path.Steps, step)

		switch p.cur.kind {
		case tokSlash:
			if err := p.advance(); err != nil {
				return err
			}
		case tokDoubleSlash:
			if err := p.advance(); err != nil {
				return err
			}
			path.Steps = append(path.Steps, &Step{Axis: AxisDescendantOrSelf, Test: NodeTest{Kind: TestNode}})
		default:
			return nil
		}
		if !p.startsStep() {
			return compileErrorf(p.cur.pos, "expected step")
		}
	}
}

func (p *parser) parseStep() (*Step, error) {
	switch p.cur.kind {
	case tokDot:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &Step{Axis: AxisSelf, Test: NodeTest{Kind: TestNode}}, nil
	case tokDoubleDot:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &Step{Axis: AxisParent, Test: NodeTest{Kind: TestNode}}, nil
	}

	axis := AxisChild
	switch p.cur.kind {
	case tokAt:
		axis = AxisAttribute
		if err := p.advance(); err != nil {
			return nil, err
		}
	case tokAxis:
		named, ok := axisNames[p.cur.text]
		if !ok {
			return nil, compileErrorf(p.cur.pos, "unknown axis %q", p.cur.text)
		}
		axis = named
		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	test, err := p.parseNodeTest()
	if err != nil {
		return nil, err
	}
	step := &Step{Axis: axis, Test: test}

	for p.cur.kind == tokLBracket {
		pred, err := p.parsePredicate()
		if err != nil {
			return nil, err
		}
		step.Predicates = append(step.Predicates, pred)
	}
	return step, nil
}

func (p *parser) parseNodeTest() (NodeTest, error) {
	switch p.cur.kind {
	case tokStar:
		if err := p.advance(); err != nil {
			return NodeTest{}, err
		}
		return NodeTest{Kind: TestAnyName}, nil

	case tokName:
		name := p.cur.text
		if err := p.advance(); err != nil {
			return NodeTest{}, err
		}
		if prefix, ok := strings.CutSuffix(name, ":*"); ok {
			return NodeTest{Kind: TestNSWildcard, Prefix: prefix}, nil
		}
		if prefix, local, ok := strings.Cut(name, ":"); ok {
			return NodeTest{Kind: TestName, Prefix: prefix, Local: local}, nil
		}
		return NodeTest{Kind: TestName, Local: name}, nil

	case tokNodeType:
		name := p.cur.text
		if err := p.advance(); err != nil {
			return NodeTest{}, err
		}
		if err := p.expect(tokLParen, "'('"); err != nil {
			return NodeTest{}, err
		}
		var target string
		if p.cur.kind == tokLiteral {
			if name != "processing-instruction" {
				return NodeTest{}, compileErrorf(p.cur.pos, "unexpected argument to %s()", name)
			}
			target = p.cur.text
			if err := p.advance(); err != nil {
				return NodeTest{}, err
			}
		}
		if err := p.expect(tokRParen, "')'"); err != nil {
			return NodeTest{}, err
		}
		switch name {
		case "node":
			return NodeTest{Kind: TestNode}, nil
		case "text":
			return NodeTest{Kind: TestText}, nil
		case "comment":
			return NodeTest{Kind: TestComment}, nil
		default:
			return NodeTest{Kind: TestPI, PITarget: target}, nil
		}

	default:
		return NodeTest{}, compileErrorf(p.cur.pos, "expected node test")
	}
}

func (p *parser) parsePredicate() (Expr, error) {
	if err := p.advance(); err != nil { // consume '['
		return nil, err
	}
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(tokRBracket, "']'"); err != nil {
		return nil, err
	}
	return expr, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	switch p.cur.kind {
	case tokNumber:
		value := p.cur.num
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &NumberExpr{Value: value}, nil

	case tokLiteral:
		value := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &StringExpr{Value: value}, nil

	case tokDollar:
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.kind != tokName {
			return nil, compileErrorf(p.cur.pos, "expected variable name after '$'")
		}
		name := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &VarExpr{Name: name}, nil

	case tokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return expr, nil

	case tokName:
		name := p.cur.text
		pos := p.cur.pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.kind != tokLParen {
			return nil, compileErrorf(pos, "unexpected name %q", name)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		return &CallExpr{Name: name, Args: args}, nil

	default:
		return nil, compileErrorf(p.cur.pos, "unexpected token")
	}
}

func (p *parser) parseArgs() ([]Expr, error) {
	var args []Expr
	if p.cur.kind == tokRParen {
		return args, p.advance()
	}
	for {
		arg, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.cur.kind == tokComma {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		return args, p.expect(tokRParen, "')'")
	}
}
