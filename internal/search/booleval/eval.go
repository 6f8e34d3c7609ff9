package booleval

import (
	"sort"
)

// Expr is a node of a boolean query over terms.
type Expr interface {
	isExpr()
}

// Term matches all documents containing the term.
type Term string

// And intersects its operands and then subtracts each exclude.
type And struct {
	Operands []Expr
	Excludes []Expr
}

// Or unions its operands.
type Or struct {
	Operands []Expr
}

func (Term) isExpr() {}
func (*And) isExpr() {}
func (*Or) isExpr()  {}

// TermOrder controls the processing order of AND operands.
type TermOrder int

const (
	// LowDFFirst intersects the shortest posting lists first, bounding the
	// result size as early as possible. This is the production default.
	LowDFFirst TermOrder = iota
	// HighDFFirst processes the longest lists first. Deliberately
	// inefficient; retained only as a comparison baseline for benchmarks.
	HighDFFirst
)

// OrHandling controls how an OR operand inside an AND is evaluated.
type OrHandling int

const (
	// MergeORFirst evaluates the OR branch fully, then intersects the
	// union with the remaining operands.
	MergeORFirst OrHandling = iota
	// DistributeAND rewrites AND(x, OR(a, b)) as OR(AND(x, a), AND(x, b)).
	// Produces identical results at a different cost depending on branch
	// selectivity.
	DistributeAND
)

// Strategy selects the evaluation heuristics. The zero value is the
// recommended production configuration plus skip acceleration off; callers
// normally enable UseSkips.
type Strategy struct {
	TermOrder  TermOrder
	OrHandling OrHandling
	UseSkips   bool
}

// Source resolves a term to its posting doc-id list and skip overlay. The
// boolean reports whether the term exists in the dictionary at all; callers
// must keep "unknown term" distinct from "known term with no postings".
type Source interface {
	SkipList(term string) (SkipList, bool)
}

// Result carries the matching documents plus every query term that was
// absent from the dictionary. A missing term empties an AND (intersection
// with an implicit empty set) and is a no-op for an OR, but it is always
// reported so callers can distinguish it from a term with zero matches.
type Result struct {
	DocIDs       []string
	MissingTerms []string
}

// Evaluate runs the expression against the source under the given strategy.
func Evaluate(src Source, expr Expr, strat Strategy) Result {
	ev := &evaluator{src: src, strat: strat, missing: make(map[string]struct{})}
	docs := ev.eval(expr)
	missing := make([]string, 0, len(ev.missing))
	for term := range ev.missing {
		missing = append(missing, term)
	}
	sort.Strings(missing)
	return Result{DocIDs: docs, MissingTerms: missing}
}

type evaluator struct {
	src     Source
	strat   Strategy
	missing map[string]struct{}
}

func (ev *evaluator) eval(expr Expr) []string {
	switch e := expr.(type) {
	case Term:
		return ev.lookup(e).Docs
	case *Or:
		return ev.evalOr(e)
	case *And:
		return ev.evalAnd(e)
	default:
		return nil
	}
}

func (ev *evaluator) lookup(term Term) SkipList {
	sl, ok := ev.src.SkipList(string(term))
	if !ok {
		ev.missing[string(term)] = struct{}{}
		return SkipList{}
	}
	return sl
}

func (ev *evaluator) evalOr(e *Or) []string {
	var result []string
	for i, op := range e.Operands {
		docs := ev.eval(op)
		if i == 0 {
			result = docs
			continue
		}
		result = Union(result, docs)
	}
	return result
}

func (ev *evaluator) evalAnd(e *And) []string {
	docs := ev.intersectOperands(e.Operands)
	for _, ex := range e.Excludes {
		docs = Difference(docs, ev.eval(ex))
	}
	return docs
}

func (ev *evaluator) intersectOperands(operands []Expr) []string {
	if len(operands) == 0 {
		return nil
	}
	if ev.strat.OrHandling == DistributeAND {
		for i, op := range operands {
			or, ok := op.(*Or)
			if !ok {
				continue
			}
			rest := make([]Expr, 0, len(operands)-1)
			rest = append(rest, operands[:i]...)
			rest = append(rest, operands[i+1:]...)
			var result []string
			for k, branch := range or.Operands {
				branchDocs := ev.intersectOperands(append([]Expr{branch}, rest...))
				if k == 0 {
					result = branchDocs
					continue
				}
				result = Union(result, branchDocs)
			}
			return result
		}
	}

	// Resolve every operand, keeping skip overlays for raw term lists.
	lists := make([]SkipList, 0, len(operands))
	for _, op := range operands {
		if t, ok := op.(Term); ok {
			lists = append(lists, ev.lookup(t))
			continue
		}
		lists = append(lists, SkipList{Docs: ev.eval(op)})
	}

	sort.SliceStable(lists, func(i, j int) bool {
		if ev.strat.TermOrder == HighDFFirst {
			return len(lists[i].Docs) > len(lists[j].Docs)
		}
		return len(lists[i].Docs) < len(lists[j].Docs)
	})

	result := lists[0]
	for _, next := range lists[1:] {
		if len(result.Docs) == 0 {
			return nil
		}
		if ev.strat.UseSkips {
			result = SkipList{Docs: IntersectWithSkips(result, next)}
		} else {
			result = SkipList{Docs: Intersect(result.Docs, next.Docs)}
		}
	}
	return result.Docs
}
