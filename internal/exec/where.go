package exec

import (
	"sql5300/internal/sqlast"
	"sql5300/internal/value"
)

// whereDict flattens a parsed WHERE expression into the equality dictionary
// EvalPlan.Select expects (spec §4.7): only AND is a supported connective,
// only `=` is a supported comparison, and the column reference must be
// either unqualified or qualified with the FROM table itself.
func whereDict(where sqlast.Expr, fromTable string) (value.Row, error) {
	dict := value.Row{}
	if where == nil {
		return dict, nil
	}
	if err := flattenWhere(where, fromTable, dict); err != nil {
		return nil, err
	}
	return dict, nil
}

func flattenWhere(e sqlast.Expr, fromTable string, dict value.Row) error {
	switch node := e.(type) {
	case *sqlast.AndExpr:
		if err := flattenWhere(node.Left, fromTable, dict); err != nil {
			return err
		}
		return flattenWhere(node.Right, fromTable, dict)
	case *sqlast.EqExpr:
		if node.Column.Table != "" && node.Column.Table != fromTable {
			return newExecError("Unknown table %s", node.Column.Table)
		}
		dict[node.Column.Column] = literalValue(node.Value)
		return nil
	default:
		return newExecError("Unsupported WHERE expression")
	}
}

func literalValue(lit sqlast.Literal) value.Value {
	if lit.Kind == sqlast.StringLiteral {
		return value.NewText(lit.S)
	}
	return value.NewInt(lit.I)
}
