package application

import (
	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"

	"txflow/internal/pkg/apperr"
)

type rule struct {
	expr    string
	program cel.Program
}

// Policy 是一组下单前必须全部为 true 的 CEL 表达式。
//
// 可用变量：
//
//	customer_name   string
//	customer_email  string
//	skus            list(string)
//	item_count      int
//	total_quantity  int
type Policy struct {
	rules []rule
}

func NewPolicy(exprs []string) (*Policy, error) {
	env, err := cel.NewEnv(
		cel.Variable("customer_name", cel.StringType),
		cel.Variable("customer_email", cel.StringType),
		cel.Variable("skus", cel.ListType(cel.StringType)),
		cel.Variable("item_count", cel.IntType),
		cel.Variable("total_quantity", cel.IntType),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create cel env")
	}
	p := &Policy{}
	for _, expr := range exprs {
		ast, iss := env.Compile(expr)
		if iss.Err() != nil {
			return nil, errors.Wrapf(iss.Err(), "compile policy rule %q", expr)
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, errors.Wrapf(err, "build policy rule %q", expr)
		}
		p.rules = append(p.rules, rule{expr: expr, program: prg})
	}
	return p, nil
}

// Check 依次求值，任一规则为 false 或求值出错都返回 InvalidArgument
func (p *Policy) Check(req *CreateOrderRequest) error {
	if len(p.rules) == 0 {
		return nil
	}
	skus := make([]string, 0, len(req.Items))
	var total int64
	for _, it := range req.Items {
		skus = append(skus, it.SKU)
		total += int64(it.Quantity)
	}
	vars := map[string]any{
		"customer_name":  req.CustomerName,
		"customer_email": req.CustomerEmail,
		"skus":           skus,
		"item_count":     int64(len(req.Items)),
		"total_quantity": total,
	}
	for _, r := range p.rules {
		out, _, err := r.program.Eval(vars)
		if err != nil {
			return apperr.Wrap(err, apperr.KindInvalidArgument, "policy rule %q could not be evaluated", r.expr)
		}
		ok, isBool := out.Value().(bool)
		if !isBool {
			return apperr.InvalidArgument("policy rule %q did not produce a bool", r.expr)
		}
		if !ok {
			return apperr.InvalidArgument("order rejected by policy: %s", r.expr)
		}
	}
	return nil
}
