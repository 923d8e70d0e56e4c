package filter

import (
	"fmt"
	"strings"

	"github.com/pocketbase/dbx"
)

// Compile lowers a parsed expression into a SQL boolean fragment (using
// dbx's {:name} bind-parameter syntax) plus its parameter set, evaluated
// as a correlated subquery against the activity_properties table keyed
// by activity_tiles.activity_id. This is the "store-native predicate"
// spec.md §4.5/§9 calls for: the store embeds the fragment directly into
// its iter_tiles scan, so filtering happens during the scan rather than
// after materializing rows in application code.
//
// A nil expression (the all-pass filter) compiles to "1=1".
func Compile(e *Expr) (string, dbx.Params) {
	c := &compiler{params: dbx.Params{}}
	sql := c.compile(e)
	if sql == "" {
		sql = "1=1"
	}
	return sql, c.params
}

type compiler struct {
	params dbx.Params
	n      int
}

func (c *compiler) bind(v any) string {
	name := fmt.Sprintf("f%d", c.n)
	c.n++
	c.params[name] = v
	return "{:" + name + "}"
}

// activityIDColumn is the column in the outer query (activity_tiles)
// the compiled EXISTS subqueries correlate against.
const activityIDColumn = "activity_tiles.activity_id"

func (c *compiler) compile(e *Expr) string {
	if e == nil {
		return ""
	}
	switch e.Kind {
	case ExprAnd:
		return fmt.Sprintf("(%s AND %s)", c.compile(e.Left), c.compile(e.Right))
	case ExprOr:
		return fmt.Sprintf("(%s OR %s)", c.compile(e.Left), c.compile(e.Right))
	case ExprNot:
		return fmt.Sprintf("NOT (%s)", c.compile(e.Inner))
	case ExprHas:
		return fmt.Sprintf(
			"EXISTS (SELECT 1 FROM activity_properties p WHERE p.activity_id = %s AND p.key = %s)",
			activityIDColumn, c.bind(e.Key))
	case ExprCmp:
		return c.compileCmp(e)
	case ExprIn:
		return c.compileIn(e)
	case ExprLike:
		return c.compileLike(e)
	}
	return "1=1"
}

func (c *compiler) compileCmp(e *Expr) string {
	if e.Value.Kind != ValNumber && e.Op != OpEq && e.Op != OpNe {
		// Eval treats ordering comparisons on strings and bools as false.
		return "1=0"
	}
	keyParam := c.bind(e.Key)
	switch e.Value.Kind {
	case ValNumber:
		col := "p.value_num"
		return fmt.Sprintf(
			"EXISTS (SELECT 1 FROM activity_properties p WHERE p.activity_id = %s AND p.key = %s AND p.value_type = 'number' AND %s %s %s)",
			activityIDColumn, keyParam, col, e.Op.String(), c.bind(e.Value.Num))
	case ValString:
		col := "p.value_str"
		op := e.Op.String()
		return fmt.Sprintf(
			"EXISTS (SELECT 1 FROM activity_properties p WHERE p.activity_id = %s AND p.key = %s AND p.value_type = 'string' AND %s %s %s)",
			activityIDColumn, keyParam, col, op, c.bind(e.Value.Str))
	case ValBool:
		col := "p.value_bool"
		v := 0
		if e.Value.Bool {
			v = 1
		}
		return fmt.Sprintf(
			"EXISTS (SELECT 1 FROM activity_properties p WHERE p.activity_id = %s AND p.key = %s AND p.value_type = 'bool' AND %s %s %s)",
			activityIDColumn, keyParam, col, e.Op.String(), c.bind(v))
	}
	return "1=0"
}

func (c *compiler) compileIn(e *Expr) string {
	keyParam := c.bind(e.Key)
	placeholders := make([]string, 0, len(e.Values))
	for _, v := range e.Values {
		if v.Kind != ValString {
			continue
		}
		placeholders = append(placeholders, c.bind(v.Str))
	}
	if len(placeholders) == 0 {
		return "1=0"
	}
	return fmt.Sprintf(
		"EXISTS (SELECT 1 FROM activity_properties p WHERE p.activity_id = %s AND p.key = %s AND p.value_type = 'string' AND p.value_str IN (%s))",
		activityIDColumn, keyParam, strings.Join(placeholders, ", "))
}

func (c *compiler) compileLike(e *Expr) string {
	keyParam := c.bind(e.Key)
	// Escape '_' (and the escape character itself) so that, as in
	// likeMatch, '%' is the only wildcard.
	pattern := strings.NewReplacer(`\`, `\\`, `_`, `\_`).Replace(e.Like)
	return fmt.Sprintf(
		"EXISTS (SELECT 1 FROM activity_properties p WHERE p.activity_id = %s AND p.key = %s AND p.value_type = 'string' AND p.value_str LIKE %s ESCAPE '\\')",
		activityIDColumn, keyParam, c.bind(pattern))
}
