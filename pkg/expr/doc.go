// Package expr implements the predicate language used by selectors,
// partitions, and bundle flow filters.
//
// A predicate is a boolean expression over a flat attribute namespace:
//
//	type == "farm"
//	source.organic == "yes" and material != "waste"
//	value > 10 or sector in ("steel", "aluminium")
//	not (target.location == "exports")
//
// # Grammar
//
//	expr       := or
//	or         := and { ("or" | "||") and }
//	and        := unary { ("and" | "&&") unary }
//	unary      := ("not" | "!") unary | primary
//	primary    := "(" expr ")" | comparison
//	comparison := operand ( cmpOp operand | "in" "(" literal {"," literal} ")" )
//	cmpOp      := "==" | "!=" | "<" | "<=" | ">" | ">="
//	operand    := IDENT | STRING | NUMBER
//
// Identifiers may contain dots ("source.organic"), letters, digits, and
// underscores. String literals use single or double quotes.
//
// # Semantics
//
// Equality, inequality, and membership compare attribute values as strings.
// Ordered comparisons (< <= > >=) coerce both sides to float64 and fail if
// either side is not numeric. Referencing an attribute the environment does
// not provide fails with ErrUnknownAttribute; callers decide whether that is
// fatal (it is, for dataset queries).
//
// Evaluation is a pure function of the predicate and the environment, so
// repeated evaluation over the same row always yields the same result.
package expr
