// Package formula parses and evaluates quantity formulas.
//
// The grammar is deliberately small: decimal numbers, identifiers bound by the
// caller, the binary operators + - * /, unary + and -, and parentheses.
//
//	expr    := term (('+' | '-') term)*
//	term    := unary (('*' | '/') unary)*
//	unary   := ('+' | '-') unary | primary
//	primary := NUMBER | IDENT | '(' expr ')'
//
// There are no function calls, attribute access or other operators, and input
// length and nesting depth are bounded, so a parsed Expr always evaluates in
// time linear in its size.
package formula
