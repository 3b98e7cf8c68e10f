package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

func smells(m dsl.Matcher) {
	// 1) SQL assembled with Sprintf bypasses the driver's placeholders.
	m.Match(`$db.ExecContext($ctx, fmt.Sprintf($*_), $*_)`,
		`$db.QueryContext($ctx, fmt.Sprintf($*_), $*_)`,
		`$db.QueryRowContext($ctx, fmt.Sprintf($*_), $*_)`).
		Report(`SQL built with fmt.Sprintf; use ? placeholders and bind arguments`)

	// 2) math.Pow for squaring hides a cheap multiply and loses exactness.
	m.Match(`math.Pow($x, 2)`).
		Report(`math.Pow(x, 2) is slower and less exact than x*x`).
		Suggest(`$x * $x`)

	// 3) Exact float comparison between computed values; iteration results
	//    should be compared against a tolerance.
	m.Match(`$x == $y`, `$x != $y`).
		Where(m["x"].Type.Is(`float64`) && !m["x"].Const && !m["y"].Const).
		Report(`float equality comparison; compare |x - y| against a tolerance instead`)
}
