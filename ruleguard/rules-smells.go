package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

func smells(m dsl.Matcher) {
	// Two consecutive guards returning the same value are mergeable:
	//   if a { return err }
	//   if b { return err }
	// => if a || b { return err }
	m.Match(`if $c1 { return $ret }; if $c2 { return $ret }`).
		Report(`two consecutive guards return the same value; consider merging conditions with ||`).
		Suggest(`if $c1 || $c2 { return $ret }`)

	m.Match(`if $c1 { continue }; if $c2 { continue }`).
		Report(`two consecutive continues; consider merging conditions with ||`).
		Suggest(`if $c1 || $c2 { continue }`)

	m.Match(`for $*_ { for $*_ { $*_ } }`).
		Report(`nested for-loop; consider extracting inner loop logic or reducing algorithmic complexity`)
}

func streaming(m dsl.Matcher) {
	// SSE handlers must flush after each event or chunks buffer until the
	// stream ends.
	m.Match(`fmt.Fprintf($w, "data: %s\n\n", $*_)`).
		Where(!m.File().Name.Matches(`.*sse.*`)).
		Report(`raw SSE frame written outside the sse package; use sse.Writer so events are flushed`)
}
