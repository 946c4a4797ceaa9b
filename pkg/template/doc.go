// Package template compiles and renders email templates with a helper library
// compatible with the stored transactional templates.
//
// Templates use Go template syntax on top of html/template, so values are
// escaped for the HTML context they appear in. A Renderer owns a compile cache
// and a helper Registry. Helpers are resolved when a template is compiled:
// registering a helper affects every template compiled afterwards, never the
// ones already sitting in the cache.
//
// # Usage
//
//	r := template.NewRenderer()
//
//	html, err := r.Render(`<p>Total: {{formatCurrency .amount "EUR"}}</p>`,
//		template.Data{"amount": 19.5},
//		template.CacheKey(source),
//	)
//
// Passing an empty cache key compiles the source on every call. A non-empty key
// is trusted as the template identity: a cache hit returns the stored template
// without looking at the source again.
//
// # Helpers
//
// The built-in helpers are:
//
//   - formatDate date [mode]: modes default, short, long, time, datetime
//   - formatCurrency amount [code]: USD by default
//   - formatNumber n [decimals]
//   - eq, ne: loose comparison ("1" equals 1)
//   - gt, lt: numeric comparison, false for non-numbers
//   - length, isEmpty, isNotEmpty
//   - add, subtract, multiply, divide, modulo: division by zero yields 0
//   - uppercase, lowercase, capitalize, truncate
//   - json, currentYear, currentDate
//   - times n: ranges n times over items with Index (from 0) and Number (from 1)
//
// Malformed input never fails a render: helpers hand back the original value
// or a safe zero instead.
//
// Conditional blocks use the template language itself:
//
//	{{if eq .status "paid"}}Thanks!{{else}}Payment pending{{end}}
//	{{range times 3}}<li>Row {{.Number}}</li>{{end}}
//
// Custom helpers are registered per renderer:
//
//	r.RegisterHelper("shout", func(s string) string { return s + "!" })
//
// [WithSprig] adds the sprig function library underneath the built-ins.
package template
