// Package fsstore implements the mailservice stores on top of an fs.FS,
// typically os.DirFS or an embed.FS shipped with the binary.
//
// A template file carries its subject in YAML frontmatter:
//
//	---
//	subject: Welcome, {{.name}}
//	---
//	<p>Hi {{.name}}, thanks for signing up.</p>
//
// configs.yaml maps config names to SMTP settings. Passwords written as
// ${VAR} are read from the environment at lookup time:
//
//	marketing:
//	  host: smtp.sendgrid.net
//	  port: 587
//	  username: apikey@example.com
//	  password: ${SENDGRID_API_KEY}
//	  from_name: Acme
//	  from_email: news@acme.io
package fsstore
