// Package mailservice sends stored templates over stored transport configs.
//
// A Service sits between callers that only know names (a template name, a
// transport config name) and the mailer package. Templates come from a
// TemplateStore and SMTP settings from a ConfigStore; both are seams to
// persistence, implemented by the fsstore and pgstore sub-packages. Every
// call builds a fresh mailer from the resolved config and closes it after
// the send. All mailers share the service's template renderer.
//
//	svc := mailservice.New(templates, configs, cfg,
//		mailservice.WithLogger(log),
//		mailservice.WithMailerOptions(mailer.WithMetrics(metrics)),
//	)
//	err := svc.SendEmailWithTemplate(ctx, mailservice.TemplateParams{
//		TemplateName: "welcome",
//		ConfigName:   "marketing",
//		To:           []string{"ann@example.com"},
//		Data:         template.Data{"name": "Ann"},
//	})
//	if errors.Is(err, mailservice.ErrTemplateNotFound) {
//		// unknown template
//	}
//
// Unlike mailer.Mailer, the service returns errors. Send failures keep their
// mailer error (errors.Is works with mailer.ErrTransport and friends) and
// are prefixed with the template name and recipients.
//
// Wrap a TemplateStore with NewCachedTemplateStore to avoid a store round
// trip on every send.
package mailservice
