package smtp

import "strings"

// Service is the connection preset of a well-known mail provider.
type Service struct {
	Host   string
	Port   int
	Secure bool
}

var services = map[string]Service{
	"gmail":      {Host: "smtp.gmail.com", Port: 465, Secure: true},
	"googlemail": {Host: "smtp.gmail.com", Port: 465, Secure: true},
	"outlook":    {Host: "smtp-mail.outlook.com", Port: 587},
	"hotmail":    {Host: "smtp-mail.outlook.com", Port: 587},
	"office365":  {Host: "smtp.office365.com", Port: 587},
	"yahoo":      {Host: "smtp.mail.yahoo.com", Port: 465, Secure: true},
	"icloud":     {Host: "smtp.mail.me.com", Port: 587},
	"zoho":       {Host: "smtp.zoho.com", Port: 465, Secure: true},
	"sendgrid":   {Host: "smtp.sendgrid.net", Port: 587},
	"mailgun":    {Host: "smtp.mailgun.org", Port: 465, Secure: true},
	"postmark":   {Host: "smtp.postmarkapp.com", Port: 2525},
	"ses":        {Host: "email-smtp.us-east-1.amazonaws.com", Port: 465, Secure: true},
	"mailjet":    {Host: "in-v3.mailjet.com", Port: 587},
	"brevo":      {Host: "smtp-relay.brevo.com", Port: 587},
}

// LookupService returns the preset for a provider name, case-insensitively.
// Spaces, dots and dashes in the name are ignored.
func LookupService(name string) (Service, bool) {
	key := strings.NewReplacer(" ", "", ".", "", "-", "", "_", "").Replace(strings.ToLower(name))
	s, ok := services[key]
	return s, ok
}
