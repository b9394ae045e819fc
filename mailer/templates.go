package mailer

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"net/url"
	texttemplate "text/template"
)

// content is one rendered message.
type content struct {
	Subject string
	Text    string
	HTML    string
}

type templateData struct {
	Name      string
	Email     string
	Code      string
	Link      string
	Dashboard string
	Validity  string
}

type templatePair struct {
	subject string
	text    *texttemplate.Template
	html    *htmltemplate.Template
}

func newPair(name, subject, text, html string) templatePair {
	return templatePair{
		subject: subject,
		text:    texttemplate.Must(texttemplate.New(name).Parse(text)),
		html:    htmltemplate.Must(htmltemplate.New(name).Parse(html)),
	}
}

func (p templatePair) render(d templateData) (content, error) {
	var text, html bytes.Buffer
	if err := p.text.Execute(&text, d); err != nil {
		return content{}, fmt.Errorf("render %s text: %w", p.text.Name(), err)
	}
	if err := p.html.Execute(&html, d); err != nil {
		return content{}, fmt.Errorf("render %s html: %w", p.html.Name(), err)
	}
	return content{Subject: p.subject, Text: text.String(), HTML: html.String()}, nil
}

const layoutHead = `<!DOCTYPE html><html><head><meta charset="utf-8"></head>
<body style="font-family: Arial, sans-serif; color: #333; line-height: 1.6;">
<div style="max-width: 600px; margin: 0 auto; padding: 20px;">`

const layoutFoot = `</div></body></html>`

var (
	verificationTemplate = newPair("verification", "Verify Your Email Address",
		`Welcome, {{.Name}}!

Please verify your email address to finish setting up your account:
{{.Link}}

The link expires in {{.Validity}}. If you did not create an account, ignore this email.
`,
		layoutHead+`
<h2>Welcome to Our Platform, {{.Name}}!</h2>
<p>Thank you for registering. Please verify your email address to complete your account setup.</p>
<p style="text-align: center; margin: 30px 0;">
  <a href="{{.Link}}" style="background-color: #007bff; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px;">Verify Email Address</a>
</p>
<p style="color: #666; font-size: 14px;">If the button doesn't work, copy this link into your browser:<br><a href="{{.Link}}">{{.Link}}</a></p>
<p style="color: #666; font-size: 12px;">This link expires in {{.Validity}}. If you didn't create an account, please ignore this email.</p>
`+layoutFoot)

	resetOTPTemplate = newPair("reset_otp", "Password Reset OTP",
		`Hello {{.Name}},

Your password reset OTP is: {{.Code}}

It is valid for {{.Validity}}. Do not share it with anyone.
If you did not request a reset, ignore this email and your password stays unchanged.
`,
		layoutHead+`
<h2>Password Reset OTP</h2>
<p>Hello {{.Name}},</p>
<p>Your password reset OTP is:</p>
<div style="text-align: center; margin: 30px 0; background-color: #f8f9fa; padding: 20px; border-radius: 5px; font-size: 24px; font-weight: bold; letter-spacing: 5px;">{{.Code}}</div>
<p style="color: #666; font-size: 14px;">This OTP is valid for {{.Validity}} only. Please do not share it with anyone.</p>
<p style="color: #666; font-size: 12px;">If you didn't request a password reset, ignore this email and your password will remain unchanged.</p>
`+layoutFoot)

	welcomeTemplate = newPair("welcome", "Welcome to Our Platform!",
		`Welcome, {{.Name}}!

Your email has been verified and your account is active.
Dashboard: {{.Dashboard}}
`,
		layoutHead+`
<h2 style="color: #28a745;">Welcome, {{.Name}}!</h2>
<p>Your email has been successfully verified and your account is now active.</p>
<p style="text-align: center; margin: 30px 0;">
  <a href="{{.Dashboard}}" style="background-color: #28a745; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px;">Go to Dashboard</a>
</p>
`+layoutFoot)
)

func verificationLink(frontend, email, token string) string {
	q := url.Values{}
	q.Set("token", token)
	q.Set("email", email)
	return frontend + "/verify-email?" + q.Encode()
}
