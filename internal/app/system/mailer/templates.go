// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// LinkEmailData holds data for emails that carry a single action link.
type LinkEmailData struct {
	SiteName  string
	Name      string
	Link      string
	ExpiresIn string // e.g., "24 hours"
}

// BuildVerificationEmail asks a new user to confirm their address.
func BuildVerificationEmail(to string, data LinkEmailData) Email {
	return Email{
		To:       to,
		Subject:  fmt.Sprintf("Verify your %s account", data.SiteName),
		TextBody: buildLinkText(data, "Please confirm your email address by opening this link:", "If you did not create an account, you can ignore this email."),
		HTMLBody: buildLinkHTML(linkHTML{
			LinkEmailData: data,
			Title:         "Verify your email",
			Intro:         "Thanks for signing up. Please confirm your email address to activate your account.",
			Button:        "Verify Email",
			Footer:        "If you did not create an account, you can ignore this email.",
		}),
		Template: "verification",
	}
}

// BuildPasswordResetEmail carries a single-use reset link.
func BuildPasswordResetEmail(to string, data LinkEmailData) Email {
	return Email{
		To:       to,
		Subject:  fmt.Sprintf("Reset your %s password", data.SiteName),
		TextBody: buildLinkText(data, "Someone asked to reset your password. Open this link to choose a new one:", "If you did not ask for this, you can ignore this email; your password is unchanged."),
		HTMLBody: buildLinkHTML(linkHTML{
			LinkEmailData: data,
			Title:         "Reset your password",
			Intro:         "Someone asked to reset the password for your account. Use the button below to choose a new one.",
			Button:        "Reset Password",
			Footer:        "If you did not ask for this, you can ignore this email; your password is unchanged.",
		}),
		Template: "reset",
	}
}

func buildLinkText(data LinkEmailData, intro, footer string) string {
	var buf bytes.Buffer
	if data.Name != "" {
		buf.WriteString(fmt.Sprintf("Hi %s,\n\n", data.Name))
	}
	buf.WriteString(intro + "\n\n")
	buf.WriteString(data.Link + "\n\n")
	if data.ExpiresIn != "" {
		buf.WriteString(fmt.Sprintf("This link expires in %s.\n\n", data.ExpiresIn))
	}
	buf.WriteString(footer + "\n")
	return buf.String()
}

type linkHTML struct {
	LinkEmailData
	Title  string
	Intro  string
	Button string
	Footer string
}

var linkTmpl = template.Must(template.New("link").Parse(linkHTMLTemplate))

func buildLinkHTML(data linkHTML) string {
	var buf bytes.Buffer
	_ = linkTmpl.Execute(&buf, data)
	return buf.String()
}

const linkHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Title}}</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #0f766e;">{{.SiteName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 32px;">
              {{if .Name}}<p style="margin: 0 0 16px; font-size: 16px; color: #374151;">Hi {{.Name}},</p>{{end}}
              <p style="margin: 0 0 24px; font-size: 16px; color: #374151; line-height: 1.5;">{{.Intro}}</p>
              <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
                <tr>
                  <td align="center">
                    <a href="{{.Link}}" style="display: inline-block; padding: 14px 32px; background-color: #0f766e; color: #ffffff; text-decoration: none; font-size: 16px; font-weight: 500; border-radius: 6px;">{{.Button}}</a>
                  </td>
                </tr>
              </table>
              {{if .ExpiresIn}}<p style="margin: 24px 0 0; font-size: 13px; color: #9ca3af; text-align: center;">This link expires in {{.ExpiresIn}}.</p>{{end}}
            </td>
          </tr>
          <tr>
            <td style="padding: 24px 32px; background-color: #f9fafb; border-top: 1px solid #e5e7eb; border-radius: 0 0 8px 8px;">
              <p style="margin: 0; font-size: 12px; color: #9ca3af; text-align: center;">{{.Footer}}</p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
