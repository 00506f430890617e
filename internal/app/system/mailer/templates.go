// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// ResetEmailData fills the password-reset message.
type ResetEmailData struct {
	SiteName  string
	Name      string
	ResetLink string
	ExpiresIn string // e.g. "60 דקות"
}

// BuildResetEmail returns the reset message with text and HTML bodies.
// To is left for the caller.
func BuildResetEmail(data ResetEmailData) Email {
	return Email{
		Subject:  fmt.Sprintf("איפוס סיסמה - %s", data.SiteName),
		TextBody: buildResetText(data),
		HTMLBody: buildResetHTML(data),
	}
}

func buildResetText(data ResetEmailData) string {
	var buf bytes.Buffer
	if data.Name != "" {
		fmt.Fprintf(&buf, "שלום %s,\n\n", data.Name)
	}
	fmt.Fprintf(&buf, "התקבלה בקשה לאיפוס הסיסמה שלך ב-%s.\n", data.SiteName)
	buf.WriteString("לבחירת סיסמה חדשה יש להיכנס לקישור:\n")
	buf.WriteString(data.ResetLink + "\n\n")
	fmt.Fprintf(&buf, "הקישור בתוקף למשך %s.\n\n", data.ExpiresIn)
	buf.WriteString("אם לא ביקשת לאפס את הסיסמה, אפשר להתעלם מהודעה זו.\n")
	return buf.String()
}

var resetHTML = template.Must(template.New("reset").Parse(resetHTMLTemplate))

func buildResetHTML(data ResetEmailData) string {
	var buf bytes.Buffer
	_ = resetHTML.Execute(&buf, data)
	return buf.String()
}

const resetHTMLTemplate = `<!DOCTYPE html>
<html lang="he" dir="rtl">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>איפוס סיסמה</title>
</head>
<body style="margin: 0; padding: 0; font-family: Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 22px; color: #2f6b3a;">{{.SiteName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 32px; text-align: right;">
              {{if .Name}}<p style="margin: 0 0 16px; font-size: 16px; color: #374151;">שלום {{.Name}},</p>{{end}}
              <p style="margin: 0 0 24px; font-size: 16px; color: #374151; line-height: 1.5;">
                התקבלה בקשה לאיפוס הסיסמה שלך. לבחירת סיסמה חדשה:
              </p>
              <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
                <tr>
                  <td align="center">
                    <a href="{{.ResetLink}}" style="display: inline-block; padding: 14px 32px; background-color: #2f6b3a; color: #ffffff; text-decoration: none; font-size: 16px; border-radius: 6px;">
                      איפוס סיסמה
                    </a>
                  </td>
                </tr>
              </table>
              <p style="margin: 24px 0 0; font-size: 13px; color: #9ca3af; text-align: center;">
                הקישור בתוקף למשך {{.ExpiresIn}}.
              </p>
            </td>
          </tr>
          <tr>
            <td style="padding: 24px 32px; background-color: #f9fafb; border-top: 1px solid #e5e7eb;">
              <p style="margin: 0; font-size: 12px; color: #9ca3af; text-align: center;">
                אם לא ביקשת לאפס את הסיסמה, אפשר להתעלם מהודעה זו.
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
