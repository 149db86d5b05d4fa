package reminder

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/smokyabdulrahman/salahclock/internal/prayer"
	"github.com/smokyabdulrahman/salahclock/internal/schedule"
	"github.com/smokyabdulrahman/salahclock/internal/store"
)

// Message is one outgoing email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

type emailRow struct {
	Name    string
	Time    string
	Sunrise bool
}

type emailData struct {
	Name     string
	Postcode string
	Date     string
	Hijri    string
	Rows     []emailRow
	Method   string
}

var emailTmpl = template.Must(template.New("reminder").Parse(`<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;background:#f4f7f8;font-family:Arial,Helvetica,sans-serif;color:#1f2937;">
  <table width="100%" cellpadding="0" cellspacing="0" style="max-width:560px;margin:24px auto;background:#ffffff;border-radius:8px;overflow:hidden;">
    <tr>
      <td style="background:#186b7a;color:#ffffff;padding:24px;text-align:center;">
        <h1 style="margin:0;font-size:22px;">Today's Prayer Times</h1>
        <p style="margin:8px 0 0;font-size:14px;">{{.Postcode}} &middot; {{.Date}}</p>
        {{- if .Hijri}}
        <p style="margin:4px 0 0;font-size:13px;">{{.Hijri}}</p>
        {{- end}}
      </td>
    </tr>
    <tr>
      <td style="padding:24px;">
        {{- if .Name}}
        <p style="margin:0 0 16px;">Assalamu alaikum {{.Name}},</p>
        {{- end}}
        <table width="100%" cellpadding="8" cellspacing="0" style="border-collapse:collapse;">
          {{- range .Rows}}
          <tr style="border-bottom:1px solid #e5e7eb;">
            <td style="font-weight:bold;{{if .Sunrise}}color:#f59e0b;{{end}}">{{.Name}}</td>
            <td style="text-align:right;{{if .Sunrise}}color:#f59e0b;{{end}}">{{.Time}}</td>
          </tr>
          {{- end}}
        </table>
        <p style="margin:24px 0 0;text-align:center;color:#186b7a;">May Allah accept your prayers</p>
      </td>
    </tr>
    <tr>
      <td style="background:#f9fafb;padding:16px;text-align:center;font-size:12px;color:#6b7280;">
        {{- if .Method}}
        <p style="margin:0 0 8px;">Calculated using the {{.Method}} method.</p>
        {{- end}}
        <p style="margin:0;"><a href="https://salahclock.uk" style="color:#186b7a;">salahclock.uk</a>
          &middot; <a href="https://salahclock.uk/notifications" style="color:#186b7a;">Manage notifications</a></p>
      </td>
    </tr>
  </table>
</body>
</html>
`))

// Subject is the subject line for a postcode's reminder.
func Subject(postcode string) string {
	return "Today's Prayer Times - " + postcode
}

// Compose renders the reminder for r from d. The caller sets To.
func Compose(r store.Recipient, d *schedule.Day, method string) (Message, error) {
	data := emailData{
		Name:     r.Name,
		Postcode: r.Postcode,
		Date:     d.Schedule.Date().Format("Monday, 2 January 2006"),
		Hijri:    d.DateInfo.Hijri.Format(),
		Method:   method,
	}
	for _, e := range d.Schedule.Entries() {
		data.Rows = append(data.Rows, emailRow{Name: string(e.Name), Time: e.Clock.String(), Sunrise: e.Name == prayer.Sunrise})
	}

	var buf bytes.Buffer
	if err := emailTmpl.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("render reminder: %w", err)
	}
	return Message{Subject: Subject(r.Postcode), HTML: buf.String()}, nil
}
