package notify

import (
	"bytes"
	"html/template"
	"time"
)

var (
	welcomeTmpl = template.Must(template.New("welcome").Parse(`<h2>Welcome, {{.Name}}!</h2>
<p>Your {{.Role}} account has been created.</p>
{{if .Pending}}<p>An administrator will review your registration shortly.</p>{{end}}
<p><a href="{{.Link}}">Sign in</a></p>`))

	createdTmpl = template.Must(template.New("created").Parse(`<h2>Booking received</h2>
<p>Hi {{.Name}}, we have received your request #{{.ID}}.</p>
<ul>
<li>From: {{.Pickup}}</li>
<li>To: {{.Dropoff}}</li>
<li>Moving date: {{.Date}}</li>
<li>Service: {{.ServiceType}}</li>
</ul>
<p><a href="{{.Link}}">Track your booking</a></p>`))

	cancelledTmpl = template.Must(template.New("cancelled").Parse(`<h2>Booking cancelled</h2>
<p>Hi {{.Name}}, your request #{{.ID}} from {{.Pickup}} to {{.Dropoff}} has been cancelled.</p>
<p><a href="{{.Link}}">Book again</a></p>`))
)

// Welcome is sent after registration.
func Welcome(to, name, role string, pending bool, frontendURL string) (Message, error) {
	body, err := render(welcomeTmpl, map[string]any{
		"Name":    name,
		"Role":    role,
		"Pending": pending,
		"Link":    frontendURL + "/login",
	})
	return Message{To: to, Subject: "Welcome to Hydrox Movers & Packers", HTML: body}, err
}

// BookingDetails are the request fields shown in booking emails.
type BookingDetails struct {
	ID          uint
	Pickup      string
	Dropoff     string
	MovingDate  time.Time
	ServiceType string
}

// RequestCreated confirms a new booking to its client.
func RequestCreated(to, name string, b BookingDetails, frontendURL string) (Message, error) {
	body, err := render(createdTmpl, map[string]any{
		"Name":        name,
		"ID":          b.ID,
		"Pickup":      b.Pickup,
		"Dropoff":     b.Dropoff,
		"Date":        b.MovingDate.Format("Mon, 02 Jan 2006"),
		"ServiceType": b.ServiceType,
		"Link":        frontendURL + "/orders",
	})
	return Message{To: to, Subject: "Your moving request has been received", HTML: body}, err
}

// RequestCancelled tells a client its booking was cancelled.
func RequestCancelled(to, name string, b BookingDetails, frontendURL string) (Message, error) {
	body, err := render(cancelledTmpl, map[string]any{
		"Name":    name,
		"ID":      b.ID,
		"Pickup":  b.Pickup,
		"Dropoff": b.Dropoff,
		"Link":    frontendURL + "/booking",
	})
	return Message{To: to, Subject: "Your moving request was cancelled", HTML: body}, err
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
