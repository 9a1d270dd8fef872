package imagery

import (
	"bytes"
	"encoding/json"
	"html/template"
	"time"
)

// RevisitInterval is the nominal Landsat revisit period quoted in summaries.
const RevisitInterval = 16 * 24 * time.Hour

const summarySubject = "Landsat Data Notification"

var summaryTemplate = template.Must(template.New("summary").Parse(`<html><body>
<h2>Hello,</h2>
<p>We are pleased to provide you with the Landsat data for the location you selected.</p>
<p><strong>Location:</strong> Latitude: {{.Lat}}, Longitude: {{.Lon}}</p>
{{if .Data}}<p><strong>Data:</strong> {{.Data}}</p>{{else}}<p><strong>Data:</strong> no imagery record fetched yet</p>{{end}}
<p><strong>Landsat Revisit Time:</strong> {{.Revisit}}</p>
{{if .Link}}<p><strong>Link to access the data:</strong> <a href="{{.Link}}">Access Data</a></p>{{end}}
{{if .Attached}}<p>The time-lapse animation ({{.Frames}} frames) is attached.</p>{{end}}
<p>Best regards,<br>Your Landsat Data Team</p>
</body></html>`))

type summaryData struct {
	Lat      float64
	Lon      float64
	Data     string
	Revisit  string
	Link     string
	Attached bool
	Frames   int
}

// buildSummary renders the HTML body of the notification.
func buildSummary(coord Coordinate, rec *Record, art *Artifact, link string, now time.Time) (string, error) {
	data := summaryData{
		Lat:     coord.Lat,
		Lon:     coord.Lon,
		Revisit: now.Add(RevisitInterval).Format("2006-01-02 15:04:05"),
		Link:    link,
	}
	if rec != nil {
		raw, err := json.Marshal(rec.Metadata)
		if err != nil {
			return "", err
		}
		data.Data = string(raw)
	}
	if art != nil {
		data.Attached = true
		data.Frames = art.Frames
	}

	var buf bytes.Buffer
	if err := summaryTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
