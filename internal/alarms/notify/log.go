package notify

import (
	"bytes"
	"context"
	"errors"
	"log"
	"text/template"
	"time"

	alarmapp "solarpark-cloud/internal/alarms/application"
)

// DefaultTemplate is the rendered shape of a logged alarm line.
const DefaultTemplate = `inverter alarm: device={{.DeviceID}} imei={{.IMEI}} location={{.LocationID}} state={{.State}} alarm={{.AlarmName}} at={{.AlarmAt}}`

// TemplateData provides fields for rendering alarm notifications.
type TemplateData struct {
	DeviceID   string
	LocationID string
	IMEI       string
	State      string
	AlarmName  string
	AlarmAt    string
}

// Template renders alarm notification content.
type Template struct {
	tpl *template.Template
}

// NewTemplate parses a notification template, falling back to DefaultTemplate.
func NewTemplate(tpl string) (*Template, error) {
	if tpl == "" {
		tpl = DefaultTemplate
	}
	parsed, err := template.New("alarm-notification").Parse(tpl)
	if err != nil {
		return nil, err
	}
	return &Template{tpl: parsed}, nil
}

// Render applies the template to data.
func (t *Template) Render(data TemplateData) (string, error) {
	if t == nil || t.tpl == nil {
		return "", errors.New("alarm template: nil")
	}
	var buf bytes.Buffer
	if err := t.tpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// LogNotifier writes rendered alarm events to a logger.
type LogNotifier struct {
	template *Template
	logger   *log.Logger
}

// NewLogNotifier constructs a LogNotifier.
func NewLogNotifier(template *Template, logger *log.Logger) (*LogNotifier, error) {
	if template == nil {
		return nil, errors.New("log notifier: nil template")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &LogNotifier{template: template, logger: logger}, nil
}

// Notify implements alarmapp.AlarmNotifier.
func (n *LogNotifier) Notify(_ context.Context, event alarmapp.AlarmEvent) {
	if n == nil {
		return
	}
	line, err := n.template.Render(TemplateData{
		DeviceID:   event.DeviceID,
		LocationID: event.LocationID,
		IMEI:       event.IMEI,
		State:      event.State,
		AlarmName:  event.AlarmName,
		AlarmAt:    formatAlarmAt(event.AlarmAt),
	})
	if err != nil {
		n.logger.Printf("alarm notify: render: %v", err)
		return
	}
	n.logger.Print(line)
}

func formatAlarmAt(at *time.Time) string {
	if at == nil {
		return "unknown"
	}
	return at.UTC().Format(time.RFC3339)
}
