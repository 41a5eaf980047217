package terminal

import (
	"fmt"
	"io"
	"os"
	"text/template"

	"github.com/de-tools/compliance-signals/pkg/models/domain"
)

// Reporter outputs reports to the console as plain indented text
type Reporter struct {
	writer io.Writer
}

// NewReporter creates a new console reporter
func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{writer: writer}
}

func (c *Reporter) Handle(report *domain.Report) error {
	tmpl := `{{.Title}} ({{.Period.Duration}})
{{range .Sections}}
{{.Title}}:
{{range $key, $value := .Summary}}  {{$key}}: {{$value}}
{{end}}{{range .Details}}  - {{.Name}}: {{.Value}}{{if .Unit}} {{.Unit}}{{end}}
{{end}}{{end}}`
	t, err := template.New("report").Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, report)
}
