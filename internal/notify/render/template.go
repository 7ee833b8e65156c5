// internal/notify/render/template.go
package render

import (
	"fmt"
	"os"
	"strings"
)

// fallbackTemplate is the explicit minimal notice used when the HTML
// template asset is missing. A misconfigured template path must never
// produce a blank message.
const fallbackTemplate = `<html><body>
<p>Hi {{candidate_name}},</p>
<p>We applied to <strong>{{job_title}}</strong> at {{company_name}} on your behalf ({{match_score}}% match).</p>
<p>Location: {{location}} | Type: {{job_type}}</p>
<p>{{short_description}}</p>
<p>A recruiter will contact you soon.</p>
</body></html>`

// loadTemplate reads the HTML email template from the configured path,
// falling back to the inline minimal notice.
func loadTemplate(path string) (string, bool) {
	if path == "" {
		return fallbackTemplate, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fallbackTemplate, false
	}
	return string(data), true
}

// renderTemplate substitutes {{name}} placeholders. Placeholders without
// a value are left visible in the output rather than silently removed,
// so a broken substitution shows up in the rendered message instead of
// producing a half-empty one.
func renderTemplate(tmpl string, data map[string]string) string {
	result := tmpl
	for k, v := range data {
		result = strings.ReplaceAll(result, "{{"+k+"}}", v)
	}
	return result
}

// EmailSubject builds the dynamic subject line.
func EmailSubject(jobTitle, companyName string, matchScore int) string {
	return fmt.Sprintf("✓ Applied: %s at %s (%d%% match)", jobTitle, companyName, matchScore)
}
