// internal/notify/render/renderer.go
package render

import (
	"fmt"
	"math"
	"strings"
	"time"

	"jobmatch-notifier/internal/common/logger"
	"jobmatch-notifier/internal/models"
)

const maxSMSLen = 160

// EmailContent is the rendered email message.
type EmailContent struct {
	Subject  string
	HTMLBody string
}

// Renderer maps a resolved application context to channel-specific
// message content. It holds no mutable state beyond the loaded template.
type Renderer struct {
	template     string
	templateOK   bool
	templatePath string
	logger       logger.Logger
}

func NewRenderer(templatePath string, log logger.Logger) *Renderer {
	tmpl, ok := loadTemplate(templatePath)
	if !ok && templatePath != "" {
		log.Warn("email template not found, using inline fallback", map[string]interface{}{
			"path": templatePath,
		})
	}
	return &Renderer{
		template:     tmpl,
		templateOK:   ok,
		templatePath: templatePath,
		logger:       log,
	}
}

// RenderEmail builds the subject and HTML body for the email channel.
func (r *Renderer) RenderEmail(appCtx *models.ApplicationContext) EmailContent {
	req := appCtx.Requirement
	score := MatchPercent(req.SimilarityScore)

	data := map[string]string{
		"candidate_name":           firstNameOrFallback(appCtx.Candidate.FirstName),
		"job_title":                req.Title,
		"company_name":             req.ClientName,
		"location":                 req.Location,
		"job_type":                 JobType(req.Duration),
		"match_score":              fmt.Sprintf("%d", score),
		"short_description":        CleanDescription(req.Description),
		"application_status":       strings.ToUpper(appCtx.Application.Status),
		"pay_rate":                 PayRate(req.MinPayRate, req.MaxPayRate),
		"duration":                 durationOrFallback(req.Duration),
		"open_date":                openDateOrFallback(req.OpenDate),
		"applied_at":               appliedAtOrNow(appCtx.Application.AppliedAt),
		"job_link":                 "https://rangam.com/job-applications",
		"support_link":             "https://rangam.com/support",
		"manage_subscription_link": "https://rangam.com/settings",
		"privacy_link":             "https://rangam.com/privacy",
		"unsubscribe_link":         "https://rangam.com/unsubscribe",
	}

	return EmailContent{
		Subject:  EmailSubject(req.Title, req.ClientName, score),
		HTMLBody: renderTemplate(r.template, data),
	}
}

// RenderSMS builds the fixed-template text message, hard-truncated to
// 160 characters regardless of content loss.
func (r *Renderer) RenderSMS(appCtx *models.ApplicationContext) string {
	text := fmt.Sprintf(
		"Hi %s! Job Matched: %s (%d%% fit). Auto-applied for you. Recruiter will contact soon!",
		firstNameOrFallback(appCtx.Candidate.FirstName),
		appCtx.Requirement.Title,
		MatchPercent(appCtx.Requirement.SimilarityScore),
	)
	if runes := []rune(text); len(runes) > maxSMSLen {
		text = string(runes[:maxSMSLen])
	}
	return text
}

// MatchPercent converts a 0.0–1.0 similarity score to an integer percent.
func MatchPercent(similarityScore float64) int {
	return int(math.Round(similarityScore * 100))
}

// JobType renders "Contract" or "Contract ({duration})".
func JobType(duration string) string {
	if duration == "" {
		return "Contract"
	}
	return fmt.Sprintf("Contract (%s)", duration)
}

// PayRate formats the hourly pay range from optional min/max rates.
func PayRate(minRate, maxRate *float64) string {
	switch {
	case minRate != nil && maxRate != nil:
		if *minRate == *maxRate {
			return fmt.Sprintf("$%.2f/hr", *minRate)
		}
		return fmt.Sprintf("$%.2f - $%.2f/hr", *minRate, *maxRate)
	case minRate != nil:
		return fmt.Sprintf("$%.2f+/hr", *minRate)
	case maxRate != nil:
		return fmt.Sprintf("Up to $%.2f/hr", *maxRate)
	default:
		return "Negotiable"
	}
}

func firstNameOrFallback(firstName string) string {
	if strings.TrimSpace(firstName) == "" {
		return "Candidate"
	}
	return firstName
}

func durationOrFallback(duration string) string {
	if strings.TrimSpace(duration) == "" {
		return "Not specified"
	}
	return strings.TrimSpace(duration)
}

func openDateOrFallback(openDate *time.Time) string {
	if openDate == nil {
		return "ASAP"
	}
	return openDate.Format("Jan 02, 2006")
}

func appliedAtOrNow(appliedAt *time.Time) string {
	t := time.Now().UTC()
	if appliedAt != nil {
		t = *appliedAt
	}
	return t.Format("Jan 02, 2006 at 03:04 PM")
}
