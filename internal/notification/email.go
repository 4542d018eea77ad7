package notification

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/resend/resend-go/v2"
)

type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

type ResendMailer struct {
	client *resend.Client
	from   string
}

func NewResendMailer(apiKey, from string) *ResendMailer {
	return &ResendMailer{client: resend.NewClient(apiKey), from: from}
}

func (m *ResendMailer) Send(ctx context.Context, to, subject, html string) error {
	_, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	})
	if err != nil {
		return fmt.Errorf("resend: failed to send to %s: %w", to, err)
	}
	return nil
}

// RankDigest is the data behind the leaderboard email.
type RankDigest struct {
	Name         string
	Rank         int
	PreviousRank int
	Score        float64
	TotalUsers   int
	ProfileURL   string
	LeaderURL    string
}

func (d RankDigest) Movement() int {
	if d.PreviousRank == 0 {
		return 0
	}
	return d.PreviousRank - d.Rank
}

func (d RankDigest) AbsMovement() int {
	if m := d.Movement(); m < 0 {
		return -m
	}
	return d.Movement()
}

var digestTemplate = template.Must(template.New("digest").Parse(`<!doctype html>
<html><body style="font-family:sans-serif;color:#111">
<h2>Hi {{.Name}},</h2>
<p>You are <strong>#{{.Rank}}</strong> of {{.TotalUsers}} on the Campus Rank leaderboard with a score of <strong>{{printf "%.2f" .Score}}</strong>.</p>
{{if gt .Movement 0}}<p style="color:#15803d">Up {{.Movement}} since the last update. Keep going!</p>
{{else if lt .Movement 0}}<p style="color:#b91c1c">Down {{.AbsMovement}} since the last update.</p>
{{else}}<p>No change since the last update.</p>{{end}}
<p><a href="{{.ProfileURL}}">Your profile</a> · <a href="{{.LeaderURL}}">Full leaderboard</a></p>
</body></html>`))

func RenderDigest(d RankDigest) (string, error) {
	var buf bytes.Buffer
	if err := digestTemplate.Execute(&buf, d); err != nil {
		return "", fmt.Errorf("failed to render digest: %w", err)
	}
	return buf.String(), nil
}
