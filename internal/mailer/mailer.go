// Package mailer sends generated posts by email with the markdown document and image attached.
package mailer

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/snappy-loop/blogs/internal/markup"
	"github.com/snappy-loop/blogs/internal/storage"
)

// Post is what gets mailed: the keyword doubles as the title.
type Post struct {
	Keyword     string
	BlogContent string
	ContentHTML string
	ImageURL    string
}

// Mailer delivers a post to one recipient.
type Mailer interface {
	SendPost(ctx context.Context, to string, post Post) error
}

type sendClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGrid sends through the SendGrid v3 API.
type SendGrid struct {
	client     sendClient
	from       *mail.Email
	httpClient *http.Client
	now        func() time.Time
}

// NewSendGrid creates a SendGrid mailer sending from the given address.
func NewSendGrid(apiKey, from string) (*SendGrid, error) {
	if apiKey == "" {
		return nil, errors.New("sendgrid: api key missing")
	}
	if from == "" {
		return nil, errors.New("sendgrid: sender address missing")
	}
	return &SendGrid{
		client:     sendgrid.NewSendClient(apiKey),
		from:       mail.NewEmail("Blogs", from),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
	}, nil
}

var bodyTemplate = template.Must(template.New("email").Parse(`<html>
<body style="font-family: Arial, sans-serif; margin: 0; padding: 0;">
  <div style="max-width: 600px; margin: auto; padding: 20px; border: 1px solid #ddd; border-radius: 10px; background-color: #f9f9f9;">
    <h1 style="color: #333;">{{.Title}}</h1>
    {{if .ImageURL}}<img src="{{.ImageURL}}" alt="Blog Image" style="width: 100%; height: auto; border-radius: 10px; margin-bottom: 20px;" />{{end}}
    <div style="color: #555; line-height: 1.6;">{{.Content}}</div>
  </div>
</body>
</html>`))

// Body renders the HTML email body. ContentHTML is trusted output of markup.Render.
func Body(post Post) (string, error) {
	var buf bytes.Buffer
	err := bodyTemplate.Execute(&buf, struct {
		Title    string
		ImageURL string
		Content  template.HTML
	}{post.Keyword, post.ImageURL, template.HTML(post.ContentHTML)})
	if err != nil {
		return "", fmt.Errorf("render email body: %w", err)
	}
	return buf.String(), nil
}

// SendPost mails post to the recipient. The image attachment is downloaded from ImageURL.
func (s *SendGrid) SendPost(ctx context.Context, to string, post Post) error {
	body, err := Body(post)
	if err != nil {
		return err
	}

	m := mail.NewV3MailInit(s.from, "Blog Generated for "+post.Keyword, mail.NewEmail("", to),
		mail.NewContent("text/html", body))

	doc := markup.FrontMatter(post.Keyword, s.now(), post.BlogContent)
	m.AddAttachment(attachment(markup.Slug(post.Keyword)+".mdx", "text/markdown", []byte(doc)))

	if post.ImageURL != "" {
		img, _, err := storage.Fetch(ctx, s.httpClient, post.ImageURL)
		if err != nil {
			return fmt.Errorf("fetch image: %w", err)
		}
		m.AddAttachment(attachment("pic1.png", "image/png", img))
	}

	resp, err := s.client.SendWithContext(ctx, m)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}

	log.Info().Str("keyword", post.Keyword).Int("status", resp.StatusCode).Msg("Post emailed")
	return nil
}

func attachment(filename, contentType string, data []byte) *mail.Attachment {
	return mail.NewAttachment().
		SetContent(base64.StdEncoding.EncodeToString(data)).
		SetType(contentType).
		SetFilename(filename).
		SetDisposition("attachment")
}
