package crawler

import (
	"context"
	"encoding/base64"
	"errors"
	"time"

	"github.com/docscope/docscope/internal/config"
	"github.com/docscope/docscope/internal/extract"
	"github.com/docscope/docscope/internal/model"
)

// defaultExtractor adapts the extract package to the ContentExtractor
// contract.
type defaultExtractor struct {
	inner *extract.Extractor
}

func (e defaultExtractor) Extract(htmlContent, _ string) (*model.ExtractedContent, error) {
	result, err := e.inner.Extract(htmlContent)
	if err != nil {
		return nil, err
	}
	return &model.ExtractedContent{
		Title:     result.Title,
		Text:      result.Text,
		WordCount: result.WordCount,
		Metadata:  result.Metadata,
	}, nil
}

// fixedPacing is the fallback pacing policy: one configured delay for
// every request, regardless of URL or content type.
type fixedPacing struct {
	delay time.Duration
}

func (p fixedPacing) Delay(_ string, _ model.ContentType) time.Duration {
	return p.delay
}

// configAuth is the default AuthProvider. It builds session headers from
// static configuration: a raw cookie, extra headers, or basic
// credentials. There is no interactive flow.
type configAuth struct {
	auth config.Auth
}

func (a configAuth) Authenticate(_ context.Context, _ string) (map[string]string, error) {
	headers := make(map[string]string)

	if a.auth.Cookie != "" {
		headers["Cookie"] = a.auth.Cookie
	}
	for k, v := range a.auth.Headers {
		headers[k] = v
	}
	if a.auth.Type == "basic" {
		if a.auth.Username == "" || a.auth.Password == "" {
			return nil, errors.New("basic auth requires username and password")
		}
		credentials := base64.StdEncoding.EncodeToString([]byte(a.auth.Username + ":" + a.auth.Password))
		headers["Authorization"] = "Basic " + credentials
	}

	if len(headers) == 0 {
		return nil, errors.New("no authentication material configured")
	}
	return headers, nil
}

// allowAllRobots is the robots checker used when robots enforcement is
// disabled in configuration.
type allowAllRobots struct{}

func (allowAllRobots) Allowed(_ context.Context, _ string) (bool, error) {
	return true, nil
}
