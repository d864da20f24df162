package cloudtrail

import (
	"strings"

	"github.com/mssola/useragent"
)

// Agent is a coarse classification of an event's userAgent string.
type Agent struct {
	Raw            string
	Service        bool // request made by an AWS service on the caller's behalf
	Browser        string
	BrowserVersion string
	OS             string
	Mobile         bool
	Bot            bool
}

// ClassifyUserAgent inspects a CloudTrail userAgent value. Service principals
// such as "signin.amazonaws.com" are reported as Service and skip browser
// detection.
func ClassifyUserAgent(raw string) Agent {
	a := Agent{Raw: raw}
	trimmed := strings.TrimSpace(raw)
	if strings.HasSuffix(trimmed, ".amazonaws.com") || trimmed == "AWS Internal" {
		a.Service = true
		return a
	}
	ua := useragent.New(trimmed)
	a.Browser, a.BrowserVersion = ua.Browser()
	a.OS = ua.OS()
	a.Mobile = ua.Mobile()
	a.Bot = ua.Bot()
	return a
}

// Agent classifies the event's userAgent field.
func (e Event) Agent() (Agent, bool, error) {
	raw, ok, err := e.UserAgent()
	if !ok || err != nil {
		return Agent{}, ok, err
	}
	return ClassifyUserAgent(raw), true, nil
}
