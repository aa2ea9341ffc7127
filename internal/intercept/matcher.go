package intercept

// Matcher gates an interceptor on a request's hostname and tags. The zero
// Matcher matches everything. All set conditions must hold.
type Matcher struct {
	// Hostname requires an exact host match.
	Hostname string
	// RequireHostname requires the URL to carry any hostname at all.
	RequireHostname bool
	// TagsExclude skips the handler when the request carries any listed tag.
	TagsExclude []string
	// TagsInclude requires every listed tag.
	TagsInclude []string
	// When is evaluated at dispatch time, not registration time, so it can
	// close over connector state (base URLs etc.) that is only known after
	// construction completes.
	When func() bool
}

func (m Matcher) Matches(d *Descriptor) bool {
	if m.Hostname != "" && d.Hostname() != m.Hostname {
		return false
	}
	if m.RequireHostname && d.Hostname() == "" {
		return false
	}
	for _, tag := range m.TagsExclude {
		if d.HasTag(tag) {
			return false
		}
	}
	for _, tag := range m.TagsInclude {
		if !d.HasTag(tag) {
			return false
		}
	}
	if m.When != nil && !m.When() {
		return false
	}
	return true
}
