package espacemembre

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// ProviderID identifies the Espace Membre email provider. Pass it to the
// framework sign-in call instead of the generic email provider id.
const ProviderID = "espace-membre-beta-gouv-email"

// Provider ids the wrapper accepts.
const (
	EmailProviderID      = "email"
	NodemailerProviderID = "nodemailer"
)

// ProviderWrapper turns an email provider into an Espace Membre provider.
type ProviderWrapper struct {
	lookup MemberLookup
	logger Logger
}

// NewProviderWrapper returns a ProviderWrapper resolving usernames with lookup.
func NewProviderWrapper(lookup MemberLookup) *ProviderWrapper {
	return &ProviderWrapper{
		lookup: lookup,
		logger: resolveLogger(nil),
	}
}

func (w *ProviderWrapper) WithLogger(l Logger) *ProviderWrapper {
	w.logger = resolveLogger(l)
	return w
}

// Wrap decorates original. It fails unless original is an "email" or
// "nodemailer" provider.
func (w *ProviderWrapper) Wrap(original EmailProvider) (*MemberEmailProvider, error) {
	if original == nil {
		return nil, configError("the Espace Membre provider wrapper requires an email provider")
	}
	if id := original.ID(); id != EmailProviderID && id != NodemailerProviderID {
		return nil, configError(fmt.Sprintf("the Espace Membre provider wrapper can only wrap the email provider, got %q", id))
	}
	if w.lookup == nil {
		return nil, configError("the Espace Membre provider wrapper requires a member lookup")
	}

	return &MemberEmailProvider{
		original: original,
		lookup:   w.lookup,
		logger:   w.logger,
	}, nil
}

// MemberEmailProvider is an email provider whose identifiers are directory
// usernames.
type MemberEmailProvider struct {
	original EmailProvider
	lookup   MemberLookup
	logger   Logger
}

var _ EmailProvider = (*MemberEmailProvider)(nil)

// ID returns ProviderID.
func (p *MemberEmailProvider) ID() string {
	return ProviderID
}

func (p *MemberEmailProvider) Type() string {
	return p.original.Type()
}

// Unwrap returns the wrapped provider.
func (p *MemberEmailProvider) Unwrap() EmailProvider {
	return p.original
}

// SendVerificationRequest resolves params.Identifier as a username and sends
// the link to the member's delivery email through the wrapped provider.
// Lookup failures, not found included, are returned as is.
func (p *MemberEmailProvider) SendVerificationRequest(ctx context.Context, params VerificationRequestParams) error {
	username := params.Identifier

	member, err := p.lookup.GetByUsername(ctx, username)
	if err != nil {
		p.logger.Error("verification request lookup failed", "username", username, "error", err)
		return err
	}

	params.Identifier = member.DeliveryEmail()
	p.logger.Debug("sending verification request", "username", username)

	return p.original.SendVerificationRequest(ctx, params)
}

// NormalizeIdentifier lower-cases identifier and percent-encodes it.
func (p *MemberEmailProvider) NormalizeIdentifier(identifier string) (string, error) {
	return NormalizeUsername(identifier), nil
}

// NormalizeUsername lower-cases s and percent-encodes it the way
// encodeURIComponent does.
func NormalizeUsername(s string) string {
	return encodeURIComponent(strings.ToLower(s))
}

func encodeURIComponent(s string) string {
	escaped := url.QueryEscape(s)
	escaped = strings.ReplaceAll(escaped, "+", "%20")

	replacer := strings.NewReplacer(
		"%21", "!",
		"%27", "'",
		"%28", "(",
		"%29", ")",
		"%2A", "*",
	)
	return replacer.Replace(escaped)
}
