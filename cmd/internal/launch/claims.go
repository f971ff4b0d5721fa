package launch

import (
	"net/url"
	"strings"
)

// Standard parameter names carried by a basic launch request.
const (
	paramUserID     = "user_id"
	paramEmail      = "lis_person_contact_email_primary"
	paramGivenName  = "lis_person_name_given"
	paramFamilyName = "lis_person_name_family"

	// customPrefix marks consumer-supplied routing parameters.
	customPrefix = "custom_"
)

// Claims is the identity and routing context carried by a verified launch
// request. It is ephemeral: nothing here is persisted directly.
type Claims struct {
	UserID     string
	Email      string
	GivenName  string
	FamilyName string

	// Custom holds the custom_* parameters with the prefix stripped.
	Custom map[string]string
}

// ParseClaims extracts launch claims from the request form. Presence and
// validity of the required fields is the authenticator's concern, not the
// parser's.
func ParseClaims(form url.Values) Claims {
	c := Claims{
		UserID:     form.Get(paramUserID),
		Email:      form.Get(paramEmail),
		GivenName:  form.Get(paramGivenName),
		FamilyName: form.Get(paramFamilyName),
		Custom:     map[string]string{},
	}
	for k, vs := range form {
		if !strings.HasPrefix(k, customPrefix) || len(vs) == 0 {
			continue
		}
		name := strings.TrimPrefix(k, customPrefix)
		if name == "" {
			continue
		}
		c.Custom[name] = vs[0]
	}
	return c
}
