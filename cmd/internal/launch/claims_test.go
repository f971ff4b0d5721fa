package launch

import (
	"net/url"
	"testing"
)

func TestParseClaims(t *testing.T) {
	t.Parallel()

	form := url.Values{}
	form.Set("user_id", "abc123")
	form.Set("lis_person_contact_email_primary", "student@example.com")
	form.Set("lis_person_name_given", "Ada")
	form.Set("lis_person_name_family", "Lovelace")
	form.Set("custom_course", "algebra")
	form.Set("custom_unit", "7")
	form.Set("custom_", "dropped")
	form.Set("oauth_consumer_key", "notaclaim")

	c := ParseClaims(form)
	if c.UserID != "abc123" || c.Email != "student@example.com" {
		t.Fatalf("identity claims not extracted: %+v", c)
	}
	if c.GivenName != "Ada" || c.FamilyName != "Lovelace" {
		t.Fatalf("name claims not extracted: %+v", c)
	}
	if len(c.Custom) != 2 || c.Custom["course"] != "algebra" || c.Custom["unit"] != "7" {
		t.Fatalf("custom params wrong: %+v", c.Custom)
	}
}

func TestParseClaims_Empty(t *testing.T) {
	t.Parallel()

	c := ParseClaims(url.Values{})
	if c.UserID != "" || c.Email != "" {
		t.Fatalf("expected empty claims, got %+v", c)
	}
	if len(c.Custom) != 0 {
		t.Fatalf("expected no custom params")
	}
}
