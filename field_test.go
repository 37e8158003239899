package userfields_test

import (
	"slices"
	"testing"

	userfields "github.com/reoring/userfields"
)

func TestInternalName(t *testing.T) {
	cases := map[string]string{
		"some test name":      "some_test_name",
		"First Name":          "first_name",
		"  movie -- genre!! ": "movie_genre",
		"__age__":             "age",
		"Café au lait":        "cafe_au_lait",
		"Size(cm)/Weight(kg)": "size_cm_weight_kg",
		"123 go":              "123_go",
		"!!!":                 "",
		"":                    "",
	}
	for in, want := range cases {
		if got := userfields.InternalName(in); got != want {
			t.Fatalf("InternalName(%q) = %q, want %q", in, got, want)
		}
		// pure: same input, same output
		if again := userfields.InternalName(in); again != want {
			t.Fatalf("InternalName(%q) not deterministic: %q", in, again)
		}
	}
}

func TestHumanize(t *testing.T) {
	if got := userfields.Humanize("movie_genre"); got != "Movie genre" {
		t.Fatalf("got %q", got)
	}
	if got := userfields.Humanize("age"); got != "Age" {
		t.Fatalf("got %q", got)
	}
	if got := userfields.Humanize(""); got != "" {
		t.Fatalf("got %q", got)
	}
}

func strp(s string) *string { return &s }

func TestUserCustomField_Validate(t *testing.T) {
	number := userfields.UserCustomField{}.Apply(userfields.FieldAttrs{Name: strp("some test name"), FieldType: strp("number")})
	if iss := number.Validate(); len(iss) != 0 {
		t.Fatalf("expected valid number field, got %v", iss.Messages())
	}
	if number.InternalName != "some_test_name" {
		t.Fatalf("unexpected internal name %q", number.InternalName)
	}

	dropdown := userfields.UserCustomField{}.Apply(userfields.FieldAttrs{Name: strp("gender"), FieldType: strp("dropdown")})
	msgs := dropdown.Validate().Messages()
	if !slices.Contains(msgs, "Options can't be blank") {
		t.Fatalf("expected options blank error, got %v", msgs)
	}

	opts := []string{"a"}
	text := userfields.UserCustomField{}.Apply(userfields.FieldAttrs{Name: strp("bio"), FieldType: strp("text"), Options: &opts})
	if msgs := text.Validate().Messages(); !slices.Contains(msgs, "Options must be blank") {
		t.Fatalf("expected options must be blank, got %v", msgs)
	}

	bad := userfields.UserCustomField{}.Apply(userfields.FieldAttrs{Name: strp("x"), FieldType: strp("blabla")})
	if msgs := bad.Validate().Messages(); !slices.Contains(msgs, "Field type is not included in the list") {
		t.Fatalf("expected field type error, got %v", msgs)
	}
}

func TestUserCustomField_Validate_MissingName(t *testing.T) {
	f := userfields.UserCustomField{}.Apply(userfields.FieldAttrs{})
	msgs := f.Validate().Messages()
	for _, want := range []string{"Name can't be blank", "Internal name can't be blank", "Field type can't be blank"} {
		if !slices.Contains(msgs, want) {
			t.Fatalf("missing %q in %v", want, msgs)
		}
	}
}

func TestUserCustomField_Validate_Reserved(t *testing.T) {
	f := userfields.UserCustomField{}.Apply(userfields.FieldAttrs{Name: strp("E-mail"), FieldType: strp("text")})
	if f.InternalName != "e_mail" {
		t.Fatalf("unexpected internal name %q", f.InternalName)
	}
	if iss := f.Validate(); len(iss) != 0 {
		t.Fatalf("e_mail is not reserved: %v", iss)
	}
	r := userfields.UserCustomField{}.Apply(userfields.FieldAttrs{Name: strp("Email"), FieldType: strp("text")})
	iss := r.Validate()
	if len(iss) != 1 || iss[0].Code != userfields.CodeReserved || iss[0].Message != "Name is reserved" {
		t.Fatalf("expected reserved issue, got %+v", iss)
	}
}

func TestUserCustomField_ApplyKeepsUnsuppliedAttrs(t *testing.T) {
	opts := []string{"male", "female"}
	f := userfields.UserCustomField{}.Apply(userfields.FieldAttrs{Name: strp("Gender"), FieldType: strp("dropdown"), Options: &opts})
	opts[0] = "changed"
	if f.Options[0] != "male" {
		t.Fatalf("Apply must copy options")
	}
	g := f.Apply(userfields.FieldAttrs{Name: strp("Sex")})
	if g.InternalName != "sex" || g.FieldType != userfields.FieldDropdown || len(g.Options) != 2 {
		t.Fatalf("unexpected merge result %+v", g)
	}
}
