package userfields_test

import (
	"errors"
	"fmt"
	"testing"

	userfields "github.com/reoring/userfields"
)

func TestValidationError_UnwrapsIssues(t *testing.T) {
	iss := userfields.Issues{
		userfields.AttributeIssue(userfields.At("age"), "Age", userfields.CodeNotANumber, nil),
		userfields.AttributeIssue(userfields.At("gender"), "Gender", userfields.CodeInvalidEnum, nil),
	}
	err := fmt.Errorf("create: %w", &userfields.ValidationError{Resource: userfields.ResourceUser, Issues: iss})

	var ve *userfields.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError")
	}
	got, ok := userfields.AsIssues(err)
	if !ok || len(got) != 2 {
		t.Fatalf("expected issues through Unwrap, got %v", got)
	}
	if ve.Error() != "Validation failed: Age is not a number, Gender is not included in the list" {
		t.Fatalf("unexpected message %q", ve.Error())
	}
	if got[0].Path != "/age" || got[0].Code != userfields.CodeNotANumber {
		t.Fatalf("unexpected first issue %+v", got[0])
	}
}

func TestNotFoundError_Message(t *testing.T) {
	err := &userfields.NotFoundError{Resource: userfields.ResourceUser, ID: "non_existed_id"}
	if err.Error() != "Couldn't find User with 'id'=non_existed_id" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	nf, ok := userfields.AsNotFound(fmt.Errorf("get: %w", err))
	if !ok || nf.ID != "non_existed_id" {
		t.Fatalf("AsNotFound failed: %v %v", nf, ok)
	}
	if _, ok := userfields.AsNotFound(errors.New("other")); ok {
		t.Fatalf("AsNotFound must not match unrelated errors")
	}
}

func TestConflictError(t *testing.T) {
	cause := errors.New("duplicate key")
	err := userfields.NewConflict(userfields.ResourceUser, userfields.At("email"), "Email", cause)
	if err.Error() != "Email has already been taken" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to unwrap")
	}
	if ce, ok := userfields.AsConflict(fmt.Errorf("create: %w", err)); !ok || ce.Resource != userfields.ResourceUser {
		t.Fatalf("AsConflict failed: %v %v", ce, ok)
	}
}

func TestIssues_ErrorSummary(t *testing.T) {
	var iss userfields.Issues
	for _, k := range []string{"a", "b", "c", "d"} {
		iss = userfields.AppendIssues(iss, userfields.Issue{Path: "/" + k, Code: userfields.CodeRequired})
	}
	want := "required at /a; required at /b; required at /c; ... (total 4)"
	if iss.Error() != want {
		t.Fatalf("got %q", iss.Error())
	}
}

func TestPathRef(t *testing.T) {
	if p := userfields.Root().Pointer(); p != "/" {
		t.Fatalf("root pointer %q", p)
	}
	if p := userfields.At("movie_genre").Index(2).Pointer(); p != "/movie_genre/2" {
		t.Fatalf("pointer %q", p)
	}
	if p := userfields.At("a/b~c").Pointer(); p != "/a~1b~0c" {
		t.Fatalf("escaped pointer %q", p)
	}
}

func TestDynamicFields_CloneAndMerge(t *testing.T) {
	d := userfields.DynamicFields{"movie_genre": []any{"action"}, "age": 3}
	c := d.Clone()
	c["movie_genre"].([]any)[0] = "drama"
	if d["movie_genre"].([]any)[0] != "action" {
		t.Fatalf("Clone must deep copy slices")
	}
	m := d.Merge(userfields.DynamicFields{"age": nil, "name": "x"})
	if m["age"] != nil || m["name"] != "x" || d["age"] != 3 {
		t.Fatalf("unexpected merge %v (orig %v)", m, d)
	}
	if (userfields.DynamicFields(nil)).Clone() == nil {
		t.Fatalf("Clone of nil must return an empty map")
	}
}
