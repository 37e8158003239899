package gateway

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/userfields/fields"
	"github.com/reoring/userfields/schema"
	"github.com/reoring/userfields/store/memory"
	"github.com/reoring/userfields/users"
)

type reply struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []string        `json:"errors"`
}

func decode(t *testing.T, r Response) reply {
	t.Helper()
	var out reply
	require.NoError(t, json.Unmarshal(r.Body, &out), "body: %s", r.Body)
	return out
}

func newGateway(t *testing.T) *Gateway {
	t.Helper()
	st := memory.New()
	fs := fields.NewService(st.Fields())
	us := users.NewService(st.Users(), schema.NewResolver(fs, schema.WithCoreKeys(users.CoreAttributes...)))
	return New(us, fs, WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))
}

func body(s string) *strings.Reader { return strings.NewReader(s) }

func seedFields(t *testing.T, g *Gateway) {
	t.Helper()
	for _, b := range []string{
		`{"user_custom_field":{"name":"first name","field_type":"text"}}`,
		`{"user_custom_field":{"name":"age","field_type":"number"}}`,
		`{"user_custom_field":{"name":"gender","field_type":"dropdown","options":["male","female","other"]}}`,
		`{"user_custom_field":{"name":"movie genre","field_type":"multi_dropdown","options":["action","comedy","drama","science"]}}`,
	} {
		r := g.CreateField(context.Background(), body(b))
		require.Equal(t, http.StatusCreated, r.Status, "%s", r.Body)
	}
}

func createUser(t *testing.T, g *Gateway, b string) map[string]any {
	t.Helper()
	r := g.CreateUser(context.Background(), body(b))
	require.Equal(t, http.StatusCreated, r.Status, "%s", r.Body)
	var data map[string]any
	require.NoError(t, json.Unmarshal(decode(t, r).Data, &data))
	return data
}

func TestUsers_ListInCreationOrder(t *testing.T) {
	g := newGateway(t)
	for _, e := range []string{"test1@test.com", "test2@test.com", "test3@test.com"} {
		createUser(t, g, `{"user":{"email":"`+e+`"}}`)
	}
	r := g.ListUsers(context.Background())
	require.Equal(t, http.StatusOK, r.Status)
	rep := decode(t, r)
	assert.True(t, rep.Success)
	assert.Equal(t, "All users", rep.Message)
	var data []map[string]any
	require.NoError(t, json.Unmarshal(rep.Data, &data))
	require.Len(t, data, 3)
	assert.Equal(t, "test1@test.com", data[0]["email"])
	assert.Equal(t, "test3@test.com", data[2]["email"])
	assert.Equal(t, map[string]any{}, data[0]["custom_fields"])
}

func TestUsers_CreateWithCustomFields(t *testing.T) {
	g := newGateway(t)
	seedFields(t, g)
	data := createUser(t, g, `{"user":{"email":"new-test@test.com","first_name":"new first name","age":20,"gender":"female","movie_genre":["science","drama"],"test":"x"}}`)
	cf := data["custom_fields"].(map[string]any)
	assert.Equal(t, "new first name", cf["first_name"])
	assert.EqualValues(t, 20, cf["age"])
	assert.Equal(t, "female", cf["gender"])
	assert.Equal(t, []any{"science", "drama"}, cf["movie_genre"])
	assert.NotContains(t, cf, "test")
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z$`, data["created_at"])

	// numbers submitted as strings come back as numbers, immediately and on reload
	data = createUser(t, g, `{"user":{"email":"s@test.com","age":"25"}}`)
	assert.EqualValues(t, 25, data["custom_fields"].(map[string]any)["age"])
	r := g.GetUser(context.Background(), data["id"].(string))
	var again map[string]any
	require.NoError(t, json.Unmarshal(decode(t, r).Data, &again))
	assert.EqualValues(t, 25, again["custom_fields"].(map[string]any)["age"])
	assert.Equal(t, "Current user", decode(t, r).Message)
}

func TestUsers_CreateInvalid(t *testing.T) {
	g := newGateway(t)
	seedFields(t, g)
	r := g.CreateUser(context.Background(), body(`{"user":{"email":"x@test.com","age":"test age","movie_genre":["fiction"],"gender":"something"}}`))
	require.Equal(t, http.StatusUnprocessableEntity, r.Status)
	rep := decode(t, r)
	assert.False(t, rep.Success)
	assert.Equal(t, []string{"Age is not a number", "Gender is not included in the list", "Movie genre is not included in the list"}, rep.Errors)
	assert.NotContains(t, string(r.Body), `"data"`)

	r = g.CreateUser(context.Background(), body(`{"user":{"test":"test"}}`))
	require.Equal(t, http.StatusUnprocessableEntity, r.Status)
	assert.Contains(t, decode(t, r).Errors, "Email can't be blank")
}

func TestUsers_MissingWrapper(t *testing.T) {
	g := newGateway(t)
	for _, b := range []string{``, `{}`, `{"user":{}}`, `{"user":"x"}`, `{"other":{"email":"a"}}`} {
		r := g.CreateUser(context.Background(), body(b))
		require.Equal(t, http.StatusBadRequest, r.Status, "body %q", b)
		assert.Equal(t, []string{"param is missing or the value is empty: user"}, decode(t, r).Errors)
	}
}

func TestUsers_MalformedBody(t *testing.T) {
	g := newGateway(t)
	r := g.CreateUser(context.Background(), body(`{"user":`))
	require.Equal(t, http.StatusBadRequest, r.Status)
	assert.Equal(t, []string{"malformed JSON body"}, decode(t, r).Errors)

	r = g.CreateUser(context.Background(), body(`{"user":{"email":"a@b.c","email":"b@b.c"}}`))
	require.Equal(t, http.StatusBadRequest, r.Status)
	assert.Equal(t, []string{"duplicate key email"}, decode(t, r).Errors)
	for _, b := range []string{
		`{"user" {"email":"a@b.c"}}`,
		`{"user": {"email":"b@b.c",}}`,
		`{"user": {"email" "c@b.c"}}`,
		`{"user": {"email":"d@b.c"},}`,
	} {
		r := g.CreateUser(context.Background(), body(b))
		require.Equal(t, http.StatusBadRequest, r.Status, b)
		assert.Equal(t, []string{"malformed JSON body"}, decode(t, r).Errors, b)
	}
	var listed []map[string]any
	require.NoError(t, json.Unmarshal(decode(t, g.ListUsers(context.Background())).Data, &listed))
	assert.Empty(t, listed, "no user may be created from a malformed body")
}

func TestUsers_DuplicateEmail(t *testing.T) {
	g := newGateway(t)
	createUser(t, g, `{"user":{"email":"a@b.c"}}`)
	r := g.CreateUser(context.Background(), body(`{"user":{"email":"a@b.c"}}`))
	require.Equal(t, http.StatusConflict, r.Status)
	assert.Equal(t, []string{"Email has already been taken"}, decode(t, r).Errors)
}

func TestUsers_Update(t *testing.T) {
	g := newGateway(t)
	seedFields(t, g)
	data := createUser(t, g, `{"user":{"email":"e@test.com","first_name":"test","age":10}}`)
	id := data["id"].(string)

	r := g.UpdateUser(context.Background(), id, body(`{"user":{"first_name":"new updated first name","age":50,"movie_genre":["science","comedy"]}}`))
	require.Equal(t, http.StatusOK, r.Status, "%s", r.Body)
	rep := decode(t, r)
	assert.Equal(t, "User updated successfully", rep.Message)
	var up map[string]any
	require.NoError(t, json.Unmarshal(rep.Data, &up))
	assert.Equal(t, "e@test.com", up["email"])
	cf := up["custom_fields"].(map[string]any)
	assert.Equal(t, "new updated first name", cf["first_name"])
	assert.EqualValues(t, 50, cf["age"])
	assert.Equal(t, []any{"science", "comedy"}, cf["movie_genre"])

	// unknown keys only: unchanged, still 200
	r = g.UpdateUser(context.Background(), id, body(`{"user":{"test":"test"}}`))
	require.Equal(t, http.StatusOK, r.Status)

	r = g.UpdateUser(context.Background(), id, body(`{"user":{"age":"too old","gender":"something"}}`))
	require.Equal(t, http.StatusUnprocessableEntity, r.Status)
	assert.Equal(t, []string{"Age is not a number", "Gender is not included in the list"}, decode(t, r).Errors)

	r = g.UpdateUser(context.Background(), id, body(``))
	require.Equal(t, http.StatusBadRequest, r.Status)
}

func TestUsers_ReadIsIdempotent(t *testing.T) {
	g := newGateway(t)
	seedFields(t, g)
	created := g.CreateUser(context.Background(), body(`{"user":{"email":"i@test.com","age":"42","movie_genre":["drama","action"]}}`))
	require.Equal(t, http.StatusCreated, created.Status, "%s", created.Body)
	var data map[string]any
	require.NoError(t, json.Unmarshal(decode(t, created).Data, &data))
	id := data["id"].(string)

	first := g.GetUser(context.Background(), id)
	second := g.GetUser(context.Background(), id)
	require.Equal(t, http.StatusOK, first.Status)
	assert.Equal(t, string(first.Body), string(second.Body))
	assert.JSONEq(t, string(decode(t, created).Data), string(decode(t, first).Data))
	assert.Contains(t, string(decode(t, first).Data), `"age":42`)
}

func TestUsers_LargeNumberKeepsDigits(t *testing.T) {
	g := newGateway(t)
	seedFields(t, g)
	created := g.CreateUser(context.Background(), body(`{"user":{"email":"big@test.com","age":12345678901234567890}}`))
	require.Equal(t, http.StatusCreated, created.Status, "%s", created.Body)
	assert.Contains(t, string(created.Body), `"age":12345678901234567890`)

	var data map[string]any
	require.NoError(t, json.Unmarshal(decode(t, created).Data, &data))
	got := g.GetUser(context.Background(), data["id"].(string))
	assert.Contains(t, string(got.Body), `"age":12345678901234567890`)
}

func TestUsers_NotFound(t *testing.T) {
	g := newGateway(t)
	for _, r := range []Response{
		g.GetUser(context.Background(), "non_existed_id"),
		g.UpdateUser(context.Background(), "non_existed_id", body(`{"user":{"email":"a"}}`)),
		g.UpdateUser(context.Background(), "non_existed_id", body(``)),
		g.DeleteUser(context.Background(), "non_existed_id"),
	} {
		require.Equal(t, http.StatusNotFound, r.Status)
		rep := decode(t, r)
		assert.False(t, rep.Success)
		assert.Equal(t, "Couldn't find User with 'id'=non_existed_id", rep.Message)
		assert.Equal(t, "null", string(rep.Data))
	}
}

func TestUsers_Delete(t *testing.T) {
	g := newGateway(t)
	data := createUser(t, g, `{"user":{"email":"a@b.c"}}`)
	r := g.DeleteUser(context.Background(), data["id"].(string))
	assert.Equal(t, http.StatusNoContent, r.Status)
	assert.Nil(t, r.Body)
}

func TestUsers_OrphanedValuesAreReturned(t *testing.T) {
	g := newGateway(t)
	r := g.CreateField(context.Background(), body(`{"user_custom_field":{"name":"age","field_type":"number"}}`))
	require.Equal(t, http.StatusCreated, r.Status)
	var f map[string]any
	require.NoError(t, json.Unmarshal(decode(t, r).Data, &f))
	data := createUser(t, g, `{"user":{"email":"a@b.c","age":3}}`)

	require.Equal(t, http.StatusNoContent, g.DeleteField(context.Background(), f["id"].(string)).Status)
	r = g.GetUser(context.Background(), data["id"].(string))
	var u map[string]any
	require.NoError(t, json.Unmarshal(decode(t, r).Data, &u))
	assert.EqualValues(t, 3, u["custom_fields"].(map[string]any)["age"])
}

func TestUserSchema(t *testing.T) {
	g := newGateway(t)
	seedFields(t, g)
	r := g.UserSchema(context.Background())
	require.Equal(t, http.StatusOK, r.Status)
	var js map[string]any
	require.NoError(t, json.Unmarshal(decode(t, r).Data, &js))
	props := js["properties"].(map[string]any)
	assert.Contains(t, props, "email")
	assert.Contains(t, props, "movie_genre")
	assert.Equal(t, []any{"email"}, js["required"])
}

func TestFields_CRUD(t *testing.T) {
	g := newGateway(t)
	r := g.CreateField(context.Background(), body(`{"user_custom_field":{"name":"test name","field_type":"number","internal_name":"ignored"}}`))
	require.Equal(t, http.StatusCreated, r.Status)
	rep := decode(t, r)
	assert.Equal(t, "User custom field created successfully", rep.Message)
	var f map[string]any
	require.NoError(t, json.Unmarshal(rep.Data, &f))
	assert.Equal(t, "test name", f["name"])
	assert.Equal(t, "test_name", f["internal_name"])
	assert.Equal(t, "number", f["field_type"])
	assert.Nil(t, f["options"])
	id := f["id"].(string)

	r = g.GetField(context.Background(), id)
	require.Equal(t, http.StatusOK, r.Status)
	assert.Equal(t, "Current user custom field", decode(t, r).Message)

	r = g.UpdateField(context.Background(), id, body(`{"user_custom_field":{"field_type":"dropdown","options":["a","b"]}}`))
	require.Equal(t, http.StatusOK, r.Status, "%s", r.Body)
	require.NoError(t, json.Unmarshal(decode(t, r).Data, &f))
	assert.Equal(t, []any{"a", "b"}, f["options"])

	r = g.ListFields(context.Background())
	rep = decode(t, r)
	assert.Equal(t, "All User custom fields", rep.Message)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rep.Data, &list))
	assert.Len(t, list, 1)

	assert.Equal(t, http.StatusNoContent, g.DeleteField(context.Background(), id).Status)
	r = g.GetField(context.Background(), id)
	require.Equal(t, http.StatusNotFound, r.Status)
	assert.Equal(t, "Couldn't find UserCustomField with 'id'="+id, decode(t, r).Message)
}

func TestFields_CreateInvalid(t *testing.T) {
	g := newGateway(t)
	r := g.CreateField(context.Background(), body(`{"user_custom_field":{"field_type":"text"}}`))
	require.Equal(t, http.StatusUnprocessableEntity, r.Status)
	errs := decode(t, r).Errors
	assert.Contains(t, errs, "Name can't be blank")
	assert.Contains(t, errs, "Internal name can't be blank")

	r = g.CreateField(context.Background(), body(`{"user_custom_field":{"name":"x","field_type":"blabla"}}`))
	require.Equal(t, http.StatusUnprocessableEntity, r.Status)
	assert.Contains(t, decode(t, r).Errors, "Field type is not included in the list")

	r = g.CreateField(context.Background(), body(`{"user_custom_field":{"name":3}}`))
	require.Equal(t, http.StatusUnprocessableEntity, r.Status)
	assert.Contains(t, decode(t, r).Errors, "Name is invalid")

	r = g.CreateField(context.Background(), body(``))
	require.Equal(t, http.StatusBadRequest, r.Status)
	assert.Equal(t, []string{"param is missing or the value is empty: user_custom_field"}, decode(t, r).Errors)
}

func TestFields_Conflict(t *testing.T) {
	g := newGateway(t)
	b := `{"user_custom_field":{"name":"age","field_type":"number"}}`
	require.Equal(t, http.StatusCreated, g.CreateField(context.Background(), body(b)).Status)
	r := g.CreateField(context.Background(), body(b))
	require.Equal(t, http.StatusConflict, r.Status)
	assert.Equal(t, []string{"Name has already been taken"}, decode(t, r).Errors)
}

func TestFields_ConcurrentCreateConflicts(t *testing.T) {
	g := newGateway(t)
	const n = 8
	statuses := make([]int, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			statuses[i] = g.CreateField(context.Background(), body(`{"user_custom_field":{"name":"age","field_type":"number"}}`)).Status
		}()
	}
	wg.Wait()
	created, conflicts := 0, 0
	for _, st := range statuses {
		switch st {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
			conflicts++
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, n-1, conflicts)
}

func TestFail_Internal(t *testing.T) {
	var buf bytes.Buffer
	g := newGateway(t)
	g.log = slog.New(slog.NewTextHandler(&buf, nil))
	r := g.fail(context.Background(), errors.New("db down"))
	require.Equal(t, http.StatusInternalServerError, r.Status)
	assert.Equal(t, []string{"internal server error"}, decode(t, r).Errors)
	assert.Contains(t, buf.String(), "db down")
}

func TestEnvelope_Shapes(t *testing.T) {
	b, err := json.Marshal(Envelope{Success: true, Message: "m", Data: []int{1}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"message":"m","data":[1]}`, string(b))

	b, err = json.Marshal(Envelope{Errors: []string{"e"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"errors":["e"]}`, string(b))

	b, err = json.Marshal(Envelope{Message: "Couldn't find User with 'id'=1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"message":"Couldn't find User with 'id'=1","data":null}`, string(b))
}
