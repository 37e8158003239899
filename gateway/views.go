package gateway

import (
	userfields "github.com/reoring/userfields"
	"github.com/reoring/userfields/codec"
)

type userView struct {
	ID           string                   `json:"id"`
	Email        string                   `json:"email"`
	CustomFields userfields.DynamicFields `json:"custom_fields"`
	CreatedAt    string                   `json:"created_at"`
	UpdatedAt    string                   `json:"updated_at"`
}

func newUserView(u userfields.User) userView {
	cf := u.DynamicFields
	if cf == nil {
		cf = userfields.DynamicFields{}
	}
	return userView{
		ID:           u.ID,
		Email:        u.Email,
		CustomFields: cf,
		CreatedAt:    codec.FormatTimestamp(u.CreatedAt),
		UpdatedAt:    codec.FormatTimestamp(u.UpdatedAt),
	}
}

func newUserViews(list []userfields.User) []userView {
	out := make([]userView, 0, len(list))
	for _, u := range list {
		out = append(out, newUserView(u))
	}
	return out
}

type fieldView struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	InternalName string   `json:"internal_name"`
	FieldType    string   `json:"field_type"`
	Options      []string `json:"options"`
	CreatedAt    string   `json:"created_at"`
	UpdatedAt    string   `json:"updated_at"`
}

func newFieldView(f userfields.UserCustomField) fieldView {
	v := fieldView{
		ID:           f.ID,
		Name:         f.Name,
		InternalName: f.InternalName,
		FieldType:    string(f.FieldType),
		CreatedAt:    codec.FormatTimestamp(f.CreatedAt),
		UpdatedAt:    codec.FormatTimestamp(f.UpdatedAt),
	}
	if f.FieldType.HasOptions() {
		v.Options = append([]string{}, f.Options...)
	}
	return v
}

func newFieldViews(list []userfields.UserCustomField) []fieldView {
	out := make([]fieldView, 0, len(list))
	for _, f := range list {
		out = append(out, newFieldView(f))
	}
	return out
}
