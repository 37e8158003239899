package gormstore

import (
	"bytes"
	"time"

	json "github.com/goccy/go-json"
	"gorm.io/datatypes"

	userfields "github.com/reoring/userfields"
)

// fieldModel is the persisted UserCustomField row.
type fieldModel struct {
	ID           string         `gorm:"primaryKey;type:varchar(36)"`
	Name         string         `gorm:"size:255;not null;uniqueIndex:idx_user_custom_fields_name_internal_name"`
	InternalName string         `gorm:"size:255;not null;uniqueIndex:idx_user_custom_fields_name_internal_name"`
	FieldType    string         `gorm:"size:32;not null"`
	Options      datatypes.JSON `gorm:"type:json"`
	CreatedAt    time.Time      `gorm:"autoCreateTime:false;index"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime:false"`
}

func (fieldModel) TableName() string { return "user_custom_fields" }

// userModel is the persisted User row. Dynamic attributes live in one
// JSON column.
type userModel struct {
	ID           string         `gorm:"primaryKey;type:varchar(36)"`
	Email        string         `gorm:"size:320;not null;uniqueIndex"`
	CustomFields datatypes.JSON `gorm:"type:json"`
	CreatedAt    time.Time      `gorm:"autoCreateTime:false;index"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime:false"`
}

func (userModel) TableName() string { return "users" }

func toFieldModel(f userfields.UserCustomField) (fieldModel, error) {
	m := fieldModel{
		ID:           f.ID,
		Name:         f.Name,
		InternalName: f.InternalName,
		FieldType:    string(f.FieldType),
		CreatedAt:    f.CreatedAt.UTC(),
		UpdatedAt:    f.UpdatedAt.UTC(),
	}
	if len(f.Options) > 0 {
		b, err := json.Marshal(f.Options)
		if err != nil {
			return fieldModel{}, err
		}
		m.Options = datatypes.JSON(b)
	}
	return m, nil
}

func (m fieldModel) domain() (userfields.UserCustomField, error) {
	f := userfields.UserCustomField{
		ID:           m.ID,
		Name:         m.Name,
		InternalName: m.InternalName,
		FieldType:    userfields.FieldType(m.FieldType),
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
	if len(m.Options) > 0 && string(m.Options) != "null" {
		if err := json.Unmarshal(m.Options, &f.Options); err != nil {
			return userfields.UserCustomField{}, err
		}
	}
	return f, nil
}

func toUserModel(u userfields.User) (userModel, error) {
	b, err := json.Marshal(u.DynamicFields.Clone())
	if err != nil {
		return userModel{}, err
	}
	return userModel{
		ID:           u.ID,
		Email:        u.Email,
		CustomFields: datatypes.JSON(b),
		CreatedAt:    u.CreatedAt.UTC(),
		UpdatedAt:    u.UpdatedAt.UTC(),
	}, nil
}

func (m userModel) domain() (userfields.User, error) {
	u := userfields.User{
		ID:            m.ID,
		Email:         m.Email,
		DynamicFields: userfields.DynamicFields{},
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
	if len(m.CustomFields) == 0 || string(m.CustomFields) == "null" {
		return u, nil
	}
	// numbers stay json.Number so the stored digits come back unrounded;
	// MySQL JSON columns themselves keep only double precision
	dec := json.NewDecoder(bytes.NewReader(m.CustomFields))
	dec.UseNumber()
	if err := dec.Decode(&u.DynamicFields); err != nil {
		return userfields.User{}, err
	}
	return u, nil
}
