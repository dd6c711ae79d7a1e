package validation_test

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/garnizeh/devmarket/internal/apperr"
	"github.com/garnizeh/devmarket/internal/validation"
	"github.com/garnizeh/devmarket/schemas"
)

func TestEmbeddedSchemasCompile(t *testing.T) {
	v, err := validation.New(schemas.FS)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	want := []string{"login", "payment", "project", "register", "task", "task_update"}
	got := v.Names()
	if len(got) != len(want) {
		t.Fatalf("schemas: want %v got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("schemas: want %v got %v", want, got)
		}
	}
}

func TestValidate(t *testing.T) {
	v, err := validation.New(schemas.FS)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	tests := []struct {
		name   string
		schema string
		body   string
		ok     bool
	}{
		{name: "RegisterOK", schema: "register", body: `{"email":"a@b.io","password":"pw","role":"buyer"}`, ok: true},
		{name: "RegisterAdminRole", schema: "register", body: `{"email":"a@b.io","password":"pw","role":"admin"}`},
		{name: "RegisterMissingPassword", schema: "register", body: `{"email":"a@b.io","role":"buyer"}`},
		{name: "RegisterBadEmail", schema: "register", body: `{"email":"nope","password":"pw","role":"buyer"}`},
		{name: "LoginOK", schema: "login", body: `{"email":"a@b.io","password":"pw"}`, ok: true},
		{name: "ProjectOK", schema: "project", body: `{"title":"Site","description":"landing page"}`, ok: true},
		{name: "ProjectEmptyTitle", schema: "project", body: `{"title":""}`},
		{name: "TaskNumberRate", schema: "task", body: `{"project_id":1,"title":"T","hourly_rate":20}`, ok: true},
		{name: "TaskStringRate", schema: "task", body: `{"project_id":1,"title":"T","hourly_rate":"12.50","developer_id":3}`, ok: true},
		{name: "TaskNullDeveloper", schema: "task", body: `{"project_id":1,"title":"T","hourly_rate":5,"developer_id":null}`, ok: true},
		{name: "TaskZeroRate", schema: "task", body: `{"project_id":1,"title":"T","hourly_rate":0}`},
		{name: "TaskNegativeStringRate", schema: "task", body: `{"project_id":1,"title":"T","hourly_rate":"-3"}`},
		{name: "TaskMissingProject", schema: "task", body: `{"title":"T","hourly_rate":5}`},
		{name: "TaskUpdateOK", schema: "task_update", body: `{"title":"T2","hourly_rate":7.5}`, ok: true},
		{name: "PaymentOK", schema: "payment", body: `{"task_id":9}`, ok: true},
		{name: "PaymentStringID", schema: "payment", body: `{"task_id":"9"}`},
		{name: "MalformedJSON", schema: "payment", body: `{"task_id":`},
		{name: "NotAnObject", schema: "project", body: `["title"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(ctx, tt.schema, []byte(tt.body))
			if tt.ok {
				if err != nil {
					t.Fatalf("expected valid body, got %v", err)
				}
				return
			}
			if !errors.Is(err, apperr.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestValidate_UnknownSchema(t *testing.T) {
	v, err := validation.New(fstest.MapFS{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	err = v.Validate(context.Background(), "missing", []byte(`{}`))
	if err == nil || errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("unknown schema should be a plain error, got %v", err)
	}
}

func TestNew_BadSchema(t *testing.T) {
	fsys := fstest.MapFS{"broken.json": &fstest.MapFile{Data: []byte(`{"type": `)}}
	if _, err := validation.New(fsys); err == nil {
		t.Fatalf("expected compile error for broken schema")
	}
}
