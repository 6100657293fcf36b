package server

import (
	"encoding/json"
	"strings"
	"testing"

	"blog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaParse(t *testing.T) {
	tests := []struct {
		name    string
		schema  Schema
		input   string
		want    string
		wantErr bool
	}{
		{name: "no input ignores body", schema: NoInput, input: `{"x":1}`, want: `{}`},
		{name: "no input accepts garbage", schema: NoInput, input: `nope`, want: `{}`},
		{name: "slug", schema: slugSchema, input: `{"slug":"a"}`, want: `{"slug":"a"}`},
		{name: "unknown keys dropped", schema: slugSchema, input: `{"slug":"a","admin":true}`, want: `{"slug":"a"}`},
		{name: "empty body", schema: slugSchema, input: ``, wantErr: true},
		{name: "null body", schema: slugSchema, input: `null`, wantErr: true},
		{name: "null field", schema: slugSchema, input: `{"slug":null}`, wantErr: true},
		{name: "wrong type", schema: slugSchema, input: `{"slug":5}`, wantErr: true},
		{name: "array body", schema: slugSchema, input: `["a"]`, wantErr: true},
		{name: "trailing data", schema: slugSchema, input: `{"slug":"a"} trailing`, wantErr: true},
		{name: "two objects", schema: slugSchema, input: `{"slug":"a"}{"slug":"b"}`, wantErr: true},
		{name: "trailing whitespace", schema: slugSchema, input: "{\"slug\":\"a\"}\n ", want: `{"slug":"a"}`},
		{name: "lookup number", schema: postSchema, input: `{"postId":7}`, want: `{"postId":7}`},
		{name: "lookup zero", schema: postSchema, input: `{"postId":0}`, want: `{"postId":0}`},
		{name: "lookup fraction", schema: postSchema, input: `{"postId":1.5}`, want: `{"postId":1.5}`},
		{name: "lookup numeric string", schema: postSchema, input: `{"postId":"7"}`, wantErr: true},
		{name: "integer", schema: createCommentSchema, input: `{"postId":7,"content":"x"}`, want: `{"postId":7,"content":"x"}`},
		{name: "whole float", schema: createCommentSchema, input: `{"postId":7.0,"content":"x"}`, want: `{"postId":7,"content":"x"}`},
		{name: "fraction", schema: createCommentSchema, input: `{"postId":7.5,"content":"x"}`, wantErr: true},
		{name: "zero", schema: createCommentSchema, input: `{"postId":0,"content":"x"}`, wantErr: true},
		{name: "negative", schema: createCommentSchema, input: `{"postId":-3,"content":"x"}`, wantErr: true},
		{name: "numeric string", schema: createCommentSchema, input: `{"postId":"7","content":"x"}`, wantErr: true},
		{name: "too large", schema: createCommentSchema, input: `{"postId":99999999999,"content":"x"}`, wantErr: true},
		{name: "comment", schema: createCommentSchema, input: `{"postId":1,"content":"x","approved":1}`, want: `{"postId":1,"content":"x"}`},
		{name: "empty comment", schema: createCommentSchema, input: `{"postId":1,"content":""}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.schema.Parse([]byte(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, models.HasCode(err, models.CodeValidation))
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestLookupID(t *testing.T) {
	tests := map[string]uint{
		"7":           7,
		"7.0":         7,
		"0":           0,
		"-1":          0,
		"1.5":         0,
		"99999999999": 0,
	}
	for in, want := range tests {
		assert.Equal(t, want, lookupID(json.Number(in)), in)
	}
}

func TestSchemaParseCountsCharacters(t *testing.T) {
	// 5000 multi-byte characters are well over 5000 bytes.
	content := strings.Repeat("日", models.CommentMaxLength)
	_, err := createCommentSchema.Parse([]byte(`{"postId":1,"content":"` + content + `"}`))
	require.NoError(t, err)

	_, err = createCommentSchema.Parse([]byte(`{"postId":1,"content":"` + content + `日"}`))
	assert.Error(t, err)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry(nil, nil)
	Public(r, "x", KindQuery, NoInput, func(PublicRequest, noInput) (bool, error) { return true, nil })
	assert.Panics(t, func() {
		Public(r, "x", KindQuery, NoInput, func(PublicRequest, noInput) (bool, error) { return true, nil })
	})
}
