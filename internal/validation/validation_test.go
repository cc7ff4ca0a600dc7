package validation

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var urlSchema = Schema{
	URL("url", "url must be a valid URL"),
	Integer("max_retries", Between(0, 5, "max_retries must be between 0 and 5")),
	Integer("timeout", Between(1, 300, "timeout must be between 1 and 300 seconds")),
}

var echoSchema = Schema{
	String("input1", NonEmpty("input1")),
	Any("input2"),
}

func decode(t *testing.T, body string) map[string]any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	var m map[string]any
	require.NoError(t, dec.Decode(&m))
	return m
}

func fieldErrors(t *testing.T, err error) Errors {
	t.Helper()
	var errs Errors
	require.True(t, errors.As(err, &errs), "expected validation.Errors, got %v", err)
	return errs
}

func TestValidate_Accepts(t *testing.T) {
	tests := []struct {
		name   string
		schema Schema
		body   string
		want   map[string]any
	}{
		{
			name:   "string and nested object",
			schema: echoSchema,
			body:   `{"input1":"hello","input2":{"n":3,"xs":[1,2.5]}}`,
			want: map[string]any{
				"input1": "hello",
				"input2": map[string]any{"n": int64(3), "xs": []any{int64(1), 2.5}},
			},
		},
		{
			name:   "unknown fields are dropped",
			schema: echoSchema,
			body:   `{"input1":"a","input2":false,"extra":1}`,
			want:   map[string]any{"input1": "a", "input2": false},
		},
		{
			name:   "url bounds inclusive",
			schema: urlSchema,
			body:   `{"url":"https://example.com/a?b=c","max_retries":0,"timeout":300}`,
			want:   map[string]any{"url": "https://example.com/a?b=c", "max_retries": int64(0), "timeout": int64(300)},
		},
		{
			name:   "integral float and numeric string",
			schema: urlSchema,
			body:   `{"url":"ftp://files.example.org","max_retries":5.0,"timeout":"1"}`,
			want:   map[string]any{"url": "ftp://files.example.org", "max_retries": int64(5), "timeout": int64(1)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Validate(tt.schema, decode(t, tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		schema Schema
		body   string
		want   Errors
	}{
		{
			name:   "empty body reports every field",
			schema: echoSchema,
			body:   `{}`,
			want: Errors{
				{"input1", "input1 is required"},
				{"input2", "input2 is required"},
			},
		},
		{
			name:   "null values",
			schema: echoSchema,
			body:   `{"input1":null,"input2":null}`,
			want: Errors{
				{"input1", "input1 cannot be null"},
				{"input2", "input2 cannot be null"},
			},
		},
		{
			name:   "whitespace string",
			schema: echoSchema,
			body:   `{"input1":"   ","input2":1}`,
			want:   Errors{{"input1", "input1 cannot be empty"}},
		},
		{
			name:   "wrong string type",
			schema: echoSchema,
			body:   `{"input1":12,"input2":1}`,
			want:   Errors{{"input1", "Not a valid string."}},
		},
		{
			name:   "bad url and out of range integers",
			schema: urlSchema,
			body:   `{"url":"not-a-url","max_retries":6,"timeout":0}`,
			want: Errors{
				{"url", "url must be a valid URL"},
				{"max_retries", "max_retries must be between 0 and 5"},
				{"timeout", "timeout must be between 1 and 300 seconds"},
			},
		},
		{
			name:   "unsupported scheme",
			schema: urlSchema,
			body:   `{"url":"mailto:someone@example.com","max_retries":1,"timeout":1}`,
			want:   Errors{{"url", "url must be a valid URL"}},
		},
		{
			name:   "non integral numbers",
			schema: urlSchema,
			body:   `{"url":"http://x.io","max_retries":1.5,"timeout":"ten"}`,
			want: Errors{
				{"max_retries", "Not a valid integer."},
				{"timeout", "Not a valid integer."},
			},
		},
		{
			name:   "boolean is not an integer",
			schema: urlSchema,
			body:   `{"url":"http://x.io","max_retries":true,"timeout":10}`,
			want:   Errors{{"max_retries", "Not a valid integer."}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Validate(tt.schema, decode(t, tt.body))
			assert.Nil(t, got)
			assert.Equal(t, tt.want, fieldErrors(t, err))
		})
	}
}

func TestErrors_Error(t *testing.T) {
	errs := Errors{{"a", "a is required"}, {"b", "Not a valid integer."}}
	assert.Equal(t, "a: a is required; b: Not a valid integer.", errs.Error())
}

func TestSchema_Names(t *testing.T) {
	assert.Equal(t, []string{"url", "max_retries", "timeout"}, urlSchema.Names())
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, int64(42), Normalize(json.Number("42")))
	assert.Equal(t, 0.5, Normalize(json.Number("0.5")))
	assert.Equal(t, "x", Normalize("x"))
	assert.Equal(t,
		map[string]any{"a": []any{int64(1), map[string]any{"b": 2.25}}},
		Normalize(map[string]any{"a": []any{json.Number("1"), map[string]any{"b": json.Number("2.25")}}}),
	)
}
