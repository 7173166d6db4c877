package flow

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"authflow/internal/client"
)

func TestPrintResponseJSON(t *testing.T) {
	var out bytes.Buffer
	printResponse(&out, &client.Response{
		StatusCode: 200,
		Body:       []byte(`{"success":true,"user":{"username":"u","name":"N"}}`),
	}, "Validate")

	want := "--- Validate ---\n" +
		"Status Code: 200\n" +
		"Response: {\n" +
		"  \"success\": true,\n" +
		"  \"user\": {\n" +
		"    \"username\": \"u\",\n" +
		"    \"name\": \"N\"\n" +
		"  }\n" +
		"}\n" +
		"--------------------\n"
	assert.Equal(t, want, out.String())
}

func TestPrintResponseRawText(t *testing.T) {
	var out bytes.Buffer
	printResponse(&out, &client.Response{StatusCode: 404, Body: []byte("Cannot GET /user/validate")}, "Validate")

	assert.Equal(t, "--- Validate ---\nStatus Code: 404\nResponse: Cannot GET /user/validate\n--------------------\n", out.String())
}

func TestFormatBody(t *testing.T) {
	assert.Equal(t, "", formatBody(nil))
	assert.Equal(t, "{}", formatBody([]byte("{}\n")))
	assert.Equal(t, "[\n  1,\n  2\n]", formatBody([]byte("[1,2]")))
	assert.Equal(t, "{broken", formatBody([]byte("{broken")))
}
