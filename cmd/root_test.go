package cmd

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := bytes.NewBufferString("")
	cmd := NewRootCmd()
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Outhook")
}

func TestCallCmd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	out, err := execute(t, "call", "--url", server.URL, "-X", "GET", "-r", "0")
	require.NoError(t, err)
	assert.Contains(t, out, `"status_code": 200`)
	assert.Contains(t, out, `"succeeded": true`)
}

func TestCallCmdRequiresURL(t *testing.T) {
	_, err := execute(t, "call")
	assert.Error(t, err)
}
