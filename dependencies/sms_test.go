package dependencies

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xushengqwer/starter_hub/config"
)

func TestSMSClientSendCode(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"errcode":0,"errmsg":"ok"}`))
	}))
	defer srv.Close()

	client, err := NewSMSClient(&config.SMSConfig{AppID: "app", Secret: "s", Endpoint: srv.URL, TemplateID: "tpl"})
	require.NoError(t, err)
	require.NoError(t, client.SendCode(context.Background(), "13800000000", "123456"))

	assert.Equal(t, "13800000000", got["phone"])
	assert.Equal(t, map[string]any{"code": "123456"}, got["data"])
}

func TestSMSClientReportsErrCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errcode":40001,"errmsg":"invalid credential"}`))
	}))
	defer srv.Close()

	client, err := NewSMSClient(&config.SMSConfig{AppID: "app", Secret: "s", Endpoint: srv.URL, TemplateID: "tpl"})
	require.NoError(t, err)
	err = client.SendText(context.Background(), "13800000000", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "40001")
}

func TestNewSMSClientRejectsIncompleteConfig(t *testing.T) {
	_, err := NewSMSClient(&config.SMSConfig{AppID: "app"})
	assert.Error(t, err)
}
