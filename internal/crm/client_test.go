package crm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const leadsPayload = `{"_embedded":{"leads":[
 {"id":11,"name":"A","status_id":1,"custom_fields_values":[{"field_id":500,"field_name":"Qualified","values":[{"value":"Yes","enum_id":7001}]}]},
 {"id":12,"name":"B","status_id":1,"custom_fields_values":null}
]}}`

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(Config{BaseURLTemplate: srv.URL + "/%s/api/v4"})
}

func TestLeadsByID(t *testing.T) {
	var gotAuth, gotPath string
	var gotIDs []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotIDs = r.URL.Query()["filter[id][]"]
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(leadsPayload))
	}))
	defer srv.Close()

	leads, err := newTestClient(srv).LeadsByID(context.Background(), Connection{Subdomain: "acme", AccessToken: "tok"}, []int64{11, 12, 13})
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "/acme/api/v4/leads", gotPath)
	assert.Equal(t, []string{"11", "12", "13"}, gotIDs)
	require.Len(t, leads, 2)
	field, ok := leads[11].Field(500)
	require.True(t, ok)
	tokens, err := field.Values[0].Tokens()
	require.NoError(t, err)
	assert.Equal(t, []string{"Yes", "7001"}, tokens)
	_, missing := leads[13]
	assert.False(t, missing)
}

func TestLeadsByIDNoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	leads, err := newTestClient(srv).LeadsByID(context.Background(), Connection{Subdomain: "acme", AccessToken: "tok"}, []int64{1})
	require.NoError(t, err)
	assert.Empty(t, leads)
}

func TestLeadsByIDUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).LeadsByID(context.Background(), Connection{Subdomain: "acme", AccessToken: "bad"}, []int64{1})
	assert.True(t, errors.Is(err, ErrUnauthorized))
}

func TestLeadsByIDServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).LeadsByID(context.Background(), Connection{Subdomain: "acme", AccessToken: "tok"}, []int64{1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestLeadsByIDSkipsEmptyInput(t *testing.T) {
	client := NewClient(Config{BaseURLTemplate: "http://unused/%s"})
	leads, err := client.LeadsByID(context.Background(), Connection{}, nil)
	require.NoError(t, err)
	assert.Empty(t, leads)
}

func TestLeadsByIDRequiresConnection(t *testing.T) {
	client := NewClient(Config{BaseURLTemplate: "http://unused/%s"})
	_, err := client.LeadsByID(context.Background(), Connection{Subdomain: "acme"}, []int64{1})
	assert.ErrorIs(t, err, ErrInvalidConnection)
}

func TestFieldValueTokens(t *testing.T) {
	code := "QUALIFIED"
	tokens, err := FieldValue{Value: []byte(`true`), EnumCode: &code}.Tokens()
	require.NoError(t, err)
	assert.Equal(t, []string{"true", "QUALIFIED"}, tokens)

	tokens, err = FieldValue{Value: []byte(`42`)}.Tokens()
	require.NoError(t, err)
	assert.Equal(t, []string{"42"}, tokens)

	_, err = FieldValue{Value: []byte(`{"nested":1}`)}.Tokens()
	assert.Error(t, err)

	_, err = FieldValue{}.Tokens()
	assert.Error(t, err)
}
