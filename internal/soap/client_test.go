package soap

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Invoke(t *testing.T) {
	var (
		gotMethod, gotContentType, gotAction, gotBody string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		gotAction = r.Header.Get("SOAPAction")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "text/xml")
		io.WriteString(w, "<ok/>")
	}))
	defer srv.Close()

	op := DefaultServiceMap(srv.URL)[Settlement]
	resp := NewClient(5*time.Second).Invoke(context.Background(), op, "<env/>")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, resp.OK())
	assert.NoError(t, resp.TransportErr)
	assert.Equal(t, "<ok/>", resp.Body)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "text/xml; charset=utf-8", gotContentType)
	assert.Equal(t, "http://tempuri.org/IClaimIntimation/ClaimSattlement", gotAction)
	assert.Equal(t, "<env/>", gotBody)
}

func TestClient_Invoke_NonSuccessStatusPassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, "<fault/>")
	}))
	defer srv.Close()

	resp := NewClient(time.Second).Invoke(context.Background(), DefaultServiceMap(srv.URL)[Intimation], "<env/>")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, resp.OK())
	assert.Equal(t, "<fault/>", resp.Body)
	assert.NoError(t, resp.TransportErr)
}

func TestClient_Invoke_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	resp := NewClient(50*time.Millisecond).Invoke(context.Background(), DefaultServiceMap(srv.URL)[Reopen], "<env/>")
	assert.Equal(t, StatusTransportFailure, resp.StatusCode)
	assert.Error(t, resp.TransportErr)
	assert.Contains(t, resp.Body, "SOAP request failed")
}

type failingDoer struct{ err error }

func (f failingDoer) Do(*http.Request) (*http.Response, error) { return nil, f.err }

func TestClient_Invoke_TransportError(t *testing.T) {
	boom := errors.New("dial tcp: connection refused")
	c := NewClient(time.Second)
	c.http = failingDoer{err: boom}

	resp := c.Invoke(context.Background(), DefaultServiceMap("")[Intimation], "<env/>")
	assert.Equal(t, StatusTransportFailure, resp.StatusCode)
	assert.ErrorIs(t, resp.TransportErr, boom)
	assert.Contains(t, resp.Body, "connection refused")
}

func TestClient_Invoke_BadURL(t *testing.T) {
	op := Operation{Name: "Broken", URL: "://nope", Method: "X"}
	resp := NewClient(time.Second).Invoke(context.Background(), op, "<env/>")
	require.Error(t, resp.TransportErr)
	assert.Equal(t, StatusTransportFailure, resp.StatusCode)
}
