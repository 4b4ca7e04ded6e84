//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"clientvault/internal/model"
)

func uploadFiles(t *testing.T, server *testServer, token, client, destPath string, files map[string][]byte) *http.Response {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("path", destPath))
	for name, content := range files {
		part, err := writer.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, server.URL+"/api/v1/clients/"+url.PathEscape(client)+"/files", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return doRequest(t, req)
}

func TestUploadListDownloadDelete(t *testing.T) {
	t.Parallel()

	server := newServer(t)
	token := server.adminToken(t)
	server.createClient(t, token, "Jane Doe", "Self-Employed", model.ServiceFlags{Bookkeeping: true})

	dest := "01 Bookkeeping/2025-26"
	resp := uploadFiles(t, server, token, "Jane Doe", dest, map[string][]byte{
		"invoices.csv": []byte("date,amount\n2025-04-06,120.00\n"),
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var uploaded struct {
		Uploaded []model.UploadData `json:"uploaded"`
	}
	decodeData(t, resp, &uploaded)
	require.Len(t, uploaded.Uploaded, 1)
	require.Equal(t, "invoices.csv", uploaded.Uploaded[0].Name)

	t.Run("listing shows the file", func(t *testing.T) {
		listURL := server.URL + "/api/v1/clients/Jane%20Doe/files?path=" + url.QueryEscape(dest)
		listResp := doRequest(t, newAuthRequest(t, http.MethodGet, listURL, nil, token))
		defer listResp.Body.Close()
		require.Equal(t, http.StatusOK, listResp.StatusCode)

		var listing model.ListData
		decodeData(t, listResp, &listing)
		require.Len(t, listing.Entries, 1)
		require.Equal(t, "invoices.csv", listing.Entries[0].Name)
		require.Equal(t, model.KindFile, listing.Entries[0].Kind)
	})

	t.Run("download returns the uploaded bytes", func(t *testing.T) {
		dlURL := server.URL + "/api/v1/clients/Jane%20Doe/files/download?path=" + url.QueryEscape(dest) + "&name=invoices.csv"
		dlResp := doRequest(t, newAuthRequest(t, http.MethodGet, dlURL, nil, token))
		defer dlResp.Body.Close()
		require.Equal(t, http.StatusOK, dlResp.StatusCode)
		require.Contains(t, dlResp.Header.Get("Content-Disposition"), "invoices.csv")

		content, err := io.ReadAll(dlResp.Body)
		require.NoError(t, err)
		require.Equal(t, "date,amount\n2025-04-06,120.00\n", string(content))
	})

	t.Run("delete removes the file", func(t *testing.T) {
		delURL := server.URL + "/api/v1/clients/Jane%20Doe/files?path=" + url.QueryEscape(dest) + "&name=invoices.csv"
		delResp := doRequest(t, newAuthRequest(t, http.MethodDelete, delURL, nil, token))
		defer delResp.Body.Close()
		require.Equal(t, http.StatusOK, delResp.StatusCode)

		dlURL := server.URL + "/api/v1/clients/Jane%20Doe/files/download?path=" + url.QueryEscape(dest) + "&name=invoices.csv"
		dlResp := doRequest(t, newAuthRequest(t, http.MethodGet, dlURL, nil, token))
		defer dlResp.Body.Close()
		require.Equal(t, http.StatusNotFound, dlResp.StatusCode)
	})
}

func TestUploadAcceptsPathFieldAfterFiles(t *testing.T) {
	t.Parallel()

	server := newServer(t)
	token := server.adminToken(t)
	server.createClient(t, token, "Jane Doe", "Self-Employed", model.ServiceFlags{})

	dest := "00 Proof of ID"

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("files", "passport.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("jpeg-bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.WriteField("path", dest))
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, server.URL+"/api/v1/clients/Jane%20Doe/files", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp := doRequest(t, req)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	dlURL := server.URL + "/api/v1/clients/Jane%20Doe/files/download?path=" + url.QueryEscape(dest) + "&name=passport.jpg"
	dlResp := doRequest(t, newAuthRequest(t, http.MethodGet, dlURL, nil, token))
	defer dlResp.Body.Close()
	require.Equal(t, http.StatusOK, dlResp.StatusCode)

	content, err := io.ReadAll(dlResp.Body)
	require.NoError(t, err)
	require.Equal(t, "jpeg-bytes", string(content))
}

func TestUploadRejectsOversizedPayload(t *testing.T) {
	t.Parallel()

	server := newServer(t)
	token := server.adminToken(t)
	server.createClient(t, token, "Jane Doe", "Self-Employed", model.ServiceFlags{})

	big := bytes.Repeat([]byte("x"), 2<<20) // upload cap in newServer is 1 MiB
	resp := uploadFiles(t, server, token, "Jane Doe", "00 Proof of ID", map[string][]byte{"scan.bin": big})
	defer resp.Body.Close()
	require.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	require.Equal(t, "PAYLOAD_TOO_LARGE", decodeErrorCode(t, resp))
}

func TestMkdirAndNotes(t *testing.T) {
	t.Parallel()

	server := newServer(t)
	token := server.adminToken(t)
	server.createClient(t, token, "Jane Doe", "Self-Employed", model.ServiceFlags{})

	mkdirPayload, err := json.Marshal(model.CreateDirectoryRequest{Path: "00 Proof of ID", Name: "Passports"})
	require.NoError(t, err)
	mkdirResp := doRequest(t, newAuthRequest(t, http.MethodPost, server.URL+"/api/v1/clients/Jane%20Doe/directories", mkdirPayload, token))
	defer mkdirResp.Body.Close()
	require.Equal(t, http.StatusCreated, mkdirResp.StatusCode)

	notePayload, err := json.Marshal(model.WriteTextRequest{Path: "00 Proof of ID/Passports", FileName: "checked.txt", Text: "Verified 2026-09-01"})
	require.NoError(t, err)
	noteResp := doRequest(t, newAuthRequest(t, http.MethodPost, server.URL+"/api/v1/clients/Jane%20Doe/notes", notePayload, token))
	defer noteResp.Body.Close()
	require.Equal(t, http.StatusCreated, noteResp.StatusCode)

	dlURL := server.URL + "/api/v1/clients/Jane%20Doe/files/download?path=" + url.QueryEscape("00 Proof of ID/Passports") + "&name=checked.txt"
	dlResp := doRequest(t, newAuthRequest(t, http.MethodGet, dlURL, nil, token))
	defer dlResp.Body.Close()
	require.Equal(t, http.StatusOK, dlResp.StatusCode)

	content, err := io.ReadAll(dlResp.Body)
	require.NoError(t, err)
	require.Equal(t, "Verified 2026-09-01", string(content))
}

func TestTraversalPathsAreRejected(t *testing.T) {
	t.Parallel()

	server := newServer(t)
	token := server.adminToken(t)
	server.createClient(t, token, "Jane Doe", "Self-Employed", model.ServiceFlags{})

	listURL := server.URL + "/api/v1/clients/Jane%20Doe/files?path=" + url.QueryEscape("../Other Client")
	resp := doRequest(t, newAuthRequest(t, http.MethodGet, listURL, nil, token))
	defer resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Equal(t, "PATH_TRAVERSAL", decodeErrorCode(t, resp))
}

func TestClientUserScopedToOwnWorkspace(t *testing.T) {
	t.Parallel()

	server := newServer(t)
	adminToken := server.adminToken(t)
	server.createClient(t, adminToken, "Jane Doe", "Self-Employed", model.ServiceFlags{Bookkeeping: true})
	server.createClient(t, adminToken, "Acme Ltd", "Limited Company", model.ServiceFlags{})

	clientToken := server.registerClientUser(t, "jane@example.com", "Jane Doe", nil)

	t.Run("own workspace is readable", func(t *testing.T) {
		resp := doRequest(t, newAuthRequest(t, http.MethodGet, server.URL+"/api/v1/clients/Jane%20Doe/files", nil, clientToken))
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("another workspace is forbidden", func(t *testing.T) {
		resp := doRequest(t, newAuthRequest(t, http.MethodGet, server.URL+"/api/v1/clients/Acme%20Ltd/files", nil, clientToken))
		defer resp.Body.Close()
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
		require.Equal(t, "FORBIDDEN", decodeErrorCode(t, resp))
	})
}
