package pkg

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccess(w, "all good", map[string]string{"img_name": "img_1.png"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ContentType.JSON, w.Header().Get("Content-Type"))

	var resp struct {
		Success bool              `json:"success"`
		Message string            `json:"message"`
		Data    map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "all good", resp.Message)
	assert.Equal(t, "img_1.png", resp.Data["img_name"])
}

func TestWriteSuccess_noData(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccess(w, "done", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	// data key is omitted when empty
	assert.JSONEq(t, `{"success":true,"message":"done"}`, w.Body.String())
}

func TestWriteFail(t *testing.T) {
	w := httptest.NewRecorder()
	WriteFail(w, "no can do", http.StatusUnauthorized)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"no can do"}`, w.Body.String())
}

func TestWriteResponseBytes(t *testing.T) {
	testJson := `{"bla":"tru"}`

	w := httptest.NewRecorder()
	WriteResponseBytes(w, ContentType.JSON, []byte(testJson), http.StatusCreated)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, ContentType.JSON, w.Header().Get("Content-Type"))
	assert.Equal(t, testJson, w.Body.String())
}

func TestWriteTextResponseOK(t *testing.T) {
	w := httptest.NewRecorder()
	WriteTextResponseOK(w, "some text")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ContentType.Text, w.Header().Get("Content-Type"))
	assert.Equal(t, "some text", w.Body.String())
}

func TestWriteJSONResponseOK(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSONResponseOK(w, `{"token":"tok"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ContentType.JSON, w.Header().Get("Content-Type"))
	assert.Equal(t, `{"token":"tok"}`, w.Body.String())
}
