package integration_testing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (s *IntegrationTestSuite) doRequest(
	ctx context.Context,
	method, path string,
	body interface{},
) (*http.Response, apiResponse) {
	t := s.T()
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		bodyJson, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(bodyJson)
	}

	req, err := http.NewRequestWithContext(ctx, method, serverEndpoint+path, reqBody)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "test-agent")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var envelope apiResponse
	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(respBytes) > 0 && resp.Header.Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(respBytes, &envelope))
	}

	return resp, envelope
}

func (s *IntegrationTestSuite) doLogin(ctx context.Context) {
	resp, envelope := s.doRequest(ctx, "POST", "/auth/login", map[string]string{"pw": testPassword})
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)
	require.True(s.T(), envelope.Success)
	require.Equal(s.T(), "관리자 권한 승인", envelope.Message)
}

func (s *IntegrationTestSuite) TestAuth() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.T().Run("wrong password rejected", func(t *testing.T) {
		resp, envelope := s.doRequest(ctx, "POST", "/auth/login", map[string]string{"pw": "nope"})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.False(t, envelope.Success)
		assert.Equal(t, "로그인 실패", envelope.Message)
	})

	s.T().Run("access check blocked before login", func(t *testing.T) {
		resp, _ := s.doRequest(ctx, "GET", "/auth/accessCheck", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	s.T().Run("login grants access, logout revokes it", func(t *testing.T) {
		s.doLogin(ctx)

		resp, envelope := s.doRequest(ctx, "GET", "/auth/accessCheck", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "접근 승인", envelope.Message)

		resp, envelope = s.doRequest(ctx, "POST", "/auth/logout", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "관리자 권한 해제", envelope.Message)

		resp, _ = s.doRequest(ctx, "GET", "/auth/accessCheck", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func (s *IntegrationTestSuite) TestBoardsAndPosts() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	t := s.T()

	t.Run("mutations require a session", func(t *testing.T) {
		resp, _ := s.doRequest(ctx, "POST", "/board", map[string]string{"name": "devlog"})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	s.doLogin(ctx)

	t.Run("board lifecycle", func(t *testing.T) {
		resp, envelope := s.doRequest(ctx, "POST", "/board", map[string]string{"name": "devlog"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "게시판 추가 성공", envelope.Message)

		resp, envelope = s.doRequest(ctx, "GET", "/board", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var boards []struct {
			ID   int    `json:"id"`
			Name string `json:"name"`
		}
		require.NoError(t, json.Unmarshal(envelope.Data, &boards))
		require.Len(t, boards, 1)
		assert.Equal(t, "devlog", boards[0].Name)

		resp, envelope = s.doRequest(
			ctx, "PUT", fmt.Sprintf("/board/%d", boards[0].ID),
			map[string]string{"name": "changelog"},
		)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "게시판 수정 성공", envelope.Message)

		resp, _ = s.doRequest(ctx, "PUT", "/board/9999", map[string]string{"name": "ghost"})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("post lifecycle", func(t *testing.T) {
		_, envelope := s.doRequest(ctx, "GET", "/board", nil)
		var boards []struct {
			ID int `json:"id"`
		}
		require.NoError(t, json.Unmarshal(envelope.Data, &boards))
		require.NotEmpty(t, boards)
		boardID := boards[0].ID

		resp, envelope := s.doRequest(ctx, "POST", "/post", map[string]interface{}{
			"board_id":    boardID,
			"title":       "first entry",
			"description": "hello",
			"content":     json.RawMessage(`{"blocks":[{"text":"hi"}]}`),
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "게시글 추가 성공", envelope.Message)

		var added struct {
			PostID int `json:"post_id"`
		}
		require.NoError(t, json.Unmarshal(envelope.Data, &added))
		require.NotZero(t, added.PostID)

		resp, envelope = s.doRequest(ctx, "GET", "/post", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var page struct {
			Total int `json:"total"`
			Data  []struct {
				ID    int    `json:"id"`
				Title string `json:"title"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(envelope.Data, &page))
		require.Equal(t, 1, page.Total)
		require.Len(t, page.Data, 1)
		assert.Equal(t, "first entry", page.Data[0].Title)

		resp, envelope = s.doRequest(ctx, "GET", fmt.Sprintf("/post/%d", added.PostID), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "게시글 상세 로드 성공", envelope.Message)

		resp, _ = s.doRequest(ctx, "GET", "/post/9999", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		resp, envelope = s.doRequest(ctx, "DELETE", fmt.Sprintf("/post/%d", added.PostID), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "게시글 삭제 성공", envelope.Message)

		resp, envelope = s.doRequest(ctx, "GET", "/post", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.NoError(t, json.Unmarshal(envelope.Data, &page))
		assert.Zero(t, page.Total)
	})
}

func (s *IntegrationTestSuite) TestIntroduceAndActivity() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	t := s.T()

	t.Run("introduce roundtrip", func(t *testing.T) {
		resp, envelope := s.doRequest(ctx, "GET", "/introduce", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "자기소개 로드 성공", envelope.Message)

		s.doLogin(ctx)

		resp, envelope = s.doRequest(ctx, "PUT", "/introduce", map[string]interface{}{
			"content": json.RawMessage(`{"blocks":[{"text":"about me"}]}`),
			"images":  []string{},
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "자기소개 수정 완료", envelope.Message)

		resp, envelope = s.doRequest(ctx, "GET", "/introduce", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(envelope.Data), "about me")
	})

	t.Run("activity counter", func(t *testing.T) {
		resp, envelope := s.doRequest(ctx, "POST", "/activity", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "활동 카운트 증가 완료", envelope.Message)

		resp, envelope = s.doRequest(ctx, "GET", "/activity", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "활동 데이터 조회 성공", envelope.Message)

		var counts map[string]int
		require.NoError(t, json.Unmarshal(envelope.Data, &counts))
		require.Len(t, counts, 1)
	})
}

func (s *IntegrationTestSuite) TestRootAndVersion() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	t := s.T()

	resp, _ := s.doRequest(ctx, "GET", "/", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = s.doRequest(ctx, "GET", "/version", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
