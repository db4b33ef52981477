package github

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// fakeContents emulates the subset of the contents API the client uses.
// Files larger than inlineLimit are served with encoding "none".
type fakeContents struct {
	mu          sync.Mutex
	files       map[string][]byte
	shas        map[string]string
	blobs       map[string][]byte
	rev         int
	inlineLimit int
	requests    []string
	lastBranch  string
}

func newFakeContents(t *testing.T) (*fakeContents, *httptest.Server) {
	t.Helper()
	f := &fakeContents{
		files:       map[string][]byte{},
		shas:        map[string]string{},
		blobs:       map[string][]byte{},
		inlineLimit: 1 << 20,
	}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeContents) put(path string, content []byte) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.store(path, content)
}

func (f *fakeContents) store(path string, content []byte) string {
	f.rev++
	sum := sha1.Sum(append([]byte(fmt.Sprintf("%d:", f.rev)), content...))
	sha := hex.EncodeToString(sum[:])
	f.files[path] = content
	f.shas[path] = sha
	f.blobs[sha] = content
	return sha
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (f *fakeContents) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)

	const prefix = "/repos/owner/repo/"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, prefix)

	if strings.HasPrefix(rest, "git/blobs/") {
		blob, ok := f.blobs[strings.TrimPrefix(rest, "git/blobs/")]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"content":  base64.StdEncoding.EncodeToString(blob),
			"encoding": "base64",
			"size":     len(blob),
		})
		return
	}

	path := strings.TrimPrefix(rest, "contents/")
	switch r.Method {
	case http.MethodGet:
		f.lastBranch = r.URL.Query().Get("ref")
		if content, ok := f.files[path]; ok {
			resp := map[string]any{
				"type": "file", "name": path[strings.LastIndex(path, "/")+1:], "path": path,
				"sha": f.shas[path], "size": len(content), "encoding": "base64",
			}
			if len(content) > f.inlineLimit {
				resp["encoding"] = "none"
				resp["content"] = ""
			} else {
				// wrapped like the real API
				enc := base64.StdEncoding.EncodeToString(content)
				var lines []string
				for len(enc) > 60 {
					lines = append(lines, enc[:60])
					enc = enc[60:]
				}
				resp["content"] = strings.Join(append(lines, enc), "\n") + "\n"
			}
			writeJSON(w, http.StatusOK, resp)
			return
		}
		var entries []map[string]any
		for p, content := range f.files {
			if strings.HasPrefix(p, path+"/") && !strings.Contains(strings.TrimPrefix(p, path+"/"), "/") {
				entries = append(entries, map[string]any{
					"name": strings.TrimPrefix(p, path+"/"), "path": p, "sha": f.shas[p], "size": len(content), "type": "file",
				})
			}
		}
		if entries == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
			return
		}
		writeJSON(w, http.StatusOK, entries)

	case http.MethodPut:
		var body struct {
			Message string  `json:"message"`
			Content string  `json:"content"`
			SHA     *string `json:"sha"`
			Branch  string  `json:"branch"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Problems parsing JSON"})
			return
		}
		f.lastBranch = body.Branch
		current, exists := f.shas[path]
		switch {
		case body.SHA == nil && exists:
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": `Invalid request. "sha" wasn't supplied.`})
			return
		case body.SHA != nil && (!exists || *body.SHA != current):
			writeJSON(w, http.StatusConflict, map[string]string{"message": fmt.Sprintf("%s does not match %s", path, current)})
			return
		}
		content, err := base64.StdEncoding.DecodeString(body.Content)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "content is not valid Base64"})
			return
		}
		sha := f.store(path, content)
		status := http.StatusOK
		if !exists {
			status = http.StatusCreated
		}
		writeJSON(w, status, map[string]any{"content": map[string]any{"sha": sha, "path": path}})

	case http.MethodDelete:
		var body struct {
			SHA string `json:"sha"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		current, exists := f.shas[path]
		if !exists {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
			return
		}
		if body.SHA != current {
			writeJSON(w, http.StatusConflict, map[string]string{"message": "sha does not match"})
			return
		}
		delete(f.files, path)
		delete(f.shas, path)
		writeJSON(w, http.StatusOK, map[string]any{"commit": map[string]string{"message": "deleted"}})

	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"message": "method not allowed"})
	}
}
