package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/chennaiartisanal/provenance/market/compression"
	"github.com/golang-jwt/jwt/v4"
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// ContentStore is an httptest server that speaks enough of the Pinata
// pinning API and the IPFS gateway protocol for tests.
type ContentStore struct {
	*httptest.Server

	mu          sync.Mutex
	objects     map[string]storedObject
	uploads     int
	fetches     int
	failUploads string
	failFetch   int
	encoding    string
}

type storedObject struct {
	contentType string
	data        []byte
}

const (
	TestAPIKey    = "test-key"
	TestAPISecret = "test-secret"
)

// TestJWTSecret signs the JWTs the store accepts.
var TestJWTSecret = []byte("test-jwt-secret")

// NewJWT returns a pinning token accepted by the store that expires after ttl.
// A negative ttl yields an expired token.
func NewJWT(ttl time.Duration) string {
	claims := jwt.RegisteredClaims{
		Subject:   "artisan-tests",
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(TestJWTSecret)
	if err != nil {
		panic(err)
	}
	return token
}

func NewContentStore() *ContentStore {
	s := &ContentStore{objects: make(map[string]storedObject)}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /pinning/pinFileToIPFS", s.pinFile)
	mux.HandleFunc("POST /pinning/pinJSONToIPFS", s.pinJSON)
	mux.HandleFunc("GET /ipfs/{path...}", s.get)
	s.Server = httptest.NewServer(mux)
	return s
}

// FailUploads makes every upload fail with reason. An empty reason restores
// normal behaviour.
func (s *ContentStore) FailUploads(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failUploads = reason
}

// FailFetch makes fetches answer with status. Zero restores normal behaviour.
func (s *ContentStore) FailFetch(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failFetch = status
}

// ServeEncoded makes the gateway compress responses with encoding.
func (s *ContentStore) ServeEncoded(encoding string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.encoding = encoding
}

func (s *ContentStore) Uploads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploads
}

func (s *ContentStore) Fetches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

// Put stores data directly and returns its CID.
func (s *ContentStore) Put(data []byte, contentType string) cid.Cid {
	c := CIDOf(data)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[c.String()] = storedObject{contentType: contentType, data: data}
	return c
}

// Get returns the stored bytes for a CID string.
func (s *ContentStore) Get(c string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.objects[c]
	return o.data, ok
}

// CIDOf computes the raw CIDv1 of data.
func CIDOf(data []byte) cid.Cid {
	mh, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		panic(err)
	}
	return cid.NewCidV1(cid.Raw, mh)
}

func (s *ContentStore) authorize(w http.ResponseWriter, r *http.Request) bool {
	if bearer, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		_, err := jwt.Parse(bearer, func(t *jwt.Token) (interface{}, error) {
			return TestJWTSecret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err == nil {
			return true
		}
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"error": map[string]string{"reason": "INVALID_CREDENTIALS", "details": "Invalid JWT: " + err.Error()},
		})
		return false
	}
	if r.Header.Get("pinata_api_key") == TestAPIKey && r.Header.Get("pinata_secret_api_key") == TestAPISecret {
		return true
	}
	writeJSON(w, http.StatusUnauthorized, map[string]any{
		"error": map[string]string{"reason": "INVALID_CREDENTIALS", "details": "Invalid API key provided"},
	})
	return false
}

func (s *ContentStore) failingUpload(w http.ResponseWriter) bool {
	s.mu.Lock()
	reason := s.failUploads
	if reason == "" {
		s.uploads++
	}
	s.mu.Unlock()

	if reason == "" {
		return false
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": reason})
	return true
}

func (s *ContentStore) pinFile(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r) || s.failingUpload(w) {
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	s.pinned(w, s.Put(data, header.Header.Get("Content-Type")), len(data))
}

func (s *ContentStore) pinJSON(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r) || s.failingUpload(w) {
		return
	}
	data, err := io.ReadAll(r.Body)
	if err != nil || !json.Valid(data) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
		return
	}
	s.pinned(w, s.Put(data, "application/json"), len(data))
}

func (s *ContentStore) pinned(w http.ResponseWriter, c cid.Cid, size int) {
	writeJSON(w, http.StatusOK, map[string]any{
		"IpfsHash":  c.String(),
		"PinSize":   size,
		"Timestamp": "2024-01-01T00:00:00.000Z",
	})
}

func (s *ContentStore) get(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.fetches++
	status, encoding := s.failFetch, s.encoding
	obj, ok := s.objects[r.PathValue("path")]
	s.mu.Unlock()

	switch {
	case status != 0:
		http.Error(w, http.StatusText(status), status)
		return
	case !ok:
		http.NotFound(w, r)
		return
	}

	data := obj.data
	if encoding != "" {
		encoded, err := compression.Encode(encoding, data)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		data = encoded
		w.Header().Set("Content-Encoding", encoding)
	}
	if obj.contentType != "" {
		w.Header().Set("Content-Type", obj.contentType)
	}
	w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
