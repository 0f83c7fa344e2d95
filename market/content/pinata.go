package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/chennaiartisanal/provenance/market/failure"
	"github.com/ethereum/go-ethereum/log"
	"github.com/golang-jwt/jwt/v4"
	"github.com/ipfs/go-cid"
)

const DefaultPinningURL = "https://api.pinata.cloud"

// Pinned identifies uploaded content.
type Pinned struct {
	CID     string `json:"cid"`
	Pointer string `json:"pointer"`
}

// Uploader pins content and returns its identifier.
type Uploader interface {
	Upload(ctx context.Context, data []byte, contentType string) (Pinned, error)
	UploadJSON(ctx context.Context, v any) (Pinned, error)
}

// Credentials authenticate against the pinning service. A JWT takes
// precedence over the key pair.
type Credentials struct {
	APIKey    string
	APISecret string
	JWT       string
}

func (c Credentials) Empty() bool {
	return c.JWT == "" && (c.APIKey == "" || c.APISecret == "")
}

// Pinata uploads to the Pinata pinning API.
type Pinata struct {
	endpoint *url.URL
	creds    Credentials
	client   *http.Client
}

func NewPinata(endpoint string, creds Credentials, client *http.Client) (*Pinata, error) {
	if endpoint == "" {
		endpoint = DefaultPinningURL
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pinning url: %w", err)
	}
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	return &Pinata{endpoint: u, creds: creds, client: client}, nil
}

type pinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

// Upload pins data as a file.
func (p *Pinata) Upload(ctx context.Context, data []byte, contentType string) (Pinned, error) {
	if len(data) == 0 {
		return Pinned{}, failure.New(failure.ErrInvalidInput, "upload", "no content to upload")
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename(contentType)))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return Pinned{}, failure.Wrap(failure.ErrUploadFailed, "upload", err, "failed to create multipart part")
	}
	if _, err := part.Write(data); err != nil {
		return Pinned{}, failure.Wrap(failure.ErrUploadFailed, "upload", err, "failed to write multipart part")
	}
	if err := w.Close(); err != nil {
		return Pinned{}, failure.Wrap(failure.ErrUploadFailed, "upload", err, "failed to close multipart writer")
	}

	return p.pin(ctx, "pinning/pinFileToIPFS", w.FormDataContentType(), body)
}

// UploadJSON pins v encoded as a JSON document.
func (p *Pinata) UploadJSON(ctx context.Context, v any) (Pinned, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Pinned{}, failure.Wrap(failure.ErrInvalidInput, "upload", err, "content is not json encodable")
	}
	return p.pin(ctx, "pinning/pinJSONToIPFS", "application/json", bytes.NewReader(data))
}

func (p *Pinata) pin(ctx context.Context, path, contentType string, body io.Reader) (Pinned, error) {
	if p.creds.Empty() {
		return Pinned{}, failure.New(failure.ErrUploadFailed, "upload", "pinning credentials are not configured")
	}

	if p.creds.JWT != "" {
		if err := checkJWT(p.creds.JWT, time.Now()); err != nil {
			return Pinned{}, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint.JoinPath(path).String(), body)
	if err != nil {
		return Pinned{}, failure.Wrap(failure.ErrUploadFailed, "upload", err, "failed to create pinning request")
	}
	req.Header.Set("Content-Type", contentType)
	if p.creds.JWT != "" {
		req.Header.Set("Authorization", "Bearer "+p.creds.JWT)
	} else {
		req.Header.Set("pinata_api_key", p.creds.APIKey)
		req.Header.Set("pinata_secret_api_key", p.creds.APISecret)
	}

	res, err := p.client.Do(req)
	if err != nil {
		return Pinned{}, failure.Wrap(failure.ErrUploadFailed, "upload", err, "pinning service unreachable")
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return Pinned{}, failure.Wrap(failure.ErrUploadFailed, "upload", err, "failed to read pinning response")
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return Pinned{}, failure.New(failure.ErrUploadFailed, "upload", backendMessage(res.Status, raw))
	}

	var pr pinResponse
	if err := json.Unmarshal(raw, &pr); err != nil {
		return Pinned{}, failure.Wrap(failure.ErrUploadFailed, "upload", err, "malformed pinning response")
	}
	c, err := cid.Decode(pr.IpfsHash)
	if err != nil {
		return Pinned{}, failure.Wrap(failure.ErrUploadFailed, "upload", err, "pinning service returned an invalid cid")
	}

	log.Info("pinned content", "cid", c, "size", pr.PinSize)
	return Pinned{CID: c.String(), Pointer: Pointer(c)}, nil
}

// checkJWT rejects a token whose exp claim has passed. Tokens that do not
// parse as JWTs are left to the service.
func checkJWT(token string, now time.Time) error {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		log.Debug("pinning token is not a jwt", "err", err)
		return nil
	}
	if claims.ExpiresAt != nil && !claims.ExpiresAt.After(now) {
		return failure.New(failure.ErrUploadFailed, "upload", "pinning JWT expired at "+claims.ExpiresAt.UTC().Format(time.RFC3339))
	}
	return nil
}

// backendMessage extracts the human readable reason from an error response.
func backendMessage(status string, body []byte) string {
	var structured struct {
		Error any `json:"error"`
	}
	if json.Unmarshal(body, &structured) == nil {
		switch e := structured.Error.(type) {
		case string:
			return e
		case map[string]any:
			if d, ok := e["details"].(string); ok && d != "" {
				return d
			}
			if r, ok := e["reason"].(string); ok && r != "" {
				return r
			}
		}
	}
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return msg
	}
	return "pinning service returned " + status
}

func filename(contentType string) string {
	exts, _ := mime.ExtensionsByType(contentType)
	if len(exts) > 0 {
		return "upload" + exts[0]
	}
	return "upload"
}
