package content

import (
	"net/url"
	"strings"

	"github.com/chennaiartisanal/provenance/market/failure"
	"github.com/ipfs/go-cid"
)

const (
	SchemeIPFS = "ipfs"
	SchemeIPNS = "ipns"
)

// Pointer returns the persisted form of a CID, ipfs://<cid>.
func Pointer(c cid.Cid) string {
	return SchemeIPFS + "://" + c.String()
}

// Locate translates a content pointer into a fetchable URL under gateway.
// Accepted forms are scheme://id[/path] for ipfs and ipns, a bare CID, a
// /ipfs/ or /ipns/ path, and plain http(s) URLs which are returned as is.
func Locate(gateway *url.URL, pointer string) (string, error) {
	p := strings.TrimSpace(pointer)
	if p == "" {
		return "", failure.New(failure.ErrInvalidInput, "locate", "empty content pointer")
	}

	scheme, rest, ok := strings.Cut(p, "://")
	switch {
	case ok && (scheme == "http" || scheme == "https"):
		return p, nil
	case ok:
		scheme = strings.ToLower(scheme)
	case strings.HasPrefix(p, "/ipfs/"), strings.HasPrefix(p, "/ipns/"):
		scheme, rest, _ = strings.Cut(strings.TrimPrefix(p, "/"), "/")
	default:
		scheme, rest = SchemeIPFS, p
	}

	// ipfs://ipfs/<cid> shows up in older metadata.
	rest = strings.TrimPrefix(rest, scheme+"/")

	switch scheme {
	case SchemeIPFS:
		root, _, _ := strings.Cut(rest, "/")
		if _, err := cid.Decode(root); err != nil {
			return "", failure.Wrap(failure.ErrInvalidInput, "locate", err, "invalid content identifier "+root)
		}
	case SchemeIPNS:
		if rest == "" {
			return "", failure.New(failure.ErrInvalidInput, "locate", "empty ipns name")
		}
	default:
		return "", failure.New(failure.ErrInvalidInput, "locate", "unsupported pointer scheme "+scheme)
	}

	return gateway.JoinPath(scheme, rest).String(), nil
}
